package models

// SortKey names a sortable listing attribute.
type SortKey string

const (
	SortPrice     SortKey = "price"
	SortDeposit   SortKey = "deposit"
	SortMonthly   SortKey = "monthly"
	SortArea      SortKey = "area"
	SortComplex   SortKey = "complex"
	SortTitle     SortKey = "title"
	SortItemNo    SortKey = "itemNo"
	SortCreatedAt SortKey = "createdAt"
	SortUpdatedAt SortKey = "updatedAt"
)

// SortDirection is "asc" or "desc".
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortCriterion is one sort instruction. At most two are active at once
// (primary + secondary); a secondary without a primary is invalid and the
// engine ignores the pair.
type SortCriterion struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// ViewMode selects which lifecycle slice of the roster a view shows.
type ViewMode string

const (
	// ModeLead bypasses all status filtering (unfiltered roster).
	ModeLead ViewMode = "lead"
	// ModeListings keeps only active, non-closed rows.
	ModeListings ViewMode = "listings"
	// ModeCompleted keeps only closed rows.
	ModeCompleted ViewMode = "completed"
	// ModeOurDeals keeps only closed rows we closed ourselves.
	ModeOurDeals ViewMode = "ourdeals"
)

// ListingFilters is the session-local filter state a roster view holds.
// Range bounds are kept as raw strings exactly as typed (with thousands
// separators and all) and parsed leniently by the engine. Never persisted
// server-side.
type ListingFilters struct {
	Query        string          `json:"query"`
	Type         TransactionType `json:"type"`
	Ownership    OwnershipType   `json:"ownership"`
	UrgentOnly   bool            `json:"urgentOnly"`
	AssigneeID   string          `json:"assigneeId"`
	AreaPick     *float64        `json:"areaPick,omitempty"`
	ComplexQuery string          `json:"complexQuery"`
	Complexes    []string        `json:"complexes,omitempty"`
	PriceMin     string          `json:"priceMin"`
	PriceMax     string          `json:"priceMax"`
	DepositMin   string          `json:"depositMin"`
	DepositMax   string          `json:"depositMax"`
	MonthlyMin   string          `json:"monthlyMin"`
	MonthlyMax   string          `json:"monthlyMax"`
	Sort         []SortCriterion `json:"sort,omitempty"`
}

// NewListingFilters returns the default (empty) filter state.
func NewListingFilters() ListingFilters {
	return ListingFilters{}
}

// FilterOptions adjusts the mode gate for special roster views.
type FilterOptions struct {
	// AllowInactive keeps inactive rows in "listings" mode.
	AllowInactive bool
	// ShowInactiveOnly inverts the active-flag check (trash/inactive roster).
	ShowInactiveOnly bool
}
