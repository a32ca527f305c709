package models

// Buyer is a prospective buyer as stored in the remote buyers collection.
// All constraint fields are optional; a nil pointer or empty slice means the
// buyer imposes no constraint on that axis.
type Buyer struct {
	ID          string    `bson:"_id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Phone       string    `bson:"phone" json:"phone,omitempty"`
	TypePrefs   []string  `bson:"typePrefs" json:"typePrefs,omitempty"`
	BudgetMin   *int64    `bson:"budgetMin" json:"budgetMin,omitempty"`
	BudgetMax   *int64    `bson:"budgetMax" json:"budgetMax,omitempty"`
	MonthlyMax  *int64    `bson:"monthlyMax" json:"monthlyMax,omitempty"`
	AreaMinPy   *float64  `bson:"areaMinPy" json:"areaMinPy,omitempty"`
	AreaMaxPy   *float64  `bson:"areaMaxPy" json:"areaMaxPy,omitempty"`
	AreaPrefsPy []float64 `bson:"areaPrefsPy" json:"areaPrefsPy,omitempty"`
	Status      string    `bson:"status" json:"status"`
	AssigneeID  string    `bson:"assigneeId" json:"assigneeId,omitempty"`
	Memo        string    `bson:"memo" json:"memo,omitempty"`
	DeletedAt   int64     `bson:"deletedAt" json:"deletedAt,omitempty"`
	CreatedAt   int64     `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64     `bson:"updatedAt" json:"updatedAt"`
}

func (b Buyer) RowID() string       { return b.ID }
func (b Buyer) RowDeletedAt() int64 { return b.DeletedAt }

// TypePreferences returns the buyer's normalized transaction-type
// preferences, dropping entries that normalize to nothing.
func (b Buyer) TypePreferences() []TransactionType {
	if len(b.TypePrefs) == 0 {
		return nil
	}
	prefs := make([]TransactionType, 0, len(b.TypePrefs))
	for _, raw := range b.TypePrefs {
		if tx := NormalizeTransactionType(raw); tx != TxUnknown {
			prefs = append(prefs, tx)
		}
	}
	return prefs
}

// HasAreaConstraint reports whether the buyer constrains area at all,
// either through a min/max band or discrete preferred sizes.
func (b Buyer) HasAreaConstraint() bool {
	return b.AreaMinPy != nil || b.AreaMaxPy != nil || len(b.AreaPrefsPy) > 0
}

// HasBudget reports whether the buyer declared at least one budget bound.
func (b Buyer) HasBudget() bool {
	return b.BudgetMin != nil || b.BudgetMax != nil
}
