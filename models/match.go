package models

// MatchEntry is one candidate in a match projection. Score is a rank key,
// not a percentage. Strict marks entries that also pass the all-fields-present
// eligibility rule.
type MatchEntry struct {
	ID     string `bson:"id" json:"id"`
	Score  int    `bson:"score" json:"score"`
	Strict bool   `bson:"strict,omitempty" json:"strict,omitempty"`
}

// MatchSourceKind tags which shape of match data a projection row carries.
type MatchSourceKind int

const (
	// SourceProjected means the row carries precomputed, pre-scored entries.
	SourceProjected MatchSourceKind = iota
	// SourceRawIDs means the row carries only a bare id list; scores are
	// unknown until the server-side recompute lands.
	SourceRawIDs
)

// MatchSource is the tagged union at the data-access boundary: either a
// projected entry array or a raw id list, resolved once when the index is
// built instead of null-checked in every consumer.
type MatchSource struct {
	Kind    MatchSourceKind
	Entries []MatchEntry
	IDs     []string
}

// Resolve turns the source into entries. Projected entries are returned
// verbatim (they arrive sorted and scored upstream); raw ids become score-0
// entries in list order so the UI has something to show before the
// authoritative scores arrive.
func (s MatchSource) Resolve() []MatchEntry {
	if s.Kind == SourceProjected {
		out := make([]MatchEntry, len(s.Entries))
		copy(out, s.Entries)
		return out
	}
	out := make([]MatchEntry, 0, len(s.IDs))
	for _, id := range s.IDs {
		out = append(out, MatchEntry{ID: id})
	}
	return out
}

// MatchListing is the server-maintained per-listing match projection:
// the buyers that fit one listing.
type MatchListing struct {
	ID              string       `bson:"_id" json:"id"`
	Matches         []MatchEntry `bson:"matches" json:"matches,omitempty"`
	MatchedBuyerIDs []string     `bson:"matchedBuyerIds" json:"matchedBuyerIds,omitempty"`
	DeletedAt       int64        `bson:"deletedAt" json:"deletedAt,omitempty"`
	CreatedAt       int64        `bson:"createdAt" json:"createdAt"`
	UpdatedAt       int64        `bson:"updatedAt" json:"updatedAt"`
}

func (m MatchListing) RowID() string       { return m.ID }
func (m MatchListing) RowDeletedAt() int64 { return m.DeletedAt }

// Source resolves the two-tier fallback: a non-empty precomputed array
// always wins over the bare id list.
func (m MatchListing) Source() MatchSource {
	if len(m.Matches) > 0 {
		return MatchSource{Kind: SourceProjected, Entries: m.Matches}
	}
	return MatchSource{Kind: SourceRawIDs, IDs: m.MatchedBuyerIDs}
}

// BuyerMatchSnapshot is the server-maintained per-buyer match projection:
// the listings that fit one buyer.
type BuyerMatchSnapshot struct {
	ID         string       `bson:"_id" json:"id"`
	Matches    []MatchEntry `bson:"matches" json:"matches,omitempty"`
	ListingIDs []string     `bson:"listingIds" json:"listingIds,omitempty"`
	DeletedAt  int64        `bson:"deletedAt" json:"deletedAt,omitempty"`
	CreatedAt  int64        `bson:"createdAt" json:"createdAt"`
	UpdatedAt  int64        `bson:"updatedAt" json:"updatedAt"`
}

func (b BuyerMatchSnapshot) RowID() string       { return b.ID }
func (b BuyerMatchSnapshot) RowDeletedAt() int64 { return b.DeletedAt }

func (b BuyerMatchSnapshot) Source() MatchSource {
	if len(b.Matches) > 0 {
		return MatchSource{Kind: SourceProjected, Entries: b.Matches}
	}
	return MatchSource{Kind: SourceRawIDs, IDs: b.ListingIDs}
}
