package models

// CuratedSet is a hand-picked list of listings staff assemble to share with
// a buyer. It lives in its own collection but rides the same store pattern
// as everything else; no matching logic touches it.
type CuratedSet struct {
	ID         string   `bson:"_id" json:"id"`
	Name       string   `bson:"name" json:"name"`
	ListingIDs []string `bson:"listingIds" json:"listingIds,omitempty"`
	CreatedBy  string   `bson:"createdBy" json:"createdBy,omitempty"`
	DeletedAt  int64    `bson:"deletedAt" json:"deletedAt,omitempty"`
	CreatedAt  int64    `bson:"createdAt" json:"createdAt"`
	UpdatedAt  int64    `bson:"updatedAt" json:"updatedAt"`
}

func (c CuratedSet) RowID() string       { return c.ID }
func (c CuratedSet) RowDeletedAt() int64 { return c.DeletedAt }
