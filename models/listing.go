package models

import "strings"

// TransactionType is the normalized deal type of a listing. The raw `type`
// field in the remote store is free text (often Korean), so consumers go
// through NormalizeTransactionType rather than comparing the raw string.
type TransactionType string

const (
	TxSale    TransactionType = "sale"
	TxJeonse  TransactionType = "jeonse"
	TxMonthly TransactionType = "monthly-rent"
	TxUnknown TransactionType = ""
)

// OwnershipType says whose book the listing is on.
type OwnershipType string

const (
	OwnershipOur     OwnershipType = "our"
	OwnershipPartner OwnershipType = "partner"
)

// Listing is a property listing as stored in the remote listings collection.
// Numeric fields use pointers: nil means the figure is unknown, which is
// different from zero everywhere matching and filtering are concerned.
// Prices are in 만원 (ten-thousand KRW units), areas in 평 (py).
type Listing struct {
	ID          string        `bson:"_id" json:"id"`
	Title       string        `bson:"title" json:"title"`
	ComplexName string        `bson:"complexName" json:"complexName"`
	Dong        string        `bson:"dong" json:"dong"`
	Ho          string        `bson:"ho" json:"ho"`
	Type        string        `bson:"type" json:"type"`
	AreaPy      *float64      `bson:"areaPy" json:"areaPy,omitempty"`
	Price       *int64        `bson:"price" json:"price,omitempty"`
	Deposit     *int64        `bson:"deposit" json:"deposit,omitempty"`
	Monthly     *int64        `bson:"monthly" json:"monthly,omitempty"`
	Status      string        `bson:"status" json:"status"`
	ClosedByUs  bool          `bson:"closedByUs" json:"closedByUs"`
	ClosedAt    int64         `bson:"closedAt" json:"closedAt,omitempty"`
	DeletedAt   int64         `bson:"deletedAt" json:"deletedAt,omitempty"`
	Ownership   OwnershipType `bson:"ownership" json:"ownership,omitempty"`
	Urgent      bool          `bson:"urgent" json:"urgent"`
	Inactive    bool          `bson:"inactive" json:"inactive"`
	AssigneeID  string        `bson:"assigneeId" json:"assigneeId,omitempty"`
	Owner       string        `bson:"owner" json:"owner,omitempty"`
	OwnerPhone  string        `bson:"ownerPhone" json:"ownerPhone,omitempty"`
	Agency      string        `bson:"agency" json:"agency,omitempty"`
	Memo        string        `bson:"memo" json:"memo,omitempty"`
	ItemNo      string        `bson:"itemNo" json:"itemNo,omitempty"`
	Address     string        `bson:"address" json:"address,omitempty"`
	Keywords    []string      `bson:"keywords" json:"keywords,omitempty"`
	CreatedAt   int64         `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64         `bson:"updatedAt" json:"updatedAt"`
}

func (l Listing) RowID() string       { return l.ID }
func (l Listing) RowDeletedAt() int64 { return l.DeletedAt }

// TransactionType returns the normalized deal type of the raw type text.
func (l Listing) TransactionType() TransactionType {
	return NormalizeTransactionType(l.Type)
}

// ComparePrice resolves the figure a buyer's budget is compared against:
// sale price for sales, deposit (falling back to price) for jeonse, and the
// deposit for monthly rentals. Returns nil when the listing carries no
// usable figure for its type.
func (l Listing) ComparePrice() *int64 {
	switch l.TransactionType() {
	case TxSale:
		return l.Price
	case TxJeonse:
		if l.Deposit != nil {
			return l.Deposit
		}
		return l.Price
	case TxMonthly:
		return l.Deposit
	}
	return nil
}

var saleWords = []string{"sale", "매매"}
var jeonseWords = []string{"jeonse", "전세"}
var monthlyWords = []string{"monthly", "월세", "rent"}

// NormalizeTransactionType maps the free-text type field onto one of the
// three transaction types. Unrecognized text maps to TxUnknown.
func NormalizeTransactionType(raw string) TransactionType {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return TxUnknown
	}
	for _, w := range saleWords {
		if strings.Contains(s, w) {
			return TxSale
		}
	}
	for _, w := range jeonseWords {
		if strings.Contains(s, w) {
			return TxJeonse
		}
	}
	for _, w := range monthlyWords {
		if strings.Contains(s, w) {
			return TxMonthly
		}
	}
	return TxUnknown
}
