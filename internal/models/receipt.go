package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoItems is returned when a receipt is created without any line items.
var ErrNoItems = errors.New("receipt must have at least one item")

// Receipt represents one receipt together with its split state.
// It is the document persisted by the storage layer.
type Receipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string `json:"id"`

	// UserID identifies the device or user that owns the receipt.
	UserID string `json:"userId"`

	// ImageURL points at the uploaded receipt image.
	// Manually entered receipts use a placeholder.
	ImageURL string `json:"imageUrl"`

	// RawText is the text extracted from the image, if any.
	RawText string `json:"rawText,omitempty"`

	// Data holds the latest (possibly user-corrected) receipt contents.
	Data ReceiptData `json:"data"`

	// Participants and Assignments are the persisted split state,
	// stored verbatim as produced by the assignment store.
	Participants []Participant `json:"participants"`
	Assignments  []Assignment  `json:"assignments"`

	// CreatedAt is the Unix timestamp when the receipt was created.
	CreatedAt int64 `json:"createdAt"`

	// UpdatedAt is the Unix timestamp of the last modification.
	UpdatedAt int64 `json:"updatedAt"`
}

// ReceiptData is the structured content of a receipt.
type ReceiptData struct {
	MerchantName string `json:"merchantName"`

	// Date is the Unix timestamp printed on the receipt, 0 when unknown.
	Date int64 `json:"date,omitempty"`

	// Total is the amount printed on the receipt. It is informational only;
	// splits are computed from Items and the charges.
	Total decimal.Decimal `json:"total"`

	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Discount      decimal.Decimal `json:"discount"`

	Items []LineItem `json:"items"`
}

// Charges returns the aggregate charges of the receipt.
func (d ReceiptData) Charges() Charges {
	return Charges{
		Tax:           d.Tax,
		ServiceCharge: d.ServiceCharge,
		Discount:      d.Discount,
	}
}

// Validate checks items and charges.
func (d ReceiptData) Validate() error {
	if err := ValidateItems(d.Items); err != nil {
		return err
	}
	return d.Charges().Validate()
}

// ItemQuantity returns the quantity of the item with the given id.
// Unknown ids report a quantity of 1.
func (d ReceiptData) ItemQuantity(itemID string) int {
	idx, ok := ItemIndex(itemID)
	if !ok || idx >= len(d.Items) {
		return 1
	}
	return d.Items[idx].Quantity
}
