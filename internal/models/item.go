package models

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativePrice is returned for line items priced below zero.
	ErrNegativePrice = errors.New("price cannot be negative")
	// ErrInvalidQuantity is returned for line items with a quantity below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrNegativeCharge is returned when tax, service charge or discount is below zero.
	ErrNegativeCharge = errors.New("charge cannot be negative")
)

// LineItem represents a single priced entry on a receipt.
type LineItem struct {
	// Name is the item description as printed on the receipt (e.g., "Nasi Goreng").
	Name string `json:"name"`

	// Price is the line total for the item, not the unit price.
	Price decimal.Decimal `json:"price"`

	// Quantity is the number of units covered by Price.
	// Items with Quantity > 1 can be claimed unit by unit.
	Quantity int `json:"quantity"`
}

// NewLineItem builds a validated line item.
func NewLineItem(name string, price decimal.Decimal, quantity int) (LineItem, error) {
	item := LineItem{Name: name, Price: price, Quantity: quantity}
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	return item, nil
}

// Validate checks that the item's price and quantity are usable.
func (i LineItem) Validate() error {
	if i.Price.IsNegative() {
		return fmt.Errorf("item %q: %w", i.Name, ErrNegativePrice)
	}
	if i.Quantity < 1 {
		return fmt.Errorf("item %q: %w", i.Name, ErrInvalidQuantity)
	}
	return nil
}

// ValidateItems validates every item in order and returns the first failure.
func ValidateItems(items []LineItem) error {
	for idx, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", idx, err)
		}
	}
	return nil
}

// ItemID returns the identifier of the item at the given position.
func ItemID(index int) string {
	return strconv.Itoa(index)
}

// ItemIndex parses an item identifier back into a position.
// ok is false unless id is exactly what ItemID produces for some position,
// so "01", "+1" and "-1" are rejected.
func ItemIndex(id string) (int, bool) {
	idx, err := strconv.Atoi(id)
	if err != nil || idx < 0 || ItemID(idx) != id {
		return 0, false
	}
	return idx, true
}

// Charges are the receipt-level amounts distributed across participants
// in proportion to their assigned subtotal.
type Charges struct {
	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Discount      decimal.Decimal `json:"discount"`
}

// Validate rejects negative charges. Discount is expressed as a positive amount.
func (c Charges) Validate() error {
	switch {
	case c.Tax.IsNegative():
		return fmt.Errorf("tax: %w", ErrNegativeCharge)
	case c.ServiceCharge.IsNegative():
		return fmt.Errorf("service charge: %w", ErrNegativeCharge)
	case c.Discount.IsNegative():
		return fmt.Errorf("discount: %w", ErrNegativeCharge)
	}
	return nil
}
