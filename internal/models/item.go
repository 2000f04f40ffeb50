package models

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/shares"
)

// LineItem represents a single line on a bill.
type LineItem struct {
	// Description is the name of the item (e.g., "Pizza", "Beer").
	Description string `json:"description"`

	// Amount is the price of the line. A negative amount is a coupon or
	// discount.
	Amount decimal.Decimal `json:"amount"`

	// Comped items are free to the diner: they are left out of tax but still
	// count toward the tip.
	Comped bool `json:"comped,omitempty"`

	// Shares records which diners split this item and by how much.
	// Serialized in SharesList form, e.g. "112".
	Shares shares.Ledger `json:"shares"`
}

// NewLineItem creates an unshared item.
func NewLineItem(description string, amount decimal.Decimal) LineItem {
	return LineItem{Description: description, Amount: amount}
}

// IsCoupon reports whether the line reduces the bill.
func (i *LineItem) IsCoupon() bool {
	return i.Amount.IsNegative()
}

// SharesList returns the compact share encoding of the item.
func (i *LineItem) SharesList() string {
	return i.Shares.String()
}
