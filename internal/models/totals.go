package models

import "github.com/shopspring/decimal"

// Totals are the bill-level figures derived from a bill's items and rates.
type Totals struct {
	// Ordered is the sum of all positive lines, comped ones included.
	Ordered decimal.Decimal
	// Comped is the sum of positive comped lines.
	Comped decimal.Decimal
	// Coupons is the face value of all negative lines, as a positive number.
	Coupons decimal.Decimal
	// Charged is Ordered less Comped.
	Charged decimal.Decimal
	// PreTaxCoupons is Coupons with any included tax taken out.
	PreTaxCoupons decimal.Decimal
	// Taxable is the amount tax is charged on.
	Taxable decimal.Decimal
	// Tax includes TaxDelta. Zero when coupons exceed the bill.
	Tax decimal.Decimal
	// TipBase is the amount the tip rate applies to.
	TipBase decimal.Decimal
	// Tip includes TipDelta.
	Tip decimal.Decimal
	// Total is what the table pays the restaurant, before cents rounding of
	// the diners' shares.
	Total decimal.Decimal
	// CouponOverflow is set when coupons are worth more than the charged
	// items. Coupons are then capped at Charged and no tax is due.
	CouponOverflow bool
}

// Totals computes the bill-level figures. Tax and the rate-based part of the
// tip are rounded half up to the cent; everything else is exact.
func (b *Bill) Totals() Totals {
	var t Totals
	for i := range b.Items {
		item := &b.Items[i]
		switch {
		case item.Amount.IsNegative():
			t.Coupons = t.Coupons.Add(item.Amount.Neg())
		case item.Comped:
			t.Comped = t.Comped.Add(item.Amount)
			t.Ordered = t.Ordered.Add(item.Amount)
		default:
			t.Ordered = t.Ordered.Add(item.Amount)
		}
	}
	t.Charged = t.Ordered.Sub(t.Comped)
	t.PreTaxCoupons = b.PreTaxCoupon(t.Coupons)

	if t.PreTaxCoupons.GreaterThan(t.Charged) {
		t.CouponOverflow = true
		t.Taxable = decimal.Zero
		t.Tax = decimal.Zero
		t.TipBase = t.Ordered
		t.Tip = RoundHalfUp(t.TipBase.Mul(b.TipRate)).Add(b.TipDelta)
		t.Total = t.Tip
		return t
	}

	t.Taxable = t.Charged
	if !b.CouponAfterTax {
		t.Taxable = t.Taxable.Sub(t.Coupons)
	}
	t.Tax = RoundHalfUp(t.Taxable.Mul(b.TaxRate)).Add(b.TaxDelta)

	t.TipBase = t.Ordered
	if b.TipOnTax {
		t.TipBase = t.TipBase.Add(t.Tax)
	}
	t.Tip = RoundHalfUp(t.TipBase.Mul(b.TipRate)).Add(b.TipDelta)

	t.Total = t.Charged.Sub(t.Coupons).Add(t.Tax).Add(t.Tip)
	return t
}

// PreTaxCoupon converts a coupon's face value to its pre-tax equivalent. Only
// after-tax coupons carry tax.
func (b *Bill) PreTaxCoupon(coupon decimal.Decimal) decimal.Decimal {
	if !b.CouponAfterTax || coupon.IsZero() {
		return coupon
	}
	return coupon.DivRound(decimal.NewFromInt(1).Add(b.TaxRate), 24)
}

// TotalAmount returns the grand total the diners owe together.
func (b *Bill) TotalAmount() decimal.Decimal {
	return b.Totals().Total
}
