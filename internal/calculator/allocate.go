// Package calculator allocates a bill's items, coupons, tax and tip to its
// diners and settles the rounding remainder.
package calculator

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/metrics"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/shares"
)

// precision is the number of decimal places kept by intermediate divisions.
const precision = 24

// DefaultFairnessCutoff is the largest remainder per group member that is
// still spread over a group of diners with equal orders.
var DefaultFairnessCutoff = decimal.New(2, -2)

// Result summarizes one allocation pass.
type Result struct {
	// Totals are the bill-level figures the pass allocated.
	Totals models.Totals

	// UnallocatedAmount is the sum of items nobody holds a share of. When it
	// is nonzero the diners' amounts are left at zero.
	UnallocatedAmount decimal.Decimal

	// RoundedTotal is the sum of the diners' rounded amounts.
	RoundedTotal decimal.Decimal

	// Residue is the rounding error found after rounding to cents, before
	// settlement.
	Residue decimal.Decimal

	// ResidueLeft is whatever settlement could not hand to any diner.
	ResidueLeft decimal.Decimal

	// UnusedDiscount is coupon value no diner could absorb.
	UnusedDiscount decimal.Decimal

	// Placeholders counts diners synthesized for shares held by unknown slots.
	Placeholders int
}

// Option configures DistributeCosts.
type Option func(*allocator)

// WithFairnessCutoff overrides DefaultFairnessCutoff.
func WithFairnessCutoff(cutoff decimal.Decimal) Option {
	return func(a *allocator) {
		a.cutoff = cutoff
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *allocator) {
		a.logger = logger
	}
}

type allocator struct {
	cutoff decimal.Decimal
	logger *slog.Logger
}

// DistributeCosts recomputes every diner's amount from the bill's current
// items and rates, and records the outcome on the bill.
//
// It is idempotent and may be re-run at will, but must not run concurrently
// with edits to the same bill.
func DistributeCosts(bill *models.Bill, opts ...Option) Result {
	a := &allocator{cutoff: DefaultFairnessCutoff, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	res := a.distribute(bill)
	metrics.Allocations.Inc()
	if !res.Residue.IsZero() {
		metrics.SettlementResidue.Observe(res.Residue.Abs().InexactFloat64())
	}
	return res
}

func (a *allocator) distribute(b *models.Bill) Result {
	totals := b.Totals()
	res := Result{Totals: totals}

	b.UnallocatedAmount = decimal.Zero
	b.RoundingErrorLeft = decimal.Zero
	b.RoundedTotal = decimal.Zero
	b.DistributionAccurate = false

	if len(b.Costs) == 0 {
		return res
	}

	// Reset, making sure every slot that holds a share has a diner entry.
	res.Placeholders = a.addPlaceholders(b)
	var slots [shares.MaxDiners]*models.PersonCost
	for i := range b.Costs {
		c := &b.Costs[i]
		c.Reset()
		if c.DinerID.Valid() {
			slots[c.DinerID.Index()] = c
		}
	}

	// Per-item pass.
	unallocated := decimal.Zero
	for i := range b.Items {
		item := &b.Items[i]
		if !item.Shares.Allocated() {
			unallocated = unallocated.Add(item.Amount)
			continue
		}
		for idx, amount := range item.Shares.Amounts(item.Amount) {
			if amount.IsZero() {
				continue
			}
			c := slots[idx]
			switch {
			case amount.IsNegative():
				c.CouponAmount = c.CouponAmount.Add(amount.Neg())
			case item.Comped:
				c.CompedAmount = c.CompedAmount.Add(amount)
				c.OrderAmount = c.OrderAmount.Add(amount)
			default:
				c.OrderAmount = c.OrderAmount.Add(amount)
			}
		}
	}

	if !unallocated.IsZero() {
		a.logger.Debug("Bill has unallocated items", "bill", b.ID(), "unallocated", unallocated)
		for i := range b.Costs {
			roundAccumulators(&b.Costs[i])
		}
		b.UnallocatedAmount = unallocated
		b.RoundedTotal = models.RoundCents(totals.Total)
		res.UnallocatedAmount = unallocated
		res.RoundedTotal = b.RoundedTotal
		return res
	}

	// Pre-tax coupon normalization.
	preTaxSum := decimal.Zero
	for i := range b.Costs {
		c := &b.Costs[i]
		c.ChargedAmount = c.OrderAmount.Sub(c.CompedAmount)
		c.PreTaxCouponAmount = b.PreTaxCoupon(c.CouponAmount)
		c.Discount = c.CompedAmount.Add(c.PreTaxCouponAmount)
		c.UnusedCouponAmount = c.Discount
		preTaxSum = preTaxSum.Add(c.PreTaxCouponAmount)
	}

	// A coupon worth more than the bill is scaled down to the charged
	// amount, leaving nothing to tax.
	if totals.CouponOverflow && preTaxSum.IsPositive() {
		scale := totals.Charged.DivRound(preTaxSum, precision)
		a.logger.Debug("Coupons exceed bill, scaling down", "bill", b.ID(), "scale", scale)
		for i := range b.Costs {
			c := &b.Costs[i]
			c.CouponAmount = c.CouponAmount.Mul(scale)
			c.PreTaxCouponAmount = c.PreTaxCouponAmount.Mul(scale)
			c.Discount = c.CompedAmount.Add(c.PreTaxCouponAmount)
			c.UnusedCouponAmount = c.Discount
		}
	}

	// Discount against spend.
	for i := range b.Costs {
		c := &b.Costs[i]
		if c.Discount.LessThanOrEqual(c.OrderAmount) {
			c.Amount = c.OrderAmount.Sub(c.Discount)
			c.UnusedCouponAmount = decimal.Zero
		} else {
			c.Amount = decimal.Zero
			c.UnusedCouponAmount = c.Discount.Sub(c.OrderAmount)
		}
	}

	a.prorateTax(b, totals)
	a.prorateTip(b, totals)

	surplus := decimal.Zero
	for i := range b.Costs {
		c := &b.Costs[i]
		c.Amount = c.Amount.Add(c.TaxAmount).Add(c.TipAmount)
		if c.UnusedCouponAmount.IsPositive() && c.Amount.IsPositive() {
			used := decimal.Min(c.UnusedCouponAmount, c.Amount)
			c.Amount = c.Amount.Sub(used)
			c.UnusedCouponAmount = c.UnusedCouponAmount.Sub(used)
		}
		if c.Amount.IsNegative() {
			c.UnusedCouponAmount = c.UnusedCouponAmount.Add(c.Amount.Neg())
			c.Amount = decimal.Zero
		}
		surplus = surplus.Add(c.UnusedCouponAmount)
	}
	res.UnusedDiscount = a.absorbSurplus(b, surplus)

	// Rounding to cents.
	roundedSum := decimal.Zero
	paying := 0
	for i := range b.Costs {
		c := &b.Costs[i]
		roundAccumulators(c)
		roundedSum = roundedSum.Add(c.Amount)
		if c.Amount.IsPositive() {
			paying++
		}
	}
	residue := models.RoundCents(totals.Total).Sub(roundedSum)
	res.Residue = residue

	limit := models.Cent.Mul(decimal.NewFromInt(int64(max(1, paying))))
	if residue.Abs().GreaterThan(limit.Add(res.UnusedDiscount)) {
		a.logger.Warn("Rounding error larger than one cent per paying diner",
			"bill", b.ID(),
			"residue", residue,
			"paying_diners", paying,
		)
	}

	left := a.settle(b, residue)
	if !left.IsZero() {
		a.logger.Warn("Rounding remainder could not be settled",
			"bill", b.ID(),
			"remainder", left,
		)
	}

	total := decimal.Zero
	for i := range b.Costs {
		total = total.Add(b.Costs[i].Amount)
	}
	b.RoundedTotal = total
	b.RoundingErrorLeft = left
	b.DistributionAccurate = true

	res.RoundedTotal = total
	res.ResidueLeft = left
	return res
}

// addPlaceholders creates diner entries for slots that hold shares but have
// no PersonCost, which only happens with corrupt data.
func (a *allocator) addPlaceholders(b *models.Bill) int {
	var known [shares.MaxDiners]bool
	for i := range b.Costs {
		if b.Costs[i].DinerID.Valid() {
			known[b.Costs[i].DinerID.Index()] = true
		}
	}

	added := 0
	for i := range b.Items {
		for _, id := range b.Items[i].Shares.Diners() {
			if known[id.Index()] {
				continue
			}
			a.logger.Warn("Item shared by unknown diner, adding placeholder",
				"bill", b.ID(),
				"item", b.Items[i].Description,
				"diner_id", id,
			)
			b.Costs = append(b.Costs, models.NewPersonCost(id, ""))
			known[id.Index()] = true
			added++
		}
	}
	if added > 0 {
		b.SortCosts()
	}
	return added
}

// prorateTax sets each diner's TaxAmount. A diner's share follows what they
// were charged less their pre-tax coupons. When coupons are taken after tax
// and manual adjustments make the effective rate differ from the nominal
// one, a correction keeps the coupon's tax-inclusive face value intact.
func (a *allocator) prorateTax(b *models.Bill, t models.Totals) {
	if t.CouponOverflow || t.Tax.IsZero() {
		return
	}

	if !t.Taxable.IsPositive() {
		// Only a manual delta is left to pay: spread it by order.
		spread(b, t.Tax, func(c *models.PersonCost) decimal.Decimal { return c.OrderAmount },
			func(c *models.PersonCost, v decimal.Decimal) { c.TaxAmount = v })
		return
	}

	rate := t.Tax.DivRound(t.Taxable, precision)
	correction := decimal.Zero
	if b.CouponAfterTax {
		correction = rate.Sub(b.TaxRate)
	}
	for i := range b.Costs {
		c := &b.Costs[i]
		if c.OrderAmount.IsZero() && c.CouponAmount.IsZero() {
			continue
		}
		base := c.ChargedAmount
		if b.CouponAfterTax {
			base = base.Sub(c.PreTaxCouponAmount)
		} else {
			base = base.Sub(c.CouponAmount)
		}
		c.TaxAmount = base.Mul(rate)
		if !correction.IsZero() {
			c.TaxAmount = c.TaxAmount.Add(c.PreTaxCouponAmount.Mul(correction))
		}
	}
}

// prorateTip sets each diner's TipAmount in proportion to what they ordered,
// plus their tax when the tip is charged on tax.
func (a *allocator) prorateTip(b *models.Bill, t models.Totals) {
	if t.Tip.IsZero() {
		return
	}
	spread(b, t.Tip, func(c *models.PersonCost) decimal.Decimal {
		w := c.OrderAmount
		if b.TipOnTax && c.TaxAmount.IsPositive() {
			w = w.Add(c.TaxAmount)
		}
		return w
	}, func(c *models.PersonCost, v decimal.Decimal) { c.TipAmount = v })
}

// spread divides amount over the diners in proportion to weight. Diners with
// no positive weight get nothing; if nobody has weight nothing is assigned and
// the amount surfaces as rounding residue.
func spread(b *models.Bill, amount decimal.Decimal,
	weight func(*models.PersonCost) decimal.Decimal,
	assign func(*models.PersonCost, decimal.Decimal)) {
	sum := decimal.Zero
	for i := range b.Costs {
		if w := weight(&b.Costs[i]); w.IsPositive() {
			sum = sum.Add(w)
		}
	}
	if !sum.IsPositive() {
		return
	}
	for i := range b.Costs {
		c := &b.Costs[i]
		w := weight(c)
		if !w.IsPositive() {
			continue
		}
		assign(c, amount.Mul(w).DivRound(sum, precision))
	}
}

// absorbSurplus takes coupon value that a diner could not use on their own
// bill off everyone else's amount, in proportion to what they owe. It returns
// the part nobody could absorb.
func (a *allocator) absorbSurplus(b *models.Bill, surplus decimal.Decimal) decimal.Decimal {
	if !surplus.IsPositive() {
		return decimal.Zero
	}

	owed := decimal.Zero
	for i := range b.Costs {
		if b.Costs[i].Amount.IsPositive() {
			owed = owed.Add(b.Costs[i].Amount)
		}
	}
	if !owed.IsPositive() {
		return surplus
	}

	if owed.LessThanOrEqual(surplus) {
		for i := range b.Costs {
			if b.Costs[i].Amount.IsPositive() {
				b.Costs[i].Amount = decimal.Zero
			}
		}
		return surplus.Sub(owed)
	}

	keep := decimal.NewFromInt(1).Sub(surplus.DivRound(owed, precision))
	for i := range b.Costs {
		c := &b.Costs[i]
		if c.Amount.IsPositive() {
			c.Amount = c.Amount.Mul(keep)
		}
	}
	return decimal.Zero
}

func roundAccumulators(c *models.PersonCost) {
	c.OrderAmount = models.RoundCents(c.OrderAmount)
	c.CompedAmount = models.RoundCents(c.CompedAmount)
	c.CouponAmount = models.RoundCents(c.CouponAmount)
	c.PreTaxCouponAmount = models.RoundCents(c.PreTaxCouponAmount)
	c.Discount = models.RoundCents(c.Discount)
	c.UnusedCouponAmount = models.RoundCents(c.UnusedCouponAmount)
	c.ChargedAmount = models.RoundCents(c.ChargedAmount)
	c.TaxAmount = models.RoundCents(c.TaxAmount)
	c.TipAmount = models.RoundCents(c.TipAmount)
	c.Amount = models.RoundCents(c.Amount)
}
