package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/models"
)

// settle hands the cents-rounding residue to diners so the rounded amounts
// add up to the rounded total. Diners whose orders are equal are treated
// alike where the residue allows it. It returns what could not be placed.
func (a *allocator) settle(b *models.Bill, residue decimal.Decimal) decimal.Decimal {
	if residue.IsZero() {
		return residue
	}

	candidates := settlementCandidates(b)
	groups := groupByOrder(candidates)

	// Spread small residues evenly over groups of equal orders.
	for _, g := range groups {
		if residue.IsZero() {
			break
		}
		k := int64(len(g))
		if k < 2 || residue.Abs().GreaterThan(a.cutoff.Mul(decimal.NewFromInt(k))) {
			continue
		}
		per := models.FromCents(models.Cents(residue) / k)
		if per.IsZero() || !allStayNonNegative(g, per) {
			continue
		}
		for _, c := range g {
			c.Amount = c.Amount.Add(per)
		}
		residue = residue.Sub(per.Mul(decimal.NewFromInt(k)))
		a.logger.Debug("Spread rounding residue over equal orders",
			"bill", b.ID(),
			"order", g[0].OrderAmount,
			"per_diner", per,
		)
	}
	if residue.IsZero() {
		return residue
	}

	// A diner with a unique order takes the rest, so equal orders stay equal.
	for _, g := range groups {
		if len(g) == 1 && takeResidue(g[0], residue) {
			return decimal.Zero
		}
	}

	for _, c := range candidates {
		if takeResidue(c, residue) {
			return decimal.Zero
		}
	}
	return residue
}

// settlementCandidates returns the diners that ordered something, or every
// diner if nobody did, in storage order.
func settlementCandidates(b *models.Bill) []*models.PersonCost {
	var out []*models.PersonCost
	for i := range b.Costs {
		if !b.Costs[i].OrderAmount.IsZero() {
			out = append(out, &b.Costs[i])
		}
	}
	if len(out) == 0 {
		for i := range b.Costs {
			out = append(out, &b.Costs[i])
		}
	}
	return out
}

// groupByOrder groups diners by rounded order amount, keeping the order in
// which each amount first appears.
func groupByOrder(costs []*models.PersonCost) [][]*models.PersonCost {
	index := make(map[string]int)
	var groups [][]*models.PersonCost
	for _, c := range costs {
		key := c.OrderAmount.StringFixed(2)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], c)
	}
	return groups
}

func allStayNonNegative(costs []*models.PersonCost, delta decimal.Decimal) bool {
	for _, c := range costs {
		if c.Amount.Add(delta).IsNegative() {
			return false
		}
	}
	return true
}

func takeResidue(c *models.PersonCost, residue decimal.Decimal) bool {
	next := c.Amount.Add(residue)
	if next.IsNegative() {
		return false
	}
	c.Amount = next
	return true
}
