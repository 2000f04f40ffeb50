package calculator

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/shares"
)

// ErrNoSpend is returned by ShareByCost when no diner has ordered anything
// to weigh the item by.
var ErrNoSpend = errors.New("no diner has ordered anything")

// ShareByCost sets the shares of the item at index in proportion to what
// each diner ordered across the bill's other items. It is how a bill-wide
// coupon or service charge is split fairly.
func ShareByCost(b *models.Bill, index int) (shares.Change, error) {
	target, err := b.Item(index)
	if err != nil {
		return 0, err
	}

	var spent [shares.MaxDiners]decimal.Decimal
	found := false
	for i := range b.Items {
		item := &b.Items[i]
		if i == index || !item.Amount.IsPositive() || !item.Shares.Allocated() {
			continue
		}
		for idx, amount := range item.Shares.Amounts(item.Amount) {
			if amount.IsPositive() {
				spent[idx] = spent[idx].Add(amount)
				found = true
			}
		}
	}
	if !found {
		return 0, ErrNoSpend
	}

	return target.Shares.Apply(shares.CostsToShares(spent)), nil
}
