package lifecycle

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/shares"
)

// Rates are the bill-wide settings that feed tax and tip.
type Rates struct {
	TaxRate        decimal.Decimal
	TipRate        decimal.Decimal
	TipOnTax       bool
	CouponAfterTax bool
	TaxDelta       decimal.Decimal
	TipDelta       decimal.Decimal
}

// SetShares gives diner count shares of the item at index. Setting the count
// a diner already holds is not an edit.
func (s *Session) SetShares(index int, diner shares.DinerID, count int) (shares.Change, error) {
	var change shares.Change
	_, err := s.Mutate(func(b *models.Bill) (bool, error) {
		item, err := b.Item(index)
		if err != nil {
			return false, err
		}
		if b.Cost(diner) == nil {
			return false, models.ErrUnknownDiner
		}
		change, err = item.Shares.Set(diner, count)
		return change.Any(), err
	})
	return change, err
}

// ShareEvenly gives every diner on the bill one share of the item at index.
func (s *Session) ShareEvenly(index int) (bool, error) {
	return s.Mutate(func(b *models.Bill) (bool, error) {
		item, err := b.Item(index)
		if err != nil {
			return false, err
		}
		before := item.Shares
		item.Shares.ShareEvenly(b.DinerIDs())
		return before != item.Shares, nil
	})
}

// ShareByCost shares the item at index in proportion to what each diner
// ordered.
func (s *Session) ShareByCost(index int) (bool, error) {
	return s.Mutate(func(b *models.Bill) (bool, error) {
		change, err := calculator.ShareByCost(b, index)
		return change.Any(), err
	})
}

// AddItem appends an item and returns its index.
func (s *Session) AddItem(item models.LineItem) (int, error) {
	index := -1
	_, err := s.Mutate(func(b *models.Bill) (bool, error) {
		b.Items = append(b.Items, item)
		index = len(b.Items) - 1
		return true, nil
	})
	return index, err
}

// UpdateItem changes the description, amount and comped flag of an item.
func (s *Session) UpdateItem(index int, description string, amount decimal.Decimal, comped bool) (bool, error) {
	return s.Mutate(func(b *models.Bill) (bool, error) {
		item, err := b.Item(index)
		if err != nil {
			return false, err
		}
		if item.Description == description && item.Amount.Equal(amount) && item.Comped == comped {
			return false, nil
		}
		item.Description = description
		item.Amount = amount
		item.Comped = comped
		return true, nil
	})
}

// RemoveItem deletes the item at index.
func (s *Session) RemoveItem(index int) error {
	_, err := s.Mutate(func(b *models.Bill) (bool, error) {
		if _, err := b.Item(index); err != nil {
			return false, err
		}
		b.Items = append(b.Items[:index], b.Items[index+1:]...)
		return true, nil
	})
	return err
}

// SetVenue renames the venue and asks for a snapshot, since the venue is what
// the bill is listed by.
func (s *Session) SetVenue(venue string) (bool, error) {
	changed, err := s.Mutate(func(b *models.Bill) (bool, error) {
		if b.Venue == venue {
			return false, nil
		}
		b.Venue = venue
		return true, nil
	})
	if changed {
		s.RequestSnapshot()
	}
	return changed, err
}

// AddDiner adds a diner in the lowest free slot.
func (s *Session) AddDiner(nickname, personGUID string) (shares.DinerID, error) {
	var id shares.DinerID
	_, err := s.Mutate(func(b *models.Bill) (bool, error) {
		c, err := b.AddDiner(nickname)
		if err != nil {
			return false, err
		}
		c.PersonGUID = personGUID
		id = c.DinerID
		return true, nil
	})
	return id, err
}

// RemoveDiner removes a diner and their shares.
func (s *Session) RemoveDiner(id shares.DinerID) error {
	_, err := s.Mutate(func(b *models.Bill) (bool, error) {
		return true, b.RemoveDiner(id)
	})
	return err
}

// Resequence renumbers the diners without gaps.
func (s *Session) Resequence() error {
	_, err := s.Mutate(func(b *models.Bill) (bool, error) {
		before := b.DinerIDs()
		if err := b.Resequence(); err != nil {
			return false, err
		}
		for i, id := range b.DinerIDs() {
			if before[i] != id {
				return true, nil
			}
		}
		return false, nil
	})
	return err
}

// SetPayer records who paid the restaurant.
func (s *Session) SetPayer(id shares.DinerID) (bool, error) {
	return s.Mutate(func(b *models.Bill) (bool, error) {
		if id != shares.NoDiner && b.Cost(id) == nil {
			return false, models.ErrUnknownDiner
		}
		if b.PayerID == id {
			return false, nil
		}
		b.PayerID = id
		return true, nil
	})
}

// SetRates replaces the tax and tip settings.
func (s *Session) SetRates(r Rates) (bool, error) {
	return s.Mutate(func(b *models.Bill) (bool, error) {
		if b.TaxRate.Equal(r.TaxRate) && b.TipRate.Equal(r.TipRate) &&
			b.TipOnTax == r.TipOnTax && b.CouponAfterTax == r.CouponAfterTax &&
			b.TaxDelta.Equal(r.TaxDelta) && b.TipDelta.Equal(r.TipDelta) {
			return false, nil
		}
		b.TaxRate = r.TaxRate
		b.TipRate = r.TipRate
		b.TipOnTax = r.TipOnTax
		b.CouponAfterTax = r.CouponAfterTax
		b.TaxDelta = r.TaxDelta
		b.TipDelta = r.TipDelta
		return true, nil
	})
}
