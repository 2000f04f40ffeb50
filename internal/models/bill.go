package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/shares"
)

// IDLayout is the time layout of a bill ID. IDs sort lexically in creation
// order, so descending ID order lists the newest bill first.
const IDLayout = "20060102150405"

var (
	ErrTooManyDiners = errors.New("bill already has the maximum number of diners")
	ErrUnknownDiner  = errors.New("diner not on bill")
	ErrItemIndex     = errors.New("item index out of range")
)

// Bill is a restaurant bill: items, the diners splitting it, and the rates
// used to add tax and tip.
type Bill struct {
	// CreationTime identifies the bill; see ID.
	CreationTime time.Time `json:"creation_time"`

	// LastChangeTime is when the bill was last edited.
	LastChangeTime time.Time `json:"last_change_time"`

	// Venue is where the meal was.
	Venue string `json:"venue,omitempty"`

	// Items are the bill's lines, in receipt order.
	Items []LineItem `json:"items"`

	// Costs holds one entry per diner in ascending DinerID order.
	Costs []PersonCost `json:"costs"`

	// TaxRate and TipRate are fractions (0.0875 for 8.75%).
	TaxRate decimal.Decimal `json:"tax_rate"`
	TipRate decimal.Decimal `json:"tip_rate"`

	// TipOnTax adds the tax to the tip basis.
	TipOnTax bool `json:"tip_on_tax,omitempty"`

	// CouponAfterTax means coupon lines are tax-inclusive values taken off
	// the taxed total rather than off the taxable amount.
	CouponAfterTax bool `json:"coupon_after_tax,omitempty"`

	// TaxDelta and TipDelta are manual adjustments to the computed tax and tip.
	TaxDelta decimal.Decimal `json:"tax_delta"`
	TipDelta decimal.Decimal `json:"tip_delta"`

	// PayerID is the diner who paid the restaurant, if recorded.
	PayerID shares.DinerID `json:"payer_id,omitempty"`

	// ImageName is the stored receipt image belonging to this bill.
	ImageName string `json:"image_name,omitempty"`

	// Frozen bills have a persisted snapshot and must fork before any edit.
	Frozen bool `json:"frozen,omitempty"`

	// Allocation outputs written by calculator.DistributeCosts.
	UnallocatedAmount    decimal.Decimal `json:"-"`
	RoundedTotal         decimal.Decimal `json:"-"`
	RoundingErrorLeft    decimal.Decimal `json:"-"`
	DistributionAccurate bool            `json:"-"`

	// Saved records the storage tiers holding the current state.
	Saved Tier `json:"-"`

	// Revision increments on every change and lets background savers detect
	// edits that raced with them.
	Revision uint64 `json:"-"`

	// ImageSource is an image still to be copied into ImageName after a fork.
	ImageSource string `json:"-"`

	// Size is the persisted size in bytes, -1 for a bad bill.
	Size int64 `json:"-"`

	// BadReason explains why a persisted bill could not be read.
	BadReason string `json:"-"`
}

// NewBill creates an empty active bill created at now.
func NewBill(now time.Time) *Bill {
	now = now.Truncate(time.Second)
	return &Bill{
		CreationTime:   now,
		LastChangeTime: now,
		TaxRate:        decimal.Zero,
		TipRate:        decimal.Zero,
	}
}

// NewBadBill returns the placeholder used for a persisted bill that is empty
// or cannot be decoded.
func NewBadBill(id, reason string) *Bill {
	b := &Bill{Frozen: true, Size: -1, BadReason: reason, Saved: AllTiers}
	if t, err := ParseID(id); err == nil {
		b.CreationTime = t
		b.LastChangeTime = t
	}
	return b
}

// ParseID converts a bill ID back to its creation time.
func ParseID(id string) (time.Time, error) {
	t, err := time.ParseInLocation(IDLayout, id, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid bill id %q: %w", id, err)
	}
	return t, nil
}

// ID returns the bill's identity, its creation time as yyyyMMddHHmmss.
func (b *Bill) ID() string {
	return b.CreationTime.Format(IDLayout)
}

// IsBad reports whether this is a bad-bill placeholder.
func (b *Bill) IsBad() bool {
	return b.Size < 0
}

// Title returns the venue, or a title generated from the diners.
func (b *Bill) Title() string {
	if b.Venue != "" {
		return b.Venue
	}
	names := make([]string, 0, len(b.Costs))
	for i := range b.Costs {
		names = append(names, b.Costs[i].Name())
	}
	return generateTitle(names, b.CreationTime)
}

// IdleFor returns how long the bill has gone without an edit.
func (b *Bill) IdleFor(now time.Time) time.Duration {
	return now.Sub(b.LastChangeTime)
}

// Clone returns a deep copy of the bill.
func (b *Bill) Clone() *Bill {
	c := *b
	c.Items = append([]LineItem(nil), b.Items...)
	c.Costs = append([]PersonCost(nil), b.Costs...)
	return &c
}

// Fork copies the bill into a new active bill created at now. The fork keeps
// every item and diner, starts unsaved, and takes over the receipt image by
// copy. Its creation time is moved forward if needed so it never shares an ID
// with the source.
func (b *Bill) Fork(now time.Time) *Bill {
	f := b.Clone()
	f.CreationTime = nextCreationTime(b.CreationTime, now)
	f.LastChangeTime = now
	f.Frozen = false
	f.Saved = 0
	f.Revision = 0
	f.Size = 0
	f.BadReason = ""
	if b.ImageName != "" {
		f.ImageSource = b.ImageName
		f.ImageName = ""
	}
	return f
}

// Successor starts a new, empty bill at now that carries over the venue,
// diners and rates of b.
func (b *Bill) Successor(now time.Time) *Bill {
	s := NewBill(now)
	s.CreationTime = nextCreationTime(b.CreationTime, now)
	s.LastChangeTime = now
	s.Venue = b.Venue
	s.TaxRate = b.TaxRate
	s.TipRate = b.TipRate
	s.TipOnTax = b.TipOnTax
	s.CouponAfterTax = b.CouponAfterTax
	for i := range b.Costs {
		c := b.Costs[i]
		s.Costs = append(s.Costs, PersonCost{
			DinerID:    c.DinerID,
			PersonGUID: c.PersonGUID,
			Nickname:   c.Nickname,
			GUID:       c.GUID,
		})
	}
	return s
}

func nextCreationTime(prev, now time.Time) time.Time {
	now = now.Truncate(time.Second)
	prev = prev.Truncate(time.Second)
	if !now.After(prev) {
		return prev.Add(time.Second)
	}
	return now
}

// Cost returns the diner's entry, or nil.
func (b *Bill) Cost(id shares.DinerID) *PersonCost {
	for i := range b.Costs {
		if b.Costs[i].DinerID == id {
			return &b.Costs[i]
		}
	}
	return nil
}

// DinerIDs returns the diners on the bill in storage order.
func (b *Bill) DinerIDs() []shares.DinerID {
	ids := make([]shares.DinerID, len(b.Costs))
	for i := range b.Costs {
		ids[i] = b.Costs[i].DinerID
	}
	return ids
}

// AddDiner adds a diner in the lowest free slot.
func (b *Bill) AddDiner(nickname string) (*PersonCost, error) {
	var used [shares.MaxDiners]bool
	for i := range b.Costs {
		if b.Costs[i].DinerID.Valid() {
			used[b.Costs[i].DinerID.Index()] = true
		}
	}
	for i, u := range used {
		if u {
			continue
		}
		b.Costs = append(b.Costs, NewPersonCost(shares.DinerAt(i), nickname))
		b.SortCosts()
		return b.Cost(shares.DinerAt(i)), nil
	}
	return nil, ErrTooManyDiners
}

// RemoveDiner removes the diner and every share they held.
func (b *Bill) RemoveDiner(id shares.DinerID) error {
	idx := -1
	for i := range b.Costs {
		if b.Costs[i].DinerID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownDiner, id)
	}
	b.Costs = append(b.Costs[:idx], b.Costs[idx+1:]...)
	for i := range b.Items {
		if _, err := b.Items[i].Shares.Set(id, 0); err != nil {
			return err
		}
	}
	if b.PayerID == id {
		b.PayerID = shares.NoDiner
	}
	return nil
}

// SortCosts orders Costs by ascending DinerID.
func (b *Bill) SortCosts() {
	sort.SliceStable(b.Costs, func(i, j int) bool {
		return b.Costs[i].DinerID < b.Costs[j].DinerID
	})
}

// Resequence renumbers the diners 1..n in their current order and moves
// their item shares along with them, leaving no gaps.
func (b *Bill) Resequence() error {
	b.SortCosts()
	for i := range b.Costs {
		from := b.Costs[i].DinerID
		to := shares.DinerAt(i)
		if from == to {
			continue
		}
		for j := range b.Items {
			if err := b.Items[j].Shares.Transfer(from, to); err != nil {
				return err
			}
		}
		if b.PayerID == from {
			b.PayerID = to
		}
		b.Costs[i].DinerID = to
	}
	return nil
}

// Item returns a pointer to the item at index.
func (b *Bill) Item(index int) (*LineItem, error) {
	if index < 0 || index >= len(b.Items) {
		return nil, fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	return &b.Items[index], nil
}

// generateTitle creates an auto-generated title from diner names.
func generateTitle(names []string, created time.Time) string {
	if len(names) == 0 {
		return fmt.Sprintf("Bill - %s", created.Format("Jan 2, 2006"))
	}
	if len(names) <= 3 {
		return fmt.Sprintf("Split with %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("Split with %s and %d others",
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
