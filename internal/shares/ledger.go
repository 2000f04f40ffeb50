// Package shares records which diners hold how many shares of a line item and
// splits the item's amount between them.
//
// A diner either holds no share of an item, or holds one implicit share plus
// up to eight extra shares. The compact textual form (see Ledger.String) uses
// one digit per diner, so a single diner never holds more than nine shares.
package shares

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MaxDiners is the number of diner slots a bill can hold.
	MaxDiners = 10

	// MaxShares is the largest share count a single diner can hold on one item.
	MaxShares = 9

	// divisionPlaces is the number of decimal places kept when an amount is
	// divided between sharers. Only the final allocation rounds to cents.
	divisionPlaces = 24
)

var (
	ErrInvalidDiner  = errors.New("diner id out of range")
	ErrInvalidShares = errors.New("share count out of range")
)

// DinerID identifies a participant slot in a bill, 1 through MaxDiners.
// The zero value means "no diner".
type DinerID uint8

// NoDiner is the unset DinerID.
const NoDiner DinerID = 0

// DinerAt returns the DinerID stored at the given slot index.
func DinerAt(index int) DinerID {
	return DinerID(index + 1)
}

// Index returns the slot index used for array access.
func (d DinerID) Index() int {
	return int(d) - 1
}

// Valid reports whether d names one of the MaxDiners slots.
func (d DinerID) Valid() bool {
	return d >= 1 && d <= MaxDiners
}

// Change reports which parts of a ledger a mutation touched, so callers can
// skip recomputation when nothing relevant moved.
type Change uint8

const (
	// FlagChanged means a diner started or stopped holding a share.
	FlagChanged Change = 1 << iota
	// ExtraChanged means a diner's extra share count changed.
	ExtraChanged
)

// Any reports whether anything changed.
func (c Change) Any() bool {
	return c != 0
}

// Ledger holds the share state of one line item.
//
// Invariant: extra[i] > 0 implies flags[i].
type Ledger struct {
	flags [MaxDiners]bool
	extra [MaxDiners]byte
}

// Get returns the number of shares diner id holds, 0 if none.
func (l *Ledger) Get(id DinerID) int {
	if !id.Valid() {
		return 0
	}
	i := id.Index()
	if !l.flags[i] {
		return 0
	}
	return 1 + int(l.extra[i])
}

// Set gives diner id exactly count shares. A count of zero removes the diner
// from the item.
func (l *Ledger) Set(id DinerID, count int) (Change, error) {
	if !id.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDiner, id)
	}
	if count < 0 || count > MaxShares {
		return 0, fmt.Errorf("%w: %d", ErrInvalidShares, count)
	}

	i := id.Index()
	flag := count > 0
	var extra byte
	if flag {
		extra = byte(count - 1)
	}

	var change Change
	if l.flags[i] != flag {
		change |= FlagChanged
	}
	if l.extra[i] != extra {
		change |= ExtraChanged
	}
	l.flags[i] = flag
	l.extra[i] = extra
	return change, nil
}

// Total returns the sum of all diners' shares.
func (l *Ledger) Total() int {
	total := 0
	for i := range l.flags {
		if l.flags[i] {
			total += 1 + int(l.extra[i])
		}
	}
	return total
}

// Count returns how many diners hold at least one share.
func (l *Ledger) Count() int {
	n := 0
	for _, f := range l.flags {
		if f {
			n++
		}
	}
	return n
}

// Allocated reports whether any diner holds a share.
func (l *Ledger) Allocated() bool {
	return l.Count() > 0
}

// Diners returns the diners holding shares, in slot order.
func (l *Ledger) Diners() []DinerID {
	var ids []DinerID
	for i, f := range l.flags {
		if f {
			ids = append(ids, DinerAt(i))
		}
	}
	return ids
}

// Amounts splits amount between the sharers in proportion to their shares.
//
// Nothing is rounded to cents here. Each sharer but the last gets
// amount*shares/total at high precision and the last sharer gets whatever is
// left, so the result always sums to amount exactly.
func (l *Ledger) Amounts(amount decimal.Decimal) [MaxDiners]decimal.Decimal {
	var out [MaxDiners]decimal.Decimal
	total := l.Total()
	if total == 0 {
		return out
	}

	last := -1
	for i, f := range l.flags {
		if f {
			last = i
		}
	}

	divisor := decimal.NewFromInt(int64(total))
	allocated := decimal.Zero
	for i, f := range l.flags {
		if !f || i == last {
			continue
		}
		shares := decimal.NewFromInt(int64(1 + l.extra[i]))
		out[i] = amount.Mul(shares).DivRound(divisor, divisionPlaces)
		allocated = allocated.Add(out[i])
	}
	out[last] = amount.Sub(allocated)
	return out
}

// Sharers returns a one-glyph summary of who shares the item: empty when
// nobody does, a circled slot number for a sole sharer, "+" for an even split
// and "*" when someone holds more shares than the others.
func (l *Ledger) Sharers() string {
	n := 0
	sole := -1
	weighted := false
	for i, f := range l.flags {
		if !f {
			continue
		}
		n++
		sole = i
		if l.extra[i] > 0 {
			weighted = true
		}
	}

	switch {
	case n == 0:
		return ""
	case n == 1:
		return string(rune('①' + sole))
	case weighted:
		return "*"
	default:
		return "+"
	}
}

// Transfer moves diner from's whole share state to diner to and clears from.
// Whatever to held before is overwritten.
func (l *Ledger) Transfer(from, to DinerID) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: transfer %d to %d", ErrInvalidDiner, from, to)
	}
	if from == to {
		return nil
	}
	f, t := from.Index(), to.Index()
	l.flags[t], l.extra[t] = l.flags[f], l.extra[f]
	l.flags[f], l.extra[f] = false, 0
	return nil
}

// Swap exchanges the share state of two diners.
func (l *Ledger) Swap(a, b DinerID) error {
	if !a.Valid() || !b.Valid() {
		return fmt.Errorf("%w: swap %d with %d", ErrInvalidDiner, a, b)
	}
	i, j := a.Index(), b.Index()
	l.flags[i], l.flags[j] = l.flags[j], l.flags[i]
	l.extra[i], l.extra[j] = l.extra[j], l.extra[i]
	return nil
}

// Deallocate removes every diner from the item.
func (l *Ledger) Deallocate() {
	*l = Ledger{}
}

// ShareEvenly gives each of the listed diners exactly one share and removes
// everyone else. Invalid ids are ignored.
func (l *Ledger) ShareEvenly(ids []DinerID) {
	l.Deallocate()
	for _, id := range ids {
		if id.Valid() {
			l.flags[id.Index()] = true
		}
	}
}
