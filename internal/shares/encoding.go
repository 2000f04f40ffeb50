package shares

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSharesList = errors.New("invalid shares list")

// String returns the SharesList encoding: one digit per diner slot holding
// that diner's share count, truncated after the last diner with a share.
// An item nobody shares encodes as "".
func (l Ledger) String() string {
	last := -1
	for i, f := range l.flags {
		if f {
			last = i
		}
	}

	var b strings.Builder
	for i := 0; i <= last; i++ {
		n := 0
		if l.flags[i] {
			n = 1 + int(l.extra[i])
		}
		b.WriteByte(byte('0' + n))
	}
	return b.String()
}

// ParseLedger decodes a SharesList string.
func ParseLedger(s string) (Ledger, error) {
	var l Ledger
	if len(s) > MaxDiners {
		return l, fmt.Errorf("%w: %q has more than %d diners", ErrInvalidSharesList, s, MaxDiners)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Ledger{}, fmt.Errorf("%w: %q has non-digit at %d", ErrInvalidSharesList, s, i)
		}
		if _, err := l.Set(DinerAt(i), int(c-'0')); err != nil {
			return Ledger{}, fmt.Errorf("%w: %v", ErrInvalidSharesList, err)
		}
	}
	return l, nil
}

// MarshalText implements encoding.TextMarshaler using the SharesList form.
func (l Ledger) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Ledger) UnmarshalText(text []byte) error {
	parsed, err := ParseLedger(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
