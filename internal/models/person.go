package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/shares"
)

// PersonCost is one diner's slot in a bill together with what the last
// allocation pass charged them.
type PersonCost struct {
	// DinerID is the diner's slot, 1 through shares.MaxDiners.
	DinerID shares.DinerID `json:"diner_id"`

	// PersonGUID links the diner to a directory entry, if any.
	PersonGUID string `json:"person_guid,omitempty"`

	// Nickname is used when the diner has no directory entry.
	Nickname string `json:"nickname,omitempty"`

	// GUID identifies this diner within the bill across renumbering.
	GUID string `json:"guid"`

	// Accumulators below are recomputed on every allocation pass.
	OrderAmount        decimal.Decimal `json:"-"`
	CompedAmount       decimal.Decimal `json:"-"`
	CouponAmount       decimal.Decimal `json:"-"`
	PreTaxCouponAmount decimal.Decimal `json:"-"`
	Discount           decimal.Decimal `json:"-"`
	UnusedCouponAmount decimal.Decimal `json:"-"`
	ChargedAmount      decimal.Decimal `json:"-"`
	TaxAmount          decimal.Decimal `json:"-"`
	TipAmount          decimal.Decimal `json:"-"`

	// Amount is what the diner owes.
	Amount decimal.Decimal `json:"-"`
}

// NewPersonCost creates a diner slot with a fresh GUID.
func NewPersonCost(id shares.DinerID, nickname string) PersonCost {
	return PersonCost{
		DinerID:  id,
		Nickname: nickname,
		GUID:     uuid.New().String(),
	}
}

// Name returns the nickname, or a slot-based placeholder.
func (c *PersonCost) Name() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return fmt.Sprintf("Diner %d", c.DinerID)
}

// Reset zeroes every accumulator.
func (c *PersonCost) Reset() {
	c.OrderAmount = decimal.Zero
	c.CompedAmount = decimal.Zero
	c.CouponAmount = decimal.Zero
	c.PreTaxCouponAmount = decimal.Zero
	c.Discount = decimal.Zero
	c.UnusedCouponAmount = decimal.Zero
	c.ChargedAmount = decimal.Zero
	c.TaxAmount = decimal.Zero
	c.TipAmount = decimal.Zero
	c.Amount = decimal.Zero
}

// Person is a participant directory entry. Bills refer to people by GUID and
// never assume the directory is in sync with them.
type Person struct {
	// GUID is the unique identifier for the person (UUID format).
	GUID string

	// Name is the display name.
	Name string

	// Email is optional contact information.
	Email string

	// CreatedAt is the Unix timestamp when the entry was created.
	CreatedAt int64
}

// NewPerson creates a directory entry with a fresh GUID.
func NewPerson(name, email string) *Person {
	return &Person{
		GUID:      uuid.New().String(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().Unix(),
	}
}
