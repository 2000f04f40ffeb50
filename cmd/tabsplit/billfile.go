package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/shares"
)

// billFile is the YAML form of a bill.
//
//	venue: Trattoria
//	tax_rate: 0.08
//	tip_rate: 0.20
//	diners: [Alice, Bob]
//	payer: Alice
//	items:
//	  - description: Pasta
//	    amount: 30
//	    shares: "1"
//	  - description: Fish
//	    amount: 20
//	    split: [Bob]
type billFile struct {
	Venue          string     `yaml:"venue,omitempty"`
	Created        time.Time  `yaml:"created,omitempty"`
	TaxRate        string     `yaml:"tax_rate,omitempty"`
	TipRate        string     `yaml:"tip_rate,omitempty"`
	TipOnTax       bool       `yaml:"tip_on_tax,omitempty"`
	CouponAfterTax bool       `yaml:"coupon_after_tax,omitempty"`
	TaxDelta       string     `yaml:"tax_delta,omitempty"`
	TipDelta       string     `yaml:"tip_delta,omitempty"`
	Payer          string     `yaml:"payer,omitempty"`
	Diners         []string   `yaml:"diners"`
	Items          []itemFile `yaml:"items"`
}

// itemFile is one line. Shares is the compact per-slot encoding ("102");
// Split names diners who take one share each. An item with neither is
// unallocated.
type itemFile struct {
	Description string   `yaml:"description"`
	Amount      string   `yaml:"amount"`
	Comped      bool     `yaml:"comped,omitempty"`
	Shares      string   `yaml:"shares,omitempty"`
	Split       []string `yaml:"split,omitempty"`
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// loadBillFile reads a YAML bill. Bills without a created time are dated now.
func loadBillFile(path string, now time.Time) (*models.Bill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f billFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b, err := f.toBill(now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

func (f *billFile) toBill(now time.Time) (*models.Bill, error) {
	created := now
	if !f.Created.IsZero() {
		created = f.Created
	}
	b := models.NewBill(created)
	b.Venue = f.Venue

	var errs []error
	var err error
	if b.TaxRate, err = parseAmount("tax_rate", f.TaxRate); err != nil {
		errs = append(errs, err)
	}
	if b.TipRate, err = parseAmount("tip_rate", f.TipRate); err != nil {
		errs = append(errs, err)
	}
	if b.TaxDelta, err = parseAmount("tax_delta", f.TaxDelta); err != nil {
		errs = append(errs, err)
	}
	if b.TipDelta, err = parseAmount("tip_delta", f.TipDelta); err != nil {
		errs = append(errs, err)
	}
	b.TipOnTax = f.TipOnTax
	b.CouponAfterTax = f.CouponAfterTax

	ids := make(map[string]shares.DinerID, len(f.Diners))
	for _, name := range f.Diners {
		if _, dup := ids[name]; dup {
			errs = append(errs, fmt.Errorf("diner %q listed twice", name))
			continue
		}
		c, err := b.AddDiner(name)
		if err != nil {
			return nil, fmt.Errorf("diner %q: %w", name, err)
		}
		ids[name] = c.DinerID
	}

	if f.Payer != "" {
		id, ok := ids[f.Payer]
		if !ok {
			errs = append(errs, fmt.Errorf("payer %q: %w", f.Payer, models.ErrUnknownDiner))
		}
		b.PayerID = id
	}

	for i, in := range f.Items {
		field := fmt.Sprintf("items[%d]", i)
		amount, err := parseAmount(field+".amount", in.Amount)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		item := models.NewLineItem(in.Description, amount)
		item.Comped = in.Comped

		switch {
		case in.Shares != "" && len(in.Split) > 0:
			errs = append(errs, fmt.Errorf("%s: use either shares or split", field))
		case in.Shares != "":
			if item.Shares, err = shares.ParseLedger(in.Shares); err != nil {
				errs = append(errs, fmt.Errorf("%s.shares: %w", field, err))
			}
		default:
			for _, name := range in.Split {
				id, ok := ids[name]
				if !ok {
					errs = append(errs, fmt.Errorf("%s.split: %q: %w", field, name, models.ErrUnknownDiner))
					continue
				}
				if _, err := item.Shares.Set(id, item.Shares.Get(id)+1); err != nil {
					errs = append(errs, fmt.Errorf("%s.split: %w", field, err))
				}
			}
		}
		b.Items = append(b.Items, item)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return b, nil
}

// billToFile converts a bill back to its YAML form, using the compact share
// encoding.
func billToFile(b *models.Bill) billFile {
	f := billFile{
		Venue:          b.Venue,
		Created:        b.CreationTime,
		TaxRate:        b.TaxRate.String(),
		TipRate:        b.TipRate.String(),
		TipOnTax:       b.TipOnTax,
		CouponAfterTax: b.CouponAfterTax,
	}
	if !b.TaxDelta.IsZero() {
		f.TaxDelta = b.TaxDelta.String()
	}
	if !b.TipDelta.IsZero() {
		f.TipDelta = b.TipDelta.String()
	}
	for i := range b.Costs {
		f.Diners = append(f.Diners, b.Costs[i].Name())
	}
	if payer := b.Cost(b.PayerID); payer != nil {
		f.Payer = payer.Name()
	}
	for _, item := range b.Items {
		f.Items = append(f.Items, itemFile{
			Description: item.Description,
			Amount:      item.Amount.String(),
			Comped:      item.Comped,
			Shares:      item.SharesList(),
		})
	}
	return f
}

func writeBillFile(path string, b *models.Bill) error {
	data, err := yaml.Marshal(billToFile(b))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
