package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/shares"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(desc, amount, sharesList string) models.LineItem {
	l, err := shares.ParseLedger(sharesList)
	if err != nil {
		panic(err)
	}
	return models.LineItem{Description: desc, Amount: d(amount), Shares: l}
}

// newBill creates a bill with one diner per name, in slot order.
func newBill(taxRate, tipRate string, names ...string) *models.Bill {
	b := models.NewBill(time.Date(2024, 5, 1, 20, 0, 0, 0, time.Local))
	b.TaxRate = d(taxRate)
	b.TipRate = d(tipRate)
	for _, name := range names {
		if _, err := b.AddDiner(name); err != nil {
			panic(err)
		}
	}
	return b
}

func amountsOf(b *models.Bill) map[string]string {
	out := make(map[string]string, len(b.Costs))
	for i := range b.Costs {
		out[b.Costs[i].Name()] = b.Costs[i].Amount.StringFixed(2)
	}
	return out
}

func TestDistributeCosts(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *models.Bill
		want      map[string]string
		wantTotal string
	}{
		{
			name: "three way split of twenty dollars",
			build: func() *models.Bill {
				b := newBill("0", "0", "Alice", "Bob", "Charlie")
				b.Items = []models.LineItem{item("Pizza", "20.00", "111")}
				return b
			},
			// The first diner in storage order absorbs the rounding cent.
			want:      map[string]string{"Alice": "6.66", "Bob": "6.67", "Charlie": "6.67"},
			wantTotal: "20.00",
		},
		{
			name: "tax follows what each diner ordered",
			build: func() *models.Bill {
				b := newBill("0.10", "0", "Alice", "Bob")
				b.Items = []models.LineItem{
					item("Pizza", "20", "11"),
					item("Salad", "10", "1"),
				}
				return b
			},
			// Alice: 20 + 2 tax; Bob: 10 + 1 tax
			want:      map[string]string{"Alice": "22.00", "Bob": "11.00"},
			wantTotal: "33.00",
		},
		{
			name: "tip on top of tax",
			build: func() *models.Bill {
				b := newBill("0.10", "0.20", "Alice", "Bob")
				b.Items = []models.LineItem{
					item("Pizza", "20", "11"),
					item("Salad", "10", "1"),
				}
				return b
			},
			// Tip 6.00 split 20:10
			want:      map[string]string{"Alice": "26.00", "Bob": "13.00"},
			wantTotal: "39.00",
		},
		{
			name: "comped item is untaxed but tipped",
			build: func() *models.Bill {
				b := newBill("0.08", "0.20", "Alice", "Bob")
				b.Items = []models.LineItem{
					item("Pasta", "30", "1"),
					item("Fish", "20", "01"),
					{Description: "Dessert", Amount: d("10"), Comped: true, Shares: item("", "0", "11").Shares},
				}
				return b
			},
			// Alice: 30 + 2.40 tax + 7.00 tip; Bob: 20 + 1.60 tax + 5.00 tip
			want:      map[string]string{"Alice": "39.40", "Bob": "26.60"},
			wantTotal: "66.00",
		},
		{
			name: "coupon before tax",
			build: func() *models.Bill {
				b := newBill("0.08", "0.20", "Alice", "Bob")
				b.Items = []models.LineItem{
					item("Pasta", "30", "1"),
					item("Fish", "20", "01"),
					item("Coupon", "-10", "1"),
				}
				return b
			},
			// Alice: 20 + 1.60 tax + 6.00 tip; Bob: 20 + 1.60 tax + 4.00 tip
			want:      map[string]string{"Alice": "27.60", "Bob": "25.60"},
			wantTotal: "53.20",
		},
		{
			name: "coupon after tax",
			build: func() *models.Bill {
				b := newBill("0.08", "0.20", "Alice", "Bob")
				b.CouponAfterTax = true
				b.Items = []models.LineItem{
					item("Pasta", "30", "1"),
					item("Fish", "20", "01"),
					item("Coupon", "-10.80", "1"),
				}
				return b
			},
			// The 10.80 coupon is worth 10.00 before tax.
			want:      map[string]string{"Alice": "27.60", "Bob": "25.60"},
			wantTotal: "53.20",
		},
		{
			name: "coupon worth more than the bill",
			build: func() *models.Bill {
				b := newBill("0.08", "0.20", "Alice", "Bob")
				b.Items = []models.LineItem{
					item("Pasta", "30", "1"),
					item("Fish", "20", "01"),
					item("Gift card", "-80", "1"),
				}
				return b
			},
			// Only the 10.00 tip is left to pay; Alice's unused coupon covers
			// her part of it and the rest of Bob's.
			want:      map[string]string{"Alice": "0.00", "Bob": "10.00"},
			wantTotal: "10.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build()
			res := DistributeCosts(b)

			got := amountsOf(b)
			for name, want := range tt.want {
				if got[name] != want {
					t.Errorf("%s amount = %s, want %s", name, got[name], want)
				}
			}
			if !b.RoundedTotal.Equal(d(tt.wantTotal)) {
				t.Errorf("RoundedTotal = %s, want %s", b.RoundedTotal, tt.wantTotal)
			}
			if !b.RoundingErrorLeft.IsZero() {
				t.Errorf("RoundingErrorLeft = %s, want 0", b.RoundingErrorLeft)
			}
			if !b.DistributionAccurate {
				t.Error("expected DistributionAccurate")
			}
			if !res.UnallocatedAmount.IsZero() {
				t.Errorf("UnallocatedAmount = %s, want 0", res.UnallocatedAmount)
			}
		})
	}
}

func TestDistributeCosts_Unallocated(t *testing.T) {
	b := newBill("0.10", "0", "Alice", "Bob")
	b.Items = []models.LineItem{
		item("Pizza", "20", "11"),
		models.NewLineItem("Mystery", d("5.00")),
	}

	res := DistributeCosts(b)

	if !b.UnallocatedAmount.Equal(d("5.00")) {
		t.Errorf("UnallocatedAmount = %s, want 5.00", b.UnallocatedAmount)
	}
	for i := range b.Costs {
		if !b.Costs[i].Amount.IsZero() {
			t.Errorf("%s amount = %s, want 0 while items are unallocated", b.Costs[i].Name(), b.Costs[i].Amount)
		}
	}
	// The grand total is still reported: 25 + 2.50 tax.
	if !res.RoundedTotal.Equal(d("27.50")) {
		t.Errorf("RoundedTotal = %s, want 27.50", res.RoundedTotal)
	}
	if b.DistributionAccurate {
		t.Error("distribution should not be accurate with unallocated items")
	}
}

func TestDistributeCosts_NoDiners(t *testing.T) {
	b := newBill("0.10", "0.15")
	b.Items = []models.LineItem{models.NewLineItem("Soup", d("8"))}

	DistributeCosts(b)

	if !b.RoundedTotal.IsZero() || !b.UnallocatedAmount.IsZero() || !b.RoundingErrorLeft.IsZero() {
		t.Errorf("expected zero outputs, got total=%s unallocated=%s left=%s",
			b.RoundedTotal, b.UnallocatedAmount, b.RoundingErrorLeft)
	}
}

func TestDistributeCosts_UnknownDinerGetsPlaceholder(t *testing.T) {
	b := newBill("0", "0", "Alice")
	b.Items = []models.LineItem{item("Nachos", "12", "11")}

	res := DistributeCosts(b)

	if res.Placeholders != 1 {
		t.Fatalf("Placeholders = %d, want 1", res.Placeholders)
	}
	if len(b.Costs) != 2 || b.Costs[1].DinerID != 2 {
		t.Fatalf("expected placeholder for diner 2, got %+v", b.DinerIDs())
	}
	if !b.Costs[1].Amount.Equal(d("6")) {
		t.Errorf("placeholder amount = %s, want 6", b.Costs[1].Amount)
	}
}

func TestDistributeCosts_Idempotent(t *testing.T) {
	b := newBill("0.0875", "0.18", "Alice", "Bob", "Charlie")
	b.TipOnTax = true
	b.Items = []models.LineItem{
		item("Ribs", "27.95", "1"),
		item("Wings", "13.50", "011"),
		item("Beer", "7.25", "112"),
		item("Coupon", "-5", "111"),
	}

	DistributeCosts(b)
	first := amountsOf(b)
	DistributeCosts(b)
	second := amountsOf(b)

	for name, amount := range first {
		if second[name] != amount {
			t.Errorf("%s changed from %s to %s on re-run", name, amount, second[name])
		}
	}
}

// TestDistributeCosts_SumsToTotal checks the rounded amounts add up to the
// rounded grand total across a spread of rate and sharing combinations.
func TestDistributeCosts_SumsToTotal(t *testing.T) {
	rates := []struct{ tax, tip string }{
		{"0", "0"},
		{"0.0875", "0.18"},
		{"0.0725", "0.2"},
		{"0.13", "0.15"},
	}
	layouts := [][]models.LineItem{
		{item("A", "9.99", "1111111"), item("B", "14.37", "0111"), item("C", "3.33", "0000001")},
		{item("A", "100", "1234567"), item("B", "0.01", "1")},
		{item("A", "45.10", "111"), item("B", "-7.77", "101"), item("C", "12.34", "0201")},
		{item("A", "19.99", "1111111"), item("B", "19.99", "1111111")},
	}

	for _, r := range rates {
		for li, layout := range layouts {
			for _, flags := range []struct{ tipOnTax, afterTax bool }{{false, false}, {true, false}, {false, true}, {true, true}} {
				b := newBill(r.tax, r.tip, "A", "B", "C", "D", "E", "F", "G")
				b.TipOnTax = flags.tipOnTax
				b.CouponAfterTax = flags.afterTax
				b.Items = append([]models.LineItem(nil), layout...)

				res := DistributeCosts(b)

				sum := decimal.Zero
				for i := range b.Costs {
					if b.Costs[i].Amount.IsNegative() {
						t.Errorf("tax %s tip %s layout %d: %s owes %s", r.tax, r.tip, li, b.Costs[i].Name(), b.Costs[i].Amount)
					}
					sum = sum.Add(b.Costs[i].Amount)
				}
				want := models.RoundCents(res.Totals.Total)
				if !sum.Equal(want) {
					t.Errorf("tax %s tip %s layout %d flags %+v: sum = %s, want %s",
						r.tax, r.tip, li, flags, sum, want)
				}
				if !b.RoundedTotal.Equal(sum) {
					t.Errorf("RoundedTotal = %s, want %s", b.RoundedTotal, sum)
				}
			}
		}
	}
}

func TestDistributeCosts_TaxDeltaWithAfterTaxCoupon(t *testing.T) {
	b := newBill("0.08", "0", "Alice", "Bob")
	b.CouponAfterTax = true
	b.TaxDelta = d("0.50")
	b.Items = []models.LineItem{
		item("Pasta", "30", "1"),
		item("Fish", "20", "01"),
		item("Coupon", "-10.80", "1"),
	}

	res := DistributeCosts(b)

	// Tax is 4.50 on 50 taxable; total 50 - 10.80 + 4.50.
	if !res.Totals.Total.Equal(d("43.70")) {
		t.Fatalf("Total = %s, want 43.70", res.Totals.Total)
	}
	if !b.RoundedTotal.Equal(d("43.70")) {
		t.Errorf("RoundedTotal = %s, want 43.70", b.RoundedTotal)
	}
	// Bob ordered 20 of 50 taxable, so he carries 20/50 of the tax.
	if got := b.Cost(2).Amount; !got.Equal(d("21.80")) {
		t.Errorf("Bob amount = %s, want 21.80", got)
	}
}

func TestDistributeCosts_ComponentsOnDiners(t *testing.T) {
	b := newBill("0.08", "0.20", "Alice", "Bob")
	b.Items = []models.LineItem{
		item("Pasta", "30", "1"),
		item("Fish", "20", "01"),
		item("Coupon", "-10", "1"),
	}
	DistributeCosts(b)

	alice := b.Cost(1)
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"OrderAmount", alice.OrderAmount, "30"},
		{"CouponAmount", alice.CouponAmount, "10"},
		{"Discount", alice.Discount, "10"},
		{"ChargedAmount", alice.ChargedAmount, "30"},
		{"TaxAmount", alice.TaxAmount, "1.60"},
		{"TipAmount", alice.TipAmount, "6.00"},
	}
	for _, c := range checks {
		if !c.got.Equal(d(c.want)) {
			t.Errorf("Alice %s = %s, want %s", c.name, c.got, c.want)
		}
	}
}
