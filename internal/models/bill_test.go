package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/shares"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(desc, amount, sharesList string) LineItem {
	l, err := shares.ParseLedger(sharesList)
	if err != nil {
		panic(err)
	}
	return LineItem{Description: desc, Amount: d(amount), Shares: l}
}

var created = time.Date(2024, 3, 9, 19, 30, 5, 0, time.Local)

func TestBill_ID(t *testing.T) {
	b := NewBill(created.Add(400 * time.Millisecond))
	if got := b.ID(); got != "20240309193005" {
		t.Errorf("ID() = %q, want 20240309193005", got)
	}

	parsed, err := ParseID(b.ID())
	if err != nil {
		t.Fatalf("ParseID failed: %v", err)
	}
	if !parsed.Equal(created) {
		t.Errorf("ParseID() = %v, want %v", parsed, created)
	}

	if _, err := ParseID("not-an-id"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestBill_ForkGetsLaterID(t *testing.T) {
	b := NewBill(created)
	b.Venue = "X"
	b.Frozen = true
	b.Saved = AllTiers
	b.ImageName = "20240309193005.jpg"
	b.Items = []LineItem{item("Pizza", "20.00", "11")}
	b.Costs = []PersonCost{NewPersonCost(1, "Ann"), NewPersonCost(2, "Bo")}

	// Forking within the same second must still produce a distinct ID.
	f := b.Fork(created.Add(300 * time.Millisecond))
	if f.ID() <= b.ID() {
		t.Errorf("fork ID %s should sort after %s", f.ID(), b.ID())
	}
	if f.Frozen || f.Saved != 0 {
		t.Errorf("fork should be active and unsaved, got frozen=%v saved=%v", f.Frozen, f.Saved)
	}
	if f.ImageSource != b.ImageName || f.ImageName != "" {
		t.Errorf("fork image = (%q, %q), want source %q", f.ImageSource, f.ImageName, b.ImageName)
	}

	// Deep copy: editing the fork leaves the source alone.
	f.Items[0].Amount = d("99")
	f.Costs[0].Nickname = "Changed"
	if !b.Items[0].Amount.Equal(d("20.00")) || b.Costs[0].Nickname != "Ann" {
		t.Error("fork shares state with its source")
	}

	later := b.Fork(created.Add(time.Hour))
	if !later.CreationTime.Equal(created.Add(time.Hour)) {
		t.Errorf("fork creation time = %v, want now", later.CreationTime)
	}
}

func TestBill_Successor(t *testing.T) {
	b := NewBill(created)
	b.Venue = "Diner"
	b.TaxRate = d("0.08")
	b.TipRate = d("0.18")
	b.TipOnTax = true
	b.Items = []LineItem{item("Soup", "5", "1")}
	b.Costs = []PersonCost{NewPersonCost(1, "Ann")}

	s := b.Successor(created.Add(4 * time.Hour))
	if len(s.Items) != 0 {
		t.Errorf("successor should start without items, got %d", len(s.Items))
	}
	if s.Venue != "Diner" || !s.TaxRate.Equal(b.TaxRate) || !s.TipOnTax || len(s.Costs) != 1 {
		t.Errorf("successor did not carry defaults: %+v", s)
	}
	if s.Costs[0].GUID != b.Costs[0].GUID {
		t.Error("successor should keep diner identity")
	}
}

func TestBill_AddRemoveDiner(t *testing.T) {
	b := NewBill(created)
	for _, name := range []string{"A", "B", "C"} {
		if _, err := b.AddDiner(name); err != nil {
			t.Fatalf("AddDiner failed: %v", err)
		}
	}
	b.Items = []LineItem{item("Wings", "12", "111")}
	b.PayerID = 2

	if err := b.RemoveDiner(2); err != nil {
		t.Fatalf("RemoveDiner failed: %v", err)
	}
	if got := b.Items[0].SharesList(); got != "101" {
		t.Errorf("shares after removal = %q, want 101", got)
	}
	if b.PayerID != shares.NoDiner {
		t.Errorf("payer should be cleared, got %d", b.PayerID)
	}

	// The freed slot is reused first.
	c, err := b.AddDiner("D")
	if err != nil {
		t.Fatalf("AddDiner failed: %v", err)
	}
	if c.DinerID != 2 {
		t.Errorf("new diner slot = %d, want 2", c.DinerID)
	}

	if err := b.RemoveDiner(9); err == nil {
		t.Error("expected error removing unknown diner")
	}

	for i := len(b.Costs); i < shares.MaxDiners; i++ {
		if _, err := b.AddDiner(""); err != nil {
			t.Fatalf("AddDiner %d failed: %v", i, err)
		}
	}
	if _, err := b.AddDiner("overflow"); err != ErrTooManyDiners {
		t.Errorf("expected ErrTooManyDiners, got %v", err)
	}
}

func TestBill_Resequence(t *testing.T) {
	b := NewBill(created)
	b.Costs = []PersonCost{NewPersonCost(5, "E"), NewPersonCost(2, "B"), NewPersonCost(9, "I")}
	b.Items = []LineItem{
		item("Steak", "30", "010010001"),
		item("Wine", "20", "0000300000"),
	}
	b.PayerID = 9

	if err := b.Resequence(); err != nil {
		t.Fatalf("Resequence failed: %v", err)
	}

	want := []string{"B", "E", "I"}
	for i, c := range b.Costs {
		if c.DinerID != shares.DinerAt(i) || c.Nickname != want[i] {
			t.Errorf("cost %d = (%d, %s), want (%d, %s)", i, c.DinerID, c.Nickname, i+1, want[i])
		}
	}
	if got := b.Items[0].SharesList(); got != "111" {
		t.Errorf("steak shares = %q, want 111", got)
	}
	if got := b.Items[1].SharesList(); got != "03" {
		t.Errorf("wine shares = %q, want 03", got)
	}
	if b.PayerID != 3 {
		t.Errorf("payer = %d, want 3", b.PayerID)
	}
}

func TestBill_Totals(t *testing.T) {
	tests := []struct {
		name      string
		configure func(b *Bill)
		wantTax   string
		wantTip   string
		wantTotal string
		overflow  bool
	}{
		{
			name:      "plain tax and tip",
			configure: func(b *Bill) {},
			wantTax:   "4.00",
			wantTip:   "10.00",
			wantTotal: "64.00",
		},
		{
			name:      "tip on tax",
			configure: func(b *Bill) { b.TipOnTax = true },
			wantTax:   "4.00",
			wantTip:   "10.80",
			wantTotal: "64.80",
		},
		{
			name: "comped item skips tax but keeps tip",
			configure: func(b *Bill) {
				b.Items = append(b.Items, LineItem{Description: "Dessert", Amount: d("10"), Comped: true})
			},
			wantTax:   "4.00",
			wantTip:   "12.00",
			wantTotal: "66.00",
		},
		{
			name: "coupon before tax",
			configure: func(b *Bill) {
				b.Items = append(b.Items, item("Coupon", "-10", "1"))
			},
			wantTax:   "3.20",
			wantTip:   "10.00",
			wantTotal: "53.20",
		},
		{
			name: "coupon after tax",
			configure: func(b *Bill) {
				b.CouponAfterTax = true
				b.Items = append(b.Items, item("Coupon", "-10.80", "1"))
			},
			wantTax:   "4.00",
			wantTip:   "10.00",
			wantTotal: "53.20",
		},
		{
			name: "manual deltas",
			configure: func(b *Bill) {
				b.TaxDelta = d("0.05")
				b.TipDelta = d("-1.00")
			},
			wantTax:   "4.05",
			wantTip:   "9.00",
			wantTotal: "63.05",
		},
		{
			name: "coupon bigger than bill",
			configure: func(b *Bill) {
				b.Items = append(b.Items, item("Gift card", "-80", "1"))
			},
			wantTax:   "0",
			wantTip:   "10.00",
			wantTotal: "10.00",
			overflow:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBill(created)
			b.TaxRate = d("0.08")
			b.TipRate = d("0.20")
			b.Items = []LineItem{item("Pasta", "30", "1"), item("Fish", "20", "01")}
			tt.configure(b)

			got := b.Totals()
			if !got.Tax.Equal(d(tt.wantTax)) {
				t.Errorf("Tax = %s, want %s", got.Tax, tt.wantTax)
			}
			if !got.Tip.Equal(d(tt.wantTip)) {
				t.Errorf("Tip = %s, want %s", got.Tip, tt.wantTip)
			}
			if !got.Total.Equal(d(tt.wantTotal)) {
				t.Errorf("Total = %s, want %s", got.Total, tt.wantTotal)
			}
			if got.CouponOverflow != tt.overflow {
				t.Errorf("CouponOverflow = %v, want %v", got.CouponOverflow, tt.overflow)
			}
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1.005", "1.01"},
		{"1.004999", "1"},
		{"2.675", "2.68"},
		{"0.125", "0.13"},
		{"-0.125", "-0.12"},
		{"7", "7"},
	}
	for _, tt := range tests {
		if got := RoundHalfUp(d(tt.in)); !got.Equal(d(tt.want)) {
			t.Errorf("RoundHalfUp(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestBill_Title(t *testing.T) {
	b := NewBill(created)
	if got := b.Title(); !strings.HasPrefix(got, "Bill -") {
		t.Errorf("Title() = %q, want date-based title", got)
	}

	for _, name := range []string{"Alice", "Bob", "Charlie", "Diana"} {
		b.AddDiner(name)
	}
	if got := b.Title(); got != "Split with Alice, Bob and 2 others" {
		t.Errorf("Title() = %q", got)
	}

	b.Venue = "Luigi's"
	if got := b.Title(); got != "Luigi's" {
		t.Errorf("Title() = %q, want venue", got)
	}
}

func TestNewBadBill(t *testing.T) {
	b := NewBadBill("20240309193005", "empty file")
	if !b.IsBad() || b.Size != -1 || b.BadReason != "empty file" {
		t.Errorf("unexpected bad bill: %+v", b)
	}
	if b.ID() != "20240309193005" {
		t.Errorf("bad bill ID = %q", b.ID())
	}
}

func TestTier(t *testing.T) {
	saved := TierCache | TierRemote
	if !saved.Has(TierCache) || saved.Has(TierFile) {
		t.Errorf("Has misreports %v", saved)
	}
	if got := saved.Missing(AllTiers); got != TierFile {
		t.Errorf("Missing = %v, want file", got)
	}
	if got := saved.String(); got != "cache+remote" {
		t.Errorf("String() = %q", got)
	}
}
