package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsplit/internal/models"
)

const trattoria = `venue: Trattoria
tax_rate: 0.08
tip_rate: 0.20
diners: [Alice, Bob]
payer: Alice
items:
  - description: Pasta
    amount: 30
    shares: "1"
  - description: Fish
    amount: 20
    split: [Bob]
  - description: Coupon
    amount: -10
    split: [Alice]
`

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the CLI with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadBillFile(t *testing.T) {
	now := time.Date(2024, 5, 1, 20, 0, 0, 0, time.Local)
	b, err := loadBillFile(writeFile(t, "bill.yaml", trattoria), now)
	require.NoError(t, err)

	assert.Equal(t, now, b.CreationTime, "undated bills are dated now")
	assert.Equal(t, "Trattoria", b.Venue)
	assert.Equal(t, "0.08", b.TaxRate.String())
	require.Len(t, b.Costs, 2)
	assert.Equal(t, "Alice", b.Cost(b.PayerID).Name())

	require.Len(t, b.Items, 3)
	alice, bob := b.Costs[0].DinerID, b.Costs[1].DinerID
	assert.Equal(t, 1, b.Items[0].Shares.Get(alice))
	assert.Equal(t, 0, b.Items[1].Shares.Get(alice))
	assert.Equal(t, 1, b.Items[1].Shares.Get(bob))
	assert.True(t, b.Items[2].IsCoupon())
}

func TestLoadBillFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "invalid yaml",
			content: "diners: [Alice",
			want:    "bill.yaml",
		},
		{
			name:    "duplicate diner",
			content: "diners: [Alice, Alice]\nitems: []\n",
			want:    `diner "Alice" listed twice`,
		},
		{
			name:    "unknown payer",
			content: "diners: [Alice]\npayer: Bob\nitems: []\n",
			want:    `payer "Bob"`,
		},
		{
			name:    "bad amount",
			content: "diners: [Alice]\nitems:\n  - description: Soup\n    amount: lots\n",
			want:    "items[0].amount",
		},
		{
			name:    "shares and split",
			content: "diners: [Alice]\nitems:\n  - description: Soup\n    amount: 5\n    shares: \"1\"\n    split: [Alice]\n",
			want:    "use either shares or split",
		},
		{
			name:    "unknown split diner",
			content: "diners: [Alice]\nitems:\n  - description: Soup\n    amount: 5\n    split: [Carol]\n",
			want:    `items[0].split: "Carol"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadBillFile(writeFile(t, "bill.yaml", tt.content), time.Now())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBillFileRoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 20, 0, 0, 0, time.Local)
	b, err := loadBillFile(writeFile(t, "bill.yaml", trattoria), now)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, writeBillFile(path, b))

	got, err := loadBillFile(path, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, got.CreationTime.Equal(b.CreationTime), "created time is written out")
	assert.Equal(t, b.Venue, got.Venue)
	assert.Equal(t, "Alice", got.Cost(got.PayerID).Name())
	require.Len(t, got.Items, 3)
	for i := range b.Items {
		assert.Equal(t, b.Items[i].SharesList(), got.Items[i].SharesList())
		assert.True(t, b.Items[i].Amount.Equal(got.Items[i].Amount))
	}
}

func TestPrinterMoney(t *testing.T) {
	tests := []struct {
		locale string
		amount string
		want   string
	}{
		{"en-US", "1234.5", "1,234.50"},
		{"en-US", "0.125", "0.13"},
		{"en-US", "-10", "-10.00"},
		{"de", "1234.5", "1.234,50"},
	}

	for _, tt := range tests {
		t.Run(tt.locale+" "+tt.amount, func(t *testing.T) {
			pr, err := newPrinter(tt.locale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pr.money(d(tt.amount)))
		})
	}

	_, err := newPrinter("not a locale!")
	assert.Error(t, err)
}

func TestSplitCommand(t *testing.T) {
	out, err := execute(t, "split", writeFile(t, "bill.yaml", trattoria))
	require.NoError(t, err)

	assert.Contains(t, out, "Trattoria")
	assert.Contains(t, out, "27.60")
	assert.Contains(t, out, "25.60")
	assert.Contains(t, out, "53.20")
	assert.NotContains(t, out, "not shared by anyone")

	_, err = execute(t, "split", "--cutoff", "-1", writeFile(t, "bill.yaml", trattoria))
	assert.Error(t, err)
}

func TestSharesCommand(t *testing.T) {
	out, err := execute(t, "shares", "7.50", "2.50")
	require.NoError(t, err)
	assert.Equal(t, "3 1\n", out)

	_, err = execute(t, "shares", "ten")
	assert.Error(t, err)
}

func TestSettleCommand(t *testing.T) {
	out, err := execute(t, "settle", writeFile(t, "bill.yaml", trattoria))
	require.NoError(t, err)
	assert.Contains(t, out, "Bob pays Alice 25.60")
}

func TestStoredBillCommands(t *testing.T) {
	t.Setenv("TABSPLIT_DATA_DIR", t.TempDir())
	bill := writeFile(t, "bill.yaml", trattoria)

	out, err := execute(t, "import", bill)
	require.NoError(t, err)
	assert.Contains(t, out, "27.60")

	out, err = execute(t, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Trattoria")
	assert.Contains(t, out, "25.60")

	exported := filepath.Join(t.TempDir(), "export.yaml")
	_, err = execute(t, "export", exported)
	require.NoError(t, err)
	got, err := loadBillFile(exported, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Trattoria", got.Venue)
	assert.Len(t, got.Items, 3)

	out, err = execute(t, "bills")
	require.NoError(t, err)
	assert.Contains(t, out, "Trattoria")
	assert.Contains(t, out, "active")

	out, err = execute(t, "new")
	require.NoError(t, err)
	assert.Contains(t, out, "Started ")

	out, err = execute(t, "bills", "--tier", "cache")
	require.NoError(t, err)
	assert.Contains(t, out, "frozen", "starting over freezes the imported bill")

	_, err = execute(t, "bills", "--tier", "cloud")
	assert.Error(t, err)
}

func TestReplaceContents(t *testing.T) {
	src, err := loadBillFile(writeFile(t, "bill.yaml", trattoria), time.Now())
	require.NoError(t, err)

	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	dst := models.NewBill(created)
	dst.Revision = 4
	replaceContents(dst, src)

	assert.Equal(t, created, dst.CreationTime)
	assert.Equal(t, uint64(4), dst.Revision)
	assert.Equal(t, "Trattoria", dst.Venue)
	assert.Len(t, dst.Costs, 2)
}
