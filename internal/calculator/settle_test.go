package calculator

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/tabsplit/internal/models"
)

// settledBill builds a bill whose diners already carry rounded order amounts
// and amounts, as the allocator leaves them before settlement.
func settledBill(orders ...string) *models.Bill {
	names := []string{"A", "B", "C", "D", "E"}
	b := newBill("0", "0", names[:len(orders)]...)
	for i, o := range orders {
		b.Costs[i].OrderAmount = d(o)
		b.Costs[i].Amount = d(o)
	}
	return b
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name     string
		orders   []string
		residue  string
		cutoff   string
		want     []string
		wantLeft string
	}{
		{
			name:     "equal orders share the residue",
			orders:   []string{"10.00", "10.00", "5.00"},
			residue:  "0.02",
			want:     []string{"10.01", "10.01", "5.00"},
			wantLeft: "0",
		},
		{
			name:     "unique order takes what cannot be shared",
			orders:   []string{"10.00", "10.00", "5.00"},
			residue:  "0.01",
			want:     []string{"10.00", "10.00", "5.01"},
			wantLeft: "0",
		},
		{
			name:     "first diner when all orders are equal",
			orders:   []string{"6.67", "6.67", "6.67"},
			residue:  "-0.01",
			want:     []string{"6.66", "6.67", "6.67"},
			wantLeft: "0",
		},
		{
			name:     "residue above cutoff skips group split",
			orders:   []string{"10.00", "10.00", "5.00"},
			residue:  "0.03",
			cutoff:   "0.01",
			want:     []string{"10.00", "10.00", "5.03"},
			wantLeft: "0",
		},
		{
			name:     "nobody can absorb a negative residue",
			orders:   []string{"0.01", "0.02"},
			residue:  "-0.05",
			want:     []string{"0.01", "0.02"},
			wantLeft: "-0.05",
		},
		{
			name:     "no residue",
			orders:   []string{"3.00", "4.00"},
			residue:  "0",
			want:     []string{"3.00", "4.00"},
			wantLeft: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := settledBill(tt.orders...)
			a := &allocator{cutoff: DefaultFairnessCutoff, logger: slog.Default()}
			if tt.cutoff != "" {
				a.cutoff = d(tt.cutoff)
			}

			left := a.settle(b, d(tt.residue))

			assert.True(t, left.Equal(d(tt.wantLeft)), "left = %s, want %s", left, tt.wantLeft)
			for i, want := range tt.want {
				assert.True(t, b.Costs[i].Amount.Equal(d(want)),
					"%s amount = %s, want %s", b.Costs[i].Name(), b.Costs[i].Amount, want)
			}
		})
	}
}

func TestGroupByOrder(t *testing.T) {
	b := settledBill("5.00", "7.50", "5.00", "7.50", "1.00")
	var costs []*models.PersonCost
	for i := range b.Costs {
		costs = append(costs, &b.Costs[i])
	}

	groups := groupByOrder(costs)

	if assert.Len(t, groups, 3) {
		assert.Equal(t, []string{"A", "C"}, []string{groups[0][0].Nickname, groups[0][1].Nickname})
		assert.Equal(t, []string{"B", "D"}, []string{groups[1][0].Nickname, groups[1][1].Nickname})
		assert.Len(t, groups[2], 1)
	}
}
