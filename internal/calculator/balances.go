package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/models"
)

// MemberBalance represents the balance information for one diner across bills.
type MemberBalance struct {
	Name       string
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid  decimal.Decimal // Total amount paid to restaurants
	TotalOwed  decimal.Decimal // Total of the diner's allocated amounts
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// DinerKey identifies a diner across bills: their directory GUID when linked,
// otherwise their display name.
func DinerKey(c *models.PersonCost) string {
	if c.PersonGUID != "" {
		return c.PersonGUID
	}
	return c.Name()
}

// SettleUp computes who owes whom across a set of bills.
//
// Algorithm:
// - Each bill with a payer is allocated; the payer paid the rounded total and
// every diner owes their amount
// - Aggregate: net_balance = total_paid - total_owed
// - Debts: simplified using greedy matching of largest debtor to largest
// creditor
//
// Bills without a payer are skipped. A bill with unallocated items is an error,
// since its diners' amounts are not known yet.
func SettleUp(bills []*models.Bill, opts ...Option) ([]MemberBalance, []DebtEdge, error) {
	balances := make(map[string]*MemberBalance)
	member := func(name string) *MemberBalance {
		if _, exists := balances[name]; !exists {
			balances[name] = &MemberBalance{Name: name}
		}
		return balances[name]
	}

	for _, bill := range bills {
		if bill.PayerID == 0 {
			continue
		}

		b := bill.Clone()
		res := DistributeCosts(b, opts...)
		if !res.UnallocatedAmount.IsZero() {
			return nil, nil, fmt.Errorf("bill %s has %s unallocated", b.ID(), res.UnallocatedAmount)
		}
		payer := b.Cost(b.PayerID)
		if payer == nil {
			return nil, nil, fmt.Errorf("bill %s: %w: payer %d", b.ID(), models.ErrUnknownDiner, b.PayerID)
		}

		p := member(DinerKey(payer))
		p.TotalPaid = p.TotalPaid.Add(res.RoundedTotal)

		for i := range b.Costs {
			m := member(DinerKey(&b.Costs[i]))
			m.TotalOwed = m.TotalOwed.Add(b.Costs[i].Amount)
		}
	}

	memberBalances := make([]MemberBalance, 0, len(balances))
	for _, bal := range balances {
		bal.NetBalance = bal.TotalPaid.Sub(bal.TotalOwed)
		memberBalances = append(memberBalances, *bal)
	}
	sort.Slice(memberBalances, func(i, j int) bool {
		return memberBalances[i].Name < memberBalances[j].Name
	})

	return memberBalances, simplifyDebts(memberBalances), nil
}

// simplifyDebts matches debtors with creditors to minimize transactions.
func simplifyDebts(balances []MemberBalance) []DebtEdge {
	var creditors, debtors []MemberBalance
	for _, bal := range balances {
		if bal.NetBalance.IsPositive() {
			creditors = append(creditors, bal)
		} else if bal.NetBalance.IsNegative() {
			debtors = append(debtors, bal)
		}
	}

	// Largest first; names break ties so the result is stable.
	byAmount := func(list []MemberBalance) {
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i].NetBalance.Abs(), list[j].NetBalance.Abs()
			if !a.Equal(b) {
				return a.GreaterThan(b)
			}
			return list[i].Name < list[j].Name
		})
	}
	byAmount(debtors)
	byAmount(creditors)

	debtorBalance := make([]decimal.Decimal, len(debtors))
	for i, d := range debtors {
		debtorBalance[i] = d.NetBalance.Neg()
	}
	creditorBalance := make([]decimal.Decimal, len(creditors))
	for j, c := range creditors {
		creditorBalance[j] = c.NetBalance
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtorBalance[i], creditorBalance[j])
		if amount.IsPositive() {
			edges = append(edges, DebtEdge{
				From:   debtors[i].Name,
				To:     creditors[j].Name,
				Amount: amount,
			})
		}

		debtorBalance[i] = debtorBalance[i].Sub(amount)
		creditorBalance[j] = creditorBalance[j].Sub(amount)

		if !debtorBalance[i].IsPositive() {
			i++
		}
		if !creditorBalance[j].IsPositive() {
			j++
		}
	}
	return edges
}
