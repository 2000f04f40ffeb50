package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

// printer renders amounts and tables for one locale.
type printer struct {
	p *message.Printer
}

func newPrinter(locale string) (printer, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return printer{}, fmt.Errorf("locale %q: %w", locale, err)
	}
	return printer{p: message.NewPrinter(tag)}, nil
}

// money formats a cent amount with grouping, e.g. 1,234.50.
func (pr printer) money(d decimal.Decimal) string {
	return pr.p.Sprint(number.Decimal(models.RoundCents(d).InexactFloat64(), number.Scale(2)))
}

func (pr printer) table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// allocation prints each diner's share of an allocated bill.
func (pr printer) allocation(w io.Writer, b *models.Bill, res calculator.Result) error {
	fmt.Fprintf(w, "%s (%s)\n", b.Title(), b.ID())
	if !res.UnallocatedAmount.IsZero() {
		fmt.Fprintf(w, "%s is not shared by anyone yet; amounts are not final.\n", pr.money(res.UnallocatedAmount))
	}

	tw := pr.table(w)
	fmt.Fprintln(tw, "Diner\tOrder\tCoupons\tTax\tTip\tOwes\t")
	for i := range b.Costs {
		c := &b.Costs[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			c.Name(),
			pr.money(c.OrderAmount),
			pr.money(c.Discount.Neg()),
			pr.money(c.TaxAmount),
			pr.money(c.TipAmount),
			pr.money(c.Amount),
		)
	}
	fmt.Fprintf(tw, "Total\t%s\t%s\t%s\t%s\t%s\t\n",
		pr.money(res.Totals.Ordered),
		pr.money(res.Totals.Coupons.Neg()),
		pr.money(res.Totals.Tax),
		pr.money(res.Totals.Tip),
		pr.money(b.RoundedTotal),
	)
	if err := tw.Flush(); err != nil {
		return err
	}

	if !b.RoundingErrorLeft.IsZero() {
		fmt.Fprintf(w, "Rounding left over: %s\n", pr.money(b.RoundingErrorLeft))
	}
	return nil
}

// settlement prints balances and the payments that settle them.
func (pr printer) settlement(w io.Writer, balances []calculator.MemberBalance, debts []calculator.DebtEdge) error {
	tw := pr.table(w)
	fmt.Fprintln(tw, "Member\tPaid\tOwed\tNet\t")
	for _, b := range balances {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", b.Name, pr.money(b.TotalPaid), pr.money(b.TotalOwed), pr.money(b.NetBalance))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(debts) == 0 {
		fmt.Fprintln(w, "\nAll settled.")
		return nil
	}
	fmt.Fprintln(w)
	for _, d := range debts {
		fmt.Fprintf(w, "%s pays %s %s\n", d.From, d.To, pr.money(d.Amount))
	}
	return nil
}

// bills prints a bill listing.
func (pr printer) bills(w io.Writer, infos []storage.BillInfo) error {
	tw := pr.table(w)
	fmt.Fprintln(tw, "ID\tTitle\tTotal\tState\t")
	for _, info := range infos {
		state := "active"
		switch {
		case info.Size < 0:
			state = "unreadable"
		case info.Frozen:
			state = "frozen"
		}
		total := info.Total
		if d, err := decimal.NewFromString(total); err == nil {
			total = pr.money(d)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", info.ID, info.Title, total, state)
	}
	return tw.Flush()
}
