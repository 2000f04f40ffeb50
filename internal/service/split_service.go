// Package service implements the tabsplit connect services.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/api"
	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/shares"
)

var errNoBill = errors.New("bill is required")

// SplitService implements the Connect SplitService. It is stateless: bills
// are allocated as submitted and never stored.
type SplitService struct {
	cutoff decimal.Decimal
}

var _ api.SplitServiceHandler = (*SplitService)(nil)

// NewSplitService creates a SplitService using cutoff as the default
// fairness cutoff for rounding settlement.
func NewSplitService(cutoff decimal.Decimal) *SplitService {
	return &SplitService{cutoff: cutoff}
}

// validateBill checks a submitted bill is one the allocator can handle.
func validateBill(b *models.Bill) error {
	if b == nil {
		return errNoBill
	}
	if len(b.Costs) > shares.MaxDiners {
		return fmt.Errorf("bill has %d diners, at most %d allowed", len(b.Costs), shares.MaxDiners)
	}
	for _, c := range b.Costs {
		if !c.DinerID.Valid() {
			return fmt.Errorf("invalid diner id %d", c.DinerID)
		}
	}
	if b.PayerID != shares.NoDiner && b.Cost(b.PayerID) == nil {
		return fmt.Errorf("payer %d: %w", b.PayerID, models.ErrUnknownDiner)
	}
	return nil
}

// Allocate splits a bill between its diners.
func (s *SplitService) Allocate(ctx context.Context, req *connect.Request[api.AllocateRequest]) (*connect.Response[api.AllocateResponse], error) {
	if err := validateBill(req.Msg.Bill); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	bill := req.Msg.Bill
	bill.SortCosts()

	slog.Info("Allocate request received",
		"bill", bill.ID(),
		"items", len(bill.Items),
		"diners", len(bill.Costs),
	)

	cutoff := s.cutoff
	if req.Msg.FairnessCutoff.Valid {
		cutoff = req.Msg.FairnessCutoff.Decimal
	}
	if cutoff.IsNegative() {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("fairness cutoff must not be negative"))
	}

	result := calculator.DistributeCosts(bill, calculator.WithFairnessCutoff(cutoff))

	diners := make([]api.DinerAmount, 0, len(bill.Costs))
	for i := range bill.Costs {
		c := &bill.Costs[i]
		diners = append(diners, api.DinerAmount{
			DinerID: c.DinerID,
			Name:    c.Name(),
			Order:   c.OrderAmount,
			Comped:  c.CompedAmount,
			Coupon:  c.CouponAmount,
			Tax:     c.TaxAmount,
			Tip:     c.TipAmount,
			Amount:  c.Amount,
		})
	}

	slog.Info("Allocation complete",
		"bill", bill.ID(),
		"total", bill.RoundedTotal.StringFixed(2),
		"accurate", bill.DistributionAccurate,
	)

	return connect.NewResponse(&api.AllocateResponse{
		Diners:               diners,
		Subtotal:             result.Totals.Ordered,
		Tax:                  result.Totals.Tax,
		Tip:                  result.Totals.Tip,
		Total:                result.Totals.Total,
		RoundedTotal:         bill.RoundedTotal,
		UnallocatedAmount:    bill.UnallocatedAmount,
		RoundingErrorLeft:    bill.RoundingErrorLeft,
		DistributionAccurate: bill.DistributionAccurate,
	}), nil
}

// InferShares returns the small share counts that best reproduce the given
// per-diner amounts.
func (s *SplitService) InferShares(ctx context.Context, req *connect.Request[api.InferSharesRequest]) (*connect.Response[api.InferSharesResponse], error) {
	if len(req.Msg.Amounts) > shares.MaxDiners {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("%d amounts given, at most %d allowed", len(req.Msg.Amounts), shares.MaxDiners))
	}

	var amounts [shares.MaxDiners]decimal.Decimal
	copy(amounts[:], req.Msg.Amounts)
	counts := shares.CostsToShares(amounts)

	out := make([]int, len(req.Msg.Amounts))
	for i := range out {
		out[i] = int(counts[i])
	}
	return connect.NewResponse(&api.InferSharesResponse{Shares: out}), nil
}

// SettleUp nets what each diner paid against what they owe across bills and
// returns the payments that settle the balances.
func (s *SplitService) SettleUp(ctx context.Context, req *connect.Request[api.SettleUpRequest]) (*connect.Response[api.SettleUpResponse], error) {
	slog.Info("SettleUp request received", "bills", len(req.Msg.Bills))

	for _, b := range req.Msg.Bills {
		if err := validateBill(b); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	balances, debts, err := calculator.SettleUp(req.Msg.Bills, calculator.WithFairnessCutoff(s.cutoff))
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	resp := &api.SettleUpResponse{
		Balances: make([]api.Balance, 0, len(balances)),
		Debts:    make([]api.Debt, 0, len(debts)),
	}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, api.Balance{
			Name:       b.Name,
			NetBalance: b.NetBalance,
			TotalPaid:  b.TotalPaid,
			TotalOwed:  b.TotalOwed,
		})
	}
	for _, d := range debts {
		resp.Debts = append(resp.Debts, api.Debt{From: d.From, To: d.To, Amount: d.Amount})
	}
	return connect.NewResponse(resp), nil
}
