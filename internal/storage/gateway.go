package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/mmynk/tabsplit/internal/models"
)

// RetryPolicy is the fixed backoff applied to transient storage failures.
type RetryPolicy struct {
	Interval time.Duration
	Attempts uint
}

// DefaultRetryPolicy retries every 500ms, five times in all.
var DefaultRetryPolicy = RetryPolicy{Interval: 500 * time.Millisecond, Attempts: 5}

// Gateway saves and loads bills across the three persistence tiers. Each
// tier succeeds or fails on its own.
type Gateway struct {
	tiers  map[models.Tier]BillStore
	retry  RetryPolicy
	logger *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTier registers the store backing a tier.
func WithTier(tier models.Tier, store BillStore) GatewayOption {
	return func(g *Gateway) {
		if store != nil {
			g.tiers[tier] = store
		}
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) GatewayOption {
	return func(g *Gateway) { g.retry = p }
}

// WithGatewayLogger sets the logger.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logger }
}

// NewGateway creates a gateway over the configured tiers.
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		tiers:  make(map[models.Tier]BillStore),
		retry:  DefaultRetryPolicy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Tiers reports the configured tiers.
func (g *Gateway) Tiers() models.Tier {
	var t models.Tier
	for tier := range g.tiers {
		t |= tier
	}
	return t
}

// tierOrder is the order tiers are tried in: nearest first.
var tierOrder = []models.Tier{models.TierCache, models.TierFile, models.TierRemote}

// Save writes bill to each requested tier and reports which ones succeeded.
// Tiers without a store are skipped and reported as not saved.
func (g *Gateway) Save(ctx context.Context, bill *models.Bill, tiers models.Tier) (models.Tier, error) {
	var saved models.Tier
	var errs []error
	for _, tier := range tierOrder {
		if !tiers.Has(tier) {
			continue
		}
		store, ok := g.tiers[tier]
		if !ok {
			errs = append(errs, fmt.Errorf("%s tier not configured", tier))
			continue
		}
		err := g.do(ctx, "save", tier, bill.ID(), func() error {
			return store.SaveBill(ctx, bill)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("save %s to %s: %w", bill.ID(), tier, err))
			continue
		}
		saved |= tier
	}
	return saved, errors.Join(errs...)
}

// Load returns the bill from the nearest tier holding it, along with that
// tier.
func (g *Gateway) Load(ctx context.Context, id string) (*models.Bill, models.Tier, error) {
	for _, tier := range tierOrder {
		bill, err := g.LoadFrom(ctx, tier, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		return bill, tier, nil
	}
	return nil, 0, fmt.Errorf("bill %s: %w", id, ErrNotFound)
}

// LoadFrom reads a bill from one tier.
func (g *Gateway) LoadFrom(ctx context.Context, tier models.Tier, id string) (*models.Bill, error) {
	store, ok := g.tiers[tier]
	if !ok {
		return nil, ErrNotFound
	}
	var bill *models.Bill
	err := g.do(ctx, "load", tier, id, func() error {
		b, err := store.LoadBill(ctx, id)
		if err != nil {
			return err
		}
		bill = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if bill.IsBad() {
		g.logger.Warn("Stored bill is unreadable", "bill", id, "tier", tier, "reason", bill.BadReason)
	}
	return bill, nil
}

// List lists the bills held by one tier, newest first.
func (g *Gateway) List(ctx context.Context, tier models.Tier) ([]BillInfo, error) {
	store, ok := g.tiers[tier]
	if !ok {
		return nil, fmt.Errorf("%s tier not configured", tier)
	}
	var infos []BillInfo
	err := g.do(ctx, "list", tier, "", func() error {
		list, err := store.ListBills(ctx)
		infos = list
		return err
	})
	return infos, err
}

// Delete removes a bill from the requested tiers.
func (g *Gateway) Delete(ctx context.Context, id string, tiers models.Tier) error {
	var errs []error
	for _, tier := range tierOrder {
		store, ok := g.tiers[tier]
		if !ok || !tiers.Has(tier) {
			continue
		}
		if err := g.do(ctx, "delete", tier, id, func() error {
			return store.DeleteBill(ctx, id)
		}); err != nil {
			errs = append(errs, fmt.Errorf("delete %s from %s: %w", id, tier, err))
		}
	}
	return errors.Join(errs...)
}

// do runs op with a fixed backoff. Not-found errors are final.
func (g *Gateway) do(ctx context.Context, action string, tier models.Tier, id string, op func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if errors.Is(err, ErrNotFound) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(g.retry.Interval)),
		backoff.WithMaxTries(g.retry.Attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			g.logger.Debug("Storage operation failed, retrying",
				"action", action,
				"tier", tier,
				"bill", id,
				"retry_in", next,
				"error", err,
			)
		}),
	)
	return err
}
