// Package backup copies saved bills to the remote tier in the background.
package backup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/mmynk/tabsplit/internal/metrics"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

// Tiers is the subset of storage.Gateway the queue needs.
type Tiers interface {
	LoadFrom(ctx context.Context, tier models.Tier, id string) (*models.Bill, error)
	Save(ctx context.Context, bill *models.Bill, tiers models.Tier) (models.Tier, error)
}

// DefaultMaxElapsed bounds how long one bill is retried before it is dropped.
const DefaultMaxElapsed = 2 * time.Minute

// Queue is a deduplicating outbox of bills waiting for remote backup. Each
// bill is read back from its file so the backup matches what was saved
// locally. One worker drains the queue.
type Queue struct {
	tiers      Tiers
	onDone     func(id string, revision uint64)
	logger     *slog.Logger
	maxElapsed time.Duration

	mu      sync.Mutex
	pending map[string]uint64 // bill ID -> newest queued revision
	order   []string
	wake    chan struct{}
}

// Option configures a Queue.
type Option func(*Queue)

// WithOnDone sets the callback run after a bill revision is backed up.
func WithOnDone(fn func(id string, revision uint64)) Option {
	return func(q *Queue) { q.onDone = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) { q.logger = logger }
}

// WithMaxElapsed overrides DefaultMaxElapsed.
func WithMaxElapsed(d time.Duration) Option {
	return func(q *Queue) { q.maxElapsed = d }
}

// New creates an empty queue. Call Run to start the worker.
func New(tiers Tiers, opts ...Option) *Queue {
	q := &Queue{
		tiers:      tiers,
		onDone:     func(string, uint64) {},
		logger:     slog.Default(),
		maxElapsed: DefaultMaxElapsed,
		pending:    make(map[string]uint64),
		wake:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue schedules bill id for backup. Queuing a bill that is already
// waiting only updates its revision.
func (q *Queue) Enqueue(id string, revision uint64) {
	q.mu.Lock()
	if _, queued := q.pending[id]; !queued {
		q.order = append(q.order, id)
	}
	q.pending[id] = revision
	metrics.BackupQueueDepth.Set(float64(len(q.order)))
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// requeue puts a bill back unless a newer revision was queued meanwhile.
func (q *Queue) requeue(id string, revision uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, queued := q.pending[id]; queued {
		return
	}
	q.order = append(q.order, id)
	q.pending[id] = revision
	metrics.BackupQueueDepth.Set(float64(len(q.order)))
}

// Len reports how many bills are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

func (q *Queue) next() (string, uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.order) == 0 {
		return "", 0, false
	}
	id := q.order[0]
	q.order = q.order[1:]
	rev := q.pending[id]
	delete(q.pending, id)
	metrics.BackupQueueDepth.Set(float64(len(q.order)))
	return id, rev, true
}

// Run drains the queue until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		q.Flush(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		}
	}
}

// Flush backs up every waiting bill in the calling goroutine. It stops
// early when ctx is done.
func (q *Queue) Flush(ctx context.Context) {
	for ctx.Err() == nil {
		id, rev, ok := q.next()
		if !ok {
			return
		}
		q.process(ctx, id, rev)
	}
}

// process backs up one bill. Bills whose file is gone are skipped; other
// failures are retried with exponential backoff, then dropped until the bill
// is saved again.
func (q *Queue) process(ctx context.Context, id string, rev uint64) {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		bill, err := q.tiers.LoadFrom(ctx, models.TierFile, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		if bill.IsBad() {
			return struct{}{}, backoff.Permanent(errors.New(bill.BadReason))
		}
		_, err = q.tiers.Save(ctx, bill, models.TierRemote)
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(q.maxElapsed),
		backoff.WithNotify(func(err error, next time.Duration) {
			q.logger.Warn("Backup failed, retrying", "bill", id, "retry_in", next, "error", err)
		}),
	)

	switch {
	case err == nil:
		q.logger.Info("Bill backed up", "bill", id, "revision", rev)
		q.onDone(id, rev)
	case errors.Is(err, storage.ErrNotFound):
		q.logger.Debug("Bill file gone, skipping backup", "bill", id)
	case ctx.Err() != nil:
		// Shutting down: leave the bill for the next run
		q.requeue(id, rev)
	default:
		q.logger.Error("Backup abandoned", "bill", id, "revision", rev, "error", err)
	}
}
