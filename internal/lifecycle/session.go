// Package lifecycle owns the bill being edited and decides when an edit
// continues that bill and when it starts a new one.
//
// A bill is either Active, and edited in place, or Frozen: it has a
// persisted snapshot and the next edit forks a new bill from it. Bills freeze
// when the user starts over, after sitting idle, or when reopened long after
// their last edit.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/metrics"
	"github.com/mmynk/tabsplit/internal/models"
)

// Reasons passed to MarkAsNew.
const (
	ReasonUser    = "user"
	ReasonIdle    = "idle"
	ReasonMaxIdle = "max_idle"
)

// ErrNotPersisted is returned when a bill could not be frozen because its
// snapshot did not reach every required tier.
var ErrNotPersisted = errors.New("bill snapshot not persisted")

// Persister writes bills to storage tiers.
type Persister interface {
	// Save writes bill to the given tiers and reports the tiers that now
	// hold it. A partial result comes with a non-nil error.
	Save(ctx context.Context, bill *models.Bill, tiers models.Tier) (models.Tier, error)
}

// ImageStore copies receipt images.
type ImageStore interface {
	Copy(ctx context.Context, from, to string) error
}

// BackupQueue accepts bills for asynchronous remote backup.
type BackupQueue interface {
	Enqueue(id string, revision uint64)
}

// Config holds the lifecycle thresholds.
type Config struct {
	// MinIdle is how long a bill must sit unedited before an opportunistic
	// freeze applies.
	MinIdle time.Duration

	// MaxIdle is the idle time after which a bill is too old to continue and
	// is replaced when reopened.
	MaxIdle time.Duration

	// IdleCheck is how often the save loop considers an idle freeze.
	IdleCheck time.Duration

	// SaveInterval is the period of the background save loop.
	SaveInterval time.Duration

	// Tiers are written by every save. A bill freezes only once all of them
	// hold its snapshot.
	Tiers models.Tier

	// FairnessCutoff tunes rounding settlement, see calculator.WithFairnessCutoff.
	FairnessCutoff decimal.Decimal
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinIdle:        15 * time.Minute,
		MaxIdle:        3 * time.Hour,
		IdleCheck:      10 * time.Minute,
		SaveInterval:   time.Minute,
		Tiers:          models.TierCache | models.TierFile,
		FairnessCutoff: calculator.DefaultFairnessCutoff,
	}
}

// Session holds the current bill. Edits go through Mutate and its helpers
// under a single lock; storage I/O runs outside the lock on snapshots.
type Session struct {
	mu            sync.Mutex
	bill          *models.Bill
	pending       []*models.Bill
	lastIdleCheck time.Time

	persister Persister
	images    ImageStore
	backup    BackupQueue
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger
	snapshot  chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithConfig overrides DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(s *Session) { s.cfg = cfg }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithImageStore enables copying receipt images into forks.
func WithImageStore(images ImageStore) Option {
	return func(s *Session) { s.images = images }
}

// WithBackup queues every saved bill for remote backup.
func WithBackup(q BackupQueue) Option {
	return func(s *Session) { s.backup = q }
}

// New creates a session editing bill. A nil bill starts a fresh one.
func New(p Persister, bill *models.Bill, opts ...Option) *Session {
	s := &Session{
		persister: p,
		cfg:       DefaultConfig(),
		now:       time.Now,
		logger:    slog.Default(),
		snapshot:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if bill == nil {
		bill = models.NewBill(s.now())
	}
	s.bill = bill
	return s
}

// Current returns a copy of the current bill.
func (s *Session) Current() *models.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bill.Clone()
}

// ID returns the current bill's ID.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bill.ID()
}

// Mutate applies fn to the current bill. fn reports whether it changed
// anything; an unchanged or failed edit leaves the session as it was. A
// change to a Frozen bill is applied to a fork, which becomes current.
func (s *Session) Mutate(fn func(b *models.Bill) (bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	prev := s.bill
	var work *models.Bill
	if prev.Frozen {
		work = prev.Fork(now)
	} else {
		work = prev.Clone()
	}

	changed, err := fn(work)
	if err != nil || !changed {
		return false, err
	}
	s.commit(prev, work, now)
	return true, nil
}

// MarkAsChanged records an edit made without a specific mutation, forking
// the bill if it is Frozen.
func (s *Session) MarkAsChanged() {
	s.Mutate(func(*models.Bill) (bool, error) { return true, nil })
}

func (s *Session) commit(prev, work *models.Bill, now time.Time) {
	if prev.Frozen {
		if prev.Saved.Missing(s.cfg.Tiers) != 0 {
			s.pending = append(s.pending, prev)
		}
		metrics.Forks.Inc()
		s.logger.Info("Forked frozen bill", "from", prev.ID(), "to", work.ID())
	}
	work.Saved = 0
	work.LastChangeTime = now
	work.Revision++
	s.bill = work
}

// RequestSnapshot asks the save loop to save now. It never blocks.
func (s *Session) RequestSnapshot() {
	select {
	case s.snapshot <- struct{}{}:
	default:
	}
}

// MarkAsNew freezes the current bill so the next edit starts a new one. It
// does nothing unless unconditional is set or the bill has been idle for at
// least MinIdle. The bill's current state is saved first; if that fails the
// bill stays Active and the error is returned.
func (s *Session) MarkAsNew(ctx context.Context, reason string, unconditional bool) (bool, error) {
	s.mu.Lock()
	b := s.bill
	if b.Frozen {
		s.mu.Unlock()
		return false, nil
	}
	if !unconditional && b.IdleFor(s.now()) < s.cfg.MinIdle {
		s.mu.Unlock()
		return false, nil
	}
	snap := b.Clone()
	snap.Frozen = true
	s.mu.Unlock()

	if err := s.prepareImage(ctx, snap); err != nil {
		return false, err
	}
	saved, err := s.save(ctx, snap, s.cfg.Tiers)

	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.bill
	s.applyImage(cur, snap)
	if cur.ID() != snap.ID() || cur.Revision != snap.Revision {
		// Edited while saving; the edit wins and the bill stays Active.
		return false, err
	}
	if err != nil {
		return false, err
	}
	if saved.Missing(s.cfg.Tiers) != 0 {
		return false, fmt.Errorf("%w: %s saved to %s", ErrNotPersisted, snap.ID(), saved)
	}
	cur.Frozen = true
	cur.Saved = saved
	metrics.Freezes.WithLabelValues(reason).Inc()
	s.logger.Info("Bill frozen", "bill", cur.ID(), "reason", reason)
	return true, nil
}

// StartNew freezes the current bill and starts an empty one carrying its
// venue, diners and rates. A failed save does not stop the new bill: the old
// one is kept for the save loop to retry and the error is returned.
func (s *Session) StartNew(ctx context.Context) (*models.Bill, error) {
	_, err := s.MarkAsNew(ctx, ReasonUser, true)
	return s.replace(err), err
}

// Resume applies the max-idle rule to the current bill: one idle longer than
// MaxIdle is frozen and replaced by a fresh Active bill before any edit. It
// reports whether the bill was replaced.
func (s *Session) Resume(ctx context.Context) (bool, error) {
	s.mu.Lock()
	tooOld := s.bill.IdleFor(s.now()) > s.cfg.MaxIdle
	s.mu.Unlock()
	if !tooOld {
		return false, nil
	}

	_, err := s.MarkAsNew(ctx, ReasonMaxIdle, true)
	next := s.replace(err)
	s.logger.Info("Reopened bill was too old, started a new one", "bill", next.ID())
	return true, err
}

// Open makes bill current, keeping the previous bill queued for saving if it
// has unsaved changes, then applies Resume.
func (s *Session) Open(ctx context.Context, bill *models.Bill) (bool, error) {
	s.mu.Lock()
	if prev := s.bill; prev.Saved.Missing(s.cfg.Tiers) != 0 {
		s.pending = append(s.pending, prev)
	}
	s.bill = bill
	s.mu.Unlock()

	return s.Resume(ctx)
}

// replace swaps in a successor of the current bill. If the freeze failed the
// current bill is frozen in memory and queued for the save loop.
func (s *Session) replace(freezeErr error) *models.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.bill
	if !prev.Frozen {
		prev.Frozen = true
		prev.Saved = 0
		s.pending = append(s.pending, prev)
		s.logger.Warn("Bill frozen without a saved snapshot", "bill", prev.ID(), "error", freezeErr)
	}
	s.bill = prev.Successor(s.now())
	return s.bill.Clone()
}

// SaveIfChanged saves the current bill to the tiers that do not hold its
// latest state, along with superseded bills still waiting to be saved. After
// IdleCheck without edits it also tries an idle freeze.
func (s *Session) SaveIfChanged(ctx context.Context) error {
	s.mu.Lock()
	now := s.now()
	pending := s.pending
	s.pending = nil

	var snap *models.Bill
	b := s.bill
	if !b.Frozen && b.Saved.Missing(s.cfg.Tiers) != 0 {
		snap = b.Clone()
	}
	idleCheck := !b.Frozen &&
		b.IdleFor(now) >= s.cfg.IdleCheck &&
		now.Sub(s.lastIdleCheck) >= s.cfg.IdleCheck
	if idleCheck {
		s.lastIdleCheck = now
	}
	s.mu.Unlock()

	var errs []error
	var retry []*models.Bill
	for _, p := range pending {
		if err := s.prepareImage(ctx, p); err != nil {
			errs = append(errs, err)
		}
		saved, err := s.save(ctx, p, p.Saved.Missing(s.cfg.Tiers))
		p.Saved |= saved
		if err != nil {
			errs = append(errs, err)
			retry = append(retry, p)
		}
	}

	if snap != nil {
		if err := s.prepareImage(ctx, snap); err != nil {
			errs = append(errs, err)
		}
		saved, err := s.save(ctx, snap, snap.Saved.Missing(s.cfg.Tiers))
		if err != nil {
			errs = append(errs, err)
		}
		s.markSaved(snap, saved)
	}

	if len(retry) > 0 {
		s.mu.Lock()
		s.pending = append(retry, s.pending...)
		s.mu.Unlock()
	}

	if idleCheck {
		if _, err := s.MarkAsNew(ctx, ReasonIdle, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// markSaved records tiers written for snap if the current bill has not been
// edited since the snapshot was taken.
func (s *Session) markSaved(snap *models.Bill, saved models.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.bill
	s.applyImage(cur, snap)
	if cur.ID() == snap.ID() && cur.Revision == snap.Revision {
		cur.Saved |= saved
	}
}

// MarkRemoteSaved records a finished remote backup of revision rev.
func (s *Session) MarkRemoteSaved(id string, rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bill.ID() == id && s.bill.Revision == rev {
		s.bill.Saved |= models.TierRemote
	}
}

// FileRemoved notes that the bill file for id was deleted outside the
// session, so the next save writes it again.
func (s *Session) FileRemoved(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bill.ID() == id && s.bill.Saved.Has(models.TierFile) {
		s.bill.Saved &^= models.TierFile
		s.logger.Info("Bill file removed, will save again", "bill", id)
		s.RequestSnapshot()
	}
}

func (s *Session) save(ctx context.Context, b *models.Bill, tiers models.Tier) (models.Tier, error) {
	if tiers == 0 {
		return 0, nil
	}
	saved, err := s.persister.Save(ctx, b, tiers)
	for _, t := range []models.Tier{models.TierCache, models.TierFile, models.TierRemote} {
		if !tiers.Has(t) {
			continue
		}
		result := metrics.ResultOK
		if !saved.Has(t) {
			result = metrics.ResultError
		}
		metrics.Saves.WithLabelValues(t.String(), result).Inc()
	}
	if err != nil {
		s.logger.Warn("Bill save incomplete", "bill", b.ID(), "saved", saved, "error", err)
		return saved, err
	}
	s.logger.Debug("Bill saved", "bill", b.ID(), "tiers", saved)
	if s.backup != nil && saved.Has(models.TierFile) {
		s.backup.Enqueue(b.ID(), b.Revision)
	}
	return saved, nil
}

// prepareImage copies a forked bill's inherited receipt image under its own
// name before the bill is saved.
func (s *Session) prepareImage(ctx context.Context, b *models.Bill) error {
	if b.ImageSource == "" || s.images == nil {
		return nil
	}
	name := b.ID() + filepath.Ext(b.ImageSource)
	if err := s.images.Copy(ctx, b.ImageSource, name); err != nil {
		return fmt.Errorf("copy image %s: %w", b.ImageSource, err)
	}
	b.ImageName = name
	b.ImageSource = ""
	return nil
}

// applyImage carries a finished image copy from snap over to cur.
func (s *Session) applyImage(cur, snap *models.Bill) {
	if cur.ID() == snap.ID() && cur.ImageSource != "" && snap.ImageSource == "" && snap.ImageName != "" {
		cur.ImageName = snap.ImageName
		cur.ImageSource = ""
	}
}

// Allocate runs the cost allocator on the current bill and returns a copy of
// the result.
func (s *Session) Allocate() (*models.Bill, calculator.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := calculator.DistributeCosts(s.bill,
		calculator.WithFairnessCutoff(s.cfg.FairnessCutoff),
		calculator.WithLogger(s.logger),
	)
	return s.bill.Clone(), res
}

// Run saves the current bill every SaveInterval and whenever a snapshot is
// requested, until ctx is done. A last save is attempted on the way out.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := s.SaveIfChanged(saveCtx); err != nil {
				s.logger.Warn("Final save failed", "error", err)
			}
			cancel()
			return nil
		case <-ticker.C:
		case <-s.snapshot:
		}

		if err := s.SaveIfChanged(ctx); err != nil {
			s.logger.Warn("Background save failed", "error", err)
		}
	}
}
