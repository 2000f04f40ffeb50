package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/mmynk/tabsplit/internal/backup"
	"github.com/mmynk/tabsplit/internal/config"
	"github.com/mmynk/tabsplit/internal/lifecycle"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
	"github.com/mmynk/tabsplit/internal/storage/file"
	"github.com/mmynk/tabsplit/internal/storage/remote"
	"github.com/mmynk/tabsplit/internal/storage/sqlite"
)

// app wires the storage tiers, the backup queue and the bill session for
// the commands that work on stored bills.
type app struct {
	cfg     config.Client
	logger  *slog.Logger
	files   *file.Store
	cache   *sqlite.SQLiteStore
	gateway *storage.Gateway
	queue   *backup.Queue // nil without a backup server
	session *lifecycle.Session
}

func sessionConfig(cfg config.Client) lifecycle.Config {
	return lifecycle.Config{
		MinIdle:        cfg.MinIdle,
		MaxIdle:        cfg.MaxIdle,
		IdleCheck:      cfg.IdleCheck,
		SaveInterval:   cfg.SaveInterval,
		Tiers:          models.TierCache | models.TierFile,
		FairnessCutoff: cfg.FairnessCutoff,
	}
}

// openApp opens the tiers under cfg.DataDir and resumes the newest stored
// bill, or starts a fresh one.
func openApp(ctx context.Context, cfg config.Client, logger *slog.Logger) (*app, error) {
	files, err := file.New(filepath.Join(cfg.DataDir, "bills"))
	if err != nil {
		return nil, err
	}
	cache, err := sqlite.New(filepath.Join(cfg.DataDir, "cache.db"))
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, files: files, cache: cache}

	opts := []storage.GatewayOption{
		storage.WithTier(models.TierCache, cache),
		storage.WithTier(models.TierFile, files),
		storage.WithRetryPolicy(storage.RetryPolicy{Interval: cfg.RetryBackoff, Attempts: cfg.RetryAttempts}),
		storage.WithGatewayLogger(logger),
	}
	if cfg.RemoteEnabled() {
		opts = append(opts, storage.WithTier(models.TierRemote,
			remote.New(http.DefaultClient, cfg.RemoteURL, cfg.RemoteEmail, cfg.RemotePassword, logger)))
	}
	a.gateway = storage.NewGateway(opts...)

	current, err := a.newest(ctx)
	if err != nil {
		cache.Close()
		return nil, err
	}

	sessionOpts := []lifecycle.Option{
		lifecycle.WithConfig(sessionConfig(cfg)),
		lifecycle.WithLogger(logger),
		lifecycle.WithImageStore(files),
	}
	if cfg.RemoteEnabled() {
		a.queue = backup.New(a.gateway,
			backup.WithLogger(logger),
			backup.WithOnDone(func(id string, rev uint64) { a.session.MarkRemoteSaved(id, rev) }),
		)
		sessionOpts = append(sessionOpts, lifecycle.WithBackup(a.queue))
	}
	a.session = lifecycle.New(a.gateway, current, sessionOpts...)

	if _, err := a.session.Resume(ctx); err != nil {
		logger.Warn("Could not freeze idle bill", "error", err)
	}
	return a, nil
}

// newest loads the most recent readable bill from the file tier, or returns
// nil if there is none.
func (a *app) newest(ctx context.Context) (*models.Bill, error) {
	infos, err := a.gateway.List(ctx, models.TierFile)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	for _, info := range infos {
		if info.Size < 0 {
			continue
		}
		bill, _, err := a.gateway.Load(ctx, info.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return bill, nil
	}
	return nil, nil
}

// flush saves the session and pushes queued backups before a one-shot
// command exits.
func (a *app) flush(ctx context.Context) error {
	err := a.session.SaveIfChanged(ctx)
	if a.queue != nil {
		a.queue.Flush(ctx)
	}
	return err
}

// watch runs the save loop, the bill file watcher and the backup worker
// until ctx is done.
func (a *app) watch(ctx context.Context) error {
	w, err := a.files.NewWatcher(a.logger)
	if err != nil {
		return fmt.Errorf("watch bills: %w", err)
	}
	defer w.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx, a.session.FileRemoved)
	}()
	if a.queue != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.queue.Run(ctx)
		}()
	}

	a.logger.Info("Watching bill", "bill", a.session.ID(), "dir", a.files.Dir())
	err = a.session.Run(ctx)
	wg.Wait()
	return err
}

func (a *app) Close() error {
	return a.cache.Close()
}
