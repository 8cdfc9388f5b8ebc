package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	domainerrors "github.com/profilehue/profilehue-server/internal/errors"
	"github.com/profilehue/profilehue-server/internal/store"
)

// RefresherConfig controls background re-analysis of stale records.
type RefresherConfig struct {
	Schedule string        // cron spec; empty disables the refresher
	Batch    int           // records per run
	MaxAge   time.Duration // records older than this are refreshed
}

// Refresher periodically re-analyzes the stalest stored profiles so the
// leaderboards follow profile image changes.
type Refresher struct {
	analyses *AnalysisService
	store    store.Store
	cfg      RefresherConfig
	logger   *slog.Logger

	mu   sync.Mutex // serializes runs
	cron *cron.Cron
}

// NewRefresher creates a refresher. Call Start to schedule it.
func NewRefresher(analyses *AnalysisService, s store.Store, cfg RefresherConfig, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 25
	}
	return &Refresher{
		analyses: analyses,
		store:    s,
		cfg:      cfg,
		logger:   logger.With("component", "refresher"),
	}
}

// Start schedules RunOnce. It is a no-op when no schedule is configured or
// records never go stale.
func (r *Refresher) Start() error {
	if r.cfg.Schedule == "" || r.cfg.MaxAge <= 0 {
		r.logger.Info("background refresh disabled")
		return nil
	}

	cl := cronLogger{r.logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddFunc(r.cfg.Schedule, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			r.logger.Error("refresh run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", r.cfg.Schedule, err)
	}
	c.Start()
	r.cron = c

	r.logger.Info("background refresh scheduled",
		"schedule", r.cfg.Schedule,
		"batch", r.cfg.Batch,
		"max_age", r.cfg.MaxAge,
	)
	return nil
}

// Stop stops scheduling and waits for a running refresh, or for ctx.
func (r *Refresher) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce refreshes up to Batch stale records, oldest first, and returns how
// many were refreshed. A rate-limit response ends the run early. Records whose
// profile no longer exists are deleted; other failures postpone the record by
// one MaxAge so later records get their turn.
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.analyses.now().Add(-r.cfg.MaxAge)
	stale, err := r.store.StaleAnalyses(ctx, cutoff, r.cfg.Batch)
	if err != nil {
		return 0, fmt.Errorf("list stale analyses: %w", err)
	}

	refreshed, removed := 0, 0
	for _, a := range stale {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		_, err := r.analyses.Analyze(ctx, a.Handle, AnalyzeOptions{})
		switch {
		case err == nil:
			refreshed++
			continue
		case errors.Is(err, domainerrors.ErrRateLimited):
			r.logger.Warn("rate limited, ending refresh run early", "refreshed", refreshed)
		case errors.Is(err, domainerrors.ErrNotFound):
			if err := r.analyses.Delete(ctx, a.Handle); err != nil {
				r.logger.Warn("failed to remove vanished profile", "handle", a.Handle, "error", err)
			} else {
				removed++
				r.logger.Info("profile no longer exists, removed", "handle", a.Handle)
			}
			continue
		default:
			r.logger.Warn("refresh failed, postponing", "handle", a.Handle, "error", err)
			if err := r.analyses.postpone(ctx, a); err != nil {
				r.logger.Warn("failed to postpone refresh", "handle", a.Handle, "error", err)
			}
			continue
		}
		break
	}

	r.logger.Info("refresh run complete",
		"candidates", len(stale),
		"refreshed", refreshed,
		"removed", removed,
	)
	return refreshed, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
