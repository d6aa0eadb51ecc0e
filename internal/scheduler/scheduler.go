// Package scheduler runs periodic maintenance: projection reconciliation and
// pruning of expired token revocations.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/eluxtan/gasledger/internal/store"
)

// LastReconcileKey is the settings key holding the time of the last reconcile.
const LastReconcileKey = "last_reconcile"

// jobTimeout bounds a single scheduled run.
const jobTimeout = 2 * time.Minute

// Projector recomputes every client projection and reports drifted clients.
type Projector interface {
	RecomputeAll(ctx context.Context) ([]string, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	projector Projector
	db        *sql.DB
	schedule  string
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a scheduler. An empty schedule disables periodic reconciliation.
func New(projector Projector, db *sql.DB, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(),
		projector: projector,
		db:        db,
		schedule:  schedule,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, s.runReconcile); err != nil {
			return fmt.Errorf("scheduling reconcile %q: %w", s.schedule, err)
		}
	}
	if _, err := s.cron.AddFunc("@daily", s.runPrune); err != nil {
		return fmt.Errorf("scheduling token pruning: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "reconcile", s.schedule)
	return nil
}

// Stop stops the cron runner and waits for running jobs to finish or ctx to
// be done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
	s.logger.Info("scheduler stopped")
}

// Reconcile recomputes every client projection, records when it ran and
// returns the IDs of clients whose projection had drifted.
func (s *Scheduler) Reconcile(ctx context.Context) ([]string, error) {
	start := s.now()
	drifted, err := s.projector.RecomputeAll(ctx)
	if err != nil {
		return drifted, fmt.Errorf("reconciling projections: %w", err)
	}

	if s.db != nil {
		if err := store.SetSetting(ctx, s.db, LastReconcileKey, start.UTC().Format(time.RFC3339)); err != nil {
			s.logger.Error("failed to record reconcile time", "error", err)
		}
	}

	s.logger.Info("projections reconciled", "drifted", len(drifted), "duration", s.now().Sub(start).Round(time.Millisecond))
	return drifted, nil
}

func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.Reconcile(ctx); err != nil {
		s.logger.Error("scheduled reconcile failed", "error", err)
	}
}

func (s *Scheduler) runPrune() {
	if s.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := store.PruneRevokedTokens(ctx, s.db, s.now())
	if err != nil {
		s.logger.Error("failed to prune revoked tokens", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("pruned revoked tokens", "count", n)
	}
}
