// Package custody implements the gas bottle custody core: the asset
// registry, the append-only movement ledger and the per-client projection of
// held bottles.
package custody

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eluxtan/gasledger/internal/metrics"
	"github.com/eluxtan/gasledger/internal/model"
)

// Tracker wires the registry, ledger, projector and client book together.
type Tracker struct {
	Registry  *Registry
	Ledger    *Ledger
	Projector *Projector
	Clients   *ClientBook

	journal Journal
	logger  *slog.Logger
}

// Option configures a Tracker.
type Option func(*options)

type options struct {
	journal Journal
	logger  *slog.Logger
	now     func() time.Time
}

// WithJournal persists every change through j.
func WithJournal(j Journal) Option {
	return func(o *options) { o.journal = j }
}

// WithLogger sets the logger used by all components.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates an empty Tracker. Without a journal all state is in memory.
func New(opts ...Option) *Tracker {
	o := options{
		journal: nopJournal{},
		logger:  slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}

	registry := newRegistry(o.journal, o.logger, o.now)
	clients := newClientBook(o.journal, o.logger, o.now)
	projector := newProjector(registry, clients, o.journal, o.logger)
	ledger := newLedger(registry, clients, projector, o.journal, o.logger, o.now)

	return &Tracker{
		Registry:  registry,
		Ledger:    ledger,
		Projector: projector,
		Clients:   clients,
		journal:   o.journal,
		logger:    o.logger,
	}
}

// RemoveAsset deletes an asset outside the ledger. It is an administrative
// override: no movement is recorded, the removal is audited separately, and
// the asset's past movements stay in the ledger.
func (t *Tracker) RemoveAsset(ctx context.Context, id, performedBy, reason string) (*model.Removal, error) {
	if strings.TrimSpace(performedBy) == "" {
		return nil, invalidf("performed by required")
	}

	unlock := t.Ledger.locks.Lock(id)
	defer unlock()

	removedAt := t.Ledger.now()
	rec, err := t.Registry.remove(ctx, id, func(a *model.Asset) *model.Removal {
		return &model.Removal{
			AssetID:     a.ID,
			Serial:      a.Serial,
			LastHolder:  a.Custodian,
			PerformedBy: strings.TrimSpace(performedBy),
			Reason:      strings.TrimSpace(reason),
			RemovedAt:   removedAt,
		}
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveRemoval()
	t.logger.Warn("asset removed outside ledger", "event", "asset_removed",
		"asset", rec.AssetID, "serial", rec.Serial, "last_holder", rec.LastHolder.String(),
		"by", rec.PerformedBy, "reason", rec.Reason)

	if rec.LastHolder.IsClient() {
		if _, err := t.Projector.Recompute(ctx, rec.LastHolder.ClientID); err != nil {
			t.logger.Error("failed to recompute client projection", "client", rec.LastHolder.ClientID, "error", err)
		}
	}
	return rec, nil
}

// DeleteClient removes a client that holds no assets and appears in no
// recorded movement. Otherwise it returns ErrClientInUse.
func (t *Tracker) DeleteClient(ctx context.Context, id string) error {
	t.Ledger.gate.Lock()
	defer t.Ledger.gate.Unlock()

	if !t.Clients.Exists(id) {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if held := t.Registry.ListByCustodianKind(model.KindClient, id); len(held) > 0 {
		return fmt.Errorf("client %s holds %d assets: %w", id, len(held), ErrClientInUse)
	}
	if t.Ledger.referencesClient(id) {
		return fmt.Errorf("client %s has recorded movements: %w", id, ErrClientInUse)
	}
	if err := t.Clients.remove(ctx, id); err != nil {
		return err
	}

	t.logger.Info("client deleted", "client", id)
	return nil
}

// Restore loads persisted state into an empty Tracker. The ledger is the
// durable source: any asset whose stored custodian disagrees with the replay
// of its movements is repaired. Every client projection is then recomputed.
// It returns the IDs of repaired assets.
func (t *Tracker) Restore(ctx context.Context, snap Snapshot) ([]string, error) {
	if t.Registry.Len() > 0 || t.Ledger.Len() > 0 {
		return nil, fmt.Errorf("restore into non-empty tracker")
	}

	for _, c := range snap.Clients {
		t.Clients.load(c)
	}
	for _, a := range snap.Assets {
		if err := t.Registry.load(a); err != nil {
			return nil, fmt.Errorf("loading asset %s: %w", a.ID, err)
		}
	}
	t.Ledger.load(snap.Movements)

	replayed := t.Ledger.replayAll()

	var repaired []string
	for _, a := range t.Registry.ListAssets(ctx, "") {
		want, ok := replayed[a.ID]
		if !ok {
			want = model.Warehouse()
		}
		if a.Custodian.Equal(want) {
			continue
		}
		if want.IsClient() && !t.Clients.Exists(want.ClientID) {
			t.logger.Error("ledger references unknown client", "asset", a.ID, "client", want.ClientID)
			continue
		}

		updatedAt := a.UpdatedAt
		if history := t.Ledger.History(ctx, a.ID); len(history) > 0 {
			updatedAt = history[len(history)-1].Timestamp
		}
		if err := t.journal.RepairCustodian(ctx, a.ID, want, updatedAt); err != nil {
			return repaired, fmt.Errorf("repairing asset %s: %w", a.ID, err)
		}
		if _, err := t.Registry.setCustodian(a.ID, want, updatedAt); err != nil {
			return repaired, err
		}

		metrics.ObserveRepair()
		t.logger.Warn("custodian repaired from ledger", "asset", a.ID,
			"stored", a.Custodian.String(), "ledger", want.String())
		repaired = append(repaired, a.ID)
	}

	if _, err := t.Projector.RecomputeAll(ctx); err != nil {
		return repaired, fmt.Errorf("recomputing projections: %w", err)
	}
	metrics.SetAssetStats(t.Registry.Stats())

	t.logger.Info("custody state restored", "assets", t.Registry.Len(),
		"clients", len(snap.Clients), "movements", t.Ledger.Len(), "repaired", len(repaired))
	return repaired, nil
}
