package custody

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eluxtan/gasledger/internal/metrics"
	"github.com/eluxtan/gasledger/internal/model"
)

// TransferRequest asks the ledger to move an asset from one custodian to another.
type TransferRequest struct {
	AssetID     string
	From        model.Custodian
	To          model.Custodian
	PerformedBy string
	Notes       string
}

func (req TransferRequest) validate() error {
	if strings.TrimSpace(req.AssetID) == "" {
		return invalidf("asset id required")
	}
	if err := req.From.Validate(); err != nil {
		return invalidf("from: %v", err)
	}
	if err := req.To.Validate(); err != nil {
		return invalidf("to: %v", err)
	}
	if strings.TrimSpace(req.PerformedBy) == "" {
		return invalidf("performed by required")
	}
	return nil
}

// MovementFilter narrows List results. Zero values match everything.
type MovementFilter struct {
	AssetID  string
	ClientID string
}

// Ledger is the append-only sequence of custody transfers and the only
// entry point for changing an asset's custodian.
type Ledger struct {
	registry  *Registry
	clients   *ClientBook
	projector *Projector
	locks     *keyedMutex

	// gate is held shared by transfers and exclusively by client deletion,
	// so a client cannot disappear while a transfer to it is in flight.
	gate sync.RWMutex

	// clock assigns sequence numbers and non-decreasing timestamps.
	clock   sync.Mutex
	lastSeq uint64
	lastTS  time.Time

	mu      sync.RWMutex
	records []*model.Movement // ordered by Seq
	byAsset map[string][]*model.Movement

	journal Journal
	logger  *slog.Logger
	now     func() time.Time
}

func newLedger(registry *Registry, clients *ClientBook, projector *Projector, journal Journal, logger *slog.Logger, now func() time.Time) *Ledger {
	return &Ledger{
		registry:  registry,
		clients:   clients,
		projector: projector,
		locks:     newKeyedMutex(),
		byAsset:   make(map[string][]*model.Movement),
		journal:   journal,
		logger:    logger,
		now:       now,
	}
}

// Transfer validates the request against the registry, appends a movement
// and updates the asset's custodian as one unit, then recomputes the
// projection of every client involved.
func (l *Ledger) Transfer(ctx context.Context, req TransferRequest) (*model.Movement, error) {
	m, err := l.transfer(ctx, req)
	metrics.ObserveTransfer(transferResult(err))
	if err != nil {
		if errors.Is(err, ErrStaleCustodian) {
			l.logger.Warn("transfer rejected: stale custodian", "asset", req.AssetID,
				"from", req.From.String(), "to", req.To.String(), "by", req.PerformedBy, "error", err)
		}
		return nil, err
	}

	l.logger.Info("transfer recorded", "seq", m.Seq, "asset", m.AssetID,
		"from", m.From.String(), "to", m.To.String(), "by", m.PerformedBy)

	// The ledger and registry are committed; projections are re-derivable,
	// so a failure here is logged and left for reconciliation.
	for _, clientID := range affectedClients(m.From, m.To) {
		if _, err := l.projector.Recompute(context.WithoutCancel(ctx), clientID); err != nil {
			metrics.ObserveProjectionFailure()
			l.logger.Error("failed to recompute client projection", "client", clientID, "error", err)
		}
	}

	out := *m
	return &out, nil
}

func (l *Ledger) transfer(ctx context.Context, req TransferRequest) (*model.Movement, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(req.AssetID)
	defer unlock()
	l.gate.RLock()
	defer l.gate.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asset, err := l.registry.GetAsset(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}
	if !asset.Custodian.Equal(req.From) {
		return nil, &ConflictError{AssetID: req.AssetID, Expected: req.From, Actual: asset.Custodian}
	}
	if req.To.Equal(req.From) {
		return nil, fmt.Errorf("asset %s already held by %s: %w", req.AssetID, req.To, ErrNoOpTransfer)
	}
	if req.To.IsClient() && !l.clients.Exists(req.To.ClientID) {
		return nil, fmt.Errorf("client %s: %w", req.To.ClientID, ErrUnknownClient)
	}

	// Validation passed: from here the transfer runs to completion.
	ctx = context.WithoutCancel(ctx)

	seq, ts := l.tick()
	m := &model.Movement{
		ID:          uuid.NewString(),
		Seq:         seq,
		AssetID:     req.AssetID,
		From:        req.From,
		To:          req.To,
		PerformedBy: strings.TrimSpace(req.PerformedBy),
		Notes:       strings.TrimSpace(req.Notes),
		Timestamp:   ts,
	}

	if err := l.journal.AppendMovement(ctx, m); err != nil {
		return nil, fmt.Errorf("recording movement: %w", err)
	}
	if err := l.commit(m); err != nil {
		return nil, fmt.Errorf("updating custodian: %w", err)
	}
	return m, nil
}

// History returns the movements of one asset in sequence order.
func (l *Ledger) History(_ context.Context, assetID string) []model.Movement {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyMovements(l.byAsset[assetID])
}

// List returns movements matching the filter, newest first.
func (l *Ledger) List(_ context.Context, filter MovementFilter) []model.Movement {
	l.mu.RLock()
	defer l.mu.RUnlock()

	source := l.records
	if filter.AssetID != "" {
		source = l.byAsset[filter.AssetID]
	}

	out := make([]model.Movement, 0, len(source))
	for i := len(source) - 1; i >= 0; i-- {
		m := source[i]
		if filter.ClientID != "" && m.From.ClientID != filter.ClientID && m.To.ClientID != filter.ClientID {
			continue
		}
		out = append(out, *m)
	}
	return out
}

// AssetHistory returns an asset together with its movements, read under one
// lock so the custodian always matches the last movement.
func (l *Ledger) AssetHistory(ctx context.Context, assetID string) (*model.Asset, []model.Movement, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	asset, err := l.registry.GetAsset(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}
	return asset, copyMovements(l.byAsset[assetID]), nil
}

// referencesClient reports whether any recorded movement names the client.
func (l *Ledger) referencesClient(clientID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, m := range l.records {
		if m.From.ClientID == clientID || m.To.ClientID == clientID {
			return true
		}
	}
	return false
}

// Replay folds an asset's movements in sequence order, starting from the
// warehouse, and returns the custodian they imply.
func (l *Ledger) Replay(_ context.Context, assetID string) model.Custodian {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return replay(l.byAsset[assetID])
}

// Len returns the number of recorded movements.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// LastSeq returns the most recently assigned sequence number.
func (l *Ledger) LastSeq() uint64 {
	l.clock.Lock()
	defer l.clock.Unlock()
	return l.lastSeq
}

func (l *Ledger) tick() (uint64, time.Time) {
	l.clock.Lock()
	defer l.clock.Unlock()

	l.lastSeq++
	ts := l.now()
	if ts.Before(l.lastTS) {
		ts = l.lastTS
	}
	l.lastTS = ts
	return l.lastSeq, ts
}

// commit records m and moves its asset to m.To as one step: readers holding
// the ledger lock never see one without the other. Lock order is ledger, then
// registry. Transfers on different assets may finish out of sequence order,
// so records are inserted by Seq.
func (l *Ledger) commit(m *model.Movement) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.registry.setCustodian(m.AssetID, m.To, m.Timestamp); err != nil {
		return err
	}
	l.records = insertBySeq(l.records, m)
	l.byAsset[m.AssetID] = insertBySeq(l.byAsset[m.AssetID], m)
	return nil
}

// load restores persisted movements without journaling them.
func (l *Ledger) load(movements []model.Movement) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock.Lock()
	defer l.clock.Unlock()

	for i := range movements {
		m := movements[i]
		l.records = insertBySeq(l.records, &m)
		l.byAsset[m.AssetID] = insertBySeq(l.byAsset[m.AssetID], &m)
		if m.Seq > l.lastSeq {
			l.lastSeq = m.Seq
		}
		if m.Timestamp.After(l.lastTS) {
			l.lastTS = m.Timestamp
		}
	}
}

func (l *Ledger) replayAll() map[string]model.Custodian {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]model.Custodian, len(l.byAsset))
	for id, ms := range l.byAsset {
		out[id] = replay(ms)
	}
	return out
}

func replay(ms []*model.Movement) model.Custodian {
	c := model.Warehouse()
	for _, m := range ms {
		c = m.To
	}
	return c
}

func insertBySeq(ms []*model.Movement, m *model.Movement) []*model.Movement {
	if n := len(ms); n == 0 || ms[n-1].Seq < m.Seq {
		return append(ms, m)
	}
	i, _ := slices.BinarySearchFunc(ms, m.Seq, func(e *model.Movement, seq uint64) int {
		return cmp.Compare(e.Seq, seq)
	})
	return slices.Insert(ms, i, m)
}

func copyMovements(ms []*model.Movement) []model.Movement {
	out := make([]model.Movement, len(ms))
	for i, m := range ms {
		out[i] = *m
	}
	return out
}

func affectedClients(from, to model.Custodian) []string {
	var ids []string
	if from.IsClient() {
		ids = append(ids, from.ClientID)
	}
	if to.IsClient() && to.ClientID != from.ClientID {
		ids = append(ids, to.ClientID)
	}
	return ids
}

func transferResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrStaleCustodian):
		return metrics.ResultStale
	case errors.Is(err, ErrNoOpTransfer):
		return metrics.ResultNoOp
	case errors.Is(err, ErrUnknownClient):
		return metrics.ResultUnknownClient
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrInvalidInput):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
