package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/db"
	"github.com/eluxtan/gasledger/internal/model"
	"github.com/eluxtan/gasledger/internal/store"
)

type countingProjector struct {
	calls atomic.Int32
	err   error
}

func (p *countingProjector) RecomputeAll(context.Context) ([]string, error) {
	p.calls.Add(1)
	return nil, p.err
}

func TestReconcileRecordsTime(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tr := custody.New()
	c, _ := tr.Clients.CreateClient(ctx, model.ClientContact{Name: "C", Phone: "0600"})
	a, _ := tr.Registry.CreateAsset(ctx, "SCH-1", model.AssetAttributes{GasBrand: model.BrandTotal, Volume: 3, Material: model.MaterialSteel, Weight: 5})
	tr.Ledger.Transfer(ctx, custody.TransferRequest{AssetID: a.ID, From: model.Warehouse(), To: model.ClientCustodian(c.ID), PerformedBy: "x"})

	s := New(tr.Projector, database, "", nil)
	fixed := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	drifted, err := s.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(drifted) != 0 {
		t.Errorf("expected no drift, got %v", drifted)
	}

	got, _ := store.GetSetting(ctx, database, LastReconcileKey)
	if got != "2026-05-04T03:02:01Z" {
		t.Errorf("expected reconcile time recorded, got %q", got)
	}
}

func TestReconcileError(t *testing.T) {
	p := &countingProjector{err: errors.New("boom")}
	s := New(p, nil, "", nil)

	if _, err := s.Reconcile(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestScheduledReconcileRuns(t *testing.T) {
	p := &countingProjector{}
	s := New(p, nil, "@every 1s", nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for p.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	if p.calls.Load() == 0 {
		t.Error("expected scheduled reconcile to run")
	}
}

func TestStartInvalidSchedule(t *testing.T) {
	s := New(&countingProjector{}, nil, "not a schedule", nil)
	if err := s.Start(); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestPrune(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	store.RevokeToken(ctx, database, "old", now.Add(-time.Hour))

	s := New(&countingProjector{}, database, "", nil)
	s.runPrune()

	if revoked, _ := store.IsTokenRevoked(ctx, database, "old"); revoked {
		t.Error("expected expired revocation pruned")
	}
}
