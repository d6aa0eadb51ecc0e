package store

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/db"
	"github.com/eluxtan/gasledger/internal/model"
)

var testAttrs = model.AssetAttributes{GasBrand: model.BrandButagaz, Volume: 6, Material: model.MaterialComposite, Weight: 9.5}

// storedAsset reads a live asset back through LoadSnapshot, or nil if none exists.
func storedAsset(t *testing.T, database *sql.DB, id string) *model.Asset {
	t.Helper()
	snap, err := LoadSnapshot(context.Background(), database)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	for i := range snap.Assets {
		if snap.Assets[i].ID == id {
			return &snap.Assets[i]
		}
	}
	return nil
}

func TestJournalPersistsAndRestores(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tr := custody.New(custody.WithJournal(&Journal{DB: database}))

	c, err := tr.Clients.CreateClient(ctx, model.ClientContact{Name: "Epicerie", Phone: "0522000000"})
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	a, err := tr.Registry.CreateAsset(ctx, "bt-100", testAttrs)
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	b, _ := tr.Registry.CreateAsset(ctx, "bt-101", testAttrs)

	for _, req := range []custody.TransferRequest{
		{AssetID: a.ID, From: model.Warehouse(), To: model.Agent(), PerformedBy: "driver"},
		{AssetID: a.ID, From: model.Agent(), To: model.ClientCustodian(c.ID), PerformedBy: "driver", Notes: "delivered"},
		{AssetID: b.ID, From: model.Warehouse(), To: model.ClientCustodian(c.ID), PerformedBy: "driver"},
	} {
		if _, err := tr.Ledger.Transfer(ctx, req); err != nil {
			t.Fatalf("Transfer: %v", err)
		}
	}

	snap, err := LoadSnapshot(ctx, database)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(snap.Assets) != 2 || len(snap.Clients) != 1 || len(snap.Movements) != 3 {
		t.Fatalf("unexpected snapshot sizes: %d assets, %d clients, %d movements",
			len(snap.Assets), len(snap.Clients), len(snap.Movements))
	}
	if snap.Clients[0].HeldCount != 2 || len(snap.Clients[0].HeldAssetIDs) != 2 {
		t.Errorf("expected persisted projection of 2, got %+v", snap.Clients[0])
	}
	if snap.Movements[1].Notes != "delivered" {
		t.Errorf("expected notes persisted, got %q", snap.Movements[1].Notes)
	}

	restored := custody.New(custody.WithJournal(&Journal{DB: database}))
	repaired, err := restored.Restore(ctx, snap)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(repaired) != 0 {
		t.Errorf("expected no repairs, got %v", repaired)
	}

	got, err := restored.Registry.GetAsset(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if !got.Custodian.Equal(model.ClientCustodian(c.ID)) {
		t.Errorf("expected restored custodian client, got %s", got.Custodian)
	}
	if got.Attributes != a.Attributes {
		t.Errorf("attributes changed: %+v vs %+v", got.Attributes, a.Attributes)
	}

	h, _ := restored.Projector.Holdings(c.ID)
	want := []string{a.ID, b.ID}
	slices.Sort(want)
	if !slices.Equal(h.AssetIDs, want) {
		t.Errorf("expected holdings %v, got %v", want, h.AssetIDs)
	}
}

func TestAppendMovementCompareAndSwap(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := &model.Asset{ID: "a1", Serial: "S1", Attributes: testAttrs, Custodian: model.Warehouse(), CreatedAt: now, UpdatedAt: now}
	if err := InsertAsset(ctx, database, a); err != nil {
		t.Fatalf("InsertAsset: %v", err)
	}

	stale := &model.Movement{ID: "m1", Seq: 1, AssetID: "a1", From: model.Agent(), To: model.Warehouse(), PerformedBy: "x", Timestamp: now}
	if err := AppendMovement(ctx, database, stale); !errors.Is(err, custody.ErrStaleCustodian) {
		t.Fatalf("expected ErrStaleCustodian, got %v", err)
	}

	movements, _ := ListMovements(ctx, database)
	if len(movements) != 0 {
		t.Errorf("expected no movement after rejected append, got %d", len(movements))
	}

	ok := &model.Movement{ID: "m2", Seq: 1, AssetID: "a1", From: model.Warehouse(), To: model.Agent(), PerformedBy: "x", Timestamp: now}
	if err := AppendMovement(ctx, database, ok); err != nil {
		t.Fatalf("AppendMovement: %v", err)
	}
	got := storedAsset(t, database, "a1")
	if got == nil || !got.Custodian.Equal(model.Agent()) {
		t.Errorf("expected agent custodian, got %s", got.Custodian)
	}
}

func TestRepairCustodianFromLedger(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	movedAt := created.Add(time.Hour)

	c := &model.Client{ID: "c1", Name: "C1", Phone: "0600", CreatedAt: created, UpdatedAt: created}
	InsertClient(ctx, database, c)
	a := &model.Asset{ID: "a1", Serial: "S1", Attributes: testAttrs, Custodian: model.Warehouse(), CreatedAt: created, UpdatedAt: created}
	InsertAsset(ctx, database, a)

	AppendMovement(ctx, database, &model.Movement{ID: "m1", Seq: 1, AssetID: "a1",
		From: model.Warehouse(), To: model.ClientCustodian("c1"), PerformedBy: "x", Timestamp: movedAt})

	// Simulate a registry write lost after the ledger was committed.
	if _, err := database.ExecContext(ctx,
		`UPDATE assets SET custodian = 'warehouse', updated_at = ? WHERE id = 'a1'`, created); err != nil {
		t.Fatalf("corrupting asset: %v", err)
	}

	snap, err := LoadSnapshot(ctx, database)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	tr := custody.New(custody.WithJournal(&Journal{DB: database}))
	repaired, err := tr.Restore(ctx, snap)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !slices.Equal(repaired, []string{"a1"}) {
		t.Errorf("expected a1 repaired, got %v", repaired)
	}

	stored := storedAsset(t, database, "a1")
	if !stored.Custodian.Equal(model.ClientCustodian("c1")) {
		t.Errorf("expected stored custodian repaired, got %s", stored.Custodian)
	}
	if !stored.UpdatedAt.Equal(movedAt) {
		t.Errorf("expected stored updated_at %s, got %s", movedAt, stored.UpdatedAt)
	}

	// A second restore finds nothing left to repair.
	snap, _ = LoadSnapshot(ctx, database)
	again, err := custody.New(custody.WithJournal(&Journal{DB: database})).Restore(ctx, snap)
	if err != nil {
		t.Fatalf("second Restore: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("expected no repairs on second restore, got %v", again)
	}

	holdings, _ := ListHoldings(ctx, database)
	if !slices.Equal(holdings["c1"], []string{"a1"}) {
		t.Errorf("expected persisted holdings [a1], got %v", holdings["c1"])
	}
}

func TestRemoveAssetKeepsHistory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tr := custody.New(custody.WithJournal(&Journal{DB: database}))
	a, _ := tr.Registry.CreateAsset(ctx, "GONE-1", testAttrs)
	tr.Ledger.Transfer(ctx, custody.TransferRequest{AssetID: a.ID, From: model.Warehouse(), To: model.Agent(), PerformedBy: "x"})

	if _, err := tr.RemoveAsset(ctx, a.ID, "admin", "scrapped"); err != nil {
		t.Fatalf("RemoveAsset: %v", err)
	}

	if got := storedAsset(t, database, a.ID); got != nil {
		t.Error("expected asset soft-deleted")
	}
	movements, _ := ListMovements(ctx, database)
	if len(movements) != 1 {
		t.Errorf("expected movement history kept, got %d", len(movements))
	}

	removals, err := ListRemovals(ctx, database)
	if err != nil {
		t.Fatalf("ListRemovals: %v", err)
	}
	if len(removals) != 1 || !removals[0].LastHolder.Equal(model.Agent()) || removals[0].Reason != "scrapped" {
		t.Errorf("unexpected removals: %+v", removals)
	}

	if _, err := tr.Registry.CreateAsset(ctx, "GONE-1", testAttrs); err != nil {
		t.Errorf("expected serial reusable after removal: %v", err)
	}
}

func TestAssetImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	InsertAsset(ctx, database, &model.Asset{ID: "a1", Serial: "IMG", Attributes: testAttrs, Custodian: model.Warehouse(), CreatedAt: now, UpdatedAt: now})

	img, mime, err := GetAssetImage(ctx, database, "a1")
	if err != nil {
		t.Fatalf("GetAssetImage: %v", err)
	}
	if img != nil || mime != "" {
		t.Error("expected no image initially")
	}

	if err := SetAssetImage(ctx, database, "a1", []byte{1, 2, 3}, "image/jpeg"); err != nil {
		t.Fatalf("SetAssetImage: %v", err)
	}
	img, mime, _ = GetAssetImage(ctx, database, "a1")
	if len(img) != 3 || mime != "image/jpeg" {
		t.Errorf("expected stored image, got %d bytes %q", len(img), mime)
	}

	if err := SetAssetImage(ctx, database, "missing", []byte{1}, "image/jpeg"); err == nil {
		t.Error("expected error for missing asset")
	}
}
