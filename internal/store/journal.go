package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/model"
)

// Journal persists custody changes to SQLite.
type Journal struct {
	DB *sql.DB
}

var _ custody.Journal = (*Journal)(nil)

func (j *Journal) InsertAsset(ctx context.Context, a *model.Asset) error {
	return InsertAsset(ctx, j.DB, a)
}

func (j *Journal) RemoveAsset(ctx context.Context, r *model.Removal) error {
	return RemoveAsset(ctx, j.DB, r)
}

func (j *Journal) InsertClient(ctx context.Context, c *model.Client) error {
	return InsertClient(ctx, j.DB, c)
}

func (j *Journal) UpdateClient(ctx context.Context, c *model.Client) error {
	return UpdateClient(ctx, j.DB, c)
}

func (j *Journal) DeleteClient(ctx context.Context, id string) error {
	return DeleteClient(ctx, j.DB, id)
}

func (j *Journal) AppendMovement(ctx context.Context, m *model.Movement) error {
	return AppendMovement(ctx, j.DB, m)
}

func (j *Journal) RepairCustodian(ctx context.Context, assetID string, c model.Custodian, at time.Time) error {
	return RepairCustodian(ctx, j.DB, assetID, c, at)
}

func (j *Journal) SaveHoldings(ctx context.Context, clientID string, assetIDs []string) error {
	return SaveHoldings(ctx, j.DB, clientID, assetIDs)
}

// LoadSnapshot reads the persisted custody state for custody.Tracker.Restore.
func LoadSnapshot(ctx context.Context, db *sql.DB) (custody.Snapshot, error) {
	var snap custody.Snapshot
	var err error

	if snap.Clients, err = ListClients(ctx, db); err != nil {
		return snap, fmt.Errorf("loading clients: %w", err)
	}
	if snap.Assets, err = ListAssets(ctx, db); err != nil {
		return snap, fmt.Errorf("loading assets: %w", err)
	}
	if snap.Movements, err = ListMovements(ctx, db); err != nil {
		return snap, fmt.Errorf("loading movements: %w", err)
	}
	return snap, nil
}
