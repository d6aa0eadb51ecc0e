package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/model"
)

// AppendMovement records a movement and moves the asset to its new custodian
// in a single transaction. The update only applies while the stored custodian
// still equals the movement's source.
func AppendMovement(ctx context.Context, db *sql.DB, m *model.Movement) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE assets SET custodian = ?, updated_at = ?
		 WHERE id = ? AND custodian = ? AND deleted_at IS NULL`,
		m.To.String(), m.Timestamp, m.AssetID, m.From.String(),
	)
	if err != nil {
		return fmt.Errorf("updating custodian: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking custodian update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("asset %s not held by %s: %w", m.AssetID, m.From, custody.ErrStaleCustodian)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO movements (id, seq, asset_id, from_custodian, to_custodian, performed_by, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Seq, m.AssetID, m.From.String(), m.To.String(), m.PerformedBy, m.Notes, m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("recording movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing movement: %w", err)
	}
	return nil
}

// ListMovements returns every movement in sequence order.
func ListMovements(ctx context.Context, db *sql.DB) ([]model.Movement, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, seq, asset_id, from_custodian, to_custodian, performed_by, notes, created_at
		 FROM movements ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	defer rows.Close()

	var movements []model.Movement
	for rows.Next() {
		var m model.Movement
		var from, to string
		if err := rows.Scan(&m.ID, &m.Seq, &m.AssetID, &from, &to, &m.PerformedBy, &m.Notes, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		if m.From, err = model.ParseCustodian(from); err != nil {
			return nil, fmt.Errorf("movement %d: %w", m.Seq, err)
		}
		if m.To, err = model.ParseCustodian(to); err != nil {
			return nil, fmt.Errorf("movement %d: %w", m.Seq, err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// RepairCustodian overwrites an asset's stored custodian and its update time.
// It is only used to bring the asset table back in line with the movement
// history.
func RepairCustodian(ctx context.Context, db *sql.DB, assetID string, c model.Custodian, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET custodian = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		c.String(), at, assetID,
	)
	if err != nil {
		return fmt.Errorf("repairing custodian: %w", err)
	}
	return nil
}

// RemoveAsset soft-deletes an asset and records the removal for audit.
func RemoveAsset(ctx context.Context, db *sql.DB, r *model.Removal) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE assets SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		r.RemovedAt, r.AssetID,
	)
	if err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("asset %s: %w", r.AssetID, custody.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO asset_removals (asset_id, serial, last_holder, performed_by, reason, removed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.AssetID, r.Serial, r.LastHolder.String(), r.PerformedBy, r.Reason, r.RemovedAt,
	)
	if err != nil {
		return fmt.Errorf("recording removal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing removal: %w", err)
	}
	return nil
}
