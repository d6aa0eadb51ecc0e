package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eluxtan/gasledger/internal/model"
)

const assetColumns = `id, serial, gas_brand, bottle_brand, volume, material, weight, custodian, created_at, updated_at`

func scanAsset(row rowScanner) (*model.Asset, error) {
	a := &model.Asset{}
	var custodian string
	err := row.Scan(&a.ID, &a.Serial, &a.Attributes.GasBrand, &a.Attributes.BottleBrand,
		&a.Attributes.Volume, &a.Attributes.Material, &a.Attributes.Weight,
		&custodian, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.Custodian, err = model.ParseCustodian(custodian); err != nil {
		return nil, fmt.Errorf("asset %s: %w", a.ID, err)
	}
	return a, nil
}

// InsertAsset stores a newly registered asset.
func InsertAsset(ctx context.Context, db *sql.DB, a *model.Asset) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO assets (id, serial, gas_brand, bottle_brand, volume, material, weight, custodian, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Serial, a.Attributes.GasBrand, a.Attributes.BottleBrand, a.Attributes.Volume,
		a.Attributes.Material, a.Attributes.Weight, a.Custodian.String(), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting asset: %w", err)
	}
	return nil
}

// ListAssets returns all live assets ordered by serial.
func ListAssets(ctx context.Context, db *sql.DB) ([]model.Asset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE deleted_at IS NULL ORDER BY serial`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// SetAssetImage sets an asset's photo.
func SetAssetImage(ctx context.Context, db *sql.DB, id string, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE assets SET image = ?, image_mime = ? WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting asset image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("setting asset image: asset %s not found", id)
	}
	return nil
}

// GetAssetImage returns an asset's photo and MIME type. Both are empty when
// no photo was uploaded.
func GetAssetImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM assets WHERE id = ? AND deleted_at IS NULL`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting asset image: %w", err)
	}
	return image, mime.String, nil
}

// ListRemovals returns the audit trail of administrative removals, newest first.
func ListRemovals(ctx context.Context, db *sql.DB) ([]model.Removal, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT asset_id, serial, last_holder, performed_by, reason, removed_at
		 FROM asset_removals ORDER BY removed_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing removals: %w", err)
	}
	defer rows.Close()

	var removals []model.Removal
	for rows.Next() {
		var r model.Removal
		var holder string
		if err := rows.Scan(&r.AssetID, &r.Serial, &holder, &r.PerformedBy, &r.Reason, &r.RemovedAt); err != nil {
			return nil, fmt.Errorf("scanning removal: %w", err)
		}
		if r.LastHolder, err = model.ParseCustodian(holder); err != nil {
			return nil, fmt.Errorf("removal of %s: %w", r.AssetID, err)
		}
		removals = append(removals, r)
	}
	return removals, rows.Err()
}
