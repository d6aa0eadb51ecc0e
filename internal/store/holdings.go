package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SaveHoldings replaces a client's stored projection and held count.
func SaveHoldings(ctx context.Context, db *sql.DB, clientID string, assetIDs []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM client_holdings WHERE client_id = ?`, clientID,
	); err != nil {
		return fmt.Errorf("clearing holdings: %w", err)
	}

	for _, id := range assetIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO client_holdings (client_id, asset_id) VALUES (?, ?)`, clientID, id,
		); err != nil {
			return fmt.Errorf("inserting holding: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE clients SET held_count = ? WHERE id = ?`, len(assetIDs), clientID,
	); err != nil {
		return fmt.Errorf("updating held count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing holdings: %w", err)
	}
	return nil
}

// ListHoldings returns every client's stored asset IDs, sorted per client.
func ListHoldings(ctx context.Context, db *sql.DB) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT client_id, asset_id FROM client_holdings ORDER BY client_id, asset_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	defer rows.Close()

	holdings := make(map[string][]string)
	for rows.Next() {
		var clientID, assetID string
		if err := rows.Scan(&clientID, &assetID); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		holdings[clientID] = append(holdings[clientID], assetID)
	}
	return holdings, rows.Err()
}
