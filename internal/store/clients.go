package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/model"
)

// InsertClient stores a new client.
func InsertClient(ctx context.Context, db *sql.DB, c *model.Client) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO clients (id, name, phone, address, held_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Phone, c.Address, c.HeldCount, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting client: %w", err)
	}
	return nil
}

// UpdateClient updates a client's contact attributes.
func UpdateClient(ctx context.Context, db *sql.DB, c *model.Client) error {
	result, err := db.ExecContext(ctx,
		`UPDATE clients SET name = ?, phone = ?, address = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Phone, c.Address, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating client: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("updating client: client %s not found", c.ID)
	}
	return nil
}

// DeleteClient removes a client and its (empty) holdings rows. It refuses
// while active users are linked to the client.
func DeleteClient(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var linked int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE client_id = ? AND deleted_at IS NULL`, id,
	).Scan(&linked); err != nil {
		return fmt.Errorf("counting linked users: %w", err)
	}
	if linked > 0 {
		return fmt.Errorf("client %s has %d linked users: %w", id, linked, custody.ErrClientInUse)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM client_holdings WHERE client_id = ?`, id); err != nil {
		return fmt.Errorf("deleting client holdings: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("client %s: %w", id, custody.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing client deletion: %w", err)
	}
	return nil
}

// ListClients returns all clients with their stored holdings, ordered by name.
func ListClients(ctx context.Context, db *sql.DB) ([]model.Client, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, phone, address, held_count, created_at, updated_at
		 FROM clients ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Address, &c.HeldCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	holdings, err := ListHoldings(ctx, db)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].HeldAssetIDs = holdings[clients[i].ID]
		if clients[i].HeldAssetIDs == nil {
			clients[i].HeldAssetIDs = []string{}
		}
	}
	return clients, nil
}
