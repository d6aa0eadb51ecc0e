package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eluxtan/gasledger/internal/custody"
	"github.com/eluxtan/gasledger/internal/db"
	"github.com/eluxtan/gasledger/internal/model"
)

func TestDeleteClient(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"c1", "c2"} {
		if err := InsertClient(ctx, database, &model.Client{ID: id, Name: id, Phone: "0600", CreatedAt: now, UpdatedAt: now}); err != nil {
			t.Fatalf("InsertClient: %v", err)
		}
	}

	// A linked client user blocks deletion.
	u, err := CreateUser(ctx, database, "shop", "hash", model.RoleClient, "c2")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := DeleteClient(ctx, database, "c2"); !errors.Is(err, custody.ErrClientInUse) {
		t.Errorf("expected ErrClientInUse with linked user, got %v", err)
	}

	if err := DeleteClient(ctx, database, "c1"); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}
	if err := DeleteClient(ctx, database, "c1"); !errors.Is(err, custody.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	// Once the user is gone the client can be deleted.
	if err := DeleteUser(ctx, database, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := DeleteClient(ctx, database, "c2"); err != nil {
		t.Errorf("DeleteClient after unlinking: %v", err)
	}

	clients, err := ListClients(ctx, database)
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(clients) != 0 {
		t.Errorf("expected no clients left, got %d", len(clients))
	}
}
