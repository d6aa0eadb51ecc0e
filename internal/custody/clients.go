package custody

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eluxtan/gasledger/internal/model"
)

// ClientBook holds client records. The held-asset fields of each client are
// written only by the projector.
type ClientBook struct {
	mu      sync.RWMutex
	clients map[string]*model.Client

	journal Journal
	logger  *slog.Logger
	now     func() time.Time
}

func newClientBook(journal Journal, logger *slog.Logger, now func() time.Time) *ClientBook {
	return &ClientBook{
		clients: make(map[string]*model.Client),
		journal: journal,
		logger:  logger,
		now:     now,
	}
}

// CreateClient registers a client with no held assets.
func (b *ClientBook) CreateClient(ctx context.Context, contact model.ClientContact) (*model.Client, error) {
	contact = trimContact(contact)
	if err := contact.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}

	now := b.now()
	c := &model.Client{
		ID:           uuid.NewString(),
		Name:         contact.Name,
		Phone:        contact.Phone,
		Address:      contact.Address,
		HeldAssetIDs: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.journal.InsertClient(ctx, c); err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	b.clients[c.ID] = c

	b.logger.Info("client created", "client", c.ID, "name", c.Name)
	return cloneClient(c), nil
}

// GetClient returns a client with its current projection.
func (b *ClientBook) GetClient(_ context.Context, id string) (*model.Client, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	return cloneClient(c), nil
}

// UpdateClient replaces a client's contact attributes.
func (b *ClientBook) UpdateClient(ctx context.Context, id string, contact model.ClientContact) (*model.Client, error) {
	contact = trimContact(contact)
	if err := contact.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", id, ErrNotFound)
	}

	updated := cloneClient(c)
	updated.Name = contact.Name
	updated.Phone = contact.Phone
	updated.Address = contact.Address
	updated.UpdatedAt = b.now()

	if err := b.journal.UpdateClient(ctx, updated); err != nil {
		return nil, fmt.Errorf("updating client: %w", err)
	}
	b.clients[id] = updated
	return cloneClient(updated), nil
}

// ListClients returns all clients ordered by name.
func (b *ClientBook) ListClients(_ context.Context) []model.Client {
	b.mu.RLock()
	defer b.mu.RUnlock()

	clients := make([]model.Client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, *cloneClient(c))
	}
	slices.SortFunc(clients, func(a, b model.Client) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return clients
}

// remove deletes a client record. The caller checks that nothing refers to it.
func (b *ClientBook) remove(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[id]; !ok {
		return fmt.Errorf("client %s: %w", id, ErrNotFound)
	}
	if err := b.journal.DeleteClient(ctx, id); err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	delete(b.clients, id)
	return nil
}

// Exists reports whether a client with the given ID is registered.
func (b *ClientBook) Exists(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.clients[id]
	return ok
}

func (b *ClientBook) ids() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.clients))
	for id := range b.clients {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (b *ClientBook) holdings(id string) ([]string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.clients[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(c.HeldAssetIDs), true
}

// setHoldings overwrites a client's projection. Only the projector calls it.
func (b *ClientBook) setHoldings(id string, assetIDs []string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.clients[id]
	if !ok {
		return false
	}
	c.HeldAssetIDs = assetIDs
	c.HeldCount = len(assetIDs)
	return true
}

func (b *ClientBook) load(c model.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	loaded := cloneClient(&c)
	if loaded.HeldAssetIDs == nil {
		loaded.HeldAssetIDs = []string{}
	}
	loaded.HeldCount = len(loaded.HeldAssetIDs)
	b.clients[c.ID] = loaded
}

func trimContact(c model.ClientContact) model.ClientContact {
	return model.ClientContact{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}

func cloneClient(c *model.Client) *model.Client {
	out := *c
	out.HeldAssetIDs = slices.Clone(c.HeldAssetIDs)
	if out.HeldAssetIDs == nil {
		out.HeldAssetIDs = []string{}
	}
	return &out
}
