package custody

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/eluxtan/gasledger/internal/metrics"
	"github.com/eluxtan/gasledger/internal/model"
)

// Holdings is a client's projected set of held assets.
type Holdings struct {
	ClientID string   `json:"client_id"`
	AssetIDs []string `json:"asset_ids"`
	Count    int      `json:"count"`
}

// Projector derives each client's held assets from the registry. Every
// recompute replaces the projection wholesale; nothing increments or
// decrements it.
type Projector struct {
	registry *Registry
	clients  *ClientBook
	locks    *keyedMutex

	journal Journal
	logger  *slog.Logger
}

func newProjector(registry *Registry, clients *ClientBook, journal Journal, logger *slog.Logger) *Projector {
	return &Projector{
		registry: registry,
		clients:  clients,
		locks:    newKeyedMutex(),
		journal:  journal,
		logger:   logger,
	}
}

// Recompute replaces the client's projection with the registry's membership.
// Calls for the same client are serialized.
func (p *Projector) Recompute(ctx context.Context, clientID string) (Holdings, error) {
	h, _, err := p.recompute(ctx, clientID)
	return h, err
}

// RecomputeAll recomputes every client and returns the IDs of clients whose
// projection had drifted from the registry.
func (p *Projector) RecomputeAll(ctx context.Context) ([]string, error) {
	var drifted []string
	for _, id := range p.clients.ids() {
		if err := ctx.Err(); err != nil {
			return drifted, err
		}
		_, changed, err := p.recompute(ctx, id)
		if err != nil {
			return drifted, err
		}
		if changed {
			drifted = append(drifted, id)
		}
	}

	if len(drifted) > 0 {
		metrics.ObserveDrift(len(drifted))
		p.logger.Warn("client projections drifted", "clients", len(drifted))
	}
	return drifted, nil
}

// Holdings returns the current projection for a client.
func (p *Projector) Holdings(clientID string) (Holdings, error) {
	ids, ok := p.clients.holdings(clientID)
	if !ok {
		return Holdings{}, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}
	return Holdings{ClientID: clientID, AssetIDs: ids, Count: len(ids)}, nil
}

func (p *Projector) recompute(ctx context.Context, clientID string) (Holdings, bool, error) {
	unlock := p.locks.Lock(clientID)
	defer unlock()

	prev, ok := p.clients.holdings(clientID)
	if !ok {
		return Holdings{}, false, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}

	ids := p.registry.ListByCustodianKind(model.KindClient, clientID)
	if ids == nil {
		ids = []string{}
	}
	changed := !slices.Equal(prev, ids)

	if changed {
		if err := p.journal.SaveHoldings(ctx, clientID, ids); err != nil {
			return Holdings{}, false, fmt.Errorf("saving holdings for client %s: %w", clientID, err)
		}
	}
	p.clients.setHoldings(clientID, slices.Clone(ids))

	return Holdings{ClientID: clientID, AssetIDs: ids, Count: len(ids)}, changed, nil
}
