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

	"github.com/eluxtan/gasledger/internal/metrics"
	"github.com/eluxtan/gasledger/internal/model"
)

// Registry owns the set of bottles and each one's current custodian.
type Registry struct {
	mu      sync.RWMutex
	assets  map[string]*model.Asset
	serials map[string]string // normalized serial -> asset id
	held    map[model.Custodian]map[string]struct{}

	journal Journal
	logger  *slog.Logger
	now     func() time.Time
}

func newRegistry(journal Journal, logger *slog.Logger, now func() time.Time) *Registry {
	return &Registry{
		assets:  make(map[string]*model.Asset),
		serials: make(map[string]string),
		held:    make(map[model.Custodian]map[string]struct{}),
		journal: journal,
		logger:  logger,
		now:     now,
	}
}

// CreateAsset registers a new bottle in the warehouse.
func (r *Registry) CreateAsset(ctx context.Context, serial string, attrs model.AssetAttributes) (*model.Asset, error) {
	normalized := model.NormalizeSerial(serial)
	if normalized == "" {
		return nil, invalidf("serial required")
	}
	if attrs.BottleBrand == "" {
		attrs.BottleBrand = attrs.GasBrand
	}
	if err := attrs.Validate(); err != nil {
		return nil, invalidf("%v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.serials[normalized]; exists {
		return nil, fmt.Errorf("asset %s: %w", normalized, ErrDuplicateSerial)
	}

	now := r.now()
	asset := &model.Asset{
		ID:         uuid.NewString(),
		Serial:     normalized,
		Attributes: attrs,
		Custodian:  model.Warehouse(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.journal.InsertAsset(ctx, asset); err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	r.insertLocked(asset)
	metrics.SetAssetStats(r.statsLocked())

	r.logger.Info("asset created", "asset", asset.ID, "serial", asset.Serial)
	return cloneAsset(asset), nil
}

// GetAsset returns an asset by ID.
func (r *Registry) GetAsset(_ context.Context, id string) (*model.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return cloneAsset(a), nil
}

// GetAssetBySerial returns an asset by serial number (case-insensitive).
func (r *Registry) GetAssetBySerial(_ context.Context, serial string) (*model.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.serials[model.NormalizeSerial(serial)]
	if !ok {
		return nil, fmt.Errorf("serial %s: %w", serial, ErrNotFound)
	}
	return cloneAsset(r.assets[id]), nil
}

// ListAssets returns all live assets ordered by serial, optionally filtered by status.
func (r *Registry) ListAssets(_ context.Context, status model.AssetStatus) []model.Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := make([]model.Asset, 0, len(r.assets))
	for _, a := range r.assets {
		if status != "" && a.Status() != status {
			continue
		}
		assets = append(assets, *cloneAsset(a))
	}
	slices.SortFunc(assets, func(a, b model.Asset) int {
		return strings.Compare(a.Serial, b.Serial)
	})
	return assets
}

// ListByCustodianKind returns the sorted IDs of assets held by custodians of
// the given kind. For KindClient a non-empty clientID narrows the result to
// that client.
func (r *Registry) ListByCustodianKind(kind model.CustodianKind, clientID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	switch {
	case kind == model.KindClient && clientID == "":
		for c, set := range r.held {
			if c.Kind == model.KindClient {
				ids = appendKeys(ids, set)
			}
		}
	case kind == model.KindClient:
		ids = appendKeys(ids, r.held[model.ClientCustodian(clientID)])
	default:
		ids = appendKeys(ids, r.held[model.Custodian{Kind: kind}])
	}

	slices.Sort(ids)
	return ids
}

// Stats counts live assets by lifecycle status.
func (r *Registry) Stats() model.AssetStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statsLocked()
}

// Len returns the number of live assets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}

// setCustodian moves an asset to a new custodian and returns the previous
// one. Only the ledger calls it.
func (r *Registry) setCustodian(id string, c model.Custodian, at time.Time) (model.Custodian, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return model.Custodian{}, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}

	prev := a.Custodian
	r.unindexLocked(a)
	a.Custodian = c
	a.UpdatedAt = at
	r.indexLocked(a)

	metrics.SetAssetStats(r.statsLocked())
	return prev, nil
}

// remove drops an asset from the registry and returns it.
func (r *Registry) remove(ctx context.Context, id string, removal func(*model.Asset) *model.Removal) (*model.Removal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}

	rec := removal(a)
	if err := r.journal.RemoveAsset(ctx, rec); err != nil {
		return nil, fmt.Errorf("removing asset: %w", err)
	}

	r.unindexLocked(a)
	delete(r.assets, id)
	delete(r.serials, a.Serial)

	metrics.SetAssetStats(r.statsLocked())
	return rec, nil
}

// load inserts a persisted asset without journaling it.
func (r *Registry) load(a model.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.serials[a.Serial]; exists {
		return fmt.Errorf("asset %s: %w", a.Serial, ErrDuplicateSerial)
	}
	r.insertLocked(cloneAsset(&a))
	return nil
}

func (r *Registry) insertLocked(a *model.Asset) {
	r.assets[a.ID] = a
	r.serials[a.Serial] = a.ID
	r.indexLocked(a)
}

func (r *Registry) indexLocked(a *model.Asset) {
	set, ok := r.held[a.Custodian]
	if !ok {
		set = make(map[string]struct{})
		r.held[a.Custodian] = set
	}
	set[a.ID] = struct{}{}
}

func (r *Registry) unindexLocked(a *model.Asset) {
	set := r.held[a.Custodian]
	delete(set, a.ID)
	if len(set) == 0 {
		delete(r.held, a.Custodian)
	}
}

func (r *Registry) statsLocked() model.AssetStats {
	s := model.AssetStats{Total: len(r.assets)}
	for c, set := range r.held {
		switch c.Status() {
		case model.StatusInStock:
			s.InStock += len(set)
		case model.StatusInTransit:
			s.InTransit += len(set)
		case model.StatusInCirculation:
			s.InCirculation += len(set)
		}
	}
	return s
}

func appendKeys(dst []string, set map[string]struct{}) []string {
	for id := range set {
		dst = append(dst, id)
	}
	return dst
}

func cloneAsset(a *model.Asset) *model.Asset {
	c := *a
	return &c
}
