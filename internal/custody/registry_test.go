package custody

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/eluxtan/gasledger/internal/model"
)

func TestCreateAsset(t *testing.T) {
	tr := New()
	ctx := context.Background()

	a, err := tr.Registry.CreateAsset(ctx, "  ab-123 ", steel13)
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if a.ID == "" {
		t.Error("expected non-empty ID")
	}
	if a.Serial != "AB-123" {
		t.Errorf("expected normalized serial AB-123, got %q", a.Serial)
	}
	if !a.Custodian.Equal(model.Warehouse()) {
		t.Errorf("expected warehouse custodian, got %s", a.Custodian)
	}
	if a.Status() != model.StatusInStock {
		t.Errorf("expected in-stock, got %q", a.Status())
	}
	if a.Attributes.BottleBrand != model.BrandAfriquia {
		t.Errorf("expected bottle brand to default to gas brand, got %q", a.Attributes.BottleBrand)
	}
}

func TestCreateAssetDuplicateSerial(t *testing.T) {
	tr := New()
	ctx := context.Background()

	if _, err := tr.Registry.CreateAsset(ctx, "DUP-1", steel13); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	_, err := tr.Registry.CreateAsset(ctx, "dup-1", steel13)
	if !errors.Is(err, ErrDuplicateSerial) {
		t.Fatalf("expected ErrDuplicateSerial, got %v", err)
	}
	if tr.Registry.Len() != 1 {
		t.Errorf("expected 1 asset, got %d", tr.Registry.Len())
	}
}

func TestCreateAssetInvalid(t *testing.T) {
	tr := New()
	ctx := context.Background()

	tests := []struct {
		name   string
		serial string
		attrs  model.AssetAttributes
	}{
		{"empty serial", "  ", steel13},
		{"bad brand", "X1", model.AssetAttributes{GasBrand: "Shell", Volume: 13, Material: model.MaterialSteel, Weight: 27}},
		{"bad volume", "X2", model.AssetAttributes{GasBrand: model.BrandTotal, Volume: 5, Material: model.MaterialSteel, Weight: 27}},
		{"bad material", "X3", model.AssetAttributes{GasBrand: model.BrandTotal, Volume: 6, Material: "wood", Weight: 27}},
		{"zero weight", "X4", model.AssetAttributes{GasBrand: model.BrandTotal, Volume: 6, Material: model.MaterialSteel}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.Registry.CreateAsset(ctx, tt.serial, tt.attrs); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestGetAssetBySerial(t *testing.T) {
	tr := New()
	ctx := context.Background()
	created := newTestAsset(t, tr, "SER-9")

	got, err := tr.Registry.GetAssetBySerial(ctx, "ser-9")
	if err != nil {
		t.Fatalf("GetAssetBySerial: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected %s, got %s", created.ID, got.ID)
	}

	if _, err := tr.Registry.GetAssetBySerial(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := tr.Registry.GetAsset(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReturnedAssetIsCopy(t *testing.T) {
	tr := New()
	ctx := context.Background()
	a := newTestAsset(t, tr, "COPY-1")

	a.Custodian = model.Agent()

	got, _ := tr.Registry.GetAsset(ctx, a.ID)
	if !got.Custodian.Equal(model.Warehouse()) {
		t.Errorf("mutating a returned asset changed the registry: %s", got.Custodian)
	}
}

func TestListAssetsAndStats(t *testing.T) {
	tr := New()
	ctx := context.Background()
	c := newTestClient(t, tr, "C")

	a := newTestAsset(t, tr, "B-2")
	b := newTestAsset(t, tr, "A-1")
	d := newTestAsset(t, tr, "C-3")

	mustTransfer(t, tr, a.ID, model.Warehouse(), model.Agent())
	mustTransfer(t, tr, d.ID, model.Warehouse(), model.ClientCustodian(c.ID))

	all := tr.Registry.ListAssets(ctx, "")
	if len(all) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(all))
	}
	if all[0].ID != b.ID {
		t.Errorf("expected assets ordered by serial, got %s first", all[0].Serial)
	}

	if got := tr.Registry.ListAssets(ctx, model.StatusInTransit); len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("expected only %s in transit, got %v", a.ID, got)
	}

	stats := tr.Registry.Stats()
	want := model.AssetStats{Total: 3, InStock: 1, InTransit: 1, InCirculation: 1}
	if stats != want {
		t.Errorf("expected %+v, got %+v", want, stats)
	}
}

func TestListByCustodianKind(t *testing.T) {
	tr := New()
	c1 := newTestClient(t, tr, "C1")
	c2 := newTestClient(t, tr, "C2")

	a := newTestAsset(t, tr, "K-1")
	b := newTestAsset(t, tr, "K-2")
	w := newTestAsset(t, tr, "K-3")

	mustTransfer(t, tr, a.ID, model.Warehouse(), model.ClientCustodian(c1.ID))
	mustTransfer(t, tr, b.ID, model.Warehouse(), model.ClientCustodian(c2.ID))

	if got := tr.Registry.ListByCustodianKind(model.KindClient, c1.ID); !slices.Equal(got, []string{a.ID}) {
		t.Errorf("client filter: got %v", got)
	}

	all := tr.Registry.ListByCustodianKind(model.KindClient, "")
	want := []string{a.ID, b.ID}
	slices.Sort(want)
	if !slices.Equal(all, want) {
		t.Errorf("all clients: expected %v, got %v", want, all)
	}

	if got := tr.Registry.ListByCustodianKind(model.KindWarehouse, ""); !slices.Equal(got, []string{w.ID}) {
		t.Errorf("warehouse: got %v", got)
	}
	if got := tr.Registry.ListByCustodianKind(model.KindAgent, ""); len(got) != 0 {
		t.Errorf("agent: expected none, got %v", got)
	}
}
