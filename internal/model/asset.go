package model

import (
	"fmt"
	"strings"
	"time"
)

// AssetStatus is the lifecycle status of a bottle. It is always derived from
// the custodian kind.
type AssetStatus string

// Asset statuses.
const (
	StatusInStock       AssetStatus = "in-stock"
	StatusInTransit     AssetStatus = "in-transit"
	StatusInCirculation AssetStatus = "in-circulation"
)

// ValidStatus reports whether s names a known status.
func ValidStatus(s string) bool {
	switch AssetStatus(s) {
	case StatusInStock, StatusInTransit, StatusInCirculation:
		return true
	}
	return false
}

// Gas brands.
const (
	BrandAfriquia = "Afriquia"
	BrandTotal    = "Total"
	BrandButagaz  = "Butagaz"
)

// Bottle materials.
const (
	MaterialSteel     = "steel"
	MaterialComposite = "composite"
)

// nominalVolumes are the accepted bottle sizes in kilograms of gas.
var nominalVolumes = map[float64]bool{3: true, 6: true, 13: true, 34: true}

// AssetAttributes are the physical attributes of a bottle, fixed at intake.
type AssetAttributes struct {
	GasBrand    string  `json:"gas_brand"`
	BottleBrand string  `json:"bottle_brand,omitempty"`
	Volume      float64 `json:"volume"`
	Material    string  `json:"material"`
	Weight      float64 `json:"weight"`
}

// Validate checks the attributes against the known catalog.
func (a AssetAttributes) Validate() error {
	var problems []string

	switch a.GasBrand {
	case BrandAfriquia, BrandTotal, BrandButagaz:
	default:
		problems = append(problems, fmt.Sprintf("invalid gas brand %q", a.GasBrand))
	}
	if !nominalVolumes[a.Volume] {
		problems = append(problems, fmt.Sprintf("invalid volume %v", a.Volume))
	}
	if a.Material != MaterialSteel && a.Material != MaterialComposite {
		problems = append(problems, fmt.Sprintf("invalid material %q", a.Material))
	}
	if a.Weight <= 0 {
		problems = append(problems, "weight must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// Asset is a serialized gas bottle.
type Asset struct {
	ID         string          `json:"id"`
	Serial     string          `json:"serial"`
	Attributes AssetAttributes `json:"attributes"`
	Custodian  Custodian       `json:"custodian"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Status returns the lifecycle status derived from the current custodian.
func (a *Asset) Status() AssetStatus {
	return a.Custodian.Status()
}

// NormalizeSerial returns the canonical form of a serial number used for
// uniqueness checks.
func NormalizeSerial(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

// AssetStats counts live assets by lifecycle status.
type AssetStats struct {
	Total         int `json:"total"`
	InStock       int `json:"in_stock"`
	InTransit     int `json:"in_transit"`
	InCirculation int `json:"in_circulation"`
}
