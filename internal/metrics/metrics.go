// Package metrics exposes Prometheus instrumentation for custody operations
// and the HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eluxtan/gasledger/internal/model"
)

// Transfer results.
const (
	ResultOK            = "ok"
	ResultStale         = "stale"
	ResultNoOp          = "noop"
	ResultUnknownClient = "unknown_client"
	ResultNotFound      = "not_found"
	ResultInvalid       = "invalid"
	ResultError         = "error"
)

var (
	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gasledger_transfers_total",
			Help: "Custody transfers by result.",
		},
		[]string{"result"},
	)

	projectionDriftTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gasledger_projection_drift_total",
		Help: "Clients whose held-asset projection differed from the registry during reconciliation.",
	})

	projectionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gasledger_projection_failures_total",
		Help: "Client projections that could not be persisted.",
	})

	custodyRepairsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gasledger_custody_repairs_total",
		Help: "Asset custodians repaired from the ledger during restore.",
	})

	assetRemovalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gasledger_asset_removals_total",
		Help: "Administrative out-of-ledger asset removals.",
	})

	assetsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gasledger_assets",
			Help: "Live assets by lifecycle status.",
		},
		[]string{"status"},
	)
)

// ObserveTransfer counts a transfer attempt.
func ObserveTransfer(result string) {
	transfersTotal.WithLabelValues(result).Inc()
}

// ObserveDrift counts clients repaired by reconciliation.
func ObserveDrift(n int) {
	projectionDriftTotal.Add(float64(n))
}

// ObserveProjectionFailure counts a projection that failed to persist.
func ObserveProjectionFailure() {
	projectionFailuresTotal.Inc()
}

// ObserveRepair counts a custodian repaired from the ledger.
func ObserveRepair() {
	custodyRepairsTotal.Inc()
}

// ObserveRemoval counts an administrative asset removal.
func ObserveRemoval() {
	assetRemovalsTotal.Inc()
}

// SetAssetStats publishes the current asset counts.
func SetAssetStats(s model.AssetStats) {
	assetsByStatus.WithLabelValues(string(model.StatusInStock)).Set(float64(s.InStock))
	assetsByStatus.WithLabelValues(string(model.StatusInTransit)).Set(float64(s.InTransit))
	assetsByStatus.WithLabelValues(string(model.StatusInCirculation)).Set(float64(s.InCirculation))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
