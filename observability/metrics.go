package observability

import (
	"math"
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records issuance and marketplace activity.
type EngineMetrics struct {
	MintAttempts       *prometheus.CounterVec
	Sales              prometheus.Counter
	TreasuryBalance    prometheus.Gauge
	AllocatorRemaining prometheus.Gauge
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *EngineMetrics
)

// Metrics returns the lazily-initialised engine metrics registry.
func Metrics() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			MintAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "scape",
				Subsystem: "issuance",
				Name:      "mint_attempts_total",
				Help:      "Total mint attempts segmented by outcome and denial reason.",
			}, []string{"outcome", "reason"}),
			Sales: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "scape",
				Subsystem: "market",
				Name:      "sales_total",
				Help:      "Total completed marketplace sales.",
			}),
			TreasuryBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "scape",
				Subsystem: "treasury",
				Name:      "balance_wei",
				Help:      "Current treasury balance in wei.",
			}),
			AllocatorRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "scape",
				Subsystem: "issuance",
				Name:      "allocator_remaining",
				Help:      "Unassigned slots remaining in the scape pool.",
			}),
		}
		prometheus.MustRegister(
			engineRegistry.MintAttempts,
			engineRegistry.Sales,
			engineRegistry.TreasuryBalance,
			engineRegistry.AllocatorRemaining,
		)
	})
	return engineRegistry
}

// ObserveTreasury updates the treasury balance gauge, clamping values outside
// the float64 range.
func (m *EngineMetrics) ObserveTreasury(balance *big.Int) {
	if m == nil || balance == nil {
		return
	}
	f, _ := new(big.Float).SetInt(balance).Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return
	}
	m.TreasuryBalance.Set(f)
}
