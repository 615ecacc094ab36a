package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ContractMetrics records contract entry-point activity segmented by
// contract, operation, and outcome.
type ContractMetrics struct {
	invocations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

var (
	contractMetricsOnce sync.Once
	contractRegistry    *ContractMetrics
)

// Contracts returns the lazily-initialised metrics registry used to record
// contract invocations.
func Contracts() *ContractMetrics {
	contractMetricsOnce.Do(func() {
		contractRegistry = &ContractMetrics{
			invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stellarguard",
				Subsystem: "contract",
				Name:      "invocations_total",
				Help:      "Total contract entry-point invocations segmented by contract, operation, and outcome.",
			}, []string{"contract", "op", "outcome"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stellarguard",
				Subsystem: "contract",
				Name:      "failures_total",
				Help:      "Total failed contract invocations segmented by contract and tagged error code.",
			}, []string{"contract", "op", "code"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stellarguard",
				Subsystem: "contract",
				Name:      "latency_seconds",
				Help:      "Contract invocation latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"contract", "op"}),
		}
		prometheus.MustRegister(
			contractRegistry.invocations,
			contractRegistry.failures,
			contractRegistry.latency,
		)
	})
	return contractRegistry
}

// Observe records one invocation outcome together with its duration.
func (m *ContractMetrics) Observe(contract, op string, err error, took time.Duration, code string) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.failures.WithLabelValues(contract, op, code).Inc()
	}
	m.invocations.WithLabelValues(contract, op, outcome).Inc()
	m.latency.WithLabelValues(contract, op).Observe(took.Seconds())
}
