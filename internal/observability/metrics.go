package observability

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/shopspring/decimal"
)

// Metrics mengumpulkan metrik Prometheus untuk POS.
type Metrics struct {
	registry         *prometheus.Registry
	salesTotal       prometheus.Counter
	revenueTotal     prometheus.Counter
	unitsSold        *prometheus.CounterVec
	commitFailures   *prometheus.CounterVec
	externalCalls    *prometheus.CounterVec
	externalDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	sales := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "odyssey_pos_sales_committed_total",
		Help: "Number of committed sales.",
	})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "odyssey_pos_sales_revenue_total",
		Help: "Gross sale totals including tax.",
	})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_pos_units_sold_total",
		Help: "Units sold per category.",
	}, []string{"category"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_pos_commit_failures_total",
		Help: "Rejected sale commits by reason.",
	}, []string{"reason"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_pos_external_calls_total",
		Help: "Collaborator calls by service and outcome.",
	}, []string{"service", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_pos_external_call_duration_seconds",
		Help:    "Collaborator call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_pos_report_cache_lookups_total",
		Help: "Report cache lookups by result.",
	}, []string{"result"})
	registry.MustRegister(sales, revenue, units, failures, calls, duration, cache)
	return &Metrics{
		registry:         registry,
		salesTotal:       sales,
		revenueTotal:     revenue,
		unitsSold:        units,
		commitFailures:   failures,
		externalCalls:    calls,
		externalDuration: duration,
		cacheLookups:     cache,
	}
}

// ObserveSale mencatat penjualan yang berhasil.
func (m *Metrics) ObserveSale(total decimal.Decimal, unitsByCategory map[string]int) {
	if m == nil {
		return
	}
	m.salesTotal.Inc()
	f, _ := total.Float64()
	m.revenueTotal.Add(f)
	for category, units := range unitsByCategory {
		m.unitsSold.WithLabelValues(category).Add(float64(units))
	}
}

// ObserveCommitFailure counts a rejected commit.
func (m *Metrics) ObserveCommitFailure(reason string) {
	if m == nil {
		return
	}
	m.commitFailures.WithLabelValues(reason).Inc()
}

// ObserveExternalCall records the outcome and latency of a collaborator call.
func (m *Metrics) ObserveExternalCall(service, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.externalCalls.WithLabelValues(service, outcome).Inc()
	m.externalDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// ObserveCacheLookup counts a report cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// WriteText menulis seluruh metrik dalam format eksposisi teks Prometheus.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Gatherer().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

// Gatherer exposes the registry to exporters and tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.DefaultGatherer
	}
	return m.registry
}
