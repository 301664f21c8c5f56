// Package metrics records offer search outcomes as Prometheus series.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beetlebot/rewards-cli/internal/core"
)

// SearchMetrics implements core.SearchObserver.
type SearchMetrics struct {
	registry *prometheus.Registry
	searches *prometheus.CounterVec
	offers   prometheus.Counter
	latency  *prometheus.HistogramVec
}

func NewSearchMetrics(reg *prometheus.Registry) *SearchMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &SearchMetrics{
		registry: reg,
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rewards_offer_searches_total",
			Help: "Pair searches by outcome status",
		}, []string{"status"}),
		offers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rewards_offers_received_total",
			Help: "Offers returned across all pair searches",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rewards_offer_search_seconds",
			Help:    "Pair search latency",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"status"}),
	}
	reg.MustRegister(m.searches, m.offers, m.latency)
	return m
}

func (m *SearchMetrics) ObserveSearch(o core.SearchOutcome) {
	status := string(o.Status)
	m.searches.WithLabelValues(status).Inc()
	m.offers.Add(float64(o.Offers))
	m.latency.WithLabelValues(status).Observe(o.Elapsed.Seconds())
}

func (m *SearchMetrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *SearchMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
