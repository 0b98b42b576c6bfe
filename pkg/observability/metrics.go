package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics groups the bot's collectors.
type Metrics struct {
	lookups        *prometheus.CounterVec
	lookupDuration *prometheus.HistogramVec
	searches       *prometheus.CounterVec
	quotes         *prometheus.CounterVec
	abandoned      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricebot_partition_lookups_total",
				Help: "Partition lookups by partition and outcome",
			},
			[]string{"partition", "outcome"},
		),
		lookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricebot_partition_lookup_duration_seconds",
				Help:    "Duration of partition lookups",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"partition"},
		),
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricebot_searches_total",
				Help: "Federated domain searches by outcome",
			},
			[]string{"outcome"},
		),
		quotes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricebot_quotes_total",
				Help: "Final prices quoted by language code and copy inclusion",
			},
			[]string{"language", "copy"},
		),
		abandoned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricebot_sessions_abandoned_total",
				Help: "Sessions dropped without a quote, by reason",
			},
			[]string{"reason"},
		),
	}
	reg.MustRegister(m.lookups, m.lookupDuration, m.searches, m.quotes, m.abandoned)
	return m
}

// ObserveLookup records one partition lookup.
func (m *Metrics) ObserveLookup(partition, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(partition, outcome).Inc()
	m.lookupDuration.WithLabelValues(partition).Observe(d.Seconds())
}

// ObserveSearch records a federated search and whether it matched.
func (m *Metrics) ObserveSearch(matches int) {
	if m == nil {
		return
	}
	outcome := OutcomeFound
	if matches == 0 {
		outcome = OutcomeNotFound
	}
	m.searches.WithLabelValues(outcome).Inc()
}

// ObserveQuote records a final price.
func (m *Metrics) ObserveQuote(language string, copyIncluded bool) {
	if m == nil {
		return
	}
	copyLabel := "no"
	if copyIncluded {
		copyLabel = "yes"
	}
	m.quotes.WithLabelValues(language, copyLabel).Inc()
}

// ObserveAbandoned records a session dropped without a quote.
func (m *Metrics) ObserveAbandoned(reason string) {
	if m == nil {
		return
	}
	m.abandoned.WithLabelValues(reason).Inc()
}
