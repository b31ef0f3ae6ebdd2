package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	coveringCells *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	unionLookups  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		coveringCells: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "s2celld",
			Name:      "covering_cells",
			Help:      "Number of cells in returned coverings.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"kind"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s2celld",
			Name:      "covering_cache_lookups_total",
			Help:      "Covering cache lookups by result.",
		}, []string{"result"}),
		unionLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s2celld",
			Name:      "union_lookups_total",
			Help:      "Union membership lookups by result.",
		}, []string{"result"}),
	}
}

func (m *metrics) observeCovering(kind string, cells int, cached bool) {
	m.coveringCells.WithLabelValues(kind).Observe(float64(cells))
	result := "miss"
	if cached {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *metrics) observeUnionLookup(contains bool) {
	result := "outside"
	if contains {
		result = "inside"
	}
	m.unionLookups.WithLabelValues(result).Inc()
}
