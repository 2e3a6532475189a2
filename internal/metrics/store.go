package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store connection metrics. Every request that touches the store opens and
// closes its own connection, so opened minus closed is the number currently
// held.
var (
	StoreConnectionsOpened = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_connections_opened_total",
			Help:      "Total number of store connections opened",
		},
	)

	StoreConnectionsClosed = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_connections_closed_total",
			Help:      "Total number of store connections closed",
		},
	)

	StoreConnectFailures = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_connect_failures_total",
			Help:      "Total number of failed store connection attempts",
		},
	)

	// StoreConnectDuration records how long opening a connection takes
	StoreConnectDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_connect_duration_seconds",
			Help:      "Store connection setup latency in seconds",
			// Buckets: 1ms, 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)
)
