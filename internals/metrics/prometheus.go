package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pdam"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registrasiTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrasi_transitions_total",
			Help:      "Registration workflow actions by outcome",
		},
		[]string{"action", "result"},
	)

	bulkAssignItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pelanggan_bulk_assign_items_total",
			Help:      "Bulk-assign items by outcome",
		},
		[]string{"result"},
	)

	importRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pelanggan_import_rows_total",
			Help:      "Imported customer rows by format and outcome",
		},
		[]string{"format", "result"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "referensi_cache_lookups_total",
			Help:      "Reference-data cache lookups by result",
		},
		[]string{"result"},
	)
)

func ObserveHTTP(method, route, status string, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RegistrasiTransition: action ∈ submit|approve|reject, result ∈ ok|<error kind>
func RegistrasiTransition(action, result string) {
	registrasiTransitions.WithLabelValues(action, result).Inc()
}

func BulkAssignItems(succeeded, failed int) {
	bulkAssignItems.WithLabelValues("ok").Add(float64(succeeded))
	bulkAssignItems.WithLabelValues("failed").Add(float64(failed))
}

func ImportRows(format string, created, failed int) {
	importRows.WithLabelValues(format, "ok").Add(float64(created))
	importRows.WithLabelValues(format, "failed").Add(float64(failed))
}

func CacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}
