package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor owns the service's metrics. A nil *Monitor is valid and records
// nothing, which keeps tests free of registry setup.
type Monitor struct {
	registry *prometheus.Registry

	ledgerOperations *prometheus.CounterVec
	storageFailures  *prometheus.CounterVec
	malformedRecords prometheus.Counter
	bookingsCreated  *prometheus.CounterVec
	lifecycleKeys    *prometheus.CounterVec
	queryDuration    *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

func NewMonitor() *Monitor {
	m := &Monitor{
		registry: prometheus.NewRegistry(),

		ledgerOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_operations_total",
				Help: "Total ledger operations",
			},
			[]string{"operation", "status"},
		),

		storageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_storage_failures_total",
				Help: "Key-value store calls that failed",
			},
			[]string{"operation"},
		),

		malformedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_malformed_records_total",
				Help: "Stored booking records dropped on load",
			},
		),

		bookingsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_created_total",
				Help: "Bookings created per payment method",
			},
			[]string{"payment_method", "status"},
		),

		lifecycleKeys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_lifecycle_keys_total",
				Help: "Ledger keys touched by lifecycle routines",
			},
			[]string{"action"},
		),

		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_duration_seconds",
				Help:    "Duration of list view queries",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"view"},
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}

	m.registry.MustRegister(
		m.ledgerOperations,
		m.storageFailures,
		m.malformedRecords,
		m.bookingsCreated,
		m.lifecycleKeys,
		m.queryDuration,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Monitor) TrackLedgerOperation(operation, status string) {
	if m == nil {
		return
	}
	m.ledgerOperations.WithLabelValues(operation, status).Inc()
}

func (m *Monitor) TrackStorageFailure(operation string) {
	if m == nil {
		return
	}
	m.storageFailures.WithLabelValues(operation).Inc()
}

func (m *Monitor) TrackMalformedRecords(n int) {
	if m == nil || n == 0 {
		return
	}
	m.malformedRecords.Add(float64(n))
}

func (m *Monitor) TrackBookingCreated(paymentMethod, status string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(paymentMethod, status).Inc()
}

func (m *Monitor) TrackLifecycleKeys(action string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.lifecycleKeys.WithLabelValues(action).Add(float64(n))
}

func (m *Monitor) TrackQuery(view string, started time.Time) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(view).Observe(time.Since(started).Seconds())
}

func (m *Monitor) TrackHTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
