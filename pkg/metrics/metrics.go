package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics контейнер prometheus-коллекторов сервиса
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueriesTotal  *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec

	dbPoolOpenConnections prometheus.Gauge
	dbPoolInUse           prometheus.Gauge
	dbPoolIdle            prometheus.Gauge

	transitionsTotal *prometheus.CounterVec

	sweepRunsTotal     *prometheus.CounterVec
	sweepExpiredTotal  prometheus.Counter
	notifyEmitFailures prometheus.Counter
}

// New создает и регистрирует коллекторы в default registry
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "path", "status"}),

		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		dbQueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total number of database queries",
			ConstLabels: constLabels,
		}, []string{"operation", "status"}),

		dbQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),

		dbPoolOpenConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "db_pool_open_connections",
			Help:        "Number of open connections in the pool",
			ConstLabels: constLabels,
		}),

		dbPoolInUse: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "db_pool_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}),

		dbPoolIdle: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "db_pool_idle_connections",
			Help:        "Number of idle connections in the pool",
			ConstLabels: constLabels,
		}),

		transitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_transitions_total",
			Help:        "Total number of booking lifecycle transitions by action and result",
			ConstLabels: constLabels,
		}, []string{"action", "result"}),

		sweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "expiry_sweep_runs_total",
			Help:        "Total number of expiry sweep runs",
			ConstLabels: constLabels,
		}, []string{"status"}),

		sweepExpiredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "expiry_sweep_expired_bookings_total",
			Help:        "Total number of bookings expired by the sweeper",
			ConstLabels: constLabels,
		}),

		notifyEmitFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "notify_emit_failures_total",
			Help:        "Total number of failed transition event emissions",
			ConstLabels: constLabels,
		}),
	}
}

// ObserveHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) ObserveHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDBQuery записывает метрики запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dbQueriesTotal.WithLabelValues(operation, status).Inc()
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetDBPoolStats записывает состояние connection pool
func (m *Metrics) SetDBPoolStats(open, inUse, idle int) {
	m.dbPoolOpenConnections.Set(float64(open))
	m.dbPoolInUse.Set(float64(inUse))
	m.dbPoolIdle.Set(float64(idle))
}

// IncTransition записывает результат применения перехода жизненного цикла
func (m *Metrics) IncTransition(action string, result string) {
	m.transitionsTotal.WithLabelValues(action, result).Inc()
}

// ObserveSweep записывает результат прогона Expiry Sweeper
func (m *Metrics) ObserveSweep(expired int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.sweepRunsTotal.WithLabelValues(status).Inc()
	m.sweepExpiredTotal.Add(float64(expired))
}

// IncNotifyEmitFailure записывает неудачную отправку события уведомления
func (m *Metrics) IncNotifyEmitFailure() {
	m.notifyEmitFailures.Inc()
}
