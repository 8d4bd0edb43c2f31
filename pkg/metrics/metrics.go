package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса
// Все методы безопасны для nil-получателя: при выключенных метриках можно передавать nil
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
	dbOpenConns     prometheus.Gauge
	dbInUseConns    prometheus.Gauge
	dbIdleConns     prometheus.Gauge
	dbWaitCount     prometheus.Gauge

	appointmentTransitions *prometheus.CounterVec
	waitlistNotifications  prometheus.Counter
	waitlistClaims         *prometheus.CounterVec
	waitlistExpirations    prometheus.Counter
	notifications          *prometheus.CounterVec
	cacheRequests          *prometheus.CounterVec
	eventsPublished        *prometheus.CounterVec
}

// New создает метрики и регистрирует их в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry создает метрики в указанном реестре
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: labels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		dbQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Total number of failed database queries",
			ConstLabels: labels,
		}, []string{"operation"}),
		dbOpenConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_open_connections", Help: "Open connections in the pool", ConstLabels: labels,
		}),
		dbInUseConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_in_use_connections", Help: "Connections currently in use", ConstLabels: labels,
		}),
		dbIdleConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_idle_connections", Help: "Idle connections in the pool", ConstLabels: labels,
		}),
		dbWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_wait_count", Help: "Total number of connections waited for", ConstLabels: labels,
		}),
		appointmentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "appointment_transitions_total",
			Help:        "Appointment lifecycle transitions by event",
			ConstLabels: labels,
		}, []string{"event"}),
		waitlistNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "waitlist_notifications_total",
			Help:        "Waitlist entries offered a freed slot",
			ConstLabels: labels,
		}),
		waitlistClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "waitlist_claims_total",
			Help:        "Waitlist claim attempts by result",
			ConstLabels: labels,
		}, []string{"result"}),
		waitlistExpirations: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "waitlist_expirations_total",
			Help:        "Waitlist offers expired by the claim window timer",
			ConstLabels: labels,
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "notifications_total",
			Help:        "Outbound patient notifications by result",
			ConstLabels: labels,
		}, []string{"result"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "availability_cache_requests_total",
			Help:        "Availability cache lookups by result",
			ConstLabels: labels,
		}, []string{"result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "domain_events_published_total",
			Help:        "Domain events published to the event bus",
			ConstLabels: labels,
		}, []string{"type", "result"}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.dbQueryDuration, m.dbQueryErrors,
		m.dbOpenConns, m.dbInUseConns, m.dbIdleConns, m.dbWaitCount,
		m.appointmentTransitions, m.waitlistNotifications, m.waitlistClaims, m.waitlistExpirations,
		m.notifications, m.cacheRequests, m.eventsPublished,
	)

	return m
}

// ObserveHTTPRequest учитывает HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDBQuery учитывает запрос к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil && err != sql.ErrNoRows {
		m.dbQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetDBPoolStats обновляет метрики пула соединений
func (m *Metrics) SetDBPoolStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.dbOpenConns.Set(float64(stats.OpenConnections))
	m.dbInUseConns.Set(float64(stats.InUse))
	m.dbIdleConns.Set(float64(stats.Idle))
	m.dbWaitCount.Set(float64(stats.WaitCount))
}

func (m *Metrics) IncAppointmentTransition(event string) {
	if m == nil {
		return
	}
	m.appointmentTransitions.WithLabelValues(event).Inc()
}

func (m *Metrics) IncWaitlistNotification() {
	if m == nil {
		return
	}
	m.waitlistNotifications.Inc()
}

func (m *Metrics) IncWaitlistClaim(result string) {
	if m == nil {
		return
	}
	m.waitlistClaims.WithLabelValues(result).Inc()
}

func (m *Metrics) IncWaitlistExpiration() {
	if m == nil {
		return
	}
	m.waitlistExpirations.Inc()
}

func (m *Metrics) IncNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncCache(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) IncEventPublished(eventType, result string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType, result).Inc()
}
