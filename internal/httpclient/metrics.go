package httpclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы обновления пары (label result).
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	RefreshNoToken = "no_token"
)

// Metrics — счётчики клиента. Нулевой *Metrics допустим: все методы no-op.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	refresh  *prometheus.CounterVec
	waiters  prometheus.Counter
	replays  *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg (nil — prometheus.DefaultRegisterer).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Outgoing API requests by method and status code (0 for transport errors).",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Outgoing API request latency including refresh and replay.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "refresh_total",
			Help:      "Token refresh cycles by result.",
		}, []string{"result"}),
		waiters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "refresh_waiters_total",
			Help:      "Requests that waited for an in-flight token refresh.",
		}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "client",
			Name:      "replays_total",
			Help:      "Requests resubmitted after a refresh, by final status code.",
		}, []string{"code"}),
	}

	reg.MustRegister(m.requests, m.duration, m.refresh, m.waiters, m.replays)

	return m
}

func (m *Metrics) observeRequest(method string, code int, d time.Duration) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) refreshDone(result string) {
	if m == nil {
		return
	}

	m.refresh.WithLabelValues(result).Inc()
}

func (m *Metrics) refreshWaiter() {
	if m == nil {
		return
	}

	m.waiters.Inc()
}

func (m *Metrics) replayed(code int) {
	if m == nil {
		return
	}

	m.replays.WithLabelValues(strconv.Itoa(code)).Inc()
}
