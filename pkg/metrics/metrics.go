package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amoylab/familia/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry   *prometheus.Registry
	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   *prometheus.GaugeVec

	wsConns     prometheus.Gauge
	onlineUsers prometheus.Gauge
	eventsOut   *prometheus.CounterVec
	eventsDrop  *prometheus.CounterVec
	eventsIn    *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry:   r,
		httpReqCnt: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"}),
		httpDur:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: buckets}, []string{"method", "route", "status"}),
		httpInfl:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"}),

		wsConns:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "realtime_connections"}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "realtime_online_users"}),
		eventsOut:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "realtime_events_delivered_total"}, []string{"event"}),
		eventsDrop:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "realtime_events_dropped_total"}, []string{"event", "reason"}),
		eventsIn:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "realtime_events_received_total"}, []string{"event", "status"}),
	}
	r.MustRegister(m.httpReqCnt, m.httpDur, m.httpInfl)
	r.MustRegister(m.wsConns, m.onlineUsers, m.eventsOut, m.eventsDrop, m.eventsIn)
	return m
}

// ConnectionOpened and ConnectionClosed track live websocket connections.
func (m *Metrics) ConnectionOpened() { m.wsConns.Inc() }

func (m *Metrics) ConnectionClosed() { m.wsConns.Dec() }

func (m *Metrics) OnlineUsers(n int) { m.onlineUsers.Set(float64(n)) }

func (m *Metrics) EventDelivered(event string) { m.eventsOut.WithLabelValues(event).Inc() }

func (m *Metrics) EventDropped(event, reason string) {
	m.eventsDrop.WithLabelValues(event, reason).Inc()
}

// EventReceived counts inbound frames; status is "accepted" or "rejected"
func (m *Metrics) EventReceived(event, status string) {
	m.eventsIn.WithLabelValues(event, status).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
