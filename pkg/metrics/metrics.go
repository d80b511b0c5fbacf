package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 指标在包级别注册一次，多个 Handler/Service 实例共享
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	alertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rapidsafe_alerts_created_total",
			Help: "Alert records created, by trigger method",
		},
		[]string{"trigger"},
	)

	alertRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rapidsafe_alert_rejections_total",
			Help: "Alert creations rejected before a record was written, by status",
		},
		[]string{"status"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rapidsafe_notifications_total",
			Help: "Per-recipient notification attempts, by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	fanoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rapidsafe_fanout_duration_seconds",
			Help:    "Wall time of one notification fanout",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	locationUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rapidsafe_location_updates_total",
			Help: "Location updates received, by result (applied, stale, rejected)",
		},
		[]string{"result"},
	)

	activeAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rapidsafe_active_alerts",
			Help: "Alert records currently in the active state",
		},
	)
)

func RecordHTTPRequest(method, path, status string, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func AlertCreated(trigger string) { alertsCreatedTotal.WithLabelValues(trigger).Inc() }

func AlertRejected(status string) { alertRejectionsTotal.WithLabelValues(status).Inc() }

func NotificationResult(trigger string, ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	notificationsTotal.WithLabelValues(trigger, result).Inc()
}

func ObserveFanout(d time.Duration) { fanoutDuration.Observe(d.Seconds()) }

func LocationUpdate(result string) { locationUpdatesTotal.WithLabelValues(result).Inc() }

func SetActiveAlerts(n int64) { activeAlerts.Set(float64(n)) }

// Handler 暴露 /metrics
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) { h.ServeHTTP(c.Writer, c.Request) }
}

// HTTPHandler is the plain net/http form of Handler.
func HTTPHandler() http.Handler { return promhttp.Handler() }
