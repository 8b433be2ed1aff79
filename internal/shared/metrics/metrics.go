package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_runs_started_total",
		Help: "Total analysis runs started",
	})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_runs_completed_total",
		Help: "Total analysis runs that reached Complete",
	})

	RunsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_runs_failed_total",
		Help: "Total analysis runs that reached Failed, by stage",
	}, []string{"stage"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of each pipeline stage in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
)

// IncRunStarted increments the started counter.
func IncRunStarted() {
	RunsStarted.Inc()
}

// IncRunCompleted increments the completed counter.
func IncRunCompleted() {
	RunsCompleted.Inc()
}

// IncRunFailed increments the failed counter for stage.
func IncRunFailed(stage string) {
	RunsFailed.WithLabelValues(stage).Inc()
}

// ObserveStage records how long a stage took.
func ObserveStage(stage string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRequest counts a served HTTP request.
func ObserveRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
