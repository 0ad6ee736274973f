package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for the HTTP surface, the scheduling engine and the
// sync pipeline. Everything registers on the default registry and is served
// by Handler.

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demoplan_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "demoplan_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	schedulerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demoplan_scheduler_runs_total",
		Help: "Finished scheduler runs by trigger and terminal state.",
	}, []string{"run_type", "state"})

	schedulerProposalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demoplan_scheduler_proposals_total",
		Help: "Proposals produced by finished scheduler runs, by outcome.",
	}, []string{"outcome"})

	syncPushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demoplan_sync_pushes_total",
		Help: "Upstream push attempts by task kind and outcome.",
	}, []string{"kind", "outcome"})

	syncPullsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "demoplan_sync_pulls_total",
		Help: "Reconciliation pulls by outcome.",
	}, []string{"outcome"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "demoplan_upstream_request_duration_seconds",
		Help:    "MVRetail request latency by endpoint path.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"path"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request counts and latency. Routes are labeled by
// the matched template, so path parameters never explode the cardinality.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordRun counts one finished scheduler run and its proposal outcomes.
func RecordRun(runType, state string, scheduled, requiringSwaps, failed int) {
	schedulerRunsTotal.WithLabelValues(runType, state).Inc()
	schedulerProposalsTotal.WithLabelValues("scheduled").Add(float64(scheduled))
	schedulerProposalsTotal.WithLabelValues("requiring_swap").Add(float64(requiringSwaps))
	schedulerProposalsTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordPush counts one upstream push attempt. Outcome is success, retry or
// permanent.
func RecordPush(kind, outcome string) {
	syncPushesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordPull counts one reconciliation pull.
func RecordPull(outcome string) {
	syncPullsTotal.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records the latency of one MVRetail request.
func ObserveUpstream(path string, d time.Duration) {
	upstreamRequestDuration.WithLabelValues(path).Observe(d.Seconds())
}
