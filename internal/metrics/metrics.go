// Package metrics exposes Prometheus counters/gauges for the coordinator's
// background loops and HTTP front via github.com/prometheus/client_golang.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClaimsIssued counts fields handed out by the dispatcher, by search
	// mode and strategy.
	ClaimsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nicefield_claims_issued_total",
		Help: "Fields handed out by the claim dispatcher.",
	}, []string{"mode", "strategy"})

	// SubmissionsAccepted/Rejected count validator outcomes by search mode.
	SubmissionsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nicefield_submissions_accepted_total",
		Help: "Submissions that passed validation and were inserted.",
	}, []string{"mode"})

	SubmissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nicefield_submissions_rejected_total",
		Help: "Submissions rejected by the validator, by error kind.",
	}, []string{"mode", "kind"})

	// ConsensusRuns / ConsensusFlags count the consensus engine's outcomes.
	ConsensusRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nicefield_consensus_runs_total",
		Help: "Consensus engine invocations across all fields.",
	})

	ConsensusFlagsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nicefield_consensus_flags_total",
		Help: "Fields flagged for a tied largest-agreement group.",
	})

	// DownsampleRuns counts roll-up passes over chunks/bases.
	DownsampleRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nicefield_downsample_runs_total",
		Help: "Downsampling roll-up passes, by scope (chunk/base).",
	}, []string{"scope"})

	// FilterAuditDivergences counts filter-cascade/ground-truth mismatches
	// found by the soundness audit — any nonzero value is a correctness bug.
	FilterAuditDivergences = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nicefield_filter_audit_divergences_total",
		Help: "Fields where the niceonly filter cascade diverged from ground truth.",
	})

	// SubmitThrottled counts requests the rate limiter rejected ahead of
	// the submission validator, by route.
	SubmitThrottled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nicefield_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter, by route.",
	}, []string{"route"})

	// RequestDuration times every HTTP request by route and status class.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nicefield_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)

// RequestTiming is a Gin middleware that observes RequestDuration for every
// request, keyed by the matched route template (not the raw path, so
// /claim/:id doesn't create unbounded label cardinality).
func RequestTiming() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := statusClass(c.Writer.Status())
		RequestDuration.WithLabelValues(route, status).Observe(time.Since(start).Seconds())
	}
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
