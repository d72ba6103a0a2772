// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "comcard"

// Result labels.
const (
	ResultOK      = "ok"
	ResultEmpty   = "empty"
	ResultError   = "error"
	ResultQueued  = "queued"
	ResultSkipped = "skipped"
)

// ExportsTotal counts interactive exports by period, format and result.
var ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "export",
	Name:      "runs_total",
	Help:      "Interactive report exports.",
}, []string{"period", "format", "result"})

// BackupsTotal counts backup-on-write runs by result.
var BackupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "backup",
	Name:      "runs_total",
	Help:      "Automatic month backups.",
}, []string{"result"})

// StoreFallbacksTotal counts remote store failures served by the local store.
var StoreFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "store",
	Name:      "fallbacks_total",
	Help:      "Remote store operations re-issued against the local store.",
}, []string{"operation"})

// PublishFailuresTotal counts failed report publications to external sinks.
var PublishFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "export",
	Name:      "publish_failures_total",
	Help:      "Report publications that failed.",
}, []string{"sink"})

// RateLimitedTotal counts requests rejected by the rate limiter.
var RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-client rate limiter.",
})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
