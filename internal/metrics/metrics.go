// Package metrics exposes the agent's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the scrape handler for the default registry the collectors
// above register with.
func Handler() http.Handler {
	return promhttp.Handler()
}

var (
	RoundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "visionagent",
		Name:      "rounds_total",
		Help:      "Completed agent rounds.",
	})

	ToolExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visionagent",
		Name:      "tool_executions_total",
		Help:      "Tool executions by tool name and outcome status.",
	}, []string{"tool", "status"})

	ModeTransitionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "visionagent",
		Name:      "mode_transitions_total",
		Help:      "Sessions that switched from web browsing to local file processing.",
	})

	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "visionagent",
		Name:      "sessions_total",
		Help:      "Finished sessions by terminal status.",
	}, []string{"status"})

	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "visionagent",
		Name:      "session_duration_seconds",
		Help:      "Wall-clock duration of a session.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
)
