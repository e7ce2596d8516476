// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RunsStarted counts generation runs accepted by the orchestrator.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leggiclip",
		Name:      "runs_started_total",
		Help:      "Number of generation runs started.",
	})

	// RunsCompleted counts runs that finished every phase.
	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leggiclip",
		Name:      "runs_completed_total",
		Help:      "Number of generation runs completed successfully.",
	})

	// RunsFailed counts runs that ended with an error or cancellation.
	RunsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leggiclip",
		Name:      "runs_failed_total",
		Help:      "Number of generation runs that failed.",
	})

	// SnapshotsEmitted counts item sequence snapshots sent to consumers.
	SnapshotsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leggiclip",
		Name:      "snapshots_emitted_total",
		Help:      "Number of item snapshots emitted across all runs.",
	})

	// RendersCompleted counts avatar renders that produced a playable URL.
	RendersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leggiclip",
		Name:      "renders_completed_total",
		Help:      "Number of avatar renders that completed.",
	})

	// RendersFailed counts avatar renders that failed or were abandoned.
	RendersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "leggiclip",
		Name:      "renders_failed_total",
		Help:      "Number of avatar renders that failed or were abandoned.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
