package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/remorses/leggiclip/internal/metrics"
)

// MetricsEndpoint exposes the Prometheus scrape endpoint at GET /metrics.
type MetricsEndpoint struct{}

func (e *MetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	handler := metrics.Handler()
	return "GET", "/metrics", func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}
}

func (e *MetricsEndpoint) RequiresInit() bool { return false }

func (e *MetricsEndpoint) Command(_ func() string) *cobra.Command {
	return nil // Scrape endpoint, no CLI command
}
