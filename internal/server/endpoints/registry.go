package endpoints

import (
	"github.com/remorses/leggiclip/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Generation
		&GenerateEndpoint{},

		// Video history and render status
		&ListVideosEndpoint{},
		&VideoStatusEndpoint{},

		// Law text sources
		&SourceURLEndpoint{},
		&SourcePDFEndpoint{},

		// Prometheus scrape endpoint
		&MetricsEndpoint{},

		// Static files (catch-all, must be last)
		&StaticEndpoint{},
	}
}
