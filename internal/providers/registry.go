package providers

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry holds references to LLM clients. It supports config-driven
// instantiation, hot-reload, and thread-safe access.
type Registry struct {
	mu          sync.RWMutex
	llmClients  map[string]LLMClient
	defaultName string
	logger      *slog.Logger
}

// RegistryConfig describes the desired set of LLM clients.
type RegistryConfig struct {
	LLMProviders map[string]LLMProviderConfig
	Default      string
}

// LLMProviderConfig configures one LLM client.
type LLMProviderConfig struct {
	Type        string // "openai"
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Enabled     bool
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients: make(map[string]LLMClient),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	if r.defaultName == "" {
		r.defaultName = name
	}
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// DefaultLLM returns the default LLM client.
func (r *Registry) DefaultLLM() (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultName == "" {
		return nil, fmt.Errorf("no LLM clients registered")
	}
	client, ok := r.llmClients[r.defaultName]
	if !ok {
		return nil, fmt.Errorf("default LLM client not found: %s", r.defaultName)
	}
	return client, nil
}

// ListLLM returns all registered LLM client names.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	return names
}

// Reload replaces the registered clients based on the given config.
// Unknown provider types are skipped with a warning so one bad entry does
// not take down the rest.
func (r *Registry) Reload(cfg RegistryConfig) {
	clients := make(map[string]LLMClient)
	for name, pc := range cfg.LLMProviders {
		if !pc.Enabled {
			continue
		}
		switch pc.Type {
		case "openai":
			clients[name] = NewOpenAIClient(OpenAIConfig{
				APIKey:      pc.APIKey,
				Model:       pc.Model,
				Temperature: pc.Temperature,
				MaxTokens:   pc.MaxTokens,
			})
		default:
			r.mu.RLock()
			logger := r.logger
			r.mu.RUnlock()
			if logger != nil {
				logger.Warn("unknown LLM provider type", "name", name, "type", pc.Type)
			}
		}
	}

	defaultName := cfg.Default
	if _, ok := clients[defaultName]; !ok {
		defaultName = ""
		for name := range clients {
			if defaultName == "" || name < defaultName {
				defaultName = name
			}
		}
	}

	r.mu.Lock()
	r.llmClients = clients
	r.defaultName = defaultName
	r.mu.Unlock()
}
