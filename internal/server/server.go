// Package server wires the HTTP surface of leggiclip: the streaming
// generation endpoint, video history, law text sources and the embedded UI.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/remorses/leggiclip/internal/api"
	"github.com/remorses/leggiclip/internal/assemble"
	"github.com/remorses/leggiclip/internal/avatar"
	"github.com/remorses/leggiclip/internal/config"
	"github.com/remorses/leggiclip/internal/footage"
	"github.com/remorses/leggiclip/internal/lawsource"
	"github.com/remorses/leggiclip/internal/media"
	"github.com/remorses/leggiclip/internal/pipeline"
	"github.com/remorses/leggiclip/internal/providers"
	"github.com/remorses/leggiclip/internal/server/endpoints"
	"github.com/remorses/leggiclip/internal/store"
	"github.com/remorses/leggiclip/internal/svcctx"
)

// Server is the main leggiclip HTTP server. It owns the provider registry,
// the video history store and the pipeline orchestrator.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	orchestrator *pipeline.Orchestrator
	videoStore   *store.Store

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	// Create provider registry with hot reload
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToProviderRegistryConfig())
		cfg.Logger.Info("provider registry reloaded from config")
	})

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server. Write timeout stays unset: the generate endpoint
	// streams for the whole run.
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	return s, nil
}

// Start initializes the pipeline collaborators and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	appCfg := s.configMgr.Get()

	videoStore, err := store.Open(appCfg.Store.Path)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open video store: %w", err)
	}
	s.videoStore = videoStore

	cache, err := footage.NewCache(appCfg.Media.CacheDir)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to create footage cache: %w", err)
	}
	pexels := footage.NewPexelsClient(footage.PexelsConfig{
		APIKey: config.ResolveEnvVars(appCfg.Pexels.APIKey),
	})
	footageSvc := footage.NewService(pexels, cache)

	renderer := avatar.New(avatar.Config{
		APIKey:     config.ResolveEnvVars(appCfg.HeyGen.APIKey),
		TemplateID: appCfg.HeyGen.TemplateID,
		BaseURL:    appCfg.HeyGen.BaseURL,
	})

	uploader := media.NewUploader(media.UploaderConfig{
		Endpoint: appCfg.Upload.URL,
		APIKey:   config.ResolveEnvVars(appCfg.Upload.AuthToken),
	})

	llm, err := s.registry.DefaultLLM()
	if err != nil {
		s.videoStore.Close()
		s.setNotRunning()
		return fmt.Errorf("no usable LLM provider: %w", err)
	}

	s.orchestrator = pipeline.NewOrchestrator(pipeline.Config{
		LLM:            llm,
		Assembler:      assemble.New(),
		Footage:        footageSvc,
		Combiner:       media.NewCombiner(appCfg.Media.WorkDir, s.logger),
		Uploader:       uploader,
		Renderer:       renderer,
		Logger:         s.logger,
		SegmentSeconds: appCfg.Media.SegmentSeconds,
		PollInterval:   appCfg.PollInterval(),
		MaxPollRounds:  appCfg.Defaults.MaxPollRounds,
	})

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Orchestrator: s.orchestrator,
		Registry:     s.registry,
		Renderer:     renderer,
		Store:        s.videoStore,
		LawFetcher:   lawsource.NewFetcher(),
		ConfigMgr:    s.configMgr,
		Logger:       s.logger,
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.videoStore != nil {
		if err := s.videoStore.Close(); err != nil {
			s.logger.Error("video store close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if the pipeline isn't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.orchestrator == nil || s.videoStore == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
