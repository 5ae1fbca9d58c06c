package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beacon-agent/beacon/engine/events"
	"github.com/beacon-agent/beacon/engine/llm"
	"github.com/beacon-agent/beacon/engine/webhook"
	"github.com/beacon-agent/beacon/pkg/logger"
)

const (
	defaultHost = "127.0.0.1"
	defaultPort = 5580

	httpReadTimeout       = 15 * time.Second
	httpWriteTimeout      = 15 * time.Second
	httpIdleTimeout       = 60 * time.Second
	serverShutdownTimeout = 5 * time.Second
)

// Config tunes the HTTP surface and the webhook delivery pipeline behind it.
type Config struct {
	Host     string
	Port     int
	Webhooks webhook.Options
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
}

// Server wires the event bus, webhook service, and LLM session behind a gin
// router. One Server owns one agent session.
type Server struct {
	cfg      Config
	log      logger.Logger
	engine   *gin.Engine
	bus      *events.Bus
	webhooks *webhook.Service
	session  *Session
}

func New(cfg Config, initial *llm.Config) (*Server, error) {
	cfg.setDefaults()
	keys, err := llm.NewEnvKeySource()
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		log:      logger.Default(),
		bus:      events.NewBus(),
		webhooks: webhook.NewService(nil, cfg.Webhooks),
		session:  NewSession(llm.NewReconciler(keys), initial),
	}
	s.webhooks.Subscribe(s.bus)

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestContext())
	s.registerRoutes()
	return s, nil
}

// Bus exposes the event bus so agent components can publish into the webhook
// pipeline.
func (s *Server) Bus() *events.Bus { return s.bus }

// Webhooks exposes the webhook service for programmatic registration, e.g.
// hooks declared in the agent file.
func (s *Server) Webhooks() *webhook.Service { return s.webhooks }

// Session exposes the live LLM configuration holder.
func (s *Server) Session() *Session { return s.session }

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// requestContext attaches the server logger to every request context so
// downstream handlers log through the same sink.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.ContextWithLogger(c.Request.Context(), s.log)
		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api/v0")
	webhook.RegisterRoutes(api.Group("/webhooks"), s.webhooks)
	api.GET("/llm-config", s.getLLMConfig)
	api.PATCH("/llm-config", s.patchLLMConfig)
}

func (s *Server) getLLMConfig(c *gin.Context) {
	c.JSON(http.StatusOK, redactConfig(s.session.Current()))
}

// patchLLMConfig applies a partial update through the reconciler. An invalid
// outcome returns the structured errors and leaves the active config alone.
func (s *Server) patchLLMConfig(c *gin.Context) {
	var update llm.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	outcome := s.session.Apply(c.Request.Context(), &update)
	if !outcome.Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors":   outcome.Errors,
			"warnings": outcome.Warnings,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"config":   redactConfig(outcome.Config),
		"warnings": outcome.Warnings,
	})
}

// redactConfig shapes a config for API responses; the key itself never
// leaves the process.
func redactConfig(cfg *llm.Config) gin.H {
	return gin.H{
		"provider":          cfg.Provider,
		"model":             cfg.Model,
		"router":            cfg.Router,
		"has_api_key":       cfg.APIKey != "",
		"base_url":          cfg.BaseURL,
		"max_iterations":    cfg.MaxIterations,
		"temperature":       cfg.Temperature,
		"max_output_tokens": cfg.MaxOutputTokens,
		"max_input_tokens":  cfg.MaxInputTokens,
	}
}

// Run serves HTTP until ctx is cancelled, then drains connections and
// detaches the webhook listeners.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  httpReadTimeout,
		WriteTimeout: httpWriteTimeout,
		IdleTimeout:  httpIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.log.Info("server started", "addr", httpServer.Addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.webhooks.Cleanup()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}
