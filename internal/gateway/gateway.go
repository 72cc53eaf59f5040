// Package gateway hosts the transform engine behind a small HTTP API.
//
// DESIGN: The gateway owns no transform logic. It decodes the envelope,
// runs it through the shared engine under the monitoring observer, and
// writes the result document back verbatim.
//
// ROUTES:
//   - POST /v1/transform: canonical envelope in, transform result out
//   - GET  /v1/adapters:  registered adapter keys
//   - GET  /health:       liveness
//   - GET  /stats:        transform counters
//
// A decodable envelope always yields 200, including NO_PROVIDER_AVAILABLE:
// the result document carries the outcome. 4xx is reserved for bodies that
// never became an envelope.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/compresr/omni-transform/internal/canonical"
	"github.com/compresr/omni-transform/internal/config"
	"github.com/compresr/omni-transform/internal/engine"
	"github.com/compresr/omni-transform/internal/monitoring"
)

const (
	// HeaderRequestID carries the request ID in both directions.
	HeaderRequestID = "X-Request-ID"

	// MaxRateLimitBuckets bounds per-IP limiter state.
	MaxRateLimitBuckets = 10000

	sourceHTTP = "http"
)

// Gateway is the HTTP front end of the transform engine.
type Gateway struct {
	config      *config.Config
	engine      *engine.Engine
	observer    *monitoring.Observer
	rateLimiter *rateLimiter
	handler     http.Handler
	server      *http.Server
	startTime   time.Time
}

// New creates a gateway. The engine and observer are shared with any other
// surface in the process.
func New(cfg *config.Config, eng *engine.Engine, observer *monitoring.Observer) *Gateway {
	g := &Gateway{
		config:    cfg,
		engine:    eng,
		observer:  observer,
		startTime: time.Now(),
	}
	if cfg.Server.RateLimit > 0 {
		g.rateLimiter = newRateLimiter(cfg.Server.RateLimit)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transform", g.handleTransform)
	mux.HandleFunc("GET /v1/adapters", g.handleAdapters)
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /stats", g.handleStats)

	g.handler = g.panicRecovery(g.loggingMiddleware(g.rateLimit(g.security(mux))))
	g.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      g.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return g
}

// Handler returns the fully wrapped HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Start listens until Shutdown is called.
func (g *Gateway) Start() error {
	log.Info().
		Int("port", g.config.Server.Port).
		Int("adapters", g.engine.Registry().Len()).
		Msg("transform gateway listening")

	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.rateLimiter != nil {
		g.rateLimiter.stop()
	}
	return g.server.Shutdown(ctx)
}

// =============================================================================
// HANDLERS
// =============================================================================

func (g *Gateway) handleTransform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, g.config.Server.MaxBodyBytes))
	if err != nil {
		res := engine.ReadFailure(err)
		g.observer.RecordRejected(ctx, sourceHTTP, res)

		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		g.writeJSON(w, status, res)
		return
	}

	env, err := canonical.DecodeEnvelope(body)
	if err != nil {
		res := engine.DecodeFailure(err)
		g.observer.RecordRejected(ctx, sourceHTTP, res)
		g.writeJSON(w, http.StatusBadRequest, res)
		return
	}

	res := g.observer.Run(ctx, sourceHTTP, env, g.engine.Transform)
	g.writeJSON(w, http.StatusOK, res)
}

// adapterInfo describes one registered adapter.
type adapterInfo struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Provider   string `json:"provider"`
	Capability string `json:"capability"`
	Version    string `json:"version"`
}

func (g *Gateway) handleAdapters(w http.ResponseWriter, _ *http.Request) {
	registry := g.engine.Registry()
	infos := make([]adapterInfo, 0, registry.Len())
	for _, key := range registry.Keys() {
		adapter, _ := registry.Get(key)
		infos = append(infos, adapterInfo{
			Key:        key.String(),
			Name:       adapter.Name(),
			Provider:   key.Provider.String(),
			Capability: string(key.Capability),
			Version:    string(key.Version),
		})
	}
	g.writeJSON(w, http.StatusOK, map[string]any{
		"adapter_version": g.config.Engine.AdapterVersion,
		"adapters":        infos,
	})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (g *Gateway) handleStats(w http.ResponseWriter, _ *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds": int64(time.Since(g.startTime).Seconds()),
		"transforms":     g.observer.Metrics().Stats(),
	})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// writeError writes a transport-level error that never reached the engine.
func (g *Gateway) writeError(w http.ResponseWriter, msg string, status int) {
	g.writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "gateway_error",
		},
	})
}
