package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pizza-rush/internal/game"
)

// Server combines the HTTP router with the WebSocket hub and the
// Prometheus wiring. Background workers do not start until Start().
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer wires the API around a running (or about to run) engine.
func NewServer(engine *game.Engine, staticDir string) *Server {
	s := &Server{
		engine: engine,
		wsHub:  NewWebSocketHub(engine),
	}
	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	s.router = NewRouter(RouterConfig{
		Engine:         engine,
		RateLimiter:    s.rateLimiter,
		StaticFilesDir: staticDir,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.wireMetrics()
	return s
}

// wireMetrics feeds gameplay events into the Prometheus counters.
// Must run before the engine starts ticking.
func (s *Server) wireMetrics() {
	bus := s.engine.Bus()
	bus.Subscribe(game.EventTypeDeliveryComplete, func(game.Event) {
		RecordDeliveryCompleted()
	})
	bus.Subscribe(game.EventTypeDeliveryFailed, func(ev game.Event) {
		var p game.DeliveryPayload
		reason := "timeout"
		if err := ev.Decode(&p); err == nil && p.Reason != "" {
			reason = p.Reason
		}
		RecordDeliveryFailed(reason)
	})
	bus.Subscribe(game.EventTypeTrickSuccess, func(game.Event) {
		RecordTrickLanded()
	})
	s.engine.OnTickDone = RecordTick
}

// Start launches the hub, the snapshot stream, and the HTTP listener.
// Blocks until the listener fails or Shutdown is called.
func (s *Server) Start(port int) error {
	go s.wsHub.Run()
	s.wsHub.StartSnapshotStream()

	addr := fmt.Sprintf(":%d", port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("🌐 API listening on %s", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
