package api

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server is the control-plane HTTP server with the observer WebSocket hub.
type Server struct {
	control     ControlPlane
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(control ControlPlane, defaultMaxPlayers int) *Server {
	s := &Server{
		control: control,
		wsHub:   NewWebSocketHub(),
	}

	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)

	s.router = NewRouter(RouterConfig{
		Control:           control,
		RateLimiter:       s.rateLimiter,
		DefaultMaxPlayers: defaultMaxPlayers,
	})

	// WebSocket route needs the hub instance, so it is added outside the
	// generic router factory.
	s.router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.wsHub.HandleWebSocket(w, r)
	})

	return s
}

// Start begins the HTTP server AND starts background workers. It blocks until
// the context is canceled or the listener fails.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartOverviewLoop(ctx, s.control)

	s.httpServer = &http.Server{Addr: addr, Handler: s.router}

	go func() {
		<-ctx.Done()
		s.httpServer.Shutdown(context.Background())
	}()

	log.Printf("🌐 Control plane starting on %s", addr)

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
