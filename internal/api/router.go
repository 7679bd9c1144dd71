package api

import (
	"net/http"
	"time"

	"gun-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ControlPlane defines the supervisor methods used by the API.
// This interface enables mocking for tests without spinning up lobbies
// or the UDP socket. Keep this minimal - only include methods the API
// layer actually calls.
type ControlPlane interface {
	// CreateLobby registers a new lobby and starts its tick loop
	CreateLobby(code string, maxPlayers int, scene string) (game.LobbyInfo, error)
	// JoinLobby allocates a player id and adds the player to the lobby
	JoinLobby(code, playerName string) (uint32, game.LobbyInfo, error)
	// GetLobby returns a lobby snapshot
	GetLobby(code string) (game.LobbyInfo, error)
	// ListLobbies returns snapshots of all live lobbies
	ListLobbies() []game.LobbyInfo
	// Weapons returns the loaded weapon catalog
	Weapons() []game.Weapon
	// Stats returns operational counters for the stats endpoint
	Stats() map[string]interface{}
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Control: mockControl,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Control is the lobby supervisor (required)
	Control ControlPlane

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default local origins.
	CORSOrigins []string

	// DefaultMaxPlayers fills a create request that omits max_players.
	// Zero falls back to 4.
	DefaultMaxPlayers int

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	control           ControlPlane
	defaultMaxPlayers int
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function starts no goroutines and opens no listeners,
// which makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	defaultMaxPlayers := cfg.DefaultMaxPlayers
	if defaultMaxPlayers <= 0 {
		defaultMaxPlayers = 4
	}
	h := &routerHandlers{control: cfg.Control, defaultMaxPlayers: defaultMaxPlayers}

	// Lobby control plane
	r.Route("/lobbies", func(r chi.Router) {
		r.Post("/", h.handleCreateLobby)
		r.Get("/", h.handleListLobbies)
		r.Get("/{code}", h.handleGetLobby)
		r.Post("/{code}/join", h.handleJoinLobby)
	})

	r.Get("/weapons", h.handleGetWeapons)
	r.Get("/stats", h.handleGetStats)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// requestMetrics records latency and status per route pattern. The pattern
// (not the raw URL) keeps label cardinality bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		RecordRequest(r.Method, endpoint, ww.Status(), time.Since(start))
	})
}
