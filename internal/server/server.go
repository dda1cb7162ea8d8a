// Package server assembles the HTTP + WebSocket API for the copy-trading
// backend: routing, middleware, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/copydesk/copydesk/internal/domain"
	"github.com/copydesk/copydesk/internal/server/handler"
	"github.com/copydesk/copydesk/internal/server/middleware"
	"github.com/copydesk/copydesk/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port            int
	CORSOrigins     []string
	APIKeys         []string // if empty, authentication is disabled
	RateLimitPerMin int      // if zero, rate limiting is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health      *handler.HealthHandler
	Trades      *handler.TradeHandler
	Pools       *handler.PoolHandler
	Portfolio   *handler.PortfolioHandler
	Performance *handler.PerformanceHandler
	Leaderboard *handler.LeaderboardHandler
	MarketData  *handler.MarketDataHandler
	Wallets     *handler.WalletHandler
}

// Server is the HTTP + WebSocket API server for the copy-trading platform.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (CORS, logging, rate limiting, auth) and attaches
// the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Trade endpoints.
	mux.HandleFunc("POST /api/trades", handlers.Trades.ExecuteTrade)
	mux.HandleFunc("GET /api/trades", handlers.Trades.ListTrades)

	// Pool endpoints.
	mux.HandleFunc("POST /api/pools", handlers.Pools.CreatePool)
	mux.HandleFunc("GET /api/pools", handlers.Pools.ListPools)
	mux.HandleFunc("GET /api/pools/mine", handlers.Pools.ListMyPools)
	mux.HandleFunc("GET /api/pools/{id}", handlers.Pools.GetPool)
	mux.HandleFunc("POST /api/pools/{id}/follow", handlers.Pools.FollowPool)
	mux.HandleFunc("DELETE /api/pools/{id}/follow", handlers.Pools.UnfollowPool)

	// Position endpoint.
	mux.HandleFunc("GET /api/positions", handlers.Portfolio.ListPositions)

	// Analytics endpoints.
	mux.HandleFunc("GET /api/analytics/performance", handlers.Performance.GetPerformance)
	mux.HandleFunc("GET /api/analytics/portfolio", handlers.Portfolio.GetPortfolio)
	mux.HandleFunc("GET /api/analytics/leaderboard", handlers.Leaderboard.GetLeaderboard)
	mux.HandleFunc("GET /api/analytics/market-data", handlers.MarketData.GetMarketData)

	// Wallet endpoints.
	mux.HandleFunc("POST /api/wallets", handlers.Wallets.ConnectWallet)
	mux.HandleFunc("GET /api/wallets", handlers.Wallets.ListWallets)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if no API keys are configured).
	h = middleware.Auth(cfg.APIKeys)(h)

	// Apply per-client rate limiting (skips if limit is zero).
	h = middleware.RateLimit(limiter, cfg.RateLimitPerMin, time.Minute)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// corsMiddleware returns middleware that sets CORS headers for the allowed
// origins. If no origins are specified, it defaults to allowing all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0 // allow all if none specified
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-User-ID")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			// Handle preflight requests.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
