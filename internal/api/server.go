// Package api provides the HTTP API server and handlers for the CrowdTune application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/crowdtune/crowdtune-server/internal/config"
	"github.com/crowdtune/crowdtune-server/internal/http/response"
	"github.com/crowdtune/crowdtune-server/internal/ratelimit"
	"github.com/crowdtune/crowdtune-server/internal/service"
	"github.com/crowdtune/crowdtune-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authService     *service.AuthService
	playlistService *service.PlaylistService
	tagService      *service.TagService
	writeLimiter    *ratelimit.KeyedRateLimiter
	validate        *validation.Validator
	router          *chi.Mux
	logger          *slog.Logger
	opTimeout       time.Duration
}

// NewServer creates a new HTTP server with all routes configured.
// opTimeout bounds the request context so every store operation behind a
// handler carries a deadline.
func NewServer(authService *service.AuthService, playlistService *service.PlaylistService, tagService *service.TagService, rateCfg config.RateLimitConfig, opTimeout time.Duration, logger *slog.Logger) *Server {
	if opTimeout <= 0 {
		opTimeout = 30 * time.Second
	}
	s := &Server{
		authService:     authService,
		playlistService: playlistService,
		tagService:      tagService,
		writeLimiter:    ratelimit.PerMinute(rateCfg.WritesPerMinute, rateCfg.WriteBurst),
		validate:        validation.New(),
		router:          chi.NewRouter(),
		logger:          logger,
		opTimeout:       opTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.writeLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.opTimeout))
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints (public).
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
		})

		// Playlists (require auth for ACL).
		r.Route("/playlists", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreatePlaylist)
			r.Get("/", s.handleListPlaylists)
			r.Get("/{id}", s.handleGetPlaylist)
			r.Delete("/{id}", s.handleDeletePlaylist)
			r.Put("/{id}/visibility", s.handleSetPlaylistVisibility)
			r.Post("/{id}/shares", s.handleSharePlaylist)
			r.Post("/{id}/tracks", s.handleAddPlaylistTrack)
			r.Delete("/{id}/tracks/{trackID}", s.handleRemovePlaylistTrack)
		})

		// Track tags. Reads are public; suggesting costs a write budget.
		r.Route("/tracks/{trackID}/tags", func(r chi.Router) {
			r.Get("/", s.handleListTrackTags)
			r.With(s.requireAuth, s.limitWrites).Post("/", s.handleSuggestTag)
		})

		// Tag votes and search.
		r.Route("/tags", func(r chi.Router) {
			r.Get("/tracks", s.handleFindTracks)
			r.Route("/{tagID}/vote", func(r chi.Router) {
				r.Use(s.requireAuth, s.limitWrites)
				r.Put("/", s.handleVoteTag)
				r.Delete("/", s.handleRetractVote)
			})
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
