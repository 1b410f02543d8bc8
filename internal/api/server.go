// Package api provides the HTTP API server and handlers for the ReadLater application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/readlaterapp/readlater-server/internal/auth"
	"github.com/readlaterapp/readlater-server/internal/http/response"
	"github.com/readlaterapp/readlater-server/internal/ratelimit"
	"github.com/readlaterapp/readlater-server/internal/service"
)

// Credential endpoints share a per-IP token bucket. The burst absorbs
// normal client retries; sustained guessing gets throttled.
const (
	authRateRPS   = 5
	authRateBurst = 20
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authService       *service.AuthService
	bookmarkService   *service.BookmarkService
	tagService        *service.TagService
	collectionService *service.CollectionService
	tokenService      *auth.TokenService
	authLimiter       *ratelimit.KeyedRateLimiter
	router            *chi.Mux
	logger            *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	authService *service.AuthService,
	bookmarkService *service.BookmarkService,
	tagService *service.TagService,
	collectionService *service.CollectionService,
	tokenService *auth.TokenService,
	logger *slog.Logger,
) *Server {
	s := &Server{
		authService:       authService,
		bookmarkService:   bookmarkService,
		tagService:        tagService,
		collectionService: collectionService,
		tokenService:      tokenService,
		authLimiter:       ratelimit.New(authRateRPS, authRateBurst),
		router:            chi.NewRouter(),
		logger:            logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-owned resources.
func (s *Server) Close() {
	s.authLimiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
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
		// Auth endpoints.
		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints are rate limited by client IP.
			r.Group(func(r chi.Router) {
				r.Use(s.rateLimitByIP)
				r.Post("/register", s.handleRegister)
				r.Post("/login", s.handleLogin)
			})
			r.Post("/logout", s.handleLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/me", s.handleMe)
			})
		})

		// Bookmarks (require auth).
		r.Route("/bookmarks", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListBookmarks)
			r.Post("/", s.handleCreateBookmark)
			r.Delete("/", s.handleBulkDeleteBookmarks)
			r.Get("/search", s.handleSearchBookmarks)
			r.Get("/count", s.handleCountBookmarks)
			r.Get("/{id}", s.handleGetBookmark)
			r.Patch("/{id}", s.handleUpdateBookmark)
			r.Delete("/{id}", s.handleDeleteBookmark)
		})

		// Tags (require auth).
		r.Route("/tags", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListTags)
			r.Post("/", s.handleCreateTag)
			r.Patch("/{id}", s.handleUpdateTag)
			r.Delete("/{id}", s.handleDeleteTag)
		})

		// Collections (require auth).
		r.Route("/collections", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListCollections)
			r.Post("/", s.handleCreateCollection)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
