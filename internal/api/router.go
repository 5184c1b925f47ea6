package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zachlamont/wheres-wally/internal/api/middleware"
	"github.com/zachlamont/wheres-wally/internal/blob"
	"github.com/zachlamont/wheres-wally/internal/config"
	"github.com/zachlamont/wheres-wally/internal/handlers"
	"github.com/zachlamont/wheres-wally/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, cfg *config.Config, data store.DataStore, redisStore *store.RedisStore, blobs *blob.Store) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(10 << 20)) // Uploads fit, nothing else gets close
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting
	limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
		Whitelist:        cfg.RateLimitWhitelist,
		AutoBlockEnabled: cfg.AutoBlockEnabled,
	})
	r.Use(limiter.Middleware)

	// CORS - the web client may be served from anywhere
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Create handler and auth middleware
	h := handlers.NewHandler(data, redisStore, blobs, logger, cfg.PublicURL)
	auth := middleware.NewAuthMiddleware(data, redisStore)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Post("/signup", h.SignUp)
	r.Post("/signin", h.SignIn)
	r.Get("/who/{id}", h.Who)
	r.Get("/messages", h.ListMessages)
	r.Get("/feed", h.Feed)
	r.Get("/find", h.Search)
	r.Get("/game/characters", h.ListCharacters)
	r.Handle("/files/*", http.StripPrefix("/files/", blobs.Handler()))

	// Authenticated routes (require session token)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/me", h.Me)
		r.Post("/signout", h.SignOut)
		r.Post("/messages", h.PostMessage)
		r.Post("/messages/image", h.PostImageMessage)
		r.Patch("/messages/{id}", h.PatchMessage)
		r.Delete("/messages/{id}", h.DeleteMessage)
		r.Post("/upload", h.Upload)
		r.Post("/push/token", h.RegisterPushToken)
		r.Post("/game/guess", h.Guess)
	})

	return r
}
