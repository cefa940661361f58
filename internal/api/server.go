package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/scoracle/nba-core/internal/api/handler"
	"github.com/scoracle/nba-core/internal/config"
	"github.com/scoracle/nba-core/internal/repository"
	"github.com/scoracle/nba-core/internal/syncmanager"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *pgxpool.Pool, repo *repository.Repository, mgr *syncmanager.Manager, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS", "POST"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "Link", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, repo, mgr, cfg)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/teams", func(r chi.Router) {
			r.Get("/lookup", h.LookupTeam)
			r.Get("/{id}", h.GetTeam)
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/lookup", h.LookupPlayer)
			r.Get("/{id}", h.GetPlayer)
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/", h.ListGames)
			r.Get("/{id}", h.GetGame)
		})

		r.Post("/sync/{kind}", h.TriggerSync)
	})

	return r
}
