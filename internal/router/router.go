package router

import (
	"net/http"

	"catalog-rest-api/internal/handler"
	"catalog-rest-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	ProductHandler  *handler.ProductHandler
	CategoryHandler *handler.CategoryHandler
	AuthHandler     *handler.AuthHandler
	AuthMiddleware  func(http.Handler) http.Handler

	// GlobalLimit guards every /api/v1 route; WriteLimit additionally guards
	// the product mutation endpoints.
	GlobalLimit func(http.Handler) http.Handler
	WriteLimit  func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth, no rate limit)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Group(func(r chi.Router) {
		if cfg.GlobalLimit != nil {
			r.Use(cfg.GlobalLimit)
		}
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			// Health check endpoints
			if cfg.Handler != nil {
				r.Get("/health", cfg.Handler.Health)
				r.Get("/ready", cfg.Handler.Ready)
			}

			// Auth endpoints
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/token", cfg.AuthHandler.GenerateToken)
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
					r.Post("/refresh", cfg.AuthHandler.RefreshToken)
				})
			}

			// Product endpoints
			if cfg.ProductHandler != nil {
				r.Route("/products", func(r chi.Router) {
					r.Get("/", cfg.ProductHandler.ListProducts)
					r.Get("/{id}", cfg.ProductHandler.GetProduct)
					r.Get("/bulk/runs", cfg.ProductHandler.GetBulkRuns)

					// Mutations carry the stricter write-path limit.
					r.Group(func(r chi.Router) {
						if cfg.WriteLimit != nil {
							r.Use(cfg.WriteLimit)
						}
						r.Post("/", cfg.ProductHandler.CreateProduct)
						r.Post("/bulk", cfg.ProductHandler.CreateBulkProducts)
						r.Put("/{id}", cfg.ProductHandler.UpdateProduct)
						r.Delete("/{id}", cfg.ProductHandler.DeleteProduct)
					})
				})
			}

			// Category endpoints
			if cfg.CategoryHandler != nil {
				r.Route("/categories", func(r chi.Router) {
					r.Get("/", cfg.CategoryHandler.ListCategories)
					r.Get("/{id}", cfg.CategoryHandler.GetCategory)
					r.Post("/", cfg.CategoryHandler.CreateCategory)
					r.Delete("/{id}", cfg.CategoryHandler.DeleteCategory)
				})
			}
		})
	})

	return r
}
