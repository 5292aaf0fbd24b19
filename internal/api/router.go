/**
 * @description
 * This file sets up the HTTP router for the savings service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies the standard middleware stack plus JWT authentication on the
 * protected group.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and returns the router for the savings service.
func NewRouter(h *Handlers, jwtSecret, allowedOrigins string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(allowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Route("/savings", func(r chi.Router) {
			r.Post("/interpret", h.InterpretHandler)
			r.Post("/confirm", h.ConfirmHandler)
			r.Get("/scheduled", h.ListScheduledHandler)
			r.Post("/scheduled/{id}/cancel", h.CancelScheduledHandler)
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", h.GetWalletHandler)
			r.Post("/deposit", h.DepositHandler)
			r.Post("/withdraw", h.WithdrawHandler)
			r.Get("/transactions", h.ListWalletTransactionsHandler)
		})

		r.Route("/pools", func(r chi.Router) {
			r.Post("/", h.CreatePoolHandler)
			r.Get("/", h.ListPoolsHandler)
			r.Post("/{id}/contribute", h.ContributeHandler)
			r.Post("/{id}/withdraw", h.WithdrawPoolHandler)
			r.Get("/{id}/activity", h.ListPoolActivityHandler)
		})
	})

	return r
}

func splitOrigins(allowedOrigins string) []string {
	trimmed := strings.TrimSpace(allowedOrigins)
	if trimmed == "" || trimmed == "*" {
		return []string{"https://*", "http://*"}
	}
	parts := strings.Split(trimmed, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
