package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the storefront origins configured for this deployment.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Admin-Bootstrap-Key", "X-Requested-With"},
		ExposedHeaders:   []string{requestIDHeader, idempotentReplayHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
