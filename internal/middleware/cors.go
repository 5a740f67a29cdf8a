// Package middleware provides the HTTP middleware the companion API server
// wraps around its router: request logging, CORS, body-size limits and
// per-client rate limiting.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler lets the companion app's origins (CORS_ORIGINS) call the API.
// PATCH is allowed for schedule item edits. Content-Disposition is exposed so
// the app can name tour exports, and Retry-After so it can back off after a 429.
func NewCORSHandler(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
	}).Handler
}
