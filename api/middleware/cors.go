package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// The agent UI is served from the kiosk browser; the central service only
// ever talks to agents, but the permissive local policy keeps dev tooling
// working against either binary.
var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev UI
	"http://localhost:8080", // agent kiosk page
}

// CORS returns middleware that applies the allowed origin policy.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   defaultCORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
