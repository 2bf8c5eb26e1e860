package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns the cross-origin policy for the browser and mobile clients.
// Credentials are only allowed when origins are listed explicitly.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := len(allowedOrigins) == 0
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	})
}
