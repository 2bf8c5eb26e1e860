package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/diacare/diacare-api/internal/middleware"
)

const statusText = "Diabetes Prediction API and Login/Signup API are running ✅"

// RouterConfig carries the handlers and policies the router mounts.
type RouterConfig struct {
	Auth       *AuthHandler
	Prediction *PredictionHandler
	Tokens     middleware.TokenValidator

	AllowedOrigins []string
	AuthRateRPS    float64
	AuthRateBurst  int
}

// NewRouter builds the HTTP routes. Background work owned by the router,
// such as rate limiter eviction, stops when ctx is cancelled. Clients are
// identified by the socket address; forwarding headers are not trusted.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(statusText))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/predict", cfg.Prediction.HandlePredict)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.AuthRateRPS, cfg.AuthRateBurst))
		r.Post("/signup", cfg.Auth.HandleSignup)
		r.Post("/login", cfg.Auth.HandleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.Tokens))
		r.Get("/me", cfg.Auth.HandleMe)
	})

	return r
}
