package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diacare/diacare-api/internal/classifier"
	"github.com/diacare/diacare-api/internal/config"
	"github.com/diacare/diacare-api/internal/crypto"
	"github.com/diacare/diacare-api/internal/handler"
	"github.com/diacare/diacare-api/internal/repository"
	"github.com/diacare/diacare-api/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		slog.Error("failed to load classifier", "path", cfg.ModelPath, "error", err)
		os.Exit(1)
	}
	slog.Info("classifier loaded", "name", model.Name(), "version", model.Version(), "kind", model.Kind())

	dialect, err := repository.DialectFor(cfg.DatabaseDriver)
	if err != nil {
		slog.Error("invalid database driver", "error", err)
		os.Exit(1)
	}

	db, err := repository.NewDB(ctx, dialect, cfg.DatabaseDSN, repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		slog.Error("database connection failed", "driver", dialect.Name, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, dialect)
	if err := userRepo.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	hasher, err := crypto.NewPasswordHasher(cfg.PasswordScheme, cfg.BcryptCost)
	if err != nil {
		slog.Error("invalid password hashing settings", "error", err)
		os.Exit(1)
	}
	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	authHandler := handler.NewAuthHandler(service.NewAuthService(userRepo, hasher, tokens))
	predictionHandler := handler.NewPredictionHandler(service.NewPredictionService(model))

	router := handler.NewRouter(ctx, handler.RouterConfig{
		Auth:           authHandler,
		Prediction:     predictionHandler,
		Tokens:         tokens,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRateRPS:    cfg.AuthRateLimitRPS,
		AuthRateBurst:  cfg.AuthRateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "driver", dialect.Name)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
