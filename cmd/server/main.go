// Package main provides the entry point for the zpr HTTP server.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/zpr-ai/zpr/internal/azure"
	appConfig "github.com/zpr-ai/zpr/internal/config"
	"github.com/zpr-ai/zpr/internal/database"
	"github.com/zpr-ai/zpr/internal/database/migrate"
	"github.com/zpr-ai/zpr/internal/llm"
	"github.com/zpr-ai/zpr/internal/middleware"
	reviewRouter "github.com/zpr-ai/zpr/internal/review/router"
	"github.com/zpr-ai/zpr/pkg/logger"
	"github.com/zpr-ai/zpr/pkg/retry"
)

func main() {
	// Optional; environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := appConfig.LoadFromEnv()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zlog, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*gorm.DB, error) {
		return database.New()
	})
	if err != nil {
		zlog.Fatalw("failed to connect to database", "error", err)
	}
	if err := database.HealthCheck(db); err != nil {
		zlog.Fatalw("database health check failed", "error", err)
	}

	if err := migrate.Migrate(db); err != nil {
		zlog.Fatalw("failed to apply migrations", "error", err)
	}

	gateway, err := azure.NewClient(ctx, cfg.Azure)
	if err != nil {
		zlog.Fatalw("failed to connect to azure devops", "error", err)
	}

	llmProvider, err := llm.New(cfg.LLM)
	if err != nil {
		zlog.Fatalw("failed to create llm provider", "error", err)
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(middleware.Recovery(zlog))
	r.Use(middleware.Logger(zlog))

	reviewRouter.RegisterRoutes(r, db, cfg, gateway, llmProvider, zlog)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	zlog.Infow("starting server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatalw("server stopped", "error", err)
	}
}
