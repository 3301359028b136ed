package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/supertrooper/backend/internal/config"
	"github.com/supertrooper/backend/internal/database"
	"github.com/supertrooper/backend/internal/handler"
	"github.com/supertrooper/backend/internal/logging"
	"github.com/supertrooper/backend/internal/notify"
	"github.com/supertrooper/backend/internal/router"
	"github.com/supertrooper/backend/internal/service"
	"github.com/supertrooper/backend/internal/sse"
	"github.com/supertrooper/backend/internal/worker"
)

const notifyQueueSize = 100

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Log.Warnf("load .env: %v", err)
	}

	// Load config
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.Log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log)

	// Database
	db, err := database.Open(cfg.Database)
	if err != nil {
		logging.Log.Fatalf("connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logging.Log.Fatalf("migrate: %v", err)
	}

	// Redis backs the event replay log; without it streams are live only.
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logging.Log.Warnf("redis %s unreachable, event replay disabled: %v", cfg.Redis.Addr, err)
			rdb.Close()
			rdb = nil
		}
	}

	// Core components
	hub := sse.NewHub(rdb)
	pool := worker.NewPool(cfg.Workers.Notify, notifyQueueSize)
	defer pool.Shutdown()

	// Notifier
	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.SMTP.Host != "" {
		notifier = notify.NewEmailNotifier(cfg.SMTP)
	}
	notifier = notify.NewAsyncNotifier(notifier, pool)

	// Services
	userService := service.NewUserService(db, cfg.JWT.Secret, cfg.JWT.ExpireHours)
	projectService := service.NewProjectService(db, notifier, hub)
	workspaceService := service.NewWorkspaceService(db, hub)
	contentService := service.NewContentService(db)
	portfolioService := service.NewPortfolioService(db, cfg.JWT.Secret, cfg.Encrypt.AESKey, cfg.Server.PublicBaseURL)
	feedbackService := service.NewFeedbackService(db, notifier)
	auditService := service.NewAuditService(db)

	// Gin engine
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// Setup routes
	router.Setup(r, router.Deps{
		DB:               db,
		JWTSecret:        cfg.JWT.Secret,
		AllowOrigins:     cfg.Server.AllowOrigins,
		UserHandler:      handler.NewUserHandler(userService, auditService),
		ProjectHandler:   handler.NewProjectHandler(projectService, auditService, hub),
		WorkspaceHandler: handler.NewWorkspaceHandler(workspaceService, auditService),
		ContentHandler:   handler.NewContentHandler(contentService, auditService),
		PortfolioHandler: handler.NewPortfolioHandler(portfolioService, auditService),
		FeedbackHandler:  handler.NewFeedbackHandler(feedbackService, auditService),
		MetricsHandler:   handler.NewMetricsHandler(auditService),
		HealthHandler:    handler.NewHealthHandler(db),
	})

	// Start server
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: r}
	go func() {
		logging.Log.Infof("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log.Fatalf("server run: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logging.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Log.Errorf("server shutdown: %v", err)
	}
	if rdb != nil {
		rdb.Close()
	}
}
