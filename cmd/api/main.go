package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradenHooton/taskdesk/internal/auth"
	"github.com/BradenHooton/taskdesk/internal/background"
	"github.com/BradenHooton/taskdesk/internal/config"
	"github.com/BradenHooton/taskdesk/internal/database"
	"github.com/BradenHooton/taskdesk/internal/handlers"
	"github.com/BradenHooton/taskdesk/internal/repositories"
	"github.com/BradenHooton/taskdesk/internal/routes"
	"github.com/BradenHooton/taskdesk/internal/services"
	pkghttp "github.com/BradenHooton/taskdesk/pkg/http"
	pkglogger "github.com/BradenHooton/taskdesk/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := pkglogger.NewLogger(os.Stdout, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		err := database.Migrate(ctx, db, logger)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Throttle store: Redis when configured, otherwise process memory
	var (
		throttleStore services.ThrottleStore
		memoryStore   *repositories.ThrottleMemoryStore
		rdb           *redis.Client
	)
	if cfg.Redis.URL != "" {
		rdb, err = database.NewRedisClient(&cfg.Redis, logger)
		if err != nil {
			logger.Error("failed to configure redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer rdb.Close()
		throttleStore = repositories.NewThrottleRedisStore(rdb)
	} else {
		logger.Warn("REDIS_URL not set, login throttle state is per process")
		memoryStore = repositories.NewThrottleMemoryStore()
		throttleStore = memoryStore
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshRepo := repositories.NewRefreshTokenRepository(db)
	taskRepo := repositories.NewTaskRepository(db)

	// Initialize services
	throttle := services.NewLoginThrottleService(throttleStore, services.LoginThrottleConfig{
		SoftThreshold: cfg.Throttle.SoftThreshold,
		HardThreshold: cfg.Throttle.HardThreshold,
		BaseDelay:     cfg.Throttle.BaseDelay,
		MaxDelay:      cfg.Throttle.MaxDelay,
		BlockDuration: cfg.Throttle.BlockDuration,
		StateTTL:      cfg.Throttle.StateTTL,
	}, logger)

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	auditLogger := pkglogger.NewAuditLogger(logger)
	authService := services.NewAuthService(userRepo, refreshRepo, throttle, tokenManager, timingDelay, logger, auditLogger)

	var classifier services.TaskClassifier
	if cfg.Classifier.APIKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		gemini, err := services.NewGenAIClassifier(ctx, cfg.Classifier.APIKey, cfg.Classifier.Model, logger)
		cancel()
		if err != nil {
			logger.Error("failed to create task classifier", slog.Any("error", err))
			os.Exit(1)
		}
		classifier = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, new tasks get the default classification")
	}
	taskService := services.NewTaskService(taskRepo, classifier, cfg.Classifier.Timeout, logger)

	// Bootstrap first admin user if configured
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Error("failed to ensure admin user", slog.Any("error", err))
		}
		cancel()
	} else {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin bootstrap")
	}

	// Initialize handlers
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	checks := map[string]handlers.HealthCheck{"database": db.HealthCheck}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	router := routes.NewRouter(cfg, routes.Dependencies{
		AuthHandler:   handlers.NewAuthHandler(authService, ipConfig, logger),
		HealthHandler: handlers.NewHealthHandler(checks, logger),
		TaskHandler:   handlers.NewTaskHandler(taskService, logger),
		TokenManager:  tokenManager,
		Users:         userRepo,
		IPConfig:      ipConfig,
		Logger:        logger,
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	var purger background.ExpiredStatePurger
	if memoryStore != nil {
		purger = memoryStore
	}
	cleanupManager := background.NewCleanupManager(refreshRepo, purger, logger, cfg.Auth.CleanupInterval)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
