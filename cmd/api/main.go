package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	v1 "study-buddy/preferences-backend/api/v1"
	"study-buddy/preferences-backend/internal/config"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	// .env is optional; real environment variables take precedence.
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		zap.NewExample().Fatal("Failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("Failed to load .env file", zap.Error(envErr))
	}

	repo, closeStore, err := v1.OpenStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open preference store", zap.Error(err),
			zap.String("backend", cfg.Store.Backend),
			zap.String("driver", cfg.Database.Driver),
		)
	}
	defer closeStore()

	logger.Info("Preference store ready",
		zap.String("backend", cfg.Store.Backend),
		zap.String("driver", cfg.Database.Driver),
	)

	if cfg.Logging.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	api := v1.SetupPreferencesAPI(repo, logger)
	router := v1.NewRouter(api, logger)

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
