package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"study-buddy/preferences-backend/internal/config"
	"study-buddy/preferences-backend/internal/database"
	"study-buddy/preferences-backend/internal/middleware"
	"study-buddy/preferences-backend/internal/preferences"
)

// PreferencesAPI holds the preferences API dependencies
type PreferencesAPI struct {
	Handler    *preferences.Handler
	Service    *preferences.Service
	Repository preferences.Repository
}

// SetupPreferencesAPI sets up the preferences API on top of a store
func SetupPreferencesAPI(repository preferences.Repository, logger *zap.Logger) *PreferencesAPI {
	service := preferences.NewService(repository, logger)
	handler := preferences.NewHandler(service, logger)

	return &PreferencesAPI{
		Handler:    handler,
		Service:    service,
		Repository: repository,
	}
}

// OpenStore connects the configured store backend. The returned close
// function releases the underlying database handle.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (preferences.Repository, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendGorm:
		db, err := database.OpenGorm(cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}

		repo := preferences.NewGormRepository(db)
		if cfg.Database.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				sqlDB.Close()
				return nil, nil, err
			}
		}
		return repo, sqlDB.Close, nil

	case config.BackendSQLX:
		db, err := database.OpenSQLX(cfg.Database)
		if err != nil {
			return nil, nil, err
		}

		repo := preferences.NewSQLRepository(db)
		if cfg.Database.AutoMigrate {
			if err := repo.EnsureSchema(ctx); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return repo, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
	}
}

// NewRouter builds the gin engine with middleware, health check and API routes
func NewRouter(api *PreferencesAPI, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	api.Handler.RegisterRoutes(router.Group("/api"))

	return router
}
