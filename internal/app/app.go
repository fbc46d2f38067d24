// Package app assembles the catalog service from its configuration.
package app

import (
	"context"
	"fmt"

	"catalog/internal/access"
	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/metrics"
	"catalog/internal/middleware"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App is a fully wired service ready to listen.
type App struct {
	Fiber   *fiber.App
	Metrics *metrics.Metrics

	db  *gorm.DB
	log *logrus.Logger
}

// New opens the configured stores, seeds the identity store and registers
// every route on a new Fiber app.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{Metrics: metrics.New(), log: log}

	if cfg.DBDriver != config.DriverMemory {
		db, err := database.Open(cfg, log)
		if err != nil {
			return nil, err
		}
		a.db = db
	}

	productRepo, err := a.productRepository()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	authService, err := a.identityStore(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	productService := services.NewProductService(productRepo, a.Metrics)

	a.Fiber = fiber.New(fiber.Config{
		AppName:       "catalog",
		ErrorHandler:  handlers.ErrorHandler(log),
		UnescapePath:  true,
		CaseSensitive: true,
		ReadTimeout:   cfg.ReadTimeout,
		WriteTimeout:  cfg.WriteTimeout,
	})

	a.Fiber.Use(fiberlogger.New(fiberlogger.Config{Output: log.Out}))
	a.Fiber.Use(middleware.Metrics(a.Metrics))
	a.Fiber.Use(recover.New())
	a.Fiber.Use(middleware.Authorize(authService, access.DefaultPolicy()))

	handlers.NewHealthHandler(productService, log).RegisterRoutes(a.Fiber)
	handlers.NewAuthHandler(authService).RegisterRoutes(a.Fiber)
	handlers.NewProductHandler(productService).RegisterRoutes(a.Fiber)
	a.Fiber.Get("/metrics", adaptor.HTTPHandler(a.Metrics.Handler()))

	return a, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return database.Close(a.db)
}

func (a *App) productRepository() (repositories.ProductRepository, error) {
	if a.db == nil {
		return repositories.NewMemoryProductRepository(), nil
	}
	repo := repositories.NewGORMProductRepository(a.db)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

// identityStore builds the AuthService over the configured user source and
// loads the configured accounts into it.
func (a *App) identityStore(ctx context.Context, cfg *config.Config) (*services.AuthService, error) {
	if cfg.IdentitySource != config.IdentityFromDatabase {
		authService := services.NewAuthService(repositories.NewMemoryUserRepository(), cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
		for _, u := range cfg.Users {
			role, _ := models.ParseRole(u.Role)
			if err := authService.RegisterUser(ctx, u.Username, u.Password, role); err != nil {
				return nil, err
			}
		}
		a.log.Infof("Loaded %d users from configuration", len(cfg.Users))
		return authService, nil
	}

	if a.db == nil {
		return nil, fmt.Errorf("identity source %q needs a sql database", cfg.IdentitySource)
	}
	repo := repositories.NewGORMUserRepository(a.db)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}
	authService := services.NewAuthService(repo, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	for _, u := range cfg.Users {
		role, _ := models.ParseRole(u.Role)
		hash, err := authService.HashPassword(u.Password)
		if err != nil {
			return nil, err
		}
		if err := repo.Upsert(ctx, &models.User{Username: u.Username, PasswordHash: hash, Role: role}); err != nil {
			return nil, err
		}
	}
	a.log.Infof("Seeded %d users into the database", len(cfg.Users))
	return authService, nil
}
