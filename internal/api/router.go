package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/worldscope/countries-api/docs"
	"github.com/worldscope/countries-api/internal/api/handler"
	"github.com/worldscope/countries-api/internal/api/middleware"
	"github.com/worldscope/countries-api/internal/core/service"
	"github.com/worldscope/countries-api/internal/infrastructure/catalog"
	mongodb "github.com/worldscope/countries-api/internal/infrastructure/db/mongo"
	redisdb "github.com/worldscope/countries-api/internal/infrastructure/db/redis"
	"github.com/worldscope/countries-api/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.CORS())
	e.Use(echoprometheus.NewMiddleware("countries"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, log)
	favoritesService := service.NewFavoritesService(userRepo, log)
	catalogFetcher := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	catalogCache := redisdb.NewCatalogCache(rdb, cfg.Catalog.CacheTTL)
	catalogService := service.NewCatalogService(catalogFetcher, catalogCache, log)

	authHandler := handler.NewAuthHandler(authService, favoritesService)
	favoritesHandler := handler.NewFavoritesHandler(favoritesService)
	countryHandler := handler.NewCountryHandler(catalogService)
	requireAuth := middleware.Auth(authService)

	// --- Auth routes ---
	e.POST("/api/register", authHandler.Register)
	e.POST("/api/login", authHandler.Login)
	e.GET("/api/user", authHandler.CurrentUser, requireAuth)

	// --- Favorites routes (all protected) ---
	e.GET("/api/favorites", favoritesHandler.List, requireAuth)
	e.POST("/api/favorites", favoritesHandler.Add, requireAuth)
	e.DELETE("/api/favorites/:countryCode", favoritesHandler.Remove, requireAuth)

	// --- Country catalog proxy (public, read-only) ---
	e.GET("/api/countries", countryHandler.All)
	e.GET("/api/countries/name/:name", countryHandler.ByName)
	e.GET("/api/countries/region/:region", countryHandler.ByRegion)
	e.GET("/api/countries/code/:code", countryHandler.ByCode)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
