package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ermuhamett/slagfield-api/api/swagger"
	"github.com/ermuhamett/slagfield-api/internal/handler"
	"github.com/ermuhamett/slagfield-api/internal/middleware"
	"github.com/ermuhamett/slagfield-api/internal/repository"
	"github.com/ermuhamett/slagfield-api/internal/service"
	"github.com/ermuhamett/slagfield-api/pkg/cache"
	"github.com/ermuhamett/slagfield-api/pkg/config"
	"github.com/ermuhamett/slagfield-api/pkg/database"
	"github.com/ermuhamett/slagfield-api/pkg/export"
	"github.com/ermuhamett/slagfield-api/pkg/logger"
	corsmiddleware "github.com/ermuhamett/slagfield-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ermuhamett/slagfield-api/pkg/middleware/requestid"
)

// @title Slag Field API
// @version 1.0.0
// @description Bucket cooling lifecycle service for the slag yard
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, field state cache disabled", "error", err)
		redisClient = nil
	}

	placeRepo := repository.NewPlaceRepository(db)
	bucketRepo := repository.NewBucketRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	slagFieldRepo := repository.NewSlagFieldRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	metricsSvc := service.NewMetricsService()

	authSvc, err := service.NewAuthService(cfg.Auth, nil, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init auth service", "error", err)
	}

	placeSvc := service.NewPlaceService(placeRepo, historyRepo, cacheRepo, cfg.SlagField.MaxPlaceNumber, nil, logr)
	bucketSvc := service.NewBucketService(bucketRepo, historyRepo, nil, logr)
	materialSvc := service.NewMaterialService(materialRepo, historyRepo, cacheRepo, nil, logr)
	slagFieldSvc := service.NewSlagFieldService(slagFieldRepo, placeRepo, bucketRepo, materialRepo, cacheRepo, cfg.SlagField.StateCacheTTL, metricsSvc, nil, logr)
	historySvc := service.NewHistoryService(historyRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Place:     handler.NewPlaceHandler(placeSvc),
		Bucket:    handler.NewBucketHandler(bucketSvc),
		Material:  handler.NewMaterialHandler(materialSvc),
		SlagField: handler.NewSlagFieldHandler(slagFieldSvc),
		History:   handler.NewHistoryHandler(historySvc),
		Metrics:   handler.NewMetricsHandler(metricsSvc),
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
