package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pagevault/pagevault/api/swagger"
	"github.com/pagevault/pagevault/internal/handler"
	"github.com/pagevault/pagevault/internal/middleware"
	"github.com/pagevault/pagevault/internal/repository"
	"github.com/pagevault/pagevault/internal/service"
	"github.com/pagevault/pagevault/pkg/config"
	"github.com/pagevault/pagevault/pkg/database"
	"github.com/pagevault/pagevault/pkg/logger"
	corsmiddleware "github.com/pagevault/pagevault/pkg/middleware/cors"
	reqidmiddleware "github.com/pagevault/pagevault/pkg/middleware/requestid"
	"github.com/pagevault/pagevault/pkg/storage"
)

// @title PageVault API
// @version 0.1.0
// @description Web page archive store
// @BasePath /api/v1
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	contentStore, err := storage.NewLocalStorage(cfg.Content.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to open content storage", "error", err)
	}
	signer := storage.NewContentTokenSigner(cfg.Content.DownloadSecret, cfg.Content.DownloadTTL)

	folderRepo := repository.NewFolderRepository(db)
	pageRepo := repository.NewPageRepository(db)

	metricsSvc := service.NewMetricsService()
	folderSvc := service.NewFolderService(folderRepo, pageRepo, metricsSvc, logr)
	pageSvc := service.NewPageService(pageRepo, folderRepo, contentStore, signer, logr)

	authHandler := handler.NewAuthHandler()
	folderHandler := handler.NewFolderHandler(folderSvc)
	pageHandler := handler.NewPageHandler(pageSvc, nil, cfg.APIPrefix)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Content downloads authenticate with their own signed token, not the
	// shared bearer secret, so browsers can open them directly.
	api.GET("/pages/content/:id", pageHandler.Content)

	protected := api.Group("")
	protected.Use(middleware.Token(cfg.Auth.BearerToken))
	{
		protected.GET("/auth/check", authHandler.Check)

		protected.GET("/folders/all", folderHandler.List)
		protected.POST("/folders/create", folderHandler.Create)
		protected.PUT("/folders/update", folderHandler.Update)
		protected.DELETE("/folders/delete", folderHandler.Delete)

		protected.POST("/pages/create", pageHandler.Create)
		protected.GET("/pages/all", pageHandler.List)
		protected.DELETE("/pages/delete", pageHandler.Delete)
		protected.GET("/pages/:id/download-url", pageHandler.DownloadURL)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
