package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmayman/shopify-notion-sync/internal/client/notion"
	"github.com/dmayman/shopify-notion-sync/internal/client/shopify"
	"github.com/dmayman/shopify-notion-sync/internal/config"
	cronrunner "github.com/dmayman/shopify-notion-sync/internal/cron"
	"github.com/dmayman/shopify-notion-sync/internal/db"
	"github.com/dmayman/shopify-notion-sync/internal/handler"
	"github.com/dmayman/shopify-notion-sync/internal/logger"
	gormrepository "github.com/dmayman/shopify-notion-sync/internal/repository/gorm"
	"github.com/dmayman/shopify-notion-sync/internal/service"

	_ "github.com/dmayman/shopify-notion-sync/docs"
)

func main() {
	cfgPath := os.Getenv("ONS_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ONS_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("configuration invalid", zap.Error(err))
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	shopifyHTTP := &http.Client{Timeout: cfg.Shopify.Timeout}
	shopifyClient := shopify.NewClient(shopifyHTTP, cfg.Shopify.StoreURL, cfg.Shopify.AccessToken, cfg.Shopify.APIVersion)
	notionHTTP := &http.Client{Timeout: cfg.Notion.Timeout}
	notionClient := notion.NewClient(notionHTTP, cfg.Notion.Token, cfg.Notion.DatabaseID, cfg.Notion.Version)
	store := gormrepository.New(dbConn.Gorm)

	writeInterval := cfg.Sync.WriteInterval
	if writeInterval <= 0 {
		writeInterval = 350 * time.Millisecond
	}
	syncService := &service.SyncService{
		Repo:        store,
		Shopify:     shopifyClient,
		Notion:      notionClient,
		Limiter:     rate.NewLimiter(rate.Every(writeInterval), 1),
		Logger:      logger,
		StoreHandle: cfg.Shopify.StoreHandle,
		LockTimeout: cfg.Sync.LockTimeout,
		Limit:       cfg.Sync.Limit,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(handler.SharedSecretMiddleware(cfg.Auth.Secret))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Service: syncService, Logger: logger}
	syncHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.OrderSync, func(ctx context.Context) {
			summary, err := syncService.Run(ctx, service.RunOptions{Mode: service.ModeAuto})
			if err != nil {
				logger.Warn("scheduled sync failed", zap.Error(err))
				return
			}
			logger.Info("scheduled sync finished",
				zap.String("status", summary.Status),
				zap.String("sync_type", summary.SyncType),
				zap.Int("processed", summary.ProcessedOrders),
				zap.Int("created_pages", summary.CreatedPages),
				zap.Int("errors", len(summary.Errors)))
		})
		if err != nil {
			logger.Fatal("cron add failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
