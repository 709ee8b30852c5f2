package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyberbrief/newsroom/config"
	"github.com/cyberbrief/newsroom/controllers"
	"github.com/cyberbrief/newsroom/global"
	"github.com/cyberbrief/newsroom/metrics"
	"github.com/cyberbrief/newsroom/middlewares"
	"github.com/cyberbrief/newsroom/repository"
	"github.com/cyberbrief/newsroom/router"
	"github.com/cyberbrief/newsroom/services/events"
	"github.com/cyberbrief/newsroom/services/images"
	"github.com/cyberbrief/newsroom/services/ingest"
	"github.com/cyberbrief/newsroom/services/mailer"
	"github.com/cyberbrief/newsroom/services/news"
	"github.com/cyberbrief/newsroom/services/storage"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	config.InitConfig()
	defer global.Logger.Sync()

	// Run database migrations
	config.MigrateDB()

	cfg := config.AppConfig
	logger := global.Logger
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.NewManager("cyberbrief")
	cache := controllers.NewArticleCache(global.RedisDB, logger)
	articleRepo := repository.NewArticleRepository(global.DB)
	feedRepo := repository.NewFeedRepository(global.DB)

	var uploader images.Uploader
	if cfg.Storage.Endpoint != "" {
		s3, err := storage.NewS3Storage(context.Background(), cfg.Storage, logger)
		if err != nil {
			logger.Warn("Object storage disabled", zap.Error(err))
		} else {
			uploader = s3
		}
	}

	var generator images.Generator
	if cfg.Images.Token != "" {
		generator = images.NewHuggingFace(cfg.Images)
	} else {
		logger.Info("No image generation token configured, placeholders will be used")
	}

	var articleEvents controllers.ArticleEvents
	if cfg.NATS.URL != "" {
		publisher, err := events.NewPublisher(cfg.NATS, logger)
		if err != nil {
			logger.Warn("Article events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			articleEvents = publisher
		}
	}

	var welcome controllers.WelcomeSender
	if mail, err := mailer.New(cfg.SMTP); err == nil {
		welcome = mail
	} else {
		logger.Info("Newsletter mail disabled", zap.Error(err))
	}

	r := router.InitRouter(router.Deps{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logger,
		Metrics:        m,
		RoleChecker:    middlewares.HasRole,
		Articles:       controllers.NewArticleController(articleRepo, cache, logger),
		News:           controllers.NewNewsController(news.NewClient(cfg.News, logger, m), logger),
		Images: controllers.NewImageController(
			images.NewService(articleRepo, generator, uploader, logger, m), logger),
		Admin: controllers.NewAdminController(
			articleRepo, feedRepo, ingest.NewImporter(feedRepo, logger), articleEvents, uploader, cache, logger),
		Newsletter: controllers.NewNewsletterController(
			repository.NewNewsletterRepository(global.DB), welcome, m, logger),
	})

	srv := &http.Server{
		Addr:    cfg.App.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server Shutdown", zap.Error(err))
	}
	logger.Info("Server exiting")
}
