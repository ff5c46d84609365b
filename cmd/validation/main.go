package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sammathaik/flatfundpro/internal/aiclass"
	"github.com/sammathaik/flatfundpro/internal/ocr"
	"github.com/sammathaik/flatfundpro/internal/phash"
	"github.com/sammathaik/flatfundpro/internal/validation"
	"github.com/sammathaik/flatfundpro/pkg/common"
	"github.com/sammathaik/flatfundpro/pkg/config"
	"github.com/sammathaik/flatfundpro/pkg/database"
	"github.com/sammathaik/flatfundpro/pkg/health"
	"github.com/sammathaik/flatfundpro/pkg/imagefetch"
	"github.com/sammathaik/flatfundpro/pkg/logger"
	"github.com/sammathaik/flatfundpro/pkg/middleware"
	"github.com/sammathaik/flatfundpro/pkg/redis"
	"github.com/sammathaik/flatfundpro/pkg/storage"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load("validation")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if cfg.Sentry.Enabled && cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     "validation@" + serviceVersion,
		}); err != nil {
			logger.Warn("sentry initialization failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if err := database.Migrate(&cfg.Database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)
	logger.Info("connected to PostgreSQL")

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var archiver validation.EvidenceArchiver
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3Storage(ctx, storage.Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			BaseURL:   cfg.Storage.BaseURL,
		})
		if err != nil {
			logger.Fatal("failed to initialize evidence storage", zap.Error(err))
		}
		archiver = s3Storage
		logger.Info("evidence archival enabled", zap.String("bucket", cfg.Storage.Bucket))
	}

	var classifier aiclass.Classifier = aiclass.Disabled{}
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		gemini, err := aiclass.NewGeminiClassifier(ctx, cfg.AI.APIKey, cfg.AI.Model,
			time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
		if err != nil {
			logger.Fatal("failed to initialize classifier", zap.Error(err))
		}
		defer gemini.Close()
		classifier = gemini
		logger.Info("external classifier enabled", zap.String("model", cfg.AI.Model))
	}

	extractor := ocr.NewTesseractExtractor(cfg.OCR.Languages,
		time.Duration(cfg.OCR.TimeoutSeconds)*time.Second)
	ocrEngine := ocr.NewEngine(extractor, ocr.DefaultEngineConfig())

	fetcher := imagefetch.NewHTTPFetcher(
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second, cfg.Fetch.MaxBytes)

	hashService := phash.NewService(phash.NewRepository(pool))

	repo := validation.NewRepository(pool)
	service := validation.NewService(repo, fetcher, hashService, ocrEngine,
		classifier, redisClient, archiver, validation.DefaultScoringConfig())
	handler := validation.NewHandler(service)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics("validation"))
	router.Use(middleware.Recovery())
	router.Use(middleware.SecurityHeaders())
	if cfg.Sentry.Enabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.CORSOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheckWithDeps("validation", serviceVersion, map[string]func() error{
		"database": health.DatabaseChecker(pool),
		"redis":    health.RedisChecker(redisClient.Client),
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// OCR plus the external classifier can take tens of seconds on a bad
	// image; bound every pipeline request instead of trusting upstreams.
	api := router.Group("/api/v1/internal")
	api.Use(timeout.New(
		timeout.WithTimeout(time.Duration(cfg.Server.RequestTimeout)*time.Second),
		timeout.WithHandler(func(c *gin.Context) { c.Next() }),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusServiceUnavailable, "analysis timed out")
		}),
	))
	handler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		// WriteTimeout must outlast the per-request pipeline budget
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("validation service starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
