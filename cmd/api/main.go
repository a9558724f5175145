package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ozlabs/forge/internal/ai"
	"github.com/ozlabs/forge/internal/assistant"
	"github.com/ozlabs/forge/internal/config"
	"github.com/ozlabs/forge/internal/credits"
	"github.com/ozlabs/forge/internal/job"
	"github.com/ozlabs/forge/internal/platform/logger"
	"github.com/ozlabs/forge/internal/ratelimit"
	"github.com/ozlabs/forge/internal/storage/postgres"
	"github.com/ozlabs/forge/middleware"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logg, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logg.Sync()

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		logg.Fatal("failed to load database config", "error", err.Error())
	}
	db, err := postgres.ConnectDB(dbCfg, logg)
	if err != nil {
		logg.Fatal("database connection failed", "error", err.Error())
	}
	if err := postgres.Migrate(db, "migrations"); err != nil {
		logg.Fatal("migrations failed", "error", err.Error())
	}

	limiter := ratelimit.New(buildLimiterStore(cfg, logg), logg)

	jobRepo := postgres.NewJobRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	creditSvc := credits.NewLedger(ledgerRepo, logg)
	jobSvc := job.NewJobService(jobRepo, creditSvc, logg)
	jobHandler := job.NewJobHandler(jobSvc)
	creditHandler := credits.NewHandler(creditSvc)

	aiClient, err := ai.NewHTTPClient(cfg, limiter, logg)
	if err != nil {
		logg.Fatal("ai client setup failed", "error", err.Error())
	}
	assistantHandler := assistant.NewHandler(assistant.New(aiClient, logg))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(limiter, logg, ratelimit.CategoryAPI))

	v1.POST("/jobs", middleware.Wrap(logg, jobHandler.Create))
	v1.GET("/jobs/:id", middleware.Wrap(logg, jobHandler.Get))
	v1.GET("/users/:id/jobs", middleware.Wrap(logg, jobHandler.List))
	v1.GET("/users/:id/credits", middleware.Wrap(logg, creditHandler.Balance))
	v1.GET("/users/:id/credits/history", middleware.Wrap(logg, creditHandler.History))
	v1.POST("/assistant/recommendations", middleware.Wrap(logg, assistantHandler.Recommendations))
	v1.POST("/assistant/strategy", middleware.Wrap(logg, assistantHandler.Strategy))
	v1.POST("/assistant/analyze", middleware.Wrap(logg, assistantHandler.Analyze))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logg.Info("api listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("http server failed", "error", err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("shutdown error", "error", err.Error())
	}
	logg.Info("api stopped")
}

func buildLimiterStore(cfg *config.Config, logg *logger.Logger) ratelimit.Store {
	if cfg.RateLimitBackend == "redis" {
		logg.Info("rate limiter using redis store", "addr", cfg.RedisAddr)
		return ratelimit.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}
	logg.Info("rate limiter using in-memory store")
	return ratelimit.NewMemoryStore()
}
