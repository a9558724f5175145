package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ozlabs/forge/internal/ai"
	"github.com/ozlabs/forge/internal/config"
	"github.com/ozlabs/forge/internal/credits"
	"github.com/ozlabs/forge/internal/platform/logger"
	"github.com/ozlabs/forge/internal/pool"
	"github.com/ozlabs/forge/internal/processor"
	"github.com/ozlabs/forge/internal/ratelimit"
	"github.com/ozlabs/forge/internal/storage/postgres"
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

	var store ratelimit.Store
	if cfg.RateLimitBackend == "redis" {
		store = ratelimit.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		store = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.New(store, logg)

	aiClient, err := ai.NewHTTPClient(cfg, limiter, logg)
	if err != nil {
		logg.Fatal("ai client setup failed", "error", err.Error())
	}

	jobRepo := postgres.NewJobRepository(db)
	creditSvc := credits.NewLedger(postgres.NewLedgerRepository(db), logg)

	handlers := processor.NewHandlers(aiClient, jobRepo, logg)
	proc := processor.New(jobRepo, creditSvc, processor.NewRegistry(handlers), handlers.Generic, logg)

	workerPool := pool.New(cfg.MaxWorkers, jobRepo, creditSvc, proc, cfg.ClaimInterval, 10*time.Minute, logg)
	workerPool.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	workerPool.Stop()
	logg.Info("worker stopped")
}
