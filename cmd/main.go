package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"market-alert-service/internal/api"
	"market-alert-service/internal/batch"
	"market-alert-service/internal/cache"
	"market-alert-service/internal/config"
	"market-alert-service/internal/db"
	"market-alert-service/internal/feed"
	"market-alert-service/internal/feed/tradingview"
	"market-alert-service/internal/kafka"
	"market-alert-service/internal/logging"
	"market-alert-service/internal/models"
	"market-alert-service/internal/notification"
	"market-alert-service/internal/scheduler"
	"market-alert-service/internal/utils"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	dbConn, err := db.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()
	if err := utils.Retry(ctx, logger, 5, 2*time.Second, dbConn.Ping); err != nil {
		logger.Errorf("Database unreachable: %v", err)
		log.Fatalf("Database unreachable: %v", err)
	}

	// Exchange lookups, cached when Redis is configured
	var exchanges batch.ExchangeStore = dbConn
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("Redis ping failed, cache reads will fall through: %v", err)
		}
		exchanges = cache.NewExchangeCache(rdb, dbConn, cfg.Redis.TTL, logger)
	}

	// Quote feed
	limiter := rate.NewLimiter(rate.Limit(cfg.Feed.RatePerSecond), 1)
	prices := feed.NewClient(tradingview.NewDialer(cfg.Feed.URL, cfg.Feed.Origin, logger), limiter, logger)

	orchestrator := batch.New(dbConn, exchanges, prices, notification.New(logger, cfg), logger, batch.Config{
		Workers: cfg.Batch.Workers,
		Feed:    feed.Options{Timeout: cfg.Feed.Timeout, Session: cfg.Feed.Session},
	})
	handler := batch.NewHandler(orchestrator, models.Frequency(cfg.Batch.Frequency))

	var wg sync.WaitGroup

	// Kafka trigger
	var consumer *kafka.Consumer
	if cfg.Kafka.Broker != "" {
		consumer = kafka.NewConsumer([]string{cfg.Kafka.Broker}, cfg.Kafka.Topic, cfg.Kafka.GroupID, handler, logger)
		logger.Infof("Kafka consumer initialized with topic: %s", cfg.Kafka.Topic)
		consumer.Start(ctx, &wg)
	}

	// In-process schedule
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewScheduler(handler, logger)
		if err := sched.Register(cfg.Scheduler.Schedules); err != nil {
			logger.Errorf("Failed to register schedules: %v", err)
			log.Fatalf("Scheduler setup failed: %v", err)
		}
		sched.Start()
	}

	// Start API server
	router := api.NewRouter(logger, cfg, api.NewHandler(handler, logger))
	srv := &http.Server{Addr: cfg.API.Port, Handler: router}
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown failed: %v", err)
	}
	if sched != nil {
		sched.Stop()
	}
	wg.Wait()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Errorf("Kafka close failed: %v", err)
		}
	}
	logger.Infof("Service stopped")
}
