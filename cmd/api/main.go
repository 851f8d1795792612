package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openboard/board-backend/internal/api"
	"github.com/openboard/board-backend/internal/config"
	"github.com/openboard/board-backend/internal/log"
	"github.com/openboard/board-backend/internal/metrics"
	"github.com/openboard/board-backend/internal/store"
)

func main() {
	// Load configuration. A missing durable-store URI is fatal here, before
	// any request is served.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting board API server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("board-api")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// Storage: durable MongoDB adapter plus the process-lifetime in-memory
	// fallback, coordinated per request. The durable connection is
	// established lazily on first use, so an unreachable database does not
	// prevent startup.
	durable := store.NewMongoStore(store.MongoConfig{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	}, logger)
	fallback := store.NewMemoryStore(store.DefaultSeed()...)
	coordinator := store.NewCoordinator(durable, fallback, logger, metricsObj)

	startupCtx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	if coordinator.DurableReady(startupCtx) {
		logger.Infow("Durable store reachable")
	} else {
		logger.Warnw("Durable store unreachable at startup; requests will use the in-memory fallback until it recovers")
	}
	cancel()

	// Optional Redis-backed list cache; disabled automatically when Redis is
	// unreachable.
	cache := store.NewCache(cfg.Cache.RedisAddr, cfg.Cache.ListTTL, logger, metricsObj)
	defer cache.Close()

	// Setup API handler and middleware
	handler := api.NewHandler(coordinator, cache, cfg, logger)
	middleware := api.NewMiddleware(logger, metricsObj)

	router := handler.Routes(middleware, cfg.Security.CORSAllowedOrigins, cfg.Security.RateLimitRPM)
	router.Handle("/metrics", metricsHandler)

	// Setup HTTP server
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatalw("Server startup failed", "error", err)
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		if err := durable.Close(ctx); err != nil {
			logger.Errorw("Failed to close durable store", "error", err)
		}

		logger.Infow("Server stopped")
	}
}
