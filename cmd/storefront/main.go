package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/app"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
)

const serviceName = "storefront-go"

func main() {
	cfg := config.Load()

	logger, err := logging.New(serviceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Catalog ---
	src, closeCatalog, err := app.CatalogSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("catalog setup", zap.Error(err))
	}
	defer closeCatalog()

	// --- AMQP ---
	emitter, closeEvents, err := app.Events(cfg, serviceName, logger)
	if err != nil {
		logger.Fatal("events setup", zap.Error(err))
	}
	defer closeEvents()

	// --- Carts ---
	relay := events.NewCartRelay(emitter, logger, int(cfg.CartEventBuffer))
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relay.Run(relayCtx)
	}()

	carts := cart.NewRegistry(cfg.SessionIdleTimeout, logger, relay.Observe)
	go carts.Run(ctx, cfg.SessionSweepInterval)

	// --- HTTP ---
	h := httpapi.NewHandler(src, carts, emitter, logger)
	router := httpapi.NewRouter(h, httpapi.RouterOptions{
		Logger:           logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		SessionMaxAge:    cfg.SessionIdleTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}

	// publish cart updates from requests that finished during shutdown
	stopRelay()
	<-relayDone
	logger.Info("shutdown complete")
}
