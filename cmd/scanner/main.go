// Command scanner runs a capture session against locally attached barcode
// readers and prints one navigation decision per decoded code.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/app"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/capture"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/scan"
)

const serviceName = "storefront-scanner"

func main() {
	cfg := config.Load()

	logger, err := logging.New(serviceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("scanner stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeCatalog, err := app.CatalogSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()

	emitter, closeEvents, err := app.Events(cfg, serviceName, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	devices := capture.ParseDevices(cfg.ScannerDevices)
	if len(devices) == 0 {
		logger.Warn("no scanner devices configured; set SCANNER_DEVICES")
	}

	out := newNavigator(os.Stdout, emitter, logger)
	dispatcher := scan.NewDispatcher(scan.NewResolver(src), out, logger)

	session := capture.NewSession(capture.NewLineDecoder(devices), capture.Handlers{
		OnDecoded: func(text string) {
			dispatcher.Dispatch(dispatchContext(ctx), text)
		},
		OnPermissionError: func(err error) {
			out.Error("camera permission denied", "")
		},
		OnDecodeError: func(err error) {
			logger.Warn("scanner decode error", zap.Error(err))
		},
	}, logger)

	if err := session.Open(ctx); err != nil {
		return err
	}
	logger.Info("scanner ready", zap.String("device", session.Device().ID))

	<-ctx.Done()
	logger.Info("shutdown requested")

	if err := session.Close(); err != nil {
		logger.Warn("close capture session", zap.Error(err))
	}
	dispatcher.Wait()
	return nil
}

// dispatchContext gives each lookup its own correlation ID. Lookups are not
// cancelled by shutdown; run drains them with dispatcher.Wait.
func dispatchContext(ctx context.Context) context.Context {
	return middleware.WithCorrelationID(context.WithoutCancel(ctx), uuid.NewString())
}
