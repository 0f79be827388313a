// Package app assembles the storefront's shared dependencies from config.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
)

// Cleanup releases whatever a constructor opened. It is never nil.
type Cleanup func()

func noop() {}

// CatalogSource builds the configured catalog source, wrapped in a
// snapshot cache unless the cache TTL is zero.
func CatalogSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.Source, Cleanup, error) {
	src, cleanup, err := baseSource(ctx, cfg, logger)
	if err != nil {
		return nil, noop, err
	}
	if cfg.CatalogCacheTTL <= 0 {
		return src, cleanup, nil
	}

	var cache catalog.SnapshotCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The cache is optional; CachedSource bypasses it on error.
			logger.Warn("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cache = catalog.NewRedisCache(rdb)
		prev := cleanup
		cleanup = func() {
			_ = rdb.Close()
			prev()
		}
		logger.Info("catalog cache", zap.String("backend", "redis"), zap.Duration("ttl", cfg.CatalogCacheTTL))
	} else {
		cache = catalog.NewMemoryCache()
		logger.Info("catalog cache", zap.String("backend", "memory"), zap.Duration("ttl", cfg.CatalogCacheTTL))
	}

	return catalog.NewCachedSource(src, cache, cfg.CatalogCacheTTL, logger), cleanup, nil
}

func baseSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (catalog.Source, Cleanup, error) {
	switch cfg.CatalogSource {
	case config.CatalogSourceFile:
		logger.Info("catalog source", zap.String("kind", "file"), zap.String("path", cfg.CatalogFile))
		return catalog.NewFileSource(cfg.CatalogFile), noop, nil

	case config.CatalogSourceHTTP:
		client, err := clients.NewClient("catalog", cfg.CatalogURL, clients.NewInstrumentedHTTPClient(cfg.UpstreamTimeout))
		if err != nil {
			return nil, noop, fmt.Errorf("catalog client: %w", err)
		}
		logger.Info("catalog source", zap.String("kind", "http"), zap.String("url", cfg.CatalogURL))
		return catalog.NewHTTPSource(client, cfg.CatalogPath, catalog.BreakerSettings{
			MaxFailures: cfg.BreakerMaxFailures,
			OpenTimeout: cfg.BreakerOpenTimeout,
		}, logger), noop, nil

	case config.CatalogSourcePostgres:
		if cfg.DatabaseDSN == "" {
			return nil, noop, fmt.Errorf("DATABASE_DSN not set")
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				pool.Close()
				return nil, noop, fmt.Errorf("db migrate: %w", err)
			}
		}
		logger.Info("catalog source", zap.String("kind", "postgres"))
		return catalog.NewPostgresSource(pool), pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}
}

// Events connects the event publisher, or returns a no-op emitter when no
// broker is configured.
func Events(cfg config.Config, producer string, logger *zap.Logger) (events.Emitter, Cleanup, error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("event publishing disabled")
		return events.Nop{}, noop, nil
	}
	conn, err := events.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, noop, err
	}
	pub, err := events.NewPublisher(conn, producer)
	if err != nil {
		_ = conn.Close()
		return nil, noop, err
	}
	logger.Info("event publishing enabled", zap.String("exchange", events.EventsExchange))
	return pub, func() {
		_ = pub.Close()
		_ = conn.Close()
	}, nil
}
