package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	CatalogSourceFile     = "file"
	CatalogSourceHTTP     = "http"
	CatalogSourcePostgres = "postgres"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	// Catalog
	CatalogSource   string
	CatalogFile     string
	CatalogURL      string
	CatalogPath     string
	UpstreamTimeout time.Duration
	DatabaseDSN     string
	RunMigrations   bool

	// Catalog cache; memory cache when RedisAddr is empty, disabled when TTL is zero
	CatalogCacheTTL time.Duration
	RedisAddr       string
	RedisPassword   string

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Events are disabled when empty
	RabbitMQURL string
	// Cart updates queued for publishing; more are dropped
	CartEventBuffer uint32

	// CORS
	CORSAllowOrigins []string

	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration

	ScannerDevices string
}

func Load() Config {
	return Config{
		Port:     getenv("PORT", "8080"),
		AppEnv:   getenv("APP_ENV", "development"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		CatalogSource:   strings.ToLower(getenv("CATALOG_SOURCE", CatalogSourceFile)),
		CatalogFile:     getenv("CATALOG_FILE", "data/products.json"),
		CatalogURL:      getenv("CATALOG_URL", "http://catalog-service-java:8086"),
		CatalogPath:     getenv("CATALOG_PATH", "/api/products"),
		UpstreamTimeout: parseDuration(getenv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),
		DatabaseDSN:     getenv("DATABASE_DSN", ""),
		RunMigrations:   envBool("RUN_MIGRATIONS", true),

		CatalogCacheTTL: parseDuration(getenv("CATALOG_CACHE_TTL", "30s"), 30*time.Second),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		RedisPassword:   getenv("REDIS_PASSWORD", ""),

		BreakerMaxFailures: parseUint32(getenv("BREAKER_MAX_FAILURES", "5"), 5),
		BreakerOpenTimeout: parseDuration(getenv("BREAKER_OPEN_TIMEOUT", "30s"), 30*time.Second),

		RabbitMQURL:     getenv("RABBITMQ_URL", ""),
		CartEventBuffer: parseUint32(getenv("CART_EVENT_BUFFER", "1024"), 1024),

		CORSAllowOrigins: splitCSV(getenv("CORS_ALLOW_ORIGINS", "*")),

		SessionIdleTimeout:   parseDuration(getenv("SESSION_IDLE_TIMEOUT", "2h"), 2*time.Hour),
		SessionSweepInterval: parseDuration(getenv("SESSION_SWEEP_INTERVAL", "5m"), 5*time.Minute),

		ScannerDevices: getenv("SCANNER_DEVICES", ""),
	}
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseUint32(v string, def uint32) uint32 {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil || n == 0 {
		return def
	}
	return uint32(n)
}
