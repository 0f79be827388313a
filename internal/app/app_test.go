package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
)

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"name":"Mug","price":9.99}]`), 0o600))
	return path
}

func TestCatalogSourceFileUncached(t *testing.T) {
	cfg := config.Config{CatalogSource: config.CatalogSourceFile, CatalogFile: writeCatalog(t)}

	src, cleanup, err := CatalogSource(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &catalog.FileSource{}, src)
	products, err := src.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, catalog.ID("1"), products[0].ID)
}

func TestCatalogSourceRedisCached(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Config{
		CatalogSource:   config.CatalogSourceFile,
		CatalogFile:     writeCatalog(t),
		CatalogCacheTTL: time.Minute,
		RedisAddr:       mr.Addr(),
	}

	src, cleanup, err := CatalogSource(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &catalog.CachedSource{}, src)
	_, err = src.Products(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists("catalog:snapshot"))
}

func TestCatalogSourceHTTP(t *testing.T) {
	cfg := config.Config{
		CatalogSource:   config.CatalogSourceHTTP,
		CatalogURL:      "http://catalog.test",
		CatalogPath:     "/api/products",
		UpstreamTimeout: time.Second,
	}
	src, cleanup, err := CatalogSource(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &catalog.HTTPSource{}, src)
}

func TestCatalogSourceErrors(t *testing.T) {
	_, _, err := CatalogSource(context.Background(), config.Config{CatalogSource: "ftp"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown catalog source")

	_, _, err = CatalogSource(context.Background(), config.Config{CatalogSource: config.CatalogSourcePostgres}, zap.NewNop())
	assert.ErrorContains(t, err, "DATABASE_DSN")

	_, _, err = CatalogSource(context.Background(), config.Config{CatalogSource: config.CatalogSourceHTTP, CatalogURL: "not a url"}, zap.NewNop())
	assert.Error(t, err)
}

func TestEventsDisabledWithoutBroker(t *testing.T) {
	em, cleanup, err := Events(config.Config{}, "storefront-go", zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, events.Nop{}, em)
}
