package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

var testCatalog = catalog.StaticSource{
	{ID: "1", Name: "Mug", Price: decimal.RequireFromString("9.99")},
	{ID: "A123", Name: "Widget", Price: decimal.RequireFromString("1.50")},
	{ID: "007", Name: "Spy kit", Price: decimal.NewFromInt(70)},
}

type countingSource struct {
	calls atomic.Int32
	err   error
}

func (s *countingSource) Products(ctx context.Context) ([]catalog.Product, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return testCatalog, nil
}

func TestResolveFound(t *testing.T) {
	res, err := NewResolver(testCatalog).Resolve(context.Background(), "A123")
	require.NoError(t, err)
	assert.True(t, res.Found())
	assert.Equal(t, "Widget", res.Product.Name)
	assert.Equal(t, "/products/A123", res.Target())
}

func TestResolveNotFound(t *testing.T) {
	res, err := NewResolver(testCatalog).Resolve(context.Background(), "Z999")
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Equal(t, "Z999", res.Raw)
	assert.Empty(t, res.Target())
}

func TestResolveNormalizesWhitespaceOnly(t *testing.T) {
	r := NewResolver(testCatalog)

	res, err := r.Resolve(context.Background(), " 1\r\n")
	require.NoError(t, err)
	assert.True(t, res.Found())
	assert.Equal(t, " 1\r\n", res.Raw)

	res, err = r.Resolve(context.Background(), "7")
	require.NoError(t, err)
	assert.False(t, res.Found(), "leading zeros are significant")

	res, err = r.Resolve(context.Background(), "a123")
	require.NoError(t, err)
	assert.False(t, res.Found(), "matching is case sensitive")
}

func TestResolveEmptyCodeSkipsCatalog(t *testing.T) {
	src := &countingSource{}
	res, err := NewResolver(src).Resolve(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Zero(t, src.calls.Load())
}

func TestResolveCatalogFailureIsNotNotFound(t *testing.T) {
	src := &countingSource{err: errors.New("timeout")}
	res, err := NewResolver(src).Resolve(context.Background(), "A123")
	assert.ErrorIs(t, err, catalog.ErrUnavailable)
	assert.False(t, res.Found())
	assert.Empty(t, res.Raw)
}

func TestResolveFetchesFreshSnapshot(t *testing.T) {
	src := &countingSource{}
	r := NewResolver(src)
	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), src.calls.Load())
}
