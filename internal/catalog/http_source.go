package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
)

// maxDocumentBytes bounds how much of an upstream response is read.
const maxDocumentBytes = 8 << 20

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// HTTPSource fetches the catalog document from an upstream over HTTP. It
// fails fast: no retries, and once the breaker trips every call returns
// ErrUnavailable until the open timeout elapses.
type HTTPSource struct {
	client  *clients.Client
	path    string
	breaker *gobreaker.CircuitBreaker[[]Product]
}

func NewHTTPSource(client *clients.Client, path string, bs BreakerSettings, logger *zap.Logger) *HTTPSource {
	if bs.MaxFailures == 0 {
		bs.MaxFailures = 5
	}
	if bs.OpenTimeout <= 0 {
		bs.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[[]Product](gobreaker.Settings{
		Name:        client.Name,
		MaxRequests: 1,
		Timeout:     bs.OpenTimeout,
		// A caller giving up is not an upstream fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("catalog breaker state change",
				zap.String("upstream", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &HTTPSource{client: client, path: path, breaker: cb}
}

func (s *HTTPSource) Products(ctx context.Context) ([]Product, error) {
	products, err := s.breaker.Execute(func() ([]Product, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, s.client.Name, err)
	}
	return products, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]Product, error) {
	headers := http.Header{}
	headers.Set("Accept", "application/json")

	resp, err := s.client.Do(ctx, http.MethodGet, s.path, "", nil, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return Decode(data)
}
