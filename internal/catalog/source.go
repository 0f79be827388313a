package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the catalog could not be fetched or decoded.
	// It is distinct from ErrNotFound and is never retried here.
	ErrUnavailable = errors.New("catalog unavailable")
	ErrNotFound    = errors.New("product not found")
)

// FeaturedCount is how many products the home page features.
const FeaturedCount = 4

// Source returns the full product list. There is no pagination or
// filtering; callers receive a snapshot they must not modify.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
}

// StaticSource serves a fixed product list.
type StaticSource []Product

func (s StaticSource) Products(ctx context.Context) ([]Product, error) {
	return s, nil
}

// Fetch reads a snapshot from src. Any failure is reported as
// ErrUnavailable so callers can tell it apart from a missing product.
func Fetch(ctx context.Context, src Source) ([]Product, error) {
	products, err := src.Products(ctx)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return products, nil
}

// Find returns the first product whose ID equals id.
func Find(products []Product, id ID) (Product, bool) {
	if id == "" {
		return Product{}, false
	}
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func Featured(products []Product, n int) []Product {
	if n < 0 {
		n = 0
	}
	if len(products) < n {
		n = len(products)
	}
	return products[:n:n]
}

// Categories lists distinct non-empty categories in first-seen order.
func Categories(products []Product) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

func InCategory(products []Product, category string) []Product {
	out := make([]Product, 0)
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Service is the read side used by the HTTP layer.
type Service struct {
	src Source
}

func NewService(src Source) *Service {
	return &Service{src: src}
}

func (s *Service) List(ctx context.Context, category string) ([]Product, error) {
	products, err := Fetch(ctx, s.src)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return products, nil
	}
	return InCategory(products, category), nil
}

func (s *Service) Get(ctx context.Context, id ID) (Product, error) {
	products, err := Fetch(ctx, s.src)
	if err != nil {
		return Product{}, err
	}
	p, ok := Find(products, id)
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) Featured(ctx context.Context) ([]Product, error) {
	products, err := Fetch(ctx, s.src)
	if err != nil {
		return nil, err
	}
	return Featured(products, FeaturedCount), nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := Fetch(ctx, s.src)
	if err != nil {
		return nil, err
	}
	return Categories(products), nil
}
