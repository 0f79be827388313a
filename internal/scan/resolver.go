package scan

import (
	"context"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

// Result is the outcome of resolving one decoded code: either a product was
// found, or Raw names the text that matched nothing.
type Result struct {
	Product catalog.Product
	Raw     string
	found   bool
}

func Found(p catalog.Product, raw string) Result {
	return Result{Product: p, Raw: raw, found: true}
}

func NotFound(raw string) Result {
	return Result{Raw: raw}
}

func (r Result) Found() bool { return r.found }

// Target is the storefront path a found product navigates to.
func (r Result) Target() string {
	if !r.found {
		return ""
	}
	return "/products/" + r.Product.ID.String()
}

// Match looks decoded up in a catalog snapshot. Matching is exact equality
// on the normalized identifier.
func Match(products []catalog.Product, decoded string) Result {
	p, ok := catalog.Find(products, catalog.ParseID(decoded))
	if !ok {
		return NotFound(decoded)
	}
	return Found(p, decoded)
}

type Resolver struct {
	src catalog.Source
}

func NewResolver(src catalog.Source) *Resolver {
	return &Resolver{src: src}
}

// Resolve fetches a catalog snapshot and matches decoded against it. A
// failed fetch returns an error wrapping catalog.ErrUnavailable, never a
// NotFound result.
func (r *Resolver) Resolve(ctx context.Context, decoded string) (Result, error) {
	if catalog.ParseID(decoded) == "" {
		return NotFound(decoded), nil
	}
	products, err := catalog.Fetch(ctx, r.src)
	if err != nil {
		return Result{}, err
	}
	return Match(products, decoded), nil
}
