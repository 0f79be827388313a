package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads the catalog from the catalog_products table. The
// storefront never writes to it.
type PostgresSource struct {
	pool DBPool
}

func NewPostgresSource(pool DBPool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

const listProductsSQL = `
	SELECT id, name, price::text, category, description, image_url
	FROM catalog_products
	ORDER BY position, id
`

func (s *PostgresSource) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: query catalog: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var (
			p     Product
			id    string
			price string
		)
		if err := rows.Scan(&id, &p.Name, &price, &p.Category, &p.Description, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("%w: scan product: %w", ErrUnavailable, err)
		}
		p.ID = ParseID(id)
		p.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("%w: product %s price %q: %w", ErrUnavailable, id, price, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return products, nil
}
