package cart

import (
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

// LineItem is one distinct product in the cart. Name, price, category and
// image are copied when the product is first added and never refreshed.
type LineItem struct {
	ProductID catalog.ID      `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category,omitempty"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Snapshot is a read-only copy of cart state at one point in time.
type Snapshot struct {
	Items   []LineItem
	Total   decimal.Decimal
	Version uint64
}

// DisplayTotal rounds the total to cents for presentation.
func (s Snapshot) DisplayTotal() string {
	return s.Total.StringFixed(2)
}

// ItemCount is the number of units across all lines.
func (s Snapshot) ItemCount() int {
	n := 0
	for _, li := range s.Items {
		n += li.Quantity
	}
	return n
}

func total(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.Subtotal())
	}
	return sum
}
