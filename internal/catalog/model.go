package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ID is the canonical product identifier. Catalog documents may carry numeric
// or string ids; both decode to the base-10 string form.
type ID string

// ParseID normalizes decoded or user-supplied text into an ID. Only
// surrounding whitespace is removed; leading zeros are significant.
func ParseID(raw string) ID {
	return ID(strings.TrimSpace(raw))
}

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ParseID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("product id %s is not an integer", n)
	}
	*id = ID(n.String())
	return nil
}

type Product struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// productDecoder accepts the "image" alias some catalog documents use.
type productDecoder struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Image       string          `json:"image"`
}

func (p *Product) UnmarshalJSON(b []byte) error {
	var d productDecoder
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	img := d.ImageURL
	if img == "" {
		img = d.Image
	}
	*p = Product{
		ID:          d.ID,
		Name:        d.Name,
		Price:       d.Price,
		Category:    d.Category,
		Description: d.Description,
		ImageURL:    img,
	}
	return nil
}

func (p Product) Validate() error {
	if p.ID == "" {
		return errors.New("missing id")
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product %s: negative price %s", p.ID, p.Price)
	}
	return nil
}

// Decode reads a catalog document: a JSON array of product objects.
func Decode(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	}
	return products, nil
}
