package cart

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

var mug = catalog.Product{ID: "1", Name: "Mug", Price: decimal.RequireFromString("9.99")}

func TestStoreMugScenario(t *testing.T) {
	s := NewStore()
	assert.True(t, s.Total().IsZero())

	s.Add(mug)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, 1, s.Items()[0].Quantity)
	assert.Equal(t, "9.99", s.Total().String())

	s.Add(mug)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, 2, s.Items()[0].Quantity)
	assert.Equal(t, "19.98", s.Total().String())

	s.Remove(mug.ID)
	assert.Empty(t, s.Items())
	assert.True(t, s.Total().IsZero())
	assert.Equal(t, "0.00", s.Snapshot().DisplayTotal())
}

func TestStoreRepeatAddKeepsFirstCopy(t *testing.T) {
	s := NewStore()
	s.Add(mug)

	repriced := mug
	repriced.Price = decimal.NewFromInt(100)
	repriced.Name = "Renamed"
	s.Add(repriced)

	item := s.Items()[0]
	assert.Equal(t, "Mug", item.Name)
	assert.Equal(t, "9.99", item.Price.String())
	assert.Equal(t, 2, item.Quantity)
}

func TestStoreQuantitiesMatchAddCalls(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ids := []catalog.ID{"1", "2", "A123", "007", "7"}

	s := NewStore()
	want := map[catalog.ID]int{}
	for i := 0; i < 200; i++ {
		id := ids[rng.Intn(len(ids))]
		s.Add(catalog.Product{ID: id, Price: decimal.NewFromInt(1)})
		want[id]++
	}

	items := s.Items()
	seen := map[catalog.ID]bool{}
	for _, li := range items {
		assert.False(t, seen[li.ProductID], "duplicate line for %s", li.ProductID)
		seen[li.ProductID] = true
		assert.Equal(t, want[li.ProductID], li.Quantity, "quantity for %s", li.ProductID)
	}
	assert.Len(t, items, len(want))
	assert.Equal(t, "200", s.Total().String())
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Add(mug)
	s.Add(catalog.Product{ID: "2", Price: decimal.NewFromInt(3)})
	s.Add(catalog.Product{ID: "3", Price: decimal.NewFromInt(4)})

	s.Remove("2")
	s.Remove("2")

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, catalog.ID("1"), items[0].ProductID)
	assert.Equal(t, catalog.ID("3"), items[1].ProductID)

	// index stays consistent after removing from the middle
	s.Add(catalog.Product{ID: "3", Price: decimal.NewFromInt(4)})
	assert.Equal(t, 2, s.Items()[1].Quantity)
}

func TestStoreAddThenRemoveRestoresTotal(t *testing.T) {
	s := NewStore()
	s.Add(mug)
	s.Add(catalog.Product{ID: "2", Price: decimal.RequireFromString("0.10")})
	before := s.Total()

	s.Add(catalog.Product{ID: "3", Price: decimal.RequireFromString("0.20")})
	s.Remove("3")

	assert.True(t, before.Equal(s.Total()), "want %s, got %s", before, s.Total())
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.Clear()
	assert.Empty(t, s.Items())

	s.Add(mug)
	s.Add(catalog.Product{ID: "2", Price: decimal.NewFromInt(3)})
	s.Clear()
	assert.Empty(t, s.Items())
	assert.True(t, s.Total().IsZero())

	s.Add(mug)
	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestStoreItemsAreCopies(t *testing.T) {
	s := NewStore()
	s.Add(mug)

	items := s.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestStoreConcurrentAddsOfOneProduct(t *testing.T) {
	s := NewStore()

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			s.Add(mug)
		}()
	}
	wg.Wait()

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, n, items[0].Quantity)
}

func TestStoreObservers(t *testing.T) {
	s := NewStore()

	var got []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	s.Add(mug)
	s.Remove("missing")
	s.Add(mug)
	s.Clear()

	require.Len(t, got, 3)
	assert.Equal(t, uint64(1), got[0].Version)
	assert.Equal(t, 2, got[1].ItemCount())
	assert.Equal(t, "19.98", got[1].Total.String())
	assert.Empty(t, got[2].Items)

	unsubscribe()
	unsubscribe()
	s.Add(mug)
	assert.Len(t, got, 3)
}

func TestStoreObserverMayReadStore(t *testing.T) {
	s := NewStore()
	var count int
	s.Subscribe(func(Snapshot) { count = len(s.Items()) })

	s.Add(mug)
	assert.Equal(t, 1, count)
}
