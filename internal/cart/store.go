package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

// Observer is called after every mutation that changed the cart. Observers
// run outside the store lock, so under concurrent mutation they may see
// snapshots out of order; Snapshot.Version orders them.
type Observer func(Snapshot)

// Store owns the cart state of one storefront session. All mutation goes
// through Add, Remove and Clear; readers only ever see copies.
type Store struct {
	mu        sync.Mutex
	items     []LineItem
	index     map[catalog.ID]int
	observers map[int]Observer
	nextObs   int
	version   uint64
}

func NewStore() *Store {
	return &Store{
		index:     make(map[catalog.ID]int),
		observers: make(map[int]Observer),
	}
}

// Add puts one unit of p in the cart. A repeat add increments the existing
// line and leaves its copied fields alone.
func (s *Store) Add(p catalog.Product) {
	s.mu.Lock()
	if i, ok := s.index[p.ID]; ok {
		s.items[i].Quantity++
	} else {
		s.index[p.ID] = len(s.items)
		s.items = append(s.items, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Category:  p.Category,
			ImageURL:  p.ImageURL,
			Quantity:  1,
		})
	}
	s.version++
	snap, obs := s.snapshotLocked(), s.observersLocked()
	s.mu.Unlock()

	notify(obs, snap)
}

// Remove drops the whole line for id. Removing an absent id is a no-op.
func (s *Store) Remove(id catalog.ID) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ProductID] = j
	}
	s.version++
	snap, obs := s.snapshotLocked(), s.observersLocked()
	s.mu.Unlock()

	notify(obs, snap)
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.index = make(map[catalog.ID]int)
	s.version++
	snap, obs := s.snapshotLocked(), s.observersLocked()
	s.mu.Unlock()

	notify(obs, snap)
}

func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineItem(nil), s.items...)
}

// Total is the exact sum of price*quantity; round only for display.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.items)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers o and returns a func that unregisters it.
func (s *Store) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) snapshotLocked() Snapshot {
	items := append([]LineItem(nil), s.items...)
	return Snapshot{Items: items, Total: total(items), Version: s.version}
}

func (s *Store) observersLocked() []Observer {
	if len(s.observers) == 0 {
		return nil
	}
	out := make([]Observer, 0, len(s.observers))
	for i := 0; i < s.nextObs; i++ {
		if o, ok := s.observers[i]; ok {
			out = append(out, o)
		}
	}
	return out
}

func notify(obs []Observer, snap Snapshot) {
	for _, o := range obs {
		o(snap)
	}
}
