package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionObserver receives cart changes together with the owning session.
type SessionObserver func(sessionID string, snap Snapshot)

type entry struct {
	store    *Store
	lastSeen time.Time
	active   int
}

// Registry holds one Store per storefront session. Carts are never
// persisted: a session that stays idle past the timeout is discarded along
// with its cart.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*entry
	idleTimeout time.Duration
	observers   []SessionObserver
	now         func() time.Time
	logger      *zap.Logger
}

func NewRegistry(idleTimeout time.Duration, logger *zap.Logger, observers ...SessionObserver) *Registry {
	return &Registry{
		sessions:    make(map[string]*entry),
		idleTimeout: idleTimeout,
		observers:   observers,
		now:         time.Now,
		logger:      logger,
	}
}

// Store returns the session's cart, creating an empty one on first use.
func (r *Registry) Store(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry(sessionID).store
}

// Acquire returns the session's cart and pins the session until release is
// called, so Sweep cannot discard it while a request is using the store.
// release marks the session as seen and is safe to call more than once.
func (r *Registry) Acquire(sessionID string) (*Store, func()) {
	r.mu.Lock()
	e := r.entry(sessionID)
	e.active++
	r.mu.Unlock()

	var once sync.Once
	return e.store, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			e.active--
			e.lastSeen = r.now()
		})
	}
}

// entry must be called with r.mu held.
func (r *Registry) entry(sessionID string) *entry {
	e, ok := r.sessions[sessionID]
	if !ok {
		e = &entry{store: NewStore()}
		for _, o := range r.observers {
			o := o
			e.store.Subscribe(func(snap Snapshot) { o(sessionID, snap) })
		}
		r.sessions[sessionID] = e
		r.logger.Debug("cart session started", zap.String("session_id", sessionID))
	}
	e.lastSeen = r.now()
	return e
}

func (r *Registry) Discard(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep discards sessions idle since before now-idleTimeout and reports how
// many were dropped. Acquired sessions are never discarded.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-r.idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.sessions {
		if e.active == 0 && e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.idleTimeout <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.logger.Info("discarded idle cart sessions", zap.Int("count", n))
			}
		}
	}
}
