package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

const cartPublishTimeout = 3 * time.Second

type cartChange struct {
	sessionID string
	payload   CartUpdatedPayload
}

// CartRelay publishes cart changes off the request path. Observe queues a
// change and returns at once; Run drains the queue. When the queue is full
// the change is dropped and logged.
type CartRelay struct {
	em     Emitter
	logger *zap.Logger
	queue  chan cartChange
	now    func() time.Time
}

func NewCartRelay(em Emitter, logger *zap.Logger, size int) *CartRelay {
	if size <= 0 {
		size = 1
	}
	return &CartRelay{
		em:     em,
		logger: logger,
		queue:  make(chan cartChange, size),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Observe is a cart.SessionObserver.
func (r *CartRelay) Observe(sessionID string, snap cart.Snapshot) {
	change := cartChange{
		sessionID: sessionID,
		payload:   NewCartUpdatedPayload(sessionID, snap, r.now()),
	}
	select {
	case r.queue <- change:
	default:
		r.logger.Warn("cart event queue full, dropping update",
			zap.String("session_id", sessionID),
			zap.Uint64("version", snap.Version))
	}
}

// Run publishes queued changes until ctx is done, then flushes what is
// already queued.
func (r *CartRelay) Run(ctx context.Context) {
	for {
		select {
		case change := <-r.queue:
			r.publish(change)
		case <-ctx.Done():
			for {
				select {
				case change := <-r.queue:
					r.publish(change)
				default:
					return
				}
			}
		}
	}
}

func (r *CartRelay) publish(change cartChange) {
	ctx, cancel := context.WithTimeout(context.Background(), cartPublishTimeout)
	defer cancel()

	if err := r.em.PublishCartUpdated(ctx, EventMeta{PartitionKey: change.sessionID}, change.payload); err != nil {
		r.logger.Warn("publish cart updated failed",
			zap.String("session_id", change.sessionID),
			zap.Error(err))
	}
}
