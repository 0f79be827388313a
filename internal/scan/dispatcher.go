package scan

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Sink receives the outcome of the most recent dispatched lookup. Calls are
// serialized and must not dispatch again.
type Sink interface {
	Found(ctx context.Context, r Result)
	NotFound(ctx context.Context, r Result)
	Failed(ctx context.Context, raw string, err error)
}

// Dispatcher resolves decode events asynchronously. Lookups may overlap,
// but only the newest one is delivered; a result that finishes after a
// later code was dispatched is dropped.
type Dispatcher struct {
	resolver *Resolver
	sink     Sink
	logger   *zap.Logger

	mu     sync.Mutex
	latest uint64
	wg     sync.WaitGroup
}

func NewDispatcher(resolver *Resolver, sink Sink, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{resolver: resolver, sink: sink, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, raw string) {
	d.mu.Lock()
	d.latest++
	seq := d.latest
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		res, err := d.resolver.Resolve(ctx, raw)
		d.deliver(ctx, seq, raw, res, err)
	}()
}

// Wait blocks until every dispatched lookup has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, seq uint64, raw string, res Result, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if seq != d.latest {
		d.logger.Debug("dropping stale scan result",
			zap.String("code", raw),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", d.latest))
		return
	}

	switch {
	case err != nil:
		d.sink.Failed(ctx, raw, err)
	case res.Found():
		d.sink.Found(ctx, res)
	default:
		d.sink.NotFound(ctx, res)
	}
}
