package main

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/scan"
)

type decision struct {
	Navigate string `json:"navigate,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

// navigator turns scan outcomes into JSON lines for whatever drives the
// storefront view, and publishes each outcome.
type navigator struct {
	mu      sync.Mutex
	enc     *json.Encoder
	emitter events.Emitter
	logger  *zap.Logger
}

func newNavigator(w io.Writer, em events.Emitter, logger *zap.Logger) *navigator {
	return &navigator{enc: json.NewEncoder(w), emitter: em, logger: logger}
}

func (n *navigator) Found(ctx context.Context, r scan.Result) {
	n.write(decision{Navigate: r.Target()})
	n.publish(ctx, r.Raw, r, nil)
}

func (n *navigator) NotFound(ctx context.Context, r scan.Result) {
	n.Error("product not found", r.Raw)
	n.publish(ctx, r.Raw, r, nil)
}

func (n *navigator) Failed(ctx context.Context, raw string, err error) {
	n.logger.Warn("scan lookup failed", zap.String("code", raw), zap.Error(err))
	n.Error("unable to verify code", raw)
	n.publish(ctx, raw, scan.Result{}, err)
}

func (n *navigator) Error(msg, code string) {
	n.write(decision{Error: msg, Code: code})
}

func (n *navigator) write(d decision) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.enc.Encode(d); err != nil {
		n.logger.Error("write decision", zap.Error(err))
	}
}

func (n *navigator) publish(ctx context.Context, raw string, r scan.Result, err error) {
	payload := events.NewScanResolvedPayload(raw, r, err, time.Now().UTC())
	meta := events.EventMeta{
		CorrelationID: middleware.GetCorrelationID(ctx),
		PartitionKey:  raw,
	}
	if perr := n.emitter.PublishScanResolved(context.WithoutCancel(ctx), meta, payload); perr != nil {
		n.logger.Warn("publish scan resolved failed", zap.Error(perr))
	}
}
