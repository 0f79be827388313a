package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Emitter is what the storefront needs from an event publisher.
type Emitter interface {
	PublishScanResolved(ctx context.Context, meta EventMeta, payload ScanResolvedPayload) error
	PublishCartUpdated(ctx context.Context, meta EventMeta, payload CartUpdatedPayload) error
}

type EventMeta struct {
	CorrelationID string
	CausationID   string
	PartitionKey  string
}

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) PublishScanResolved(context.Context, EventMeta, ScanResolvedPayload) error { return nil }
func (Nop) PublishCartUpdated(context.Context, EventMeta, CartUpdatedPayload) error   { return nil }

type Publisher struct {
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
	ch       Channel
	producer string
	now      func() time.Time
}

func NewPublisher(conn *amqp.Connection, producer string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewPublisherWithChannel(ch, producer)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func NewPublisherWithChannel(ch Channel, producer string) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	if producer == "" {
		producer = storefrontServiceName
	}
	return &Publisher{ch: ch, producer: producer, now: time.Now}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishScanResolved(ctx context.Context, meta EventMeta, payload ScanResolvedPayload) error {
	env := ScanResolvedEvent{
		EventEnvelope: p.envelope(EventTypeScanResolved, scanResolvedSchema, meta),
		Payload:       payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal ScanResolved envelope: %w", err)
	}
	return p.publishJSON(ctx, ScanResolvedRoutingKey, body)
}

func (p *Publisher) PublishCartUpdated(ctx context.Context, meta EventMeta, payload CartUpdatedPayload) error {
	env := CartUpdatedEvent{
		EventEnvelope: p.envelope(EventTypeCartUpdated, cartUpdatedSchema, meta),
		Payload:       payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartUpdated envelope: %w", err)
	}
	return p.publishJSON(ctx, CartUpdatedRoutingKey, body)
}

func (p *Publisher) envelope(name, schema string, meta EventMeta) EventEnvelope {
	cid := meta.CorrelationID
	if cid == "" {
		cid = uuid.NewString()
	}
	return EventEnvelope{
		EventName:     name,
		EventVersion:  1,
		EventID:       uuid.NewString(),
		CorrelationID: cid,
		CausationID:   meta.CausationID,
		Producer:      p.producer,
		PartitionKey:  meta.PartitionKey,
		OccurredAt:    p.now().UTC(),
		Schema:        schema,
	}
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
