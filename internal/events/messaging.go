package events

import (
	"fmt"
	"os"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange         = "ecommerce.events"
	ScanResolvedRoutingKey = "storefront.scan.resolved.v1"
	CartUpdatedRoutingKey  = "storefront.cart.updated.v1"
	storefrontServiceName  = "storefront-go"

	EventTypeScanResolved = "ScanResolved"
	EventTypeCartUpdated  = "CartUpdated"

	scanResolvedSchema = "storefront/scan-resolved/v1"
	cartUpdatedSchema  = "storefront/cart-updated/v1"
)

func declareEventsExchange(ch Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// Dial connects to RabbitMQ at url, or RABBITMQ_URL when url is empty.
func Dial(url string) (*amqp.Connection, error) {
	if url == "" {
		url = os.Getenv("RABBITMQ_URL")
	}
	if url == "" {
		return nil, fmt.Errorf("rabbitmq url not set")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return conn, nil
}
