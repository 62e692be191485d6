package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "tracker.events"

	heartbeat = 10 * time.Second
	locale    = "en_US"
)

// Connection names shown in the broker's management UI.
const (
	PublisherName = "interntrack-publisher"
	ConsumerName  = "interntrack-consumer"
)

// dialConfig tags the connection with a client name so operators can tell
// publisher and consumer connections apart.
func dialConfig(name string) amqp091.Config {
	props := amqp091.Table{"product": "interntrack"}
	if name != "" {
		props["connection_name"] = name
	}
	return amqp091.Config{
		Heartbeat:  heartbeat,
		Locale:     locale,
		Properties: props,
	}
}

// NewConnection dials RabbitMQ under the given connection name.
func NewConnection(url, name string) (*amqp091.Connection, error) {
	conn, err := amqp091.DialConfig(url, dialConfig(name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ as %q: %w", name, err)
	}
	return conn, nil
}

// DeclareExchange declares the durable topic exchange every tracker event goes through.
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}
