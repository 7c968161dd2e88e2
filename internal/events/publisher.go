// Package events publishes household activity to an AMQP exchange so
// other consumers (notification senders, analytics) can react to
// budget milestones without coupling to the API process.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"cadence/internal/logger"
)

// Routing keys for the topic exchange.
const (
	TopicCycleStarted = "cycle.started"
	TopicCycleClosed  = "cycle.closed"
	TopicSeedPaid     = "seed.paid"
)

// Event is the wire format for every published message.
type Event struct {
	Topic       string    `json:"topic"`
	HouseholdID string    `json:"household_id"`
	ResourceID  string    `json:"resource_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher is the narrow surface services depend on.
type Publisher interface {
	Publish(ctx context.Context, topic, householdID, resourceID string)
	Close() error
}

// AMQPPublisher publishes events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange. An
// empty URL means events are disabled; use NewNopPublisher instead.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish sends one event. Failures are logged, not returned: a dead
// broker must never fail a budget mutation.
func (p *AMQPPublisher) Publish(ctx context.Context, topic, householdID, resourceID string) {
	event := Event{
		Topic:       topic,
		HouseholdID: householdID,
		ResourceID:  resourceID,
		OccurredAt:  time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		logger.Get().Errorw("failed to marshal event", "error", err, "topic", topic)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		logger.Get().Errorw("failed to publish event",
			"error", err,
			"topic", topic,
			"household_id", householdID,
		)
		return
	}

	logger.Get().Debugw("published event",
		"topic", topic,
		"household_id", householdID,
		"resource_id", resourceID,
	)
}

// Close shuts down the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}

// NopPublisher discards all events. Used when AMQP_URL is unset and
// in tests.
type NopPublisher struct{}

// NewNopPublisher returns a publisher that does nothing.
func NewNopPublisher() *NopPublisher { return &NopPublisher{} }

func (*NopPublisher) Publish(context.Context, string, string, string) {}

func (*NopPublisher) Close() error { return nil }
