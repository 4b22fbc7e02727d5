package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/czaroPieczaro/sloik/internal/domain"
)

// OperationRecordedEvent is the JSON payload published for every committed
// ledger operation.
type OperationRecordedEvent struct {
	EventID     string `json:"eventId"`
	EventType   string `json:"eventType"`
	OperationID int64  `json:"operationId"`
	JarID       int64  `json:"jarId"`
	Currency    string `json:"currency"`
	Value       string `json:"value"`   // signed decimal string, e.g. "-12.34"
	Balance     string `json:"balance"` // jar balance after the operation
	Title       string `json:"title"`
	Timestamp   string `json:"timestamp"` // RFC 3339, UTC
}

const eventTypeOperationRecorded = "operation.recorded"

// RabbitMQPublisher implements domain.EventPublisher on a RabbitMQ topic
// exchange.
type RabbitMQPublisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the topic exchange.
func NewRabbitMQPublisher(url, exchange, routingKey string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitMQPublisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// PublishOperationRecorded publishes one operation-recorded event.
func (p *RabbitMQPublisher) PublishOperationRecorded(ctx context.Context, jar *domain.Jar, op *domain.Operation) error {
	event := OperationRecordedEvent{
		EventID:     uuid.New().String(),
		EventType:   eventTypeOperationRecorded,
		OperationID: op.ID,
		JarID:       jar.ID,
		Currency:    jar.Currency,
		Value:       op.Value.String(),
		Balance:     jar.Balance.String(),
		Title:       op.Title,
		Timestamp:   op.CreatedAt.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
