package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchangeName is the fanout exchange changes are published to.
	DefaultExchangeName = "record_changes"
)

// RabbitMQBus implements Bus using a RabbitMQ fanout exchange. Every
// consumer binds its own exclusive queue, so each change reaches every
// live consumer rather than being load-balanced between them.
type RabbitMQBus struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
}

// NewRabbitMQBus connects to RabbitMQ and declares the change exchange.
func NewRabbitMQBus(amqpURL string) (*RabbitMQBus, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	bus := &RabbitMQBus{
		conn:         conn,
		channel:      ch,
		exchangeName: DefaultExchangeName,
	}

	if err := bus.setup(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, fmt.Errorf("failed to setup exchange: %w", err)
	}

	return bus, nil
}

func (b *RabbitMQBus) setup() error {
	err := b.channel.ExchangeDeclare(
		b.exchangeName,
		"fanout",
		false, // durable: changes are hints, not work items
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

// Publish sends a change to all consumers.
func (b *RabbitMQBus) Publish(ctx context.Context, change *Change) error {
	body, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	err = b.channel.PublishWithContext(
		ctx,
		b.exchangeName,
		"",    // routing key ignored by fanout
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			MessageId:   change.ID.String(),
			Timestamp:   change.OccurredAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}

	return nil
}

// Consume binds an exclusive queue to the change exchange and returns a
// channel of changes. Changes published before the call are not seen.
func (b *RabbitMQBus) Consume(ctx context.Context) (<-chan *Change, <-chan error, error) {
	// Dedicated channel per consumer
	consumeCh, err := b.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	q, err := consumeCh.QueueDeclare(
		"",    // server-generated name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		if closeErr := consumeCh.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, nil, fmt.Errorf("failed to declare consumer queue: %w", err)
	}

	if err := consumeCh.QueueBind(q.Name, "", b.exchangeName, false, nil); err != nil {
		if closeErr := consumeCh.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, nil, fmt.Errorf("failed to bind consumer queue: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		q.Name,
		"",   // consumer tag (auto-generate)
		true, // auto-ack: a missed change is recovered by the next one
		true, // exclusive
		false,
		false,
		nil,
	)
	if err != nil {
		if closeErr := consumeCh.Close(); closeErr != nil {
			_ = closeErr
		}
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	changeChan := make(chan *Change, 16)
	errChan := make(chan error, 1)

	go func() {
		defer close(changeChan)
		defer close(errChan)
		defer func() {
			if err := consumeCh.Close(); err != nil {
				_ = err
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errChan <- fmt.Errorf("delivery channel closed")
					return
				}

				var change Change
				if err := json.Unmarshal(delivery.Body, &change); err != nil {
					errChan <- fmt.Errorf("failed to unmarshal change: %w", err)
					continue
				}

				select {
				case <-ctx.Done():
					return
				case changeChan <- &change:
				}
			}
		}
	}()

	return changeChan, errChan, nil
}

// Close closes the bus connection.
func (b *RabbitMQBus) Close() error {
	var err error
	if b.channel != nil {
		err = b.channel.Close()
	}
	if b.conn != nil {
		if closeErr := b.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// HealthCheck verifies the connection is open.
func (b *RabbitMQBus) HealthCheck(ctx context.Context) error {
	if b.conn == nil || b.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	return nil
}

var _ Bus = (*RabbitMQBus)(nil)
