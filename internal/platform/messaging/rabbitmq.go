package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	contractsv1 "reelrivals/contracts/events/v1"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dialAttempts   = 5
	dialRetryDelay = 2 * time.Second
	prefetchCount  = 16
)

// RabbitMQ publishes envelopes to a durable topic exchange keyed by topic
// and consumes them through one durable queue per consumer group.
type RabbitMQ struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger

	mu      sync.Mutex
	channel *amqp.Channel
}

func DialRabbitMQ(url string, exchange string, logger *slog.Logger) (*RabbitMQ, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if exchange == "" {
		return nil, errors.New("rabbitmq exchange is required")
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logger.Warn("rabbitmq dial failed",
			"event", "rabbitmq_dial_retry",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"attempt", attempt,
			"error", err.Error(),
		)
		time.Sleep(dialRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &RabbitMQ{
		conn:     conn,
		exchange: exchange,
		logger:   logger,
		channel:  channel,
	}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.channel.PublishWithContext(ctx,
		r.exchange,
		topic,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Type:         event.EventType,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	r.logger.Debug("event published",
		"event", "rabbitmq_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Subscribe declares the group queue, binds it to topic, and consumes on a
// dedicated channel until ctx ends. Handler failures are nacked for
// redelivery; undecodable bodies are dropped.
func (r *RabbitMQ) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	channel, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	if err := channel.Qos(prefetchCount, 0, false); err != nil {
		_ = channel.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	queueName := consumerGroup + "." + topic
	queue, err := channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = channel.Close()
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	if err := channel.QueueBind(queue.Name, topic, r.exchange, false, nil); err != nil {
		_ = channel.Close()
		return fmt.Errorf("bind queue %s: %w", queueName, err)
	}

	deliveries, err := channel.ConsumeWithContext(ctx,
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = channel.Close()
		return fmt.Errorf("consume %s: %w", queueName, err)
	}

	go func() {
		defer channel.Close()
		for delivery := range deliveries {
			r.handleDelivery(ctx, topic, consumerGroup, delivery, handler)
		}
	}()
	return nil
}

func (r *RabbitMQ) handleDelivery(
	ctx context.Context,
	topic string,
	consumerGroup string,
	delivery amqp.Delivery,
	handler func(context.Context, contractsv1.Envelope) error,
) {
	var event contractsv1.Envelope
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		r.logger.Error("rabbitmq delivery decode failed",
			"event", "rabbitmq_decode_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
			"error", err.Error(),
		)
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, event); err != nil {
		r.logger.Error("consumer handler failed",
			"event", "rabbitmq_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		_ = delivery.Nack(false, !delivery.Redelivered)
		return
	}
	_ = delivery.Ack(false)
}

func (r *RabbitMQ) Close() error {
	if r == nil || r.conn == nil {
		return nil
	}
	r.mu.Lock()
	if r.channel != nil {
		_ = r.channel.Close()
	}
	r.mu.Unlock()
	return r.conn.Close()
}
