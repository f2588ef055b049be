package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	contractsv1 "reelrivals/contracts/events/v1"
)

const subscriberBuffer = 128

// ErrSubscriberBusy is returned when a consumer group's buffer is full. The
// publisher keeps the outbox row pending and retries on its next cycle.
var ErrSubscriberBusy = errors.New("subscriber buffer full")

type handlerFunc func(context.Context, contractsv1.Envelope) error

type subscription struct {
	group string
	ch    chan contractsv1.Envelope
}

// InProcess is a publish/subscribe bus for single-process deployments.
// Every consumer group on a topic receives each event once; members of the
// same group take turns.
type InProcess struct {
	mu     sync.Mutex
	topics map[string]map[string][]*subscription
	turns  map[string]int
	logger *slog.Logger
}

func NewInProcess(logger *slog.Logger) *InProcess {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcess{
		topics: make(map[string]map[string][]*subscription),
		turns:  make(map[string]int),
		logger: logger,
	}
}

func (b *InProcess) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	targets := make([]*subscription, 0, len(b.topics[topic]))
	for group, members := range b.topics[topic] {
		if len(members) == 0 {
			continue
		}
		turnKey := topic + "/" + group
		index := b.turns[turnKey] % len(members)
		b.turns[turnKey] = index + 1
		targets = append(targets, members[index])
	}
	b.mu.Unlock()

	for _, target := range targets {
		select {
		case target.ch <- event:
		default:
			b.logger.Warn("subscriber buffer full",
				"event", "inprocess_publish_busy",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", target.group,
				"event_id", event.EventID,
			)
			return ErrSubscriberBusy
		}
	}

	b.logger.Debug("event published",
		"event", "inprocess_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"delivered_groups", len(targets),
	)
	return nil
}

func (b *InProcess) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	sub := &subscription{
		group: consumerGroup,
		ch:    make(chan contractsv1.Envelope, subscriberBuffer),
	}

	b.mu.Lock()
	groups, ok := b.topics[topic]
	if !ok {
		groups = make(map[string][]*subscription)
		b.topics[topic] = groups
	}
	groups[consumerGroup] = append(groups[consumerGroup], sub)
	b.mu.Unlock()

	go b.consume(ctx, topic, sub, handler)
	return nil
}

func (b *InProcess) consume(ctx context.Context, topic string, sub *subscription, handler handlerFunc) {
	for {
		select {
		case <-ctx.Done():
			b.removeSubscriber(topic, sub)
			return
		case event := <-sub.ch:
			if err := handler(ctx, event); err != nil {
				b.logger.Error("consumer handler failed",
					"event", "inprocess_consume_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"consumer_group", sub.group,
					"event_id", event.EventID,
					"event_type", event.EventType,
					"error", err.Error(),
				)
			}
		}
	}
}

func (b *InProcess) removeSubscriber(topic string, target *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	groups := b.topics[topic]
	members := groups[target.group]
	filtered := make([]*subscription, 0, len(members))
	for _, item := range members {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	if len(filtered) == 0 {
		delete(groups, target.group)
		return
	}
	groups[target.group] = filtered
}
