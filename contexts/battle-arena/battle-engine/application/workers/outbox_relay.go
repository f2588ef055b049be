package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

// OutboxRelay publishes committed outbox rows. Each row goes to the topic
// named by its event type unless Topic pins a single destination.
// Rows are relayed in order and a cycle stops at the first row that cannot
// be published, so later events never overtake it.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "battle_outbox_list_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	sentByType := make(map[string]int)
	for _, message := range pending {
		eventID, err := r.relay(ctx, message)
		if err != nil {
			logger.Error("outbox relay cycle aborted",
				"event", "battle_outbox_relay_aborted",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_id", eventID,
				"event_type", message.EventType,
				"sent_before_failure", sentByType,
				"pending_count", len(pending),
				"error", err.Error(),
			)
			return err
		}
		sentByType[message.EventType]++
	}

	logger.Info("outbox relay cycle completed",
		"event", "battle_outbox_relay_completed",
		"module", application.ModuleName,
		"layer", "worker",
		"sent_count", len(pending),
		"sent_by_type", sentByType,
	)
	return nil
}

// relay publishes one row and marks it sent. The returned event id is
// empty when the payload could not be decoded.
func (r OutboxRelay) relay(ctx context.Context, message ports.OutboxMessage) (string, error) {
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(message.Payload, &envelope); err != nil {
		return "", fmt.Errorf("decode outbox payload: %w", err)
	}

	topic := r.Topic
	if topic == "" {
		topic = message.EventType
	}
	if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
		return envelope.EventID, fmt.Errorf("publish %s: %w", topic, err)
	}

	sentAt := time.Now().UTC()
	if r.Clock != nil {
		sentAt = r.Clock.Now().UTC()
	}
	if err := r.Outbox.MarkOutboxSent(ctx, message.OutboxID, sentAt); err != nil {
		return envelope.EventID, fmt.Errorf("mark outbox %s sent: %w", message.OutboxID, err)
	}
	return envelope.EventID, nil
}
