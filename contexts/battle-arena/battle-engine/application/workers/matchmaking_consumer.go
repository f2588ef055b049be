package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/application/commands"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
	contractsv1 "reelrivals/contracts/events/v1"
)

const defaultMatchmakingConsumerGroup = "battle-engine-matchmaking-cg"

// MatchmakingConsumer runs the matchmaker for every video.uploaded event.
// Redelivered events are skipped through the dedup store.
type MatchmakingConsumer struct {
	Subscriber    ports.EventSubscriber
	Matchmaker    commands.MatchmakeUseCase
	Dedup         ports.EventDedupStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c MatchmakingConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = defaultMatchmakingConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, contractsv1.EventTypeVideoUploaded, group, c.Handle)
}

func (c MatchmakingConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	if c.Dedup == nil {
		return c.process(ctx, event, logger)
	}

	payloadHash := hashPayload(event.Data)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, payloadHash, now.Add(c.dedupTTL()))
	if err != nil {
		logger.Error("matchmaking event dedupe failed",
			"event", "battle_matchmaking_dedupe_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("matchmaking event already processed",
			"event", "battle_matchmaking_event_replayed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	processErr := c.process(ctx, event, logger)
	if processErr == nil {
		return nil
	}
	// Released so a broker redelivery runs the matchmaker again.
	if err := c.Dedup.ReleaseEvent(context.WithoutCancel(ctx), event.EventID, payloadHash); err != nil {
		logger.Error("matchmaking event release failed",
			"event", "battle_matchmaking_release_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
	}
	return processErr
}

func (c MatchmakingConsumer) process(ctx context.Context, event ports.EventEnvelope, logger *slog.Logger) error {
	var payload contractsv1.VideoUploadedData
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode video uploaded payload: %w", err)
	}
	if payload.VideoID == "" {
		return fmt.Errorf("video uploaded event missing video_id")
	}

	result, err := c.Matchmaker.Execute(ctx, commands.MatchmakeCommand{VideoID: payload.VideoID})
	if err != nil {
		logger.Error("matchmaking run failed",
			"event", "battle_matchmaking_run_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"video_id", payload.VideoID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("matchmaking event processed",
		"event", "battle_matchmaking_event_processed",
		"module", application.ModuleName,
		"layer", "worker",
		"event_id", event.EventID,
		"video_id", payload.VideoID,
		"outcome", result.Outcome,
	)
	return nil
}

func (c MatchmakingConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
