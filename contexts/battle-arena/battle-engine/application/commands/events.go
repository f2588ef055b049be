package commands

import (
	"encoding/json"
	"time"

	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
	contractsv1 "reelrivals/contracts/events/v1"
)

const sourceService = "battle-engine"

func buildOutboxMessage(
	eventID string,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	data any,
) (ports.OutboxMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return ports.OutboxMessage{
		OutboxID:     eventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      payload,
		CreatedAt:    occurredAt.UTC(),
	}, nil
}

func videoUploadedMessage(eventID string, video entities.Video, now time.Time) (ports.OutboxMessage, error) {
	return buildOutboxMessage(eventID, contractsv1.EventTypeVideoUploaded, "video_id", video.VideoID, now,
		contractsv1.VideoUploadedData{
			VideoID: video.VideoID,
			OwnerID: video.OwnerID,
			Tags:    append([]string(nil), video.Tags...),
		})
}

func battleOpenedMessage(eventID string, battle entities.Battle, now time.Time) (ports.OutboxMessage, error) {
	return buildOutboxMessage(eventID, contractsv1.EventTypeBattleOpened, "battle_id", battle.BattleID, now,
		contractsv1.BattleOpenedData{
			BattleID: battle.BattleID,
			VideoAID: battle.VideoAID,
			VideoBID: battle.VideoBID,
			Tag:      battle.Tag,
			EndsAt:   battle.EndsAt.UTC(),
		})
}

func voteCastMessage(eventID string, vote entities.Vote, now time.Time) (ports.OutboxMessage, error) {
	return buildOutboxMessage(eventID, contractsv1.EventTypeVoteCast, "battle_id", vote.BattleID, now,
		contractsv1.VoteCastData{
			VoteID:         vote.VoteID,
			BattleID:       vote.BattleID,
			VoterID:        vote.VoterID,
			VotedForID:     vote.VotedForID,
			VotedAgainstID: vote.VotedAgainstID,
		})
}

func battleConcludedMessage(eventID string, battle entities.Battle, now time.Time) (ports.OutboxMessage, error) {
	return buildOutboxMessage(eventID, contractsv1.EventTypeBattleConcluded, "battle_id", battle.BattleID, now,
		contractsv1.BattleConcludedData{
			BattleID:    battle.BattleID,
			WinnerID:    battle.WinnerID,
			VideoAVotes: battle.VideoAVotes,
			VideoBVotes: battle.VideoBVotes,
		})
}

func nowFrom(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
