package postgresadapter

import (
	"time"

	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

type videoModel struct {
	VideoID     string    `gorm:"column:video_id;primaryKey"`
	OwnerID     string    `gorm:"column:owner_id"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	MediaURL    string    `gorm:"column:media_url"`
	UploadedAt  time.Time `gorm:"column:uploaded_at"`
	Views       int64     `gorm:"column:views"`
	Votes       int64     `gorm:"column:votes"`
	Status      string    `gorm:"column:status"`
}

func (videoModel) TableName() string {
	return "battle_videos"
}

func videoModelFromEntity(video entities.Video) videoModel {
	return videoModel{
		VideoID:     video.VideoID,
		OwnerID:     video.OwnerID,
		Title:       video.Title,
		Description: video.Description,
		MediaURL:    video.MediaURL,
		UploadedAt:  video.UploadedAt.UTC(),
		Views:       video.Views,
		Votes:       video.Votes,
		Status:      string(video.Status),
	}
}

func (m videoModel) toEntity(tags []string) entities.Video {
	return entities.Video{
		VideoID:     m.VideoID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Tags:        entities.NormalizeTags(tags),
		MediaURL:    m.MediaURL,
		UploadedAt:  m.UploadedAt.UTC(),
		Views:       m.Views,
		Votes:       m.Votes,
		Status:      entities.VideoStatus(m.Status),
	}
}

type videoTagModel struct {
	VideoID string `gorm:"column:video_id;primaryKey"`
	Tag     string `gorm:"column:tag;primaryKey"`
}

func (videoTagModel) TableName() string {
	return "battle_video_tags"
}

type battleModel struct {
	BattleID    string     `gorm:"column:battle_id;primaryKey"`
	VideoAID    string     `gorm:"column:video_a_id"`
	VideoBID    string     `gorm:"column:video_b_id"`
	Tag         string     `gorm:"column:tag"`
	StartedAt   time.Time  `gorm:"column:started_at"`
	EndsAt      time.Time  `gorm:"column:ends_at"`
	Active      bool       `gorm:"column:active"`
	VideoAVotes int64      `gorm:"column:video_a_votes"`
	VideoBVotes int64      `gorm:"column:video_b_votes"`
	WinnerID    *string    `gorm:"column:winner_id"`
	ConcludedAt *time.Time `gorm:"column:concluded_at"`
}

func (battleModel) TableName() string {
	return "battles"
}

func battleModelFromEntity(battle entities.Battle) battleModel {
	row := battleModel{
		BattleID:    battle.BattleID,
		VideoAID:    battle.VideoAID,
		VideoBID:    battle.VideoBID,
		Tag:         battle.Tag,
		StartedAt:   battle.StartedAt.UTC(),
		EndsAt:      battle.EndsAt.UTC(),
		Active:      battle.Active,
		VideoAVotes: battle.VideoAVotes,
		VideoBVotes: battle.VideoBVotes,
	}
	if battle.WinnerID != "" {
		winner := battle.WinnerID
		row.WinnerID = &winner
	}
	if battle.ConcludedAt != nil {
		concludedAt := battle.ConcludedAt.UTC()
		row.ConcludedAt = &concludedAt
	}
	return row
}

func (m battleModel) toEntity() entities.Battle {
	battle := entities.Battle{
		BattleID:    m.BattleID,
		VideoAID:    m.VideoAID,
		VideoBID:    m.VideoBID,
		Tag:         m.Tag,
		StartedAt:   m.StartedAt.UTC(),
		EndsAt:      m.EndsAt.UTC(),
		Active:      m.Active,
		VideoAVotes: m.VideoAVotes,
		VideoBVotes: m.VideoBVotes,
	}
	if m.WinnerID != nil {
		battle.WinnerID = *m.WinnerID
	}
	if m.ConcludedAt != nil {
		concludedAt := m.ConcludedAt.UTC()
		battle.ConcludedAt = &concludedAt
	}
	return battle
}

type voteModel struct {
	VoteID         string    `gorm:"column:vote_id;primaryKey"`
	BattleID       string    `gorm:"column:battle_id"`
	VoterID        string    `gorm:"column:voter_id"`
	VotedForID     string    `gorm:"column:voted_for_id"`
	VotedAgainstID string    `gorm:"column:voted_against_id"`
	VotedAt        time.Time `gorm:"column:voted_at"`
}

func (voteModel) TableName() string {
	return "battle_votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		VoteID:         vote.VoteID,
		BattleID:       vote.BattleID,
		VoterID:        vote.VoterID,
		VotedForID:     vote.VotedForID,
		VotedAgainstID: vote.VotedAgainstID,
		VotedAt:        vote.VotedAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:         m.VoteID,
		BattleID:       m.BattleID,
		VoterID:        m.VoterID,
		VotedForID:     m.VotedForID,
		VotedAgainstID: m.VotedAgainstID,
		VotedAt:        m.VotedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "battle_engine_outbox"
}

func outboxModelFromPort(message ports.OutboxMessage) outboxModel {
	return outboxModel{
		OutboxID:     message.OutboxID,
		EventType:    message.EventType,
		PartitionKey: message.PartitionKey,
		Payload:      append([]byte(nil), message.Payload...),
		Status:       outboxStatusPending,
		CreatedAt:    message.CreatedAt.UTC(),
	}
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	VoteID      string    `gorm:"column:vote_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "battle_engine_idempotency"
}

func (m idempotencyModel) toPort() ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:         m.Key,
		RequestHash: m.RequestHash,
		VoteID:      m.VoteID,
		ExpiresAt:   m.ExpiresAt.UTC(),
	}
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "battle_engine_event_dedup"
}
