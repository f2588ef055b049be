package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the versioned event shape published by the battle engine.
// Consumers decode Data according to EventType and SchemaVersion.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id,omitempty"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	EventTypeVideoUploaded   = "video.uploaded"
	EventTypeBattleOpened    = "battle.opened"
	EventTypeVoteCast        = "vote.cast"
	EventTypeBattleConcluded = "battle.concluded"
)

// VideoUploadedData is the payload of video.uploaded.
type VideoUploadedData struct {
	VideoID string   `json:"video_id"`
	OwnerID string   `json:"owner_id"`
	Tags    []string `json:"tags"`
}

// BattleOpenedData is the payload of battle.opened.
type BattleOpenedData struct {
	BattleID string    `json:"battle_id"`
	VideoAID string    `json:"video_a_id"`
	VideoBID string    `json:"video_b_id"`
	Tag      string    `json:"tag"`
	EndsAt   time.Time `json:"ends_at"`
}

// VoteCastData is the payload of vote.cast.
type VoteCastData struct {
	VoteID         string `json:"vote_id"`
	BattleID       string `json:"battle_id"`
	VoterID        string `json:"voter_id"`
	VotedForID     string `json:"voted_for_id"`
	VotedAgainstID string `json:"voted_against_id"`
}

// BattleConcludedData is the payload of battle.concluded. WinnerID is empty on a tie.
type BattleConcludedData struct {
	BattleID    string `json:"battle_id"`
	WinnerID    string `json:"winner_id,omitempty"`
	VideoAVotes int64  `json:"video_a_votes"`
	VideoBVotes int64  `json:"video_b_votes"`
}
