package ports

import (
	"context"
	"io"
	"time"

	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	contractsv1 "reelrivals/contracts/events/v1"
)

// OutboxMessage is an event row committed together with the state change
// that produced it, and later relayed to the bus.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// VideoRepository owns video records. Vote counters are only changed by
// VoteRepository.RecordVote and statuses only through the battle writes
// below, SoftDeleteVideo excepted.
type VideoRepository interface {
	// CreateVideoWithOutbox persists the video and its video.uploaded event atomically.
	CreateVideoWithOutbox(ctx context.Context, video entities.Video, event OutboxMessage) error
	GetVideo(ctx context.Context, videoID string) (entities.Video, error)
	GetVideos(ctx context.Context, videoIDs []string) (map[string]entities.Video, error)
	ListVideosByOwner(ctx context.Context, ownerID string) ([]entities.Video, error)
	// ListMatchCandidates returns active videos other than videoID carrying any of tags,
	// newest first.
	ListMatchCandidates(ctx context.Context, videoID string, tags []string) ([]entities.Video, error)
	IncrementViews(ctx context.Context, videoID string) (entities.Video, error)
	SoftDeleteVideo(ctx context.Context, videoID string, ownerID string) (entities.Video, error)
}

// BattleRepository owns battle records and their transitions.
type BattleRepository interface {
	// OpenBattleWithOutbox inserts the battle, flips both videos from active
	// to battling, and appends the battle.opened event in one atomic write.
	// It returns ErrBattleConflict when an active battle exists for the
	// unordered pair and tag, and ErrVideoUnavailable when either video is
	// not active.
	OpenBattleWithOutbox(ctx context.Context, battle entities.Battle, event OutboxMessage) error
	GetBattle(ctx context.Context, battleID string) (entities.Battle, error)
	GetBattles(ctx context.Context, battleIDs []string) (map[string]entities.Battle, error)
	// ListActiveBattles returns battles that are still votable at now.
	ListActiveBattles(ctx context.Context, now time.Time) ([]entities.Battle, error)
	// ListExpiredBattles returns battles still flagged active whose window closed.
	ListExpiredBattles(ctx context.Context, now time.Time, limit int) ([]entities.Battle, error)
	// ConcludeBattleWithOutbox stores a concluded battle only if the stored
	// row is still active with the same tallies, returns both videos to
	// active, and appends the battle.concluded event. It reports false when
	// the compare failed.
	ConcludeBattleWithOutbox(ctx context.Context, concluded entities.Battle, event OutboxMessage) (bool, error)
}

// VoteRepository owns the vote ledger.
type VoteRepository interface {
	// RecordVote re-checks entities.IsVotable under an exclusive hold of the
	// battle, inserts the vote unique on (battle, voter), increments the
	// battle side tally and the voted-for video counter, and appends the
	// vote.cast event. Either all of it commits or none does.
	RecordVote(ctx context.Context, vote entities.Vote, now time.Time, event OutboxMessage) (entities.Battle, error)
	GetVote(ctx context.Context, voteID string) (entities.Vote, error)
	ListVotesByVoter(ctx context.Context, voterID string) ([]entities.Vote, error)
}

// IdempotencyRecord maps a client idempotency key to the vote it produced.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	VoteID      string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

// MediaObject is one upload handed to the media store.
type MediaObject struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaStore persists upload bytes and returns a durable URL.
type MediaStore interface {
	Store(ctx context.Context, object MediaObject) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// RandomSource picks an index in [0, n).
type RandomSource interface {
	Intn(n int) int
}

// Metrics receives outcome counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveMatchmaking(outcome string)
	ObserveVote(outcome string)
	ObserveBattleConcluded(outcome string)
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventDedupStore makes consumers idempotent per event id.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	// ReleaseEvent drops a reservation whose handler failed so a redelivery
	// runs again. A reservation held under another payload hash is kept.
	ReleaseEvent(ctx context.Context, eventID string, payloadHash string) error
}

type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
