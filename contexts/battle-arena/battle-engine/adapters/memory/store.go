package memory

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

// Store is an in-memory adapter implementing the battle engine ports for
// local runtime and tests. One mutex covers every map, so each write method
// is atomic the way a database transaction would be.
type Store struct {
	mu            sync.RWMutex
	videos        map[string]entities.Video
	battles       map[string]entities.Battle
	activePairs   map[string]string
	votes         map[string]entities.Vote
	votesByBallot map[string]string
	idempotency   map[string]ports.IdempotencyRecord
	outbox        map[string]ports.OutboxMessage
	outboxOrder   []string
	outboxSent    map[string]time.Time
	eventDedup    map[string]string
	sequence      uint64
	now           func() time.Time
	logger        *slog.Logger
}

var (
	_ ports.VideoRepository  = (*Store)(nil)
	_ ports.BattleRepository = (*Store)(nil)
	_ ports.VoteRepository   = (*Store)(nil)
	_ ports.IdempotencyStore = (*Store)(nil)
	_ ports.OutboxRepository = (*Store)(nil)
	_ ports.EventDedupStore  = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
	_ ports.IDGenerator      = (*Store)(nil)
	_ ports.RandomSource     = (*Store)(nil)
)

func NewStore(seedVideos []entities.Video, logger *slog.Logger) *Store {
	videos := make(map[string]entities.Video, len(seedVideos))
	for _, video := range seedVideos {
		videos[video.VideoID] = cloneVideo(video)
	}
	return &Store{
		videos:        videos,
		battles:       make(map[string]entities.Battle),
		activePairs:   make(map[string]string),
		votes:         make(map[string]entities.Vote),
		votesByBallot: make(map[string]string),
		idempotency:   make(map[string]ports.IdempotencyRecord),
		outbox:        make(map[string]ports.OutboxMessage),
		outboxOrder:   make([]string, 0),
		outboxSent:    make(map[string]time.Time),
		eventDedup:    make(map[string]string),
		now:           func() time.Time { return time.Now().UTC() },
		logger:        application.ResolveLogger(logger),
	}
}

func (s *Store) CreateVideoWithOutbox(_ context.Context, video entities.Video, event ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[video.VideoID]; ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.videos[video.VideoID] = cloneVideo(video)

	s.logger.Debug("video and outbox persisted in memory store",
		"event", "memory_create_video_with_outbox",
		"module", application.ModuleName,
		"layer", "adapter",
		"video_id", video.VideoID,
		"outbox_event_id", event.OutboxID,
	)
	return nil
}

func (s *Store) GetVideo(_ context.Context, videoID string) (entities.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[videoID]
	if !ok {
		return entities.Video{}, domainerrors.ErrVideoNotFound
	}
	return cloneVideo(video), nil
}

func (s *Store) GetVideos(_ context.Context, videoIDs []string) (map[string]entities.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make(map[string]entities.Video, len(videoIDs))
	for _, id := range videoIDs {
		if video, ok := s.videos[id]; ok {
			items[id] = cloneVideo(video)
		}
	}
	return items, nil
}

func (s *Store) ListVideosByOwner(_ context.Context, ownerID string) ([]entities.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Video, 0)
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			items = append(items, cloneVideo(video))
		}
	}
	sortNewestFirst(items)
	return items, nil
}

func (s *Store) ListMatchCandidates(_ context.Context, videoID string, tags []string) ([]entities.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range entities.NormalizeTags(tags) {
		wanted[tag] = struct{}{}
	}

	items := make([]entities.Video, 0)
	for _, video := range s.videos {
		if video.VideoID == videoID || video.Status != entities.VideoStatusActive {
			continue
		}
		for _, tag := range video.Tags {
			if _, ok := wanted[tag]; ok {
				items = append(items, cloneVideo(video))
				break
			}
		}
	}
	sortNewestFirst(items)
	return items, nil
}

func (s *Store) IncrementViews(_ context.Context, videoID string) (entities.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[videoID]
	if !ok || video.IsDeleted() {
		return entities.Video{}, domainerrors.ErrVideoNotFound
	}
	video.Views++
	s.videos[videoID] = video
	return cloneVideo(video), nil
}

func (s *Store) SoftDeleteVideo(_ context.Context, videoID string, ownerID string) (entities.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[videoID]
	if !ok || video.IsDeleted() {
		return entities.Video{}, domainerrors.ErrVideoNotFound
	}
	if video.OwnerID != ownerID {
		return entities.Video{}, domainerrors.ErrForbidden
	}
	if video.Status == entities.VideoStatusBattling {
		return entities.Video{}, domainerrors.ErrVideoUnavailable
	}
	video.Status = entities.VideoStatusDeleted
	s.videos[videoID] = video
	return cloneVideo(video), nil
}

func (s *Store) OpenBattleWithOutbox(_ context.Context, battle entities.Battle, event ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.battles[battle.BattleID]; ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	pairKey := battle.PairKey()
	if _, ok := s.activePairs[pairKey]; ok {
		return domainerrors.ErrBattleConflict
	}

	videoA, okA := s.videos[battle.VideoAID]
	videoB, okB := s.videos[battle.VideoBID]
	if !okA || !okB || videoA.IsDeleted() || videoB.IsDeleted() {
		return domainerrors.ErrVideoNotFound
	}
	if !videoA.IsMatchable() || !videoB.IsMatchable() {
		return domainerrors.ErrVideoUnavailable
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}

	videoA.Status = entities.VideoStatusBattling
	videoB.Status = entities.VideoStatusBattling
	s.videos[videoA.VideoID] = videoA
	s.videos[videoB.VideoID] = videoB
	s.battles[battle.BattleID] = cloneBattle(battle)
	s.activePairs[pairKey] = battle.BattleID

	s.logger.Debug("battle and outbox persisted in memory store",
		"event", "memory_open_battle_with_outbox",
		"module", application.ModuleName,
		"layer", "adapter",
		"battle_id", battle.BattleID,
		"pair_key", pairKey,
	)
	return nil
}

func (s *Store) GetBattle(_ context.Context, battleID string) (entities.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	battle, ok := s.battles[battleID]
	if !ok {
		return entities.Battle{}, domainerrors.ErrBattleNotFound
	}
	return cloneBattle(battle), nil
}

func (s *Store) GetBattles(_ context.Context, battleIDs []string) (map[string]entities.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make(map[string]entities.Battle, len(battleIDs))
	for _, id := range battleIDs {
		if battle, ok := s.battles[id]; ok {
			items[id] = cloneBattle(battle)
		}
	}
	return items, nil
}

func (s *Store) ListActiveBattles(_ context.Context, now time.Time) ([]entities.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Battle, 0)
	for _, battle := range s.battles {
		if entities.IsVotable(battle, now) {
			items = append(items, cloneBattle(battle))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].StartedAt.After(items[j].StartedAt)
	})
	return items, nil
}

func (s *Store) ListExpiredBattles(_ context.Context, now time.Time, limit int) ([]entities.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Battle, 0)
	for _, battle := range s.battles {
		if entities.IsExpired(battle, now) {
			items = append(items, cloneBattle(battle))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].EndsAt.Before(items[j].EndsAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ConcludeBattleWithOutbox(_ context.Context, concluded entities.Battle, event ports.OutboxMessage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.battles[concluded.BattleID]
	if !ok {
		return false, domainerrors.ErrBattleNotFound
	}
	if !stored.Active ||
		stored.VideoAVotes != concluded.VideoAVotes ||
		stored.VideoBVotes != concluded.VideoBVotes {
		return false, nil
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return false, err
	}

	s.battles[concluded.BattleID] = cloneBattle(concluded)
	delete(s.activePairs, stored.PairKey())
	for _, videoID := range []string{stored.VideoAID, stored.VideoBID} {
		video, ok := s.videos[videoID]
		if ok && video.Status == entities.VideoStatusBattling {
			video.Status = entities.VideoStatusActive
			s.videos[videoID] = video
		}
	}
	return true, nil
}

func (s *Store) RecordVote(_ context.Context, vote entities.Vote, now time.Time, event ports.OutboxMessage) (entities.Battle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	battle, ok := s.battles[vote.BattleID]
	if !ok {
		return entities.Battle{}, domainerrors.ErrBattleNotFound
	}
	if !entities.IsVotable(battle, now) {
		return entities.Battle{}, domainerrors.ErrBattleInactive
	}
	ballot := ballotKey(vote.BattleID, vote.VoterID)
	if _, exists := s.votesByBallot[ballot]; exists {
		return entities.Battle{}, domainerrors.ErrDuplicateVote
	}
	if _, exists := s.votes[vote.VoteID]; exists {
		return entities.Battle{}, domainerrors.ErrRepositoryInvariantBroke
	}
	votedFor, ok := s.videos[vote.VotedForID]
	if !ok {
		return entities.Battle{}, domainerrors.ErrRepositoryInvariantBroke
	}
	if err := battle.ApplyVote(vote); err != nil {
		return entities.Battle{}, err
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return entities.Battle{}, err
	}

	votedFor.Votes++
	s.videos[votedFor.VideoID] = votedFor
	s.battles[battle.BattleID] = battle
	s.votes[vote.VoteID] = vote
	s.votesByBallot[ballot] = vote.VoteID
	return cloneBattle(battle), nil
}

func (s *Store) GetVote(_ context.Context, voteID string) (entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vote, ok := s.votes[voteID]
	if !ok {
		return entities.Vote{}, domainerrors.ErrRepositoryInvariantBroke
	}
	return vote, nil
}

func (s *Store) ListVotesByVoter(_ context.Context, voterID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.VoterID == voterID {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VotedAt.After(items[j].VotedAt)
	})
	return items, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.After(record.ExpiresAt) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idempotency[record.Key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return nil
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		if msg, ok := s.outbox[id]; ok {
			messages = append(messages, msg)
		}
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.eventDedup[eventID]; ok {
		if existing != payloadHash {
			return false, domainerrors.ErrIdempotencyKeyConflict
		}
		return true, nil
	}
	s.eventDedup[eventID] = payloadHash
	return false, nil
}

func (s *Store) ReleaseEvent(_ context.Context, eventID string, payloadHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eventDedup[eventID] == payloadHash {
		delete(s.eventDedup, eventID)
	}
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	now := s.now
	s.mu.RUnlock()
	return now().UTC()
}

// SetNow pins the store clock. Tests use it to move battles past EndsAt.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = func() time.Time { return now }
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("rr-%d", value), nil
}

func (s *Store) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return rand.IntN(n)
}

// SeedBattle stores a battle as-is and marks both videos battling.
func (s *Store) SeedBattle(battle entities.Battle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.battles[battle.BattleID] = cloneBattle(battle)
	if battle.Active {
		s.activePairs[battle.PairKey()] = battle.BattleID
		for _, videoID := range []string{battle.VideoAID, battle.VideoBID} {
			if video, ok := s.videos[videoID]; ok {
				video.Status = entities.VideoStatusBattling
				s.videos[videoID] = video
			}
		}
	}
}

// VoteCount counts ledger rows for a battle.
func (s *Store) VoteCount(battleID string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, vote := range s.votes {
		if vote.BattleID == battleID {
			count++
		}
	}
	return count
}

// ActiveBattleCount counts battles still flagged active.
func (s *Store) ActiveBattleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activePairs)
}

func (s *Store) OutboxEvents() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		if evt, ok := s.outbox[id]; ok {
			events = append(events, evt)
		}
	}
	return events
}

func (s *Store) appendOutboxLocked(event ports.OutboxMessage) error {
	if event.OutboxID == "" {
		return nil
	}
	if _, ok := s.outbox[event.OutboxID]; ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	event.Payload = append([]byte(nil), event.Payload...)
	s.outbox[event.OutboxID] = event
	s.outboxOrder = append(s.outboxOrder, event.OutboxID)
	return nil
}

func ballotKey(battleID string, voterID string) string {
	return battleID + "|" + voterID
}

func cloneVideo(video entities.Video) entities.Video {
	video.Tags = append([]string(nil), video.Tags...)
	return video
}

func cloneBattle(battle entities.Battle) entities.Battle {
	if battle.ConcludedAt != nil {
		concludedAt := *battle.ConcludedAt
		battle.ConcludedAt = &concludedAt
	}
	return battle
}

func sortNewestFirst(videos []entities.Video) {
	sort.Slice(videos, func(i, j int) bool {
		if videos[i].UploadedAt.Equal(videos[j].UploadedAt) {
			return videos[i].VideoID < videos[j].VideoID
		}
		return videos[i].UploadedAt.After(videos[j].UploadedAt)
	})
}
