package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

type CastVoteCommand struct {
	BattleID       string
	VoterID        string
	VotedForID     string
	VotedAgainstID string
	IdempotencyKey string
}

type CastVoteResult struct {
	Vote     entities.Vote
	Battle   entities.Battle
	Replayed bool
}

type CastVoteUseCase struct {
	Battles        ports.BattleRepository
	Votes          ports.VoteRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Metrics        ports.Metrics
	Logger         *slog.Logger
}

// Execute validates in this order:
// 1) caller identity
// 2) idempotency replay, when a key is supplied
// 3) battle exists and is votable at now
// 4) vote targets are exactly the battle's two videos
// 5) atomic insert + tally increments, where (battle, voter) uniqueness and
//    votability are enforced again by the repository.
func (u CastVoteUseCase) Execute(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(u.Logger)
	metrics := application.ResolveMetrics(u.Metrics)
	if strings.TrimSpace(cmd.VoterID) == "" {
		return CastVoteResult{}, domainerrors.ErrUnauthenticated
	}
	if strings.TrimSpace(cmd.BattleID) == "" {
		return CastVoteResult{}, domainerrors.ErrBattleNotFound
	}

	now := nowFrom(u.Clock)
	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashVoteRequest(cmd)

	if idempotencyKey != "" && u.Idempotency != nil {
		record, found, err := u.Idempotency.Get(ctx, scopedIdempotencyKey(cmd.VoterID, idempotencyKey), now)
		if err != nil {
			return CastVoteResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				return CastVoteResult{}, domainerrors.ErrIdempotencyKeyConflict
			}
			vote, err := u.Votes.GetVote(ctx, record.VoteID)
			if err != nil {
				return CastVoteResult{}, err
			}
			battle, err := u.Battles.GetBattle(ctx, vote.BattleID)
			if err != nil {
				return CastVoteResult{}, err
			}
			metrics.ObserveVote(application.OutcomeReplayed)
			logger.Info("vote replayed from idempotency",
				"event", "battle_vote_replayed",
				"module", application.ModuleName,
				"layer", "application",
				"vote_id", vote.VoteID,
				"battle_id", vote.BattleID,
				"voter_id", vote.VoterID,
			)
			return CastVoteResult{Vote: vote, Battle: battle, Replayed: true}, nil
		}
	}

	battle, err := u.Battles.GetBattle(ctx, cmd.BattleID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if !entities.IsVotable(battle, now) {
		metrics.ObserveVote(application.OutcomeInactive)
		return CastVoteResult{}, domainerrors.ErrBattleInactive
	}

	voteID, err := u.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	vote, err := entities.NewVote(voteID, battle, cmd.VoterID, cmd.VotedForID, cmd.VotedAgainstID, now)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidVoteReference) {
			metrics.ObserveVote(application.OutcomeInvalidReference)
		}
		return CastVoteResult{}, err
	}

	eventID, err := u.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	event, err := voteCastMessage(eventID, vote, now)
	if err != nil {
		return CastVoteResult{}, err
	}

	updated, err := u.Votes.RecordVote(ctx, vote, now, event)
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrDuplicateVote):
			metrics.ObserveVote(application.OutcomeDuplicate)
			logger.Info("duplicate vote rejected",
				"event", "battle_vote_duplicate",
				"module", application.ModuleName,
				"layer", "application",
				"battle_id", cmd.BattleID,
				"voter_id", cmd.VoterID,
			)
		case errors.Is(err, domainerrors.ErrBattleInactive):
			metrics.ObserveVote(application.OutcomeInactive)
		default:
			metrics.ObserveVote(application.OutcomeError)
			logger.Error("vote write failed",
				"event", "battle_vote_write_failed",
				"module", application.ModuleName,
				"layer", "application",
				"battle_id", cmd.BattleID,
				"voter_id", cmd.VoterID,
				"error", err.Error(),
			)
		}
		return CastVoteResult{}, err
	}

	if idempotencyKey != "" && u.Idempotency != nil {
		if err := u.Idempotency.Put(ctx, ports.IdempotencyRecord{
			Key:         scopedIdempotencyKey(cmd.VoterID, idempotencyKey),
			RequestHash: requestHash,
			VoteID:      vote.VoteID,
			ExpiresAt:   now.Add(u.idempotencyTTL()),
		}); err != nil {
			// The vote is committed; a lost key only downgrades a retry to DuplicateVote.
			logger.Warn("vote idempotency record write failed",
				"event", "battle_vote_idempotency_put_failed",
				"module", application.ModuleName,
				"layer", "application",
				"vote_id", vote.VoteID,
				"error", err.Error(),
			)
		}
	}

	metrics.ObserveVote(application.OutcomeAccepted)
	logger.Info("vote cast",
		"event", "battle_vote_cast",
		"module", application.ModuleName,
		"layer", "application",
		"vote_id", vote.VoteID,
		"battle_id", vote.BattleID,
		"voter_id", vote.VoterID,
		"voted_for_id", vote.VotedForID,
	)
	return CastVoteResult{Vote: vote, Battle: updated}, nil
}

func (u CastVoteUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func scopedIdempotencyKey(voterID string, key string) string {
	return fmt.Sprintf("vote:%s:%s", voterID, key)
}

func hashVoteRequest(cmd CastVoteCommand) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", cmd.VoterID, cmd.BattleID, cmd.VotedForID, cmd.VotedAgainstID)))
	return hex.EncodeToString(sum[:])
}
