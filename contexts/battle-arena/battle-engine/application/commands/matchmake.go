package commands

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/domain/services"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

type MatchmakeCommand struct {
	VideoID string
}

type MatchmakeResult struct {
	Outcome string
	Battle  *entities.Battle
}

// MatchmakeUseCase looks for a fair opponent for one video and opens a
// battle. Losing a race or finding nobody is a normal outcome, not an error.
type MatchmakeUseCase struct {
	Videos                ports.VideoRepository
	Battles               ports.BattleRepository
	Clock                 ports.Clock
	IDGen                 ports.IDGenerator
	Random                ports.RandomSource
	FairnessMarginPercent int
	BattleDuration        time.Duration
	Metrics               ports.Metrics
	Logger                *slog.Logger
}

func (u MatchmakeUseCase) Execute(ctx context.Context, cmd MatchmakeCommand) (MatchmakeResult, error) {
	logger := application.ResolveLogger(u.Logger)
	metrics := application.ResolveMetrics(u.Metrics)
	if strings.TrimSpace(cmd.VideoID) == "" {
		return MatchmakeResult{}, domainerrors.ErrVideoNotFound
	}

	video, err := u.Videos.GetVideo(ctx, cmd.VideoID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrVideoNotFound) {
			metrics.ObserveMatchmaking(application.OutcomeVideoUnavailable)
			return MatchmakeResult{Outcome: application.OutcomeVideoUnavailable}, nil
		}
		metrics.ObserveMatchmaking(application.OutcomeError)
		return MatchmakeResult{}, err
	}
	if !video.IsMatchable() {
		logger.Debug("matchmaking skipped for unavailable video",
			"event", "battle_matchmaking_skipped",
			"module", application.ModuleName,
			"layer", "application",
			"video_id", video.VideoID,
			"status", video.Status,
		)
		metrics.ObserveMatchmaking(application.OutcomeVideoUnavailable)
		return MatchmakeResult{Outcome: application.OutcomeVideoUnavailable}, nil
	}

	candidates, err := u.Videos.ListMatchCandidates(ctx, video.VideoID, video.Tags)
	if err != nil {
		logger.Error("matchmaking candidate lookup failed",
			"event", "battle_matchmaking_candidates_failed",
			"module", application.ModuleName,
			"layer", "application",
			"video_id", video.VideoID,
			"error", err.Error(),
		)
		metrics.ObserveMatchmaking(application.OutcomeError)
		return MatchmakeResult{}, err
	}

	pairing, ok := services.SelectOpponent(video, candidates, u.marginPercent(), u.pick)
	if !ok {
		logger.Info("no fair opponent found",
			"event", "battle_matchmaking_no_candidate",
			"module", application.ModuleName,
			"layer", "application",
			"video_id", video.VideoID,
			"candidate_count", len(candidates),
		)
		metrics.ObserveMatchmaking(application.OutcomeNoCandidate)
		return MatchmakeResult{Outcome: application.OutcomeNoCandidate}, nil
	}

	battle, err := openBattle(ctx, u.Battles, u.IDGen, nowFrom(u.Clock), video.VideoID, pairing.Opponent.VideoID, pairing.Tag, u.BattleDuration)
	if err != nil {
		if isBenignOpenFailure(err) {
			logger.Info("matchmaking lost battle race",
				"event", "battle_matchmaking_conflict",
				"module", application.ModuleName,
				"layer", "application",
				"video_id", video.VideoID,
				"opponent_id", pairing.Opponent.VideoID,
				"tag", pairing.Tag,
				"reason", err.Error(),
			)
			metrics.ObserveMatchmaking(application.OutcomeConflict)
			return MatchmakeResult{Outcome: application.OutcomeConflict}, nil
		}
		logger.Error("matchmaking battle open failed",
			"event", "battle_matchmaking_open_failed",
			"module", application.ModuleName,
			"layer", "application",
			"video_id", video.VideoID,
			"opponent_id", pairing.Opponent.VideoID,
			"error", err.Error(),
		)
		metrics.ObserveMatchmaking(application.OutcomeError)
		return MatchmakeResult{}, err
	}

	logger.Info("battle opened by matchmaking",
		"event", "battle_matchmaking_matched",
		"module", application.ModuleName,
		"layer", "application",
		"battle_id", battle.BattleID,
		"video_a_id", battle.VideoAID,
		"video_b_id", battle.VideoBID,
		"tag", battle.Tag,
	)
	metrics.ObserveMatchmaking(application.OutcomeMatched)
	return MatchmakeResult{Outcome: application.OutcomeMatched, Battle: &battle}, nil
}

func (u MatchmakeUseCase) marginPercent() int {
	if u.FairnessMarginPercent <= 0 {
		return services.DefaultFairnessMarginPercent
	}
	return u.FairnessMarginPercent
}

func (u MatchmakeUseCase) pick(n int) int {
	if u.Random != nil {
		return u.Random.Intn(n)
	}
	return rand.IntN(n)
}
