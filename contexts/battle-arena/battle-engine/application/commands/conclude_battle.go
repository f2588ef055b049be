package commands

import (
	"context"
	"log/slog"
	"strings"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

const maxConcludeAttempts = 5

type ConcludeBattleCommand struct {
	BattleID string
}

type ConcludeBattleResult struct {
	Battle    entities.Battle
	Concluded bool
}

// ConcludeBattleUseCase is idempotent: a battle that is already concluded
// is returned unchanged with Concluded=false.
type ConcludeBattleUseCase struct {
	Battles ports.BattleRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics ports.Metrics
	Logger  *slog.Logger
}

func (u ConcludeBattleUseCase) Execute(ctx context.Context, cmd ConcludeBattleCommand) (ConcludeBattleResult, error) {
	logger := application.ResolveLogger(u.Logger)
	metrics := application.ResolveMetrics(u.Metrics)
	if strings.TrimSpace(cmd.BattleID) == "" {
		return ConcludeBattleResult{}, domainerrors.ErrBattleNotFound
	}

	for attempt := 1; attempt <= maxConcludeAttempts; attempt++ {
		battle, err := u.Battles.GetBattle(ctx, cmd.BattleID)
		if err != nil {
			return ConcludeBattleResult{}, err
		}
		now := nowFrom(u.Clock)
		if !battle.Conclude(now) {
			return ConcludeBattleResult{Battle: battle}, nil
		}

		eventID, err := u.IDGen.NewID(ctx)
		if err != nil {
			return ConcludeBattleResult{}, err
		}
		event, err := battleConcludedMessage(eventID, battle, now)
		if err != nil {
			return ConcludeBattleResult{}, err
		}

		// The write compares tallies, so a vote committed between the read
		// above and this write forces another round.
		stored, err := u.Battles.ConcludeBattleWithOutbox(ctx, battle, event)
		if err != nil {
			logger.Error("conclude battle write failed",
				"event", "battle_conclude_write_failed",
				"module", application.ModuleName,
				"layer", "application",
				"battle_id", battle.BattleID,
				"error", err.Error(),
			)
			return ConcludeBattleResult{}, err
		}
		if !stored {
			logger.Debug("conclude battle compare failed, retrying",
				"event", "battle_conclude_retry",
				"module", application.ModuleName,
				"layer", "application",
				"battle_id", battle.BattleID,
				"attempt", attempt,
			)
			continue
		}

		outcome := application.OutcomeWinner
		if battle.WinnerID == "" {
			outcome = application.OutcomeTie
		}
		metrics.ObserveBattleConcluded(outcome)
		logger.Info("battle concluded",
			"event", "battle_concluded",
			"module", application.ModuleName,
			"layer", "application",
			"battle_id", battle.BattleID,
			"winner_id", battle.WinnerID,
			"video_a_votes", battle.VideoAVotes,
			"video_b_votes", battle.VideoBVotes,
		)
		return ConcludeBattleResult{Battle: battle, Concluded: true}, nil
	}
	return ConcludeBattleResult{}, domainerrors.ErrRepositoryInvariantBroke
}
