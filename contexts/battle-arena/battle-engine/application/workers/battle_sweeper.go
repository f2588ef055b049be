package workers

import (
	"context"
	"log/slog"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/application/commands"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

// BattleSweeper concludes battles whose voting window has closed.
type BattleSweeper struct {
	Battles   ports.BattleRepository
	Concluder commands.ConcludeBattleUseCase
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (s BattleSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}
	limit := s.BatchSize
	if limit <= 0 {
		limit = 100
	}

	expired, err := s.Battles.ListExpiredBattles(ctx, now, limit)
	if err != nil {
		logger.Error("battle sweep list failed",
			"event", "battle_sweep_list_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	concluded := 0
	for _, battle := range expired {
		result, err := s.Concluder.Execute(ctx, commands.ConcludeBattleCommand{BattleID: battle.BattleID})
		if err != nil {
			logger.Error("battle sweep conclude failed",
				"event", "battle_sweep_conclude_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"battle_id", battle.BattleID,
				"error", err.Error(),
			)
			return err
		}
		if result.Concluded {
			concluded++
		}
	}

	if concluded > 0 {
		logger.Info("battle sweep completed",
			"event", "battle_sweep_completed",
			"module", application.ModuleName,
			"layer", "worker",
			"concluded_count", concluded,
		)
	}
	return nil
}
