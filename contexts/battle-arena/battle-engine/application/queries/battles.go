package queries

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

// BattleView is a battle joined with both of its videos.
type BattleView struct {
	Battle   entities.Battle
	VideoA   entities.Video
	VideoB   entities.Video
	EndsInMs int64
	Votable  bool
}

type ListActiveBattlesResult struct {
	Items []BattleView
}

type ListActiveBattlesUseCase struct {
	Battles ports.BattleRepository
	Videos  ports.VideoRepository
	Clock   ports.Clock
	Logger  *slog.Logger
}

// Execute lists votable battles, newest first.
func (u ListActiveBattlesUseCase) Execute(ctx context.Context) (ListActiveBattlesResult, error) {
	logger := application.ResolveLogger(u.Logger)
	now := nowFrom(u.Clock)

	battles, err := u.Battles.ListActiveBattles(ctx, now)
	if err != nil {
		logger.Error("list active battles failed",
			"event", "battle_list_active_failed",
			"module", application.ModuleName,
			"layer", "application",
			"error", err.Error(),
		)
		return ListActiveBattlesResult{}, err
	}

	votable := make([]entities.Battle, 0, len(battles))
	for _, battle := range battles {
		if entities.IsVotable(battle, now) {
			votable = append(votable, battle)
		}
	}

	videos, err := u.Videos.GetVideos(ctx, battleVideoIDs(votable))
	if err != nil {
		return ListActiveBattlesResult{}, err
	}

	sort.SliceStable(votable, func(i, j int) bool {
		if votable[i].StartedAt.Equal(votable[j].StartedAt) {
			return votable[i].BattleID < votable[j].BattleID
		}
		return votable[i].StartedAt.After(votable[j].StartedAt)
	})

	items := make([]BattleView, 0, len(votable))
	for _, battle := range votable {
		items = append(items, buildBattleView(battle, videos, now))
	}
	return ListActiveBattlesResult{Items: items}, nil
}

type GetBattleUseCase struct {
	Battles ports.BattleRepository
	Videos  ports.VideoRepository
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (u GetBattleUseCase) Execute(ctx context.Context, battleID string) (BattleView, error) {
	if strings.TrimSpace(battleID) == "" {
		return BattleView{}, domainerrors.ErrBattleNotFound
	}
	battle, err := u.Battles.GetBattle(ctx, battleID)
	if err != nil {
		return BattleView{}, err
	}
	videos, err := u.Videos.GetVideos(ctx, []string{battle.VideoAID, battle.VideoBID})
	if err != nil {
		return BattleView{}, err
	}
	return buildBattleView(battle, videos, nowFrom(u.Clock)), nil
}

func buildBattleView(battle entities.Battle, videos map[string]entities.Video, now time.Time) BattleView {
	return BattleView{
		Battle:   battle,
		VideoA:   videos[battle.VideoAID],
		VideoB:   videos[battle.VideoBID],
		EndsInMs: battle.RemainingMs(now),
		Votable:  entities.IsVotable(battle, now),
	}
}

func battleVideoIDs(battles []entities.Battle) []string {
	seen := make(map[string]struct{}, len(battles)*2)
	ids := make([]string, 0, len(battles)*2)
	for _, battle := range battles {
		for _, id := range []string{battle.VideoAID, battle.VideoBID} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func nowFrom(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
