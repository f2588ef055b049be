package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

type CreateBattleCommand struct {
	VideoAID string
	VideoBID string
	Tag      string
}

type CreateBattleResult struct {
	Battle entities.Battle
	VideoA entities.Video
	VideoB entities.Video
}

// CreateBattleUseCase opens a battle for an explicitly chosen pair. Unlike
// matchmaking it surfaces every failure to the caller.
type CreateBattleUseCase struct {
	Videos         ports.VideoRepository
	Battles        ports.BattleRepository
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	BattleDuration time.Duration
	Logger         *slog.Logger
}

func (u CreateBattleUseCase) Execute(ctx context.Context, cmd CreateBattleCommand) (CreateBattleResult, error) {
	logger := application.ResolveLogger(u.Logger)
	videoAID := strings.TrimSpace(cmd.VideoAID)
	videoBID := strings.TrimSpace(cmd.VideoBID)
	if videoAID == "" || videoBID == "" || videoAID == videoBID {
		return CreateBattleResult{}, domainerrors.ErrInvalidBattleRequest
	}

	videoA, err := loadBattleVideo(ctx, u.Videos, videoAID)
	if err != nil {
		return CreateBattleResult{}, err
	}
	videoB, err := loadBattleVideo(ctx, u.Videos, videoBID)
	if err != nil {
		return CreateBattleResult{}, err
	}

	tag := strings.ToLower(strings.TrimSpace(cmd.Tag))
	if tag == "" {
		shared, ok := entities.SharedTag(videoA, videoB)
		if !ok {
			return CreateBattleResult{}, domainerrors.ErrNoSharedTag
		}
		tag = shared
	} else if !videoA.HasTag(tag) || !videoB.HasTag(tag) {
		return CreateBattleResult{}, domainerrors.ErrNoSharedTag
	}

	if !videoA.IsMatchable() || !videoB.IsMatchable() {
		return CreateBattleResult{}, domainerrors.ErrVideoUnavailable
	}

	battle, err := openBattle(ctx, u.Battles, u.IDGen, nowFrom(u.Clock), videoA.VideoID, videoB.VideoID, tag, u.BattleDuration)
	if err != nil {
		logger.Warn("create battle rejected",
			"event", "battle_create_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"video_a_id", videoAID,
			"video_b_id", videoBID,
			"tag", tag,
			"error", err.Error(),
		)
		return CreateBattleResult{}, err
	}

	logger.Info("battle created",
		"event", "battle_created",
		"module", application.ModuleName,
		"layer", "application",
		"battle_id", battle.BattleID,
		"video_a_id", battle.VideoAID,
		"video_b_id", battle.VideoBID,
		"tag", battle.Tag,
	)
	videoA.Status = entities.VideoStatusBattling
	videoB.Status = entities.VideoStatusBattling
	return CreateBattleResult{Battle: battle, VideoA: videoA, VideoB: videoB}, nil
}

func loadBattleVideo(ctx context.Context, videos ports.VideoRepository, videoID string) (entities.Video, error) {
	video, err := videos.GetVideo(ctx, videoID)
	if err != nil {
		return entities.Video{}, err
	}
	if video.IsDeleted() {
		return entities.Video{}, domainerrors.ErrVideoNotFound
	}
	return video, nil
}

// openBattle builds the battle and its event and hands both to the atomic
// repository write, which owns pair uniqueness and the status flip.
func openBattle(
	ctx context.Context,
	battles ports.BattleRepository,
	idGen ports.IDGenerator,
	now time.Time,
	videoAID string,
	videoBID string,
	tag string,
	duration time.Duration,
) (entities.Battle, error) {
	battleID, err := idGen.NewID(ctx)
	if err != nil {
		return entities.Battle{}, err
	}
	battle, err := entities.NewBattle(battleID, videoAID, videoBID, tag, now, duration)
	if err != nil {
		return entities.Battle{}, err
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return entities.Battle{}, err
	}
	event, err := battleOpenedMessage(eventID, battle, now)
	if err != nil {
		return entities.Battle{}, err
	}
	if err := battles.OpenBattleWithOutbox(ctx, battle, event); err != nil {
		return entities.Battle{}, err
	}
	return battle, nil
}

// isBenignOpenFailure marks the outcomes a concurrent matchmaker can lose to.
func isBenignOpenFailure(err error) bool {
	return errors.Is(err, domainerrors.ErrBattleConflict) ||
		errors.Is(err, domainerrors.ErrVideoUnavailable)
}
