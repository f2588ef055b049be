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

type RecordViewUseCase struct {
	Videos ports.VideoRepository
	Logger *slog.Logger
}

func (u RecordViewUseCase) Execute(ctx context.Context, videoID string) (entities.Video, error) {
	if strings.TrimSpace(videoID) == "" {
		return entities.Video{}, domainerrors.ErrVideoNotFound
	}
	video, err := u.Videos.IncrementViews(ctx, videoID)
	if err != nil {
		return entities.Video{}, err
	}
	application.ResolveLogger(u.Logger).Debug("video view recorded",
		"event", "battle_video_view_recorded",
		"module", application.ModuleName,
		"layer", "application",
		"video_id", video.VideoID,
		"views", video.Views,
	)
	return video, nil
}

type DeleteVideoCommand struct {
	VideoID string
	OwnerID string
}

// DeleteVideoUseCase soft-deletes an owner's video. A battling video is
// refused so the battle keeps both of its participants.
type DeleteVideoUseCase struct {
	Videos ports.VideoRepository
	Logger *slog.Logger
}

func (u DeleteVideoUseCase) Execute(ctx context.Context, cmd DeleteVideoCommand) (entities.Video, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.OwnerID) == "" {
		return entities.Video{}, domainerrors.ErrUnauthenticated
	}
	if strings.TrimSpace(cmd.VideoID) == "" {
		return entities.Video{}, domainerrors.ErrVideoNotFound
	}
	video, err := u.Videos.SoftDeleteVideo(ctx, cmd.VideoID, cmd.OwnerID)
	if err != nil {
		logger.Warn("video delete rejected",
			"event", "battle_video_delete_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"video_id", cmd.VideoID,
			"owner_id", cmd.OwnerID,
			"error", err.Error(),
		)
		return entities.Video{}, err
	}
	logger.Info("video deleted",
		"event", "battle_video_deleted",
		"module", application.ModuleName,
		"layer", "application",
		"video_id", video.VideoID,
		"owner_id", video.OwnerID,
	)
	return video, nil
}
