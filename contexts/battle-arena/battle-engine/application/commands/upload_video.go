package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

type UploadVideoCommand struct {
	OwnerID     string
	Title       string
	Description string
	Tags        []string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadVideoResult struct {
	Video entities.Video
}

// UploadVideoUseCase stores the media and registers the video. Matchmaking
// is not run here: the committed video.uploaded event triggers it later.
type UploadVideoUseCase struct {
	Videos ports.VideoRepository
	Media  ports.MediaStore
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (u UploadVideoUseCase) Execute(ctx context.Context, cmd UploadVideoCommand) (UploadVideoResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.OwnerID) == "" {
		return UploadVideoResult{}, domainerrors.ErrUnauthenticated
	}
	tags := entities.NormalizeTags(cmd.Tags)
	if strings.TrimSpace(cmd.Title) == "" || len(tags) == 0 || cmd.Body == nil {
		return UploadVideoResult{}, domainerrors.ErrInvalidUpload
	}

	now := nowFrom(u.Clock)
	key := mediaObjectKey(now.UnixMilli(), cmd.FileName)
	contentType := cmd.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	mediaURL, err := u.Media.Store(ctx, ports.MediaObject{
		Key:         key,
		ContentType: contentType,
		Size:        cmd.Size,
		Body:        cmd.Body,
	})
	if err != nil {
		logger.Error("upload media store failed",
			"event", "battle_upload_media_store_failed",
			"module", application.ModuleName,
			"layer", "application",
			"owner_id", cmd.OwnerID,
			"media_key", key,
			"error", err.Error(),
		)
		return UploadVideoResult{}, fmt.Errorf("store media: %w", err)
	}

	videoID, err := u.IDGen.NewID(ctx)
	if err != nil {
		return UploadVideoResult{}, err
	}
	video, err := entities.NewVideo(videoID, cmd.OwnerID, cmd.Title, cmd.Description, mediaURL, tags, now)
	if err != nil {
		return UploadVideoResult{}, err
	}

	eventID, err := u.IDGen.NewID(ctx)
	if err != nil {
		return UploadVideoResult{}, err
	}
	event, err := videoUploadedMessage(eventID, video, now)
	if err != nil {
		return UploadVideoResult{}, err
	}

	if err := u.Videos.CreateVideoWithOutbox(ctx, video, event); err != nil {
		logger.Error("upload video write failed",
			"event", "battle_upload_write_failed",
			"module", application.ModuleName,
			"layer", "application",
			"owner_id", cmd.OwnerID,
			"video_id", video.VideoID,
			"error", err.Error(),
		)
		return UploadVideoResult{}, err
	}

	logger.Info("video uploaded",
		"event", "battle_video_uploaded",
		"module", application.ModuleName,
		"layer", "application",
		"video_id", video.VideoID,
		"owner_id", video.OwnerID,
		"tags", video.Tags,
	)
	return UploadVideoResult{Video: video}, nil
}

// mediaObjectKey follows the videos/<unix-ms>_<name> layout of the media bucket.
func mediaObjectKey(unixMillis int64, fileName string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
	if name == "" || name == "." || name == "/" {
		name = "upload"
	}
	return fmt.Sprintf("videos/%d_%s", unixMillis, name)
}
