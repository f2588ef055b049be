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

type GetProfileQuery struct {
	UserID   string
	Username string
}

// ProfileVote is one of the caller's votes joined with its battle.
type ProfileVote struct {
	VoteID     string
	BattleID   string
	Tag        string
	VotedForID string
	VideoTitle string
	VotedAt    time.Time
	EndsInMs   int64
}

type GetProfileResult struct {
	UserID   string
	Username string
	Videos   []entities.Video
	Votes    []ProfileVote
}

type GetProfileUseCase struct {
	Videos  ports.VideoRepository
	Battles ports.BattleRepository
	Votes   ports.VoteRepository
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (u GetProfileUseCase) Execute(ctx context.Context, query GetProfileQuery) (GetProfileResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(query.UserID) == "" {
		return GetProfileResult{}, domainerrors.ErrUnauthenticated
	}
	now := nowFrom(u.Clock)

	videos, err := u.Videos.ListVideosByOwner(ctx, query.UserID)
	if err != nil {
		logger.Error("profile video lookup failed",
			"event", "battle_profile_videos_failed",
			"module", application.ModuleName,
			"layer", "application",
			"user_id", query.UserID,
			"error", err.Error(),
		)
		return GetProfileResult{}, err
	}
	videos = visibleVideos(videos)
	sortVideosNewestFirst(videos)

	votes, err := u.Votes.ListVotesByVoter(ctx, query.UserID)
	if err != nil {
		logger.Error("profile vote lookup failed",
			"event", "battle_profile_votes_failed",
			"module", application.ModuleName,
			"layer", "application",
			"user_id", query.UserID,
			"error", err.Error(),
		)
		return GetProfileResult{}, err
	}

	battleIDs := make([]string, 0, len(votes))
	videoIDs := make([]string, 0, len(votes))
	for _, vote := range votes {
		battleIDs = append(battleIDs, vote.BattleID)
		videoIDs = append(videoIDs, vote.VotedForID)
	}
	battles, err := u.Battles.GetBattles(ctx, battleIDs)
	if err != nil {
		return GetProfileResult{}, err
	}
	votedFor, err := u.Videos.GetVideos(ctx, videoIDs)
	if err != nil {
		return GetProfileResult{}, err
	}

	items := make([]ProfileVote, 0, len(votes))
	for _, vote := range votes {
		item := ProfileVote{
			VoteID:     vote.VoteID,
			BattleID:   vote.BattleID,
			VotedForID: vote.VotedForID,
			VideoTitle: votedFor[vote.VotedForID].Title,
			VotedAt:    vote.VotedAt,
		}
		if battle, ok := battles[vote.BattleID]; ok {
			item.Tag = battle.Tag
			if entities.IsVotable(battle, now) {
				item.EndsInMs = battle.RemainingMs(now)
			}
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].VotedAt.After(items[j].VotedAt)
	})

	username := strings.TrimSpace(query.Username)
	if username == "" {
		username = query.UserID
	}
	return GetProfileResult{
		UserID:   query.UserID,
		Username: username,
		Videos:   videos,
		Votes:    items,
	}, nil
}

type ListMyVideosUseCase struct {
	Videos ports.VideoRepository
	Logger *slog.Logger
}

func (u ListMyVideosUseCase) Execute(ctx context.Context, ownerID string) ([]entities.Video, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domainerrors.ErrUnauthenticated
	}
	videos, err := u.Videos.ListVideosByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	videos = visibleVideos(videos)
	sortVideosNewestFirst(videos)
	return videos, nil
}

type GetVideoUseCase struct {
	Videos ports.VideoRepository
	Logger *slog.Logger
}

func (u GetVideoUseCase) Execute(ctx context.Context, videoID string) (entities.Video, error) {
	if strings.TrimSpace(videoID) == "" {
		return entities.Video{}, domainerrors.ErrVideoNotFound
	}
	video, err := u.Videos.GetVideo(ctx, videoID)
	if err != nil {
		return entities.Video{}, err
	}
	if video.IsDeleted() {
		return entities.Video{}, domainerrors.ErrVideoNotFound
	}
	return video, nil
}

func visibleVideos(videos []entities.Video) []entities.Video {
	visible := make([]entities.Video, 0, len(videos))
	for _, video := range videos {
		if !video.IsDeleted() {
			visible = append(visible, video)
		}
	}
	return visible
}

func sortVideosNewestFirst(videos []entities.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].UploadedAt.Equal(videos[j].UploadedAt) {
			return videos[i].VideoID < videos[j].VideoID
		}
		return videos[i].UploadedAt.After(videos[j].UploadedAt)
	})
}
