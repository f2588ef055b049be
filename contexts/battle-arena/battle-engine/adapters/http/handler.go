package httpadapter

import (
	"context"
	"io"
	"log/slog"
	"time"

	application "reelrivals/contexts/battle-arena/battle-engine/application"
	"reelrivals/contexts/battle-arena/battle-engine/application/commands"
	"reelrivals/contexts/battle-arena/battle-engine/application/queries"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	httptransport "reelrivals/contexts/battle-arena/battle-engine/transport/http"
)

const timestampLayout = time.RFC3339Nano

type Handler struct {
	UploadVideo  commands.UploadVideoUseCase
	RecordView   commands.RecordViewUseCase
	DeleteVideo  commands.DeleteVideoUseCase
	CreateBattle commands.CreateBattleUseCase
	CastVote     commands.CastVoteUseCase
	ListActive   queries.ListActiveBattlesUseCase
	GetBattle    queries.GetBattleUseCase
	GetProfile   queries.GetProfileUseCase
	ListMyVideos queries.ListMyVideosUseCase
	GetVideo     queries.GetVideoUseCase
	Logger       *slog.Logger
}

// UploadVideoInput is the decoded multipart upload.
type UploadVideoInput struct {
	OwnerID     string
	Title       string
	Description string
	Tags        string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadVideoHandler godoc
// @Summary Upload a video
// @Description Stores the media, registers the video, and queues matchmaking.
// @Tags battle-engine
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param video formData file true "Video file"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param tags formData string true "Comma separated tags"
// @Success 201 {object} httptransport.UploadVideoResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 413 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/videos/upload [post]
func (h Handler) UploadVideoHandler(ctx context.Context, input UploadVideoInput) (httptransport.UploadVideoResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("upload video request received",
		"event", "http_upload_video_received",
		"module", application.ModuleName,
		"layer", "transport",
		"owner_id", input.OwnerID,
	)

	result, err := h.UploadVideo.Execute(ctx, commands.UploadVideoCommand{
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		Description: input.Description,
		Tags:        entities.ParseTagList(input.Tags),
		FileName:    input.FileName,
		ContentType: input.ContentType,
		Size:        input.Size,
		Body:        input.Body,
	})
	if err != nil {
		logger.Error("upload video request failed",
			"event", "http_upload_video_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"error", err.Error(),
		)
		return httptransport.UploadVideoResponse{}, err
	}
	return httptransport.UploadVideoResponse{
		Message: "Video uploaded",
		Video:   mapVideo(result.Video),
	}, nil
}

// ListMyVideosHandler godoc
// @Summary List the caller's videos
// @Tags battle-engine
// @Produce json
// @Security BearerAuth
// @Success 200 {array} httptransport.VideoDTO
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /api/videos/my-videos [get]
func (h Handler) ListMyVideosHandler(ctx context.Context, ownerID string) (httptransport.ListVideosResponse, error) {
	videos, err := h.ListMyVideos.Execute(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return mapVideos(videos), nil
}

// GetVideoHandler godoc
// @Summary Get one video
// @Tags battle-engine
// @Produce json
// @Param video_id path string true "Video id"
// @Success 200 {object} httptransport.GetVideoResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/videos/{video_id} [get]
func (h Handler) GetVideoHandler(ctx context.Context, videoID string) (httptransport.GetVideoResponse, error) {
	video, err := h.GetVideo.Execute(ctx, videoID)
	if err != nil {
		return httptransport.GetVideoResponse{}, err
	}
	return httptransport.GetVideoResponse{Video: mapVideo(video)}, nil
}

// RecordViewHandler godoc
// @Summary Count a view
// @Tags battle-engine
// @Produce json
// @Param video_id path string true "Video id"
// @Success 200 {object} httptransport.GetVideoResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/videos/{video_id}/views [post]
func (h Handler) RecordViewHandler(ctx context.Context, videoID string) (httptransport.GetVideoResponse, error) {
	video, err := h.RecordView.Execute(ctx, videoID)
	if err != nil {
		return httptransport.GetVideoResponse{}, err
	}
	return httptransport.GetVideoResponse{Video: mapVideo(video)}, nil
}

// DeleteVideoHandler godoc
// @Summary Soft delete an owned video
// @Tags battle-engine
// @Produce json
// @Security BearerAuth
// @Param video_id path string true "Video id"
// @Success 200 {object} httptransport.GetVideoResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/videos/{video_id} [delete]
func (h Handler) DeleteVideoHandler(ctx context.Context, ownerID string, videoID string) (httptransport.GetVideoResponse, error) {
	video, err := h.DeleteVideo.Execute(ctx, commands.DeleteVideoCommand{
		VideoID: videoID,
		OwnerID: ownerID,
	})
	if err != nil {
		return httptransport.GetVideoResponse{}, err
	}
	return httptransport.GetVideoResponse{Video: mapVideo(video)}, nil
}

// CreateBattleHandler godoc
// @Summary Open a battle between two videos
// @Description Picks the first shared tag when tag is omitted.
// @Tags battle-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.CreateBattleRequest true "Battle payload"
// @Success 201 {object} httptransport.CreateBattleResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/battles [post]
func (h Handler) CreateBattleHandler(ctx context.Context, req httptransport.CreateBattleRequest) (httptransport.CreateBattleResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	result, err := h.CreateBattle.Execute(ctx, commands.CreateBattleCommand{
		VideoAID: req.Video1ID,
		VideoBID: req.Video2ID,
		Tag:      req.Tag,
	})
	if err != nil {
		logger.Warn("create battle request failed",
			"event", "http_create_battle_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"video1_id", req.Video1ID,
			"video2_id", req.Video2ID,
			"error", err.Error(),
		)
		return httptransport.CreateBattleResponse{}, err
	}
	now := result.Battle.StartedAt
	return httptransport.CreateBattleResponse{
		Battle: mapBattle(queries.BattleView{
			Battle:   result.Battle,
			VideoA:   result.VideoA,
			VideoB:   result.VideoB,
			EndsInMs: result.Battle.RemainingMs(now),
			Votable:  entities.IsVotable(result.Battle, now),
		}),
	}, nil
}

// ListActiveBattlesHandler godoc
// @Summary List votable battles
// @Description Newest first, with time remaining in milliseconds.
// @Tags battle-engine
// @Produce json
// @Success 200 {array} httptransport.ActiveBattleDTO
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/battles/active [get]
func (h Handler) ListActiveBattlesHandler(ctx context.Context) (httptransport.ListActiveBattlesResponse, error) {
	result, err := h.ListActive.Execute(ctx)
	if err != nil {
		return nil, err
	}
	items := make(httptransport.ListActiveBattlesResponse, 0, len(result.Items))
	for _, view := range result.Items {
		items = append(items, httptransport.ActiveBattleDTO{
			ID:          view.Battle.BattleID,
			Tag:         view.Battle.Tag,
			Video1:      httptransport.BattleVideoDTO{ID: view.VideoA.VideoID, Title: view.VideoA.Title},
			Video2:      httptransport.BattleVideoDTO{ID: view.VideoB.VideoID, Title: view.VideoB.Title},
			Video1Votes: view.Battle.VideoAVotes,
			Video2Votes: view.Battle.VideoBVotes,
			EndsInMs:    view.EndsInMs,
			StartedAt:   view.Battle.StartedAt.UTC().Format(timestampLayout),
		})
	}
	return items, nil
}

// GetBattleHandler godoc
// @Summary Get one battle with both videos
// @Tags battle-engine
// @Produce json
// @Param battle_id path string true "Battle id"
// @Success 200 {object} httptransport.GetBattleResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/battles/{battle_id} [get]
func (h Handler) GetBattleHandler(ctx context.Context, battleID string) (httptransport.GetBattleResponse, error) {
	view, err := h.GetBattle.Execute(ctx, battleID)
	if err != nil {
		return httptransport.GetBattleResponse{}, err
	}
	return httptransport.GetBattleResponse{Battle: mapBattle(view)}, nil
}

// CastVoteHandler godoc
// @Summary Vote in a battle
// @Description One vote per user per battle. Idempotency-Key replays a committed vote.
// @Tags battle-engine
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body httptransport.CastVoteRequest true "Vote payload"
// @Success 201 {object} httptransport.CastVoteResponse
// @Success 200 {object} httptransport.CastVoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/votes/vote [post]
func (h Handler) CastVoteHandler(
	ctx context.Context,
	voterID string,
	idempotencyKey string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("cast vote request received",
		"event", "http_cast_vote_received",
		"module", application.ModuleName,
		"layer", "transport",
		"battle_id", req.BattleID,
		"voter_id", voterID,
	)

	result, err := h.CastVote.Execute(ctx, commands.CastVoteCommand{
		BattleID:       req.BattleID,
		VoterID:        voterID,
		VotedForID:     req.VotedFor,
		VotedAgainstID: req.VotedAgainst,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	return httptransport.CastVoteResponse{
		Message:     "Vote recorded",
		Vote:        mapVote(result.Vote),
		Video1Votes: result.Battle.VideoAVotes,
		Video2Votes: result.Battle.VideoBVotes,
		Replayed:    result.Replayed,
	}, nil
}

// GetProfileHandler godoc
// @Summary Get the caller's profile
// @Description Own videos newest first plus vote history with time remaining.
// @Tags battle-engine
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.ProfileResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Router /api/profile [get]
func (h Handler) GetProfileHandler(ctx context.Context, userID string, username string) (httptransport.ProfileResponse, error) {
	result, err := h.GetProfile.Execute(ctx, queries.GetProfileQuery{
		UserID:   userID,
		Username: username,
	})
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	votes := make([]httptransport.ProfileVoteDTO, 0, len(result.Votes))
	for _, vote := range result.Votes {
		votes = append(votes, httptransport.ProfileVoteDTO{
			ID:         vote.VoteID,
			BattleID:   vote.BattleID,
			Tag:        vote.Tag,
			VotedFor:   vote.VotedForID,
			VideoTitle: vote.VideoTitle,
			VotedAt:    vote.VotedAt.UTC().Format(timestampLayout),
			EndsInMs:   vote.EndsInMs,
		})
	}
	return httptransport.ProfileResponse{
		UserID:   result.UserID,
		Username: result.Username,
		Videos:   mapVideos(result.Videos),
		Votes:    votes,
	}, nil
}

func mapVideos(videos []entities.Video) []httptransport.VideoDTO {
	items := make([]httptransport.VideoDTO, 0, len(videos))
	for _, video := range videos {
		items = append(items, mapVideo(video))
	}
	return items
}

func mapVideo(video entities.Video) httptransport.VideoDTO {
	tags := append([]string(nil), video.Tags...)
	if tags == nil {
		tags = []string{}
	}
	return httptransport.VideoDTO{
		ID:          video.VideoID,
		OwnerID:     video.OwnerID,
		Title:       video.Title,
		Description: video.Description,
		Tags:        tags,
		URL:         video.MediaURL,
		UploadedAt:  video.UploadedAt.UTC().Format(timestampLayout),
		Views:       video.Views,
		Votes:       video.Votes,
		Status:      string(video.Status),
	}
}

func mapBattle(view queries.BattleView) httptransport.BattleDTO {
	item := httptransport.BattleDTO{
		ID:          view.Battle.BattleID,
		Tag:         view.Battle.Tag,
		Video1:      mapBattleVideo(view.Battle.VideoAID, view.VideoA),
		Video2:      mapBattleVideo(view.Battle.VideoBID, view.VideoB),
		Video1Votes: view.Battle.VideoAVotes,
		Video2Votes: view.Battle.VideoBVotes,
		StartedAt:   view.Battle.StartedAt.UTC().Format(timestampLayout),
		EndsAt:      view.Battle.EndsAt.UTC().Format(timestampLayout),
		EndsInMs:    view.EndsInMs,
		Active:      view.Battle.Active,
		Votable:     view.Votable,
		WinnerID:    view.Battle.WinnerID,
	}
	if view.Battle.ConcludedAt != nil {
		item.ConcludedAt = view.Battle.ConcludedAt.UTC().Format(timestampLayout)
	}
	return item
}

func mapBattleVideo(videoID string, video entities.Video) httptransport.BattleVideoDTO {
	return httptransport.BattleVideoDTO{
		ID:    videoID,
		Title: video.Title,
		URL:   video.MediaURL,
	}
}

func mapVote(vote entities.Vote) httptransport.VoteDTO {
	return httptransport.VoteDTO{
		ID:           vote.VoteID,
		BattleID:     vote.BattleID,
		VoterID:      vote.VoterID,
		VotedFor:     vote.VotedForID,
		VotedAgainst: vote.VotedAgainstID,
		VotedAt:      vote.VotedAt.UTC().Format(timestampLayout),
	}
}
