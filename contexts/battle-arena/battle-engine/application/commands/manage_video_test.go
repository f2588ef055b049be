package commands_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"reelrivals/contexts/battle-arena/battle-engine/adapters/memory"
	"reelrivals/contexts/battle-arena/battle-engine/application/commands"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
)

func TestUploadVideoStoresMedia(t *testing.T) {
	store := newStore(t)
	media := memory.NewMediaStore("https://cdn.example.test/")
	upload := commands.UploadVideoUseCase{Videos: store, Media: media, Clock: store, IDGen: store}

	result, err := upload.Execute(context.Background(), commands.UploadVideoCommand{
		OwnerID:     "user_1",
		Title:       "  Skate fail ",
		Description: "ouch",
		Tags:        []string{" Sports", "comedy", "sports", ""},
		FileName:    "my clip.mp4",
		ContentType: "video/mp4",
		Body:        bytes.NewReader([]byte("video-bytes")),
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	video := result.Video
	if video.Title != "Skate fail" {
		t.Fatalf("expected trimmed title, got %q", video.Title)
	}
	if strings.Join(video.Tags, ",") != "comedy,sports" {
		t.Fatalf("expected normalized tags, got %v", video.Tags)
	}
	if video.Status != entities.VideoStatusActive || video.Votes != 0 || video.Views != 0 {
		t.Fatalf("expected fresh active video, got %+v", video)
	}

	key := strings.TrimPrefix(video.MediaURL, "https://cdn.example.test/")
	if !strings.HasPrefix(key, "videos/") || !strings.HasSuffix(key, "_my_clip.mp4") {
		t.Fatalf("unexpected media key %q", key)
	}
	data, ok := media.Object(key)
	if !ok || string(data) != "video-bytes" {
		t.Fatalf("expected media object stored under %q", key)
	}
}

func TestUploadVideoValidation(t *testing.T) {
	store := newStore(t)
	upload := commands.UploadVideoUseCase{Videos: store, Media: memory.NewMediaStore(""), Clock: store, IDGen: store}
	ctx := context.Background()

	_, err := upload.Execute(ctx, commands.UploadVideoCommand{Title: "t", Tags: []string{"a"}, Body: strings.NewReader("x")})
	if !errors.Is(err, domainerrors.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	_, err = upload.Execute(ctx, commands.UploadVideoCommand{OwnerID: "user_1", Title: "t", Tags: []string{" "}, Body: strings.NewReader("x")})
	if !errors.Is(err, domainerrors.ErrInvalidUpload) {
		t.Fatalf("expected invalid upload for empty tags, got %v", err)
	}
	_, err = upload.Execute(ctx, commands.UploadVideoCommand{OwnerID: "user_1", Title: "t", Tags: []string{"a"}})
	if !errors.Is(err, domainerrors.ErrInvalidUpload) {
		t.Fatalf("expected invalid upload for missing file, got %v", err)
	}
	if len(store.OutboxEvents()) != 0 {
		t.Fatalf("expected no events for rejected uploads")
	}
}

func TestRecordViewAndDeleteVideo(t *testing.T) {
	store := newStore(t,
		seedVideo("video_x", "user_1", 0, "comedy"),
		seedVideo("video_y", "user_2", 0, "comedy"),
		seedVideo("video_z", "user_3", 0, "comedy"),
	)
	seedActiveBattle(t, store, "battle_b", "video_y", "video_z", "comedy")
	views := commands.RecordViewUseCase{Videos: store}
	remove := commands.DeleteVideoUseCase{Videos: store}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := views.Execute(ctx, "video_x"); err != nil {
			t.Fatalf("record view failed: %v", err)
		}
	}
	video, err := store.GetVideo(ctx, "video_x")
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if video.Views != 3 {
		t.Fatalf("expected 3 views, got %d", video.Views)
	}

	if _, err := remove.Execute(ctx, commands.DeleteVideoCommand{VideoID: "video_x", OwnerID: "user_2"}); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if _, err := remove.Execute(ctx, commands.DeleteVideoCommand{VideoID: "video_y", OwnerID: "user_2"}); !errors.Is(err, domainerrors.ErrVideoUnavailable) {
		t.Fatalf("expected battling video to be kept, got %v", err)
	}
	deleted, err := remove.Execute(ctx, commands.DeleteVideoCommand{VideoID: "video_x", OwnerID: "user_1"})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted.Status != entities.VideoStatusDeleted {
		t.Fatalf("expected deleted status, got %s", deleted.Status)
	}
	if _, err := views.Execute(ctx, "video_x"); !errors.Is(err, domainerrors.ErrVideoNotFound) {
		t.Fatalf("expected views on deleted video to fail, got %v", err)
	}
}
