package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelrivals/contexts/battle-arena/battle-engine/adapters/memory"
	"reelrivals/contexts/battle-arena/battle-engine/application/commands"
	"reelrivals/contexts/battle-arena/battle-engine/application/queries"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func video(id string, owner string, uploadedAt time.Time, tags ...string) entities.Video {
	return entities.Video{
		VideoID:    id,
		OwnerID:    owner,
		Title:      "title " + id,
		Tags:       tags,
		MediaURL:   "memory://media/" + id,
		UploadedAt: uploadedAt,
		Status:     entities.VideoStatusActive,
	}
}

func seedBattle(t *testing.T, store *memory.Store, id string, a string, b string, startedAt time.Time, duration time.Duration) entities.Battle {
	t.Helper()
	battle, err := entities.NewBattle(id, a, b, "comedy", startedAt, duration)
	if err != nil {
		t.Fatalf("new battle: %v", err)
	}
	store.SeedBattle(battle)
	return battle
}

func TestListActiveBattlesHidesExpired(t *testing.T) {
	store := memory.NewStore([]entities.Video{
		video("video_a", "user_1", now, "comedy"),
		video("video_b", "user_2", now, "comedy"),
		video("video_c", "user_3", now, "comedy"),
		video("video_d", "user_4", now, "comedy"),
		video("video_e", "user_5", now, "comedy"),
		video("video_f", "user_6", now, "comedy"),
	}, nil)
	store.SetNow(now)
	seedBattle(t, store, "battle_old", "video_a", "video_b", now.Add(-2*time.Minute), 5*time.Minute)
	seedBattle(t, store, "battle_new", "video_c", "video_d", now.Add(-time.Minute), 5*time.Minute)
	seedBattle(t, store, "battle_expired", "video_e", "video_f", now.Add(-5*time.Minute), 5*time.Minute-time.Second)

	list := queries.ListActiveBattlesUseCase{Battles: store, Videos: store, Clock: store}
	result, err := list.Execute(context.Background())
	if err != nil {
		t.Fatalf("list active battles failed: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 votable battles, got %d", len(result.Items))
	}
	if result.Items[0].Battle.BattleID != "battle_new" || result.Items[1].Battle.BattleID != "battle_old" {
		t.Fatalf("expected newest first, got %s then %s", result.Items[0].Battle.BattleID, result.Items[1].Battle.BattleID)
	}
	first := result.Items[0]
	if first.VideoA.VideoID != "video_c" || first.VideoB.Title != "title video_d" {
		t.Fatalf("expected joined videos, got %+v / %+v", first.VideoA, first.VideoB)
	}
	if first.EndsInMs != (4 * time.Minute).Milliseconds() || !first.Votable {
		t.Fatalf("expected 4 minutes left and votable, got %d %v", first.EndsInMs, first.Votable)
	}

	get := queries.GetBattleUseCase{Battles: store, Videos: store, Clock: store}
	expired, err := get.Execute(context.Background(), "battle_expired")
	if err != nil {
		t.Fatalf("get expired battle failed: %v", err)
	}
	if expired.Votable || expired.EndsInMs != 0 {
		t.Fatalf("expected expired battle to be unvotable with 0ms left, got %+v", expired)
	}
	if _, err := get.Execute(context.Background(), "battle_missing"); !errors.Is(err, domainerrors.ErrBattleNotFound) {
		t.Fatalf("expected battle not found, got %v", err)
	}
}

func TestProfileListsVideosAndVotes(t *testing.T) {
	store := memory.NewStore([]entities.Video{
		video("video_old", "user_me", now.Add(-2*time.Hour), "comedy"),
		video("video_new", "user_me", now.Add(-time.Hour), "comedy"),
		video("video_gone", "user_me", now.Add(-30*time.Minute), "comedy"),
		video("video_x", "user_2", now, "comedy"),
		video("video_y", "user_3", now, "comedy"),
	}, nil)
	store.SetNow(now)
	seedBattle(t, store, "battle_b", "video_x", "video_y", now, 5*time.Minute)
	ctx := context.Background()

	remove := commands.DeleteVideoUseCase{Videos: store}
	if _, err := remove.Execute(ctx, commands.DeleteVideoCommand{VideoID: "video_gone", OwnerID: "user_me"}); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	vote := commands.CastVoteUseCase{Battles: store, Votes: store, Clock: store, IDGen: store}
	if _, err := vote.Execute(ctx, commands.CastVoteCommand{
		BattleID:       "battle_b",
		VoterID:        "user_me",
		VotedForID:     "video_y",
		VotedAgainstID: "video_x",
	}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	profile := queries.GetProfileUseCase{Videos: store, Battles: store, Votes: store, Clock: store}
	result, err := profile.Execute(ctx, queries.GetProfileQuery{UserID: "user_me"})
	if err != nil {
		t.Fatalf("profile failed: %v", err)
	}
	if result.Username != "user_me" {
		t.Fatalf("expected username fallback to user id, got %q", result.Username)
	}
	if len(result.Videos) != 2 || result.Videos[0].VideoID != "video_new" || result.Videos[1].VideoID != "video_old" {
		t.Fatalf("expected two visible videos newest first, got %+v", result.Videos)
	}
	if len(result.Votes) != 1 {
		t.Fatalf("expected one vote, got %d", len(result.Votes))
	}
	item := result.Votes[0]
	if item.BattleID != "battle_b" || item.Tag != "comedy" || item.VideoTitle != "title video_y" {
		t.Fatalf("unexpected profile vote %+v", item)
	}
	if item.EndsInMs != (5 * time.Minute).Milliseconds() {
		t.Fatalf("expected 5 minutes left, got %d", item.EndsInMs)
	}

	if _, err := profile.Execute(ctx, queries.GetProfileQuery{}); !errors.Is(err, domainerrors.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}

	getVideo := queries.GetVideoUseCase{Videos: store}
	if _, err := getVideo.Execute(ctx, "video_gone"); !errors.Is(err, domainerrors.ErrVideoNotFound) {
		t.Fatalf("expected deleted video to be hidden, got %v", err)
	}
	mine, err := queries.ListMyVideosUseCase{Videos: store}.Execute(ctx, "user_me")
	if err != nil {
		t.Fatalf("list my videos failed: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected two of my videos, got %d", len(mine))
	}
}
