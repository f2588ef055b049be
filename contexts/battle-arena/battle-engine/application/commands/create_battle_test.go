package commands_test

import (
	"context"
	"errors"
	"testing"

	"reelrivals/contexts/battle-arena/battle-engine/application/commands"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
)

func TestCreateBattleUsesSharedTag(t *testing.T) {
	store := newStore(t,
		seedVideo("video_x", "user_1", 3, "music", "dance"),
		seedVideo("video_y", "user_2", 900, "dance", "music"),
	)
	create := commands.CreateBattleUseCase{Videos: store, Battles: store, Clock: store, IDGen: store}

	result, err := create.Execute(context.Background(), commands.CreateBattleCommand{VideoAID: "video_x", VideoBID: "video_y"})
	if err != nil {
		t.Fatalf("create battle failed: %v", err)
	}
	if result.Battle.Tag != "dance" {
		t.Fatalf("expected first sorted shared tag dance, got %q", result.Battle.Tag)
	}
	if !result.Battle.EndsAt.After(result.Battle.StartedAt) {
		t.Fatalf("expected endsAt after startedAt, got %+v", result.Battle)
	}
}

func TestCreateBattleRejections(t *testing.T) {
	store := newStore(t,
		seedVideo("video_x", "user_1", 0, "comedy"),
		seedVideo("video_y", "user_2", 0, "comedy", "music"),
		seedVideo("video_m", "user_3", 0, "music"),
		seedVideo("video_p", "user_4", 0, "comedy"),
		seedVideo("video_q", "user_5", 0, "comedy"),
	)
	seedActiveBattle(t, store, "battle_pq", "video_p", "video_q", "comedy")
	create := commands.CreateBattleUseCase{Videos: store, Battles: store, Clock: store, IDGen: store}
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  commands.CreateBattleCommand
		want error
	}{
		{name: "missing video", cmd: commands.CreateBattleCommand{VideoAID: "video_x"}, want: domainerrors.ErrInvalidBattleRequest},
		{name: "same video", cmd: commands.CreateBattleCommand{VideoAID: "video_x", VideoBID: "video_x"}, want: domainerrors.ErrInvalidBattleRequest},
		{name: "unknown video", cmd: commands.CreateBattleCommand{VideoAID: "video_x", VideoBID: "video_404"}, want: domainerrors.ErrVideoNotFound},
		{name: "no shared tag", cmd: commands.CreateBattleCommand{VideoAID: "video_x", VideoBID: "video_m"}, want: domainerrors.ErrNoSharedTag},
		{name: "tag not on both", cmd: commands.CreateBattleCommand{VideoAID: "video_x", VideoBID: "video_y", Tag: "music"}, want: domainerrors.ErrNoSharedTag},
		{name: "battling video", cmd: commands.CreateBattleCommand{VideoAID: "video_x", VideoBID: "video_p"}, want: domainerrors.ErrVideoUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := create.Execute(ctx, tc.cmd); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if store.ActiveBattleCount() != 1 {
		t.Fatalf("expected only the seeded battle, got %d", store.ActiveBattleCount())
	}
}

func TestCreateBattleRejectsSecondActivePair(t *testing.T) {
	store := newStore(t,
		seedVideo("video_x", "user_1", 0, "comedy"),
		seedVideo("video_y", "user_2", 0, "comedy"),
	)
	create := commands.CreateBattleUseCase{Videos: store, Battles: store, Clock: store, IDGen: store}
	ctx := context.Background()

	if _, err := create.Execute(ctx, commands.CreateBattleCommand{VideoAID: "video_x", VideoBID: "video_y", Tag: "comedy"}); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := create.Execute(ctx, commands.CreateBattleCommand{VideoAID: "video_y", VideoBID: "video_x", Tag: "Comedy"})
	if !errors.Is(err, domainerrors.ErrVideoUnavailable) && !errors.Is(err, domainerrors.ErrBattleConflict) {
		t.Fatalf("expected the reversed pair to be refused, got %v", err)
	}
}
