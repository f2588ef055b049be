package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

var storeNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func storeVideo(id string, owner string, tags ...string) entities.Video {
	return entities.Video{
		VideoID:    id,
		OwnerID:    owner,
		Title:      id,
		Tags:       tags,
		MediaURL:   "memory://media/" + id,
		UploadedAt: storeNow,
		Status:     entities.VideoStatusActive,
	}
}

func TestStoreOpenBattleChecksPairAndStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore([]entities.Video{
		storeVideo("video_a", "user_1", "comedy"),
		storeVideo("video_b", "user_2", "comedy"),
		storeVideo("video_c", "user_3", "comedy"),
	}, nil)

	battle, err := entities.NewBattle("battle_1", "video_a", "video_b", "comedy", storeNow, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.OpenBattleWithOutbox(ctx, battle, ports.OutboxMessage{OutboxID: "evt-1", EventType: "battle.opened"}))

	reversed, err := entities.NewBattle("battle_2", "video_b", "video_a", "comedy", storeNow, time.Minute)
	require.NoError(t, err)
	require.ErrorIs(t, store.OpenBattleWithOutbox(ctx, reversed, ports.OutboxMessage{}), domainerrors.ErrBattleConflict)

	overlapping, err := entities.NewBattle("battle_3", "video_a", "video_c", "comedy", storeNow, time.Minute)
	require.NoError(t, err)
	require.ErrorIs(t, store.OpenBattleWithOutbox(ctx, overlapping, ports.OutboxMessage{}), domainerrors.ErrVideoUnavailable)

	missing, err := entities.NewBattle("battle_4", "video_c", "video_z", "comedy", storeNow, time.Minute)
	require.NoError(t, err)
	require.ErrorIs(t, store.OpenBattleWithOutbox(ctx, missing, ports.OutboxMessage{}), domainerrors.ErrVideoNotFound)

	require.Equal(t, 1, store.ActiveBattleCount())
	require.Len(t, store.OutboxEvents(), 1)

	candidates, err := store.ListMatchCandidates(ctx, "video_c", []string{"comedy"})
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestStoreRecordVoteUpdatesTallyAndLedgerTogether(t *testing.T) {
	ctx := context.Background()
	store := NewStore([]entities.Video{
		storeVideo("video_a", "user_1", "comedy"),
		storeVideo("video_b", "user_2", "comedy"),
	}, nil)
	battle, err := entities.NewBattle("battle_1", "video_a", "video_b", "comedy", storeNow, time.Minute)
	require.NoError(t, err)
	store.SeedBattle(battle)

	vote, err := entities.NewVote("vote_1", battle, "user_9", "video_b", "video_a", storeNow)
	require.NoError(t, err)
	updated, err := store.RecordVote(ctx, vote, storeNow.Add(time.Second), ports.OutboxMessage{OutboxID: "evt-vote-1"})
	require.NoError(t, err)
	require.EqualValues(t, 0, updated.VideoAVotes)
	require.EqualValues(t, 1, updated.VideoBVotes)
	require.EqualValues(t, 1, store.VoteCount("battle_1"))

	again, err := entities.NewVote("vote_2", battle, "user_9", "video_a", "video_b", storeNow)
	require.NoError(t, err)
	_, err = store.RecordVote(ctx, again, storeNow.Add(time.Second), ports.OutboxMessage{OutboxID: "evt-vote-2"})
	require.ErrorIs(t, err, domainerrors.ErrDuplicateVote)

	late, err := entities.NewVote("vote_3", battle, "user_10", "video_a", "video_b", storeNow)
	require.NoError(t, err)
	_, err = store.RecordVote(ctx, late, battle.EndsAt, ports.OutboxMessage{OutboxID: "evt-vote-3"})
	require.ErrorIs(t, err, domainerrors.ErrBattleInactive)

	video, err := store.GetVideo(ctx, "video_b")
	require.NoError(t, err)
	require.EqualValues(t, 1, video.Votes)
	require.Len(t, store.OutboxEvents(), 1)

	votes, err := store.ListVotesByVoter(ctx, "user_9")
	require.NoError(t, err)
	require.Len(t, votes, 1)
	require.Equal(t, "vote_1", votes[0].VoteID)
}

func TestStoreConcludeComparesTallies(t *testing.T) {
	ctx := context.Background()
	store := NewStore([]entities.Video{
		storeVideo("video_a", "user_1", "comedy"),
		storeVideo("video_b", "user_2", "comedy"),
	}, nil)
	battle, err := entities.NewBattle("battle_1", "video_a", "video_b", "comedy", storeNow, time.Minute)
	require.NoError(t, err)
	store.SeedBattle(battle)

	stale := battle
	vote, err := entities.NewVote("vote_1", battle, "user_9", "video_a", "video_b", storeNow)
	require.NoError(t, err)
	_, err = store.RecordVote(ctx, vote, storeNow, ports.OutboxMessage{})
	require.NoError(t, err)

	require.True(t, stale.Conclude(battle.EndsAt))
	stored, err := store.ConcludeBattleWithOutbox(ctx, stale, ports.OutboxMessage{OutboxID: "evt-stale"})
	require.NoError(t, err)
	require.False(t, stored)

	fresh, err := store.GetBattle(ctx, "battle_1")
	require.NoError(t, err)
	require.True(t, fresh.Conclude(battle.EndsAt))
	stored, err = store.ConcludeBattleWithOutbox(ctx, fresh, ports.OutboxMessage{OutboxID: "evt-fresh"})
	require.NoError(t, err)
	require.True(t, stored)
	require.Equal(t, 0, store.ActiveBattleCount())

	stored, err = store.ConcludeBattleWithOutbox(ctx, fresh, ports.OutboxMessage{OutboxID: "evt-again"})
	require.NoError(t, err)
	require.False(t, stored)

	concluded, err := store.GetBattle(ctx, "battle_1")
	require.NoError(t, err)
	require.Equal(t, "video_a", concluded.WinnerID)
}

func TestStoreIdempotencyAndDedup(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, nil)

	require.NoError(t, store.Put(ctx, ports.IdempotencyRecord{
		Key:         "vote:user_1:k1",
		RequestHash: "hash-1",
		VoteID:      "vote_1",
		ExpiresAt:   storeNow.Add(time.Hour),
	}))
	record, found, err := store.Get(ctx, "vote:user_1:k1", storeNow)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "vote_1", record.VoteID)

	_, found, err = store.Get(ctx, "vote:user_1:k1", storeNow.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, found)

	duplicate, err := store.ReserveEvent(ctx, "evt-1", "hash-a", storeNow)
	require.NoError(t, err)
	require.False(t, duplicate)
	duplicate, err = store.ReserveEvent(ctx, "evt-1", "hash-a", storeNow)
	require.NoError(t, err)
	require.True(t, duplicate)
	_, err = store.ReserveEvent(ctx, "evt-1", "hash-b", storeNow)
	require.ErrorIs(t, err, domainerrors.ErrIdempotencyKeyConflict)

	require.NoError(t, store.ReleaseEvent(ctx, "evt-1", "hash-b"))
	duplicate, err = store.ReserveEvent(ctx, "evt-1", "hash-a", storeNow)
	require.NoError(t, err)
	require.True(t, duplicate)

	require.NoError(t, store.ReleaseEvent(ctx, "evt-1", "hash-a"))
	duplicate, err = store.ReserveEvent(ctx, "evt-1", "hash-a", storeNow)
	require.NoError(t, err)
	require.False(t, duplicate)
}

func TestMediaStoreKeepsObjects(t *testing.T) {
	media := NewMediaStore("")
	url, err := media.Store(context.Background(), ports.MediaObject{Key: "videos/1_a.mp4", Body: strings.NewReader("abc")})
	require.NoError(t, err)
	require.Equal(t, "memory://media/videos/1_a.mp4", url)
	data, ok := media.Object("videos/1_a.mp4")
	require.True(t, ok)
	require.Equal(t, "abc", string(data))
}
