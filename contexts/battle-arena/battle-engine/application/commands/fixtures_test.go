package commands_test

import (
	"testing"
	"time"

	"reelrivals/contexts/battle-arena/battle-engine/adapters/memory"
	"reelrivals/contexts/battle-arena/battle-engine/application/commands"
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
)

var fixtureNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedVideo(id string, owner string, votes int64, tags ...string) entities.Video {
	return entities.Video{
		VideoID:    id,
		OwnerID:    owner,
		Title:      "clip " + id,
		Tags:       entities.NormalizeTags(tags),
		MediaURL:   "memory://media/" + id,
		UploadedAt: fixtureNow.Add(-time.Hour),
		Votes:      votes,
		Status:     entities.VideoStatusActive,
	}
}

func newStore(t *testing.T, videos ...entities.Video) *memory.Store {
	t.Helper()
	store := memory.NewStore(videos, nil)
	store.SetNow(fixtureNow)
	return store
}

// seedActiveBattle opens a battle between a and b that ends ten minutes
// after fixtureNow.
func seedActiveBattle(t *testing.T, store *memory.Store, battleID string, a string, b string, tag string) entities.Battle {
	t.Helper()
	battle, err := entities.NewBattle(battleID, a, b, tag, fixtureNow, 10*time.Minute)
	if err != nil {
		t.Fatalf("new battle: %v", err)
	}
	store.SeedBattle(battle)
	return battle
}

func matchmaker(store *memory.Store) commands.MatchmakeUseCase {
	return commands.MatchmakeUseCase{
		Videos:  store,
		Battles: store,
		Clock:   store,
		IDGen:   store,
		Random:  store,
	}
}

func voter(store *memory.Store) commands.CastVoteUseCase {
	return commands.CastVoteUseCase{
		Battles:     store,
		Votes:       store,
		Idempotency: store,
		Clock:       store,
		IDGen:       store,
	}
}

func concluder(store *memory.Store) commands.ConcludeBattleUseCase {
	return commands.ConcludeBattleUseCase{
		Battles: store,
		Clock:   store,
		IDGen:   store,
	}
}
