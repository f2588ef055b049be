package services

import (
	"testing"

	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"

	"github.com/stretchr/testify/require"
)

func video(id string, votes int64, status entities.VideoStatus, tags ...string) entities.Video {
	return entities.Video{
		VideoID: id,
		Votes:   votes,
		Status:  status,
		Tags:    entities.NormalizeTags(tags),
	}
}

func TestWithinFairnessMargin(t *testing.T) {
	require.True(t, WithinFairnessMargin(0, 0, 20))
	require.False(t, WithinFairnessMargin(0, 1, 20))
	require.True(t, WithinFairnessMargin(100, 120, 20))
	require.True(t, WithinFairnessMargin(100, 80, 20))
	require.False(t, WithinFairnessMargin(100, 121, 20))
	require.False(t, WithinFairnessMargin(100, 200, 20))
	require.False(t, WithinFairnessMargin(100, 79, 20))
}

func TestSelectOpponentSkipsUnfairAndUnavailable(t *testing.T) {
	subject := video("x", 100, entities.VideoStatusActive, "comedy")
	candidates := []entities.Video{
		subject,
		video("z", 200, entities.VideoStatusActive, "comedy"),
		video("busy", 100, entities.VideoStatusBattling, "comedy"),
		video("gone", 100, entities.VideoStatusDeleted, "comedy"),
		video("other-tag", 100, entities.VideoStatusActive, "music"),
	}

	_, ok := SelectOpponent(subject, candidates, DefaultFairnessMarginPercent, nil)
	require.False(t, ok)
}

func TestSelectOpponentPicksAmongFairCandidates(t *testing.T) {
	subject := video("x", 10, entities.VideoStatusActive, "comedy", "music")
	candidates := []entities.Video{
		video("a", 9, entities.VideoStatusActive, "music"),
		video("b", 11, entities.VideoStatusActive, "comedy"),
		video("c", 50, entities.VideoStatusActive, "comedy"),
	}

	var offered int
	pairing, ok := SelectOpponent(subject, candidates, DefaultFairnessMarginPercent, func(n int) int {
		offered = n
		return 1
	})
	require.True(t, ok)
	require.Equal(t, 2, offered)
	require.Equal(t, "b", pairing.Opponent.VideoID)
	require.Equal(t, "comedy", pairing.Tag)
}

func TestSelectOpponentIgnoresOutOfRangePick(t *testing.T) {
	subject := video("x", 0, entities.VideoStatusActive, "comedy")
	candidates := []entities.Video{
		video("a", 0, entities.VideoStatusActive, "comedy"),
		video("b", 0, entities.VideoStatusActive, "comedy"),
	}
	pairing, ok := SelectOpponent(subject, candidates, DefaultFairnessMarginPercent, func(int) int { return 7 })
	require.True(t, ok)
	require.Equal(t, "a", pairing.Opponent.VideoID)
}
