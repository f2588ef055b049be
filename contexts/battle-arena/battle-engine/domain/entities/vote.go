package entities

import (
	"strings"
	"time"

	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
)

// Vote is immutable once recorded. At most one exists per (battle, voter).
type Vote struct {
	VoteID         string
	BattleID       string
	VoterID        string
	VotedForID     string
	VotedAgainstID string
	VotedAt        time.Time
}

func NewVote(
	voteID string,
	battle Battle,
	voterID string,
	votedFor string,
	votedAgainst string,
	votedAt time.Time,
) (Vote, error) {
	if strings.TrimSpace(voterID) == "" {
		return Vote{}, domainerrors.ErrUnauthenticated
	}
	if strings.TrimSpace(voteID) == "" {
		return Vote{}, domainerrors.ErrRepositoryInvariantBroke
	}
	if err := battle.ValidateVoteTargets(votedFor, votedAgainst); err != nil {
		return Vote{}, err
	}
	return Vote{
		VoteID:         voteID,
		BattleID:       battle.BattleID,
		VoterID:        voterID,
		VotedForID:     votedFor,
		VotedAgainstID: votedAgainst,
		VotedAt:        votedAt.UTC(),
	}, nil
}

// ApplyVote increments the side tally the vote is for. Callers hold the
// battle exclusively while applying it.
func (b *Battle) ApplyVote(vote Vote) error {
	switch b.SideOf(vote.VotedForID) {
	case SideA:
		b.VideoAVotes++
	case SideB:
		b.VideoBVotes++
	default:
		return domainerrors.ErrInvalidVoteReference
	}
	return nil
}
