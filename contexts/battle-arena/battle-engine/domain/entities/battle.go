package entities

import (
	"strings"
	"time"

	domainerrors "reelrivals/contexts/battle-arena/battle-engine/domain/errors"
)

// DefaultBattleDuration is the voting window of a battle.
const DefaultBattleDuration = 24 * time.Hour

type Side string

const (
	SideNone Side = ""
	SideA    Side = "a"
	SideB    Side = "b"
)

// Battle pairs two videos on a shared tag. The pair is positionally fixed
// at creation but compared as an unordered pair for uniqueness.
type Battle struct {
	BattleID    string
	VideoAID    string
	VideoBID    string
	Tag         string
	StartedAt   time.Time
	EndsAt      time.Time
	Active      bool
	VideoAVotes int64
	VideoBVotes int64
	WinnerID    string
	ConcludedAt *time.Time
}

func NewBattle(
	battleID string,
	videoAID string,
	videoBID string,
	tag string,
	startedAt time.Time,
	duration time.Duration,
) (Battle, error) {
	if strings.TrimSpace(battleID) == "" ||
		strings.TrimSpace(videoAID) == "" ||
		strings.TrimSpace(videoBID) == "" ||
		strings.TrimSpace(tag) == "" {
		return Battle{}, domainerrors.ErrInvalidBattleRequest
	}
	if videoAID == videoBID {
		return Battle{}, domainerrors.ErrInvalidBattleRequest
	}
	if duration <= 0 {
		duration = DefaultBattleDuration
	}
	start := startedAt.UTC()
	return Battle{
		BattleID:  battleID,
		VideoAID:  videoAID,
		VideoBID:  videoBID,
		Tag:       tag,
		StartedAt: start,
		EndsAt:    start.Add(duration),
		Active:    true,
	}, nil
}

// IsVotable is the single expiry rule shared by the vote path and the
// lifecycle sweep: the active flag alone is not enough once EndsAt passed.
func IsVotable(battle Battle, now time.Time) bool {
	return battle.Active && now.Before(battle.EndsAt)
}

// IsExpired reports a battle that still carries the active flag but whose
// window has closed. These are the battles the sweep concludes.
func IsExpired(battle Battle, now time.Time) bool {
	return battle.Active && !IsVotable(battle, now)
}

// RemainingMs is EndsAt - now in milliseconds, clamped to zero.
func (b Battle) RemainingMs(now time.Time) int64 {
	remaining := b.EndsAt.Sub(now).Milliseconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (b Battle) SideOf(videoID string) Side {
	switch videoID {
	case b.VideoAID:
		return SideA
	case b.VideoBID:
		return SideB
	default:
		return SideNone
	}
}

func (b Battle) Opponent(videoID string) string {
	switch videoID {
	case b.VideoAID:
		return b.VideoBID
	case b.VideoBID:
		return b.VideoAID
	default:
		return ""
	}
}

// ValidateVoteTargets requires {votedFor, votedAgainst} to be exactly the
// battle's two videos.
func (b Battle) ValidateVoteTargets(votedFor string, votedAgainst string) error {
	if votedFor == "" || votedAgainst == "" || votedFor == votedAgainst {
		return domainerrors.ErrInvalidVoteReference
	}
	if b.SideOf(votedFor) == SideNone || b.SideOf(votedAgainst) == SideNone {
		return domainerrors.ErrInvalidVoteReference
	}
	return nil
}

func (b Battle) TotalVotes() int64 {
	return b.VideoAVotes + b.VideoBVotes
}

// Winner returns the video with the higher tally, or "" on a tie.
func (b Battle) Winner() string {
	switch {
	case b.VideoAVotes > b.VideoBVotes:
		return b.VideoAID
	case b.VideoBVotes > b.VideoAVotes:
		return b.VideoBID
	default:
		return ""
	}
}

// Conclude moves an active battle to its terminal state. It reports false
// when the battle was already concluded, leaving it untouched.
func (b *Battle) Conclude(now time.Time) bool {
	if !b.Active {
		return false
	}
	concludedAt := now.UTC()
	b.Active = false
	b.WinnerID = b.Winner()
	b.ConcludedAt = &concludedAt
	return true
}

// PairKey identifies the unordered (video, video, tag) triple.
func PairKey(videoAID string, videoBID string, tag string) string {
	low, high := OrderedPair(videoAID, videoBID)
	return low + "|" + high + "|" + tag
}

func OrderedPair(videoAID string, videoBID string) (string, string) {
	if videoBID < videoAID {
		return videoBID, videoAID
	}
	return videoAID, videoBID
}

func (b Battle) PairKey() string {
	return PairKey(b.VideoAID, b.VideoBID, b.Tag)
}
