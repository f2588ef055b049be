package services

import (
	"reelrivals/contexts/battle-arena/battle-engine/domain/entities"
)

// DefaultFairnessMarginPercent is the ±band, in percent of the reference
// video's votes, an opponent's vote count must fall into.
const DefaultFairnessMarginPercent = 20

// WithinFairnessMargin reports |candidate - reference| <= reference*margin/100.
// A reference with zero votes therefore only accepts zero-vote candidates.
func WithinFairnessMargin(reference int64, candidate int64, marginPercent int) bool {
	if marginPercent < 0 {
		marginPercent = DefaultFairnessMarginPercent
	}
	diff := candidate - reference
	if diff < 0 {
		diff = -diff
	}
	return diff*100 <= reference*int64(marginPercent)
}

// EligibleCandidates keeps active videos other than subject that share at
// least one tag with it.
func EligibleCandidates(subject entities.Video, candidates []entities.Video) []entities.Video {
	eligible := make([]entities.Video, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.VideoID == subject.VideoID {
			continue
		}
		if !candidate.IsMatchable() {
			continue
		}
		if !entities.SharesAnyTag(subject, candidate) {
			continue
		}
		eligible = append(eligible, candidate)
	}
	return eligible
}

// FairCandidates applies the fairness filter using subject as the reference.
func FairCandidates(subject entities.Video, candidates []entities.Video, marginPercent int) []entities.Video {
	fair := make([]entities.Video, 0, len(candidates))
	for _, candidate := range candidates {
		if WithinFairnessMargin(subject.Votes, candidate.Votes, marginPercent) {
			fair = append(fair, candidate)
		}
	}
	return fair
}

// Pairing is the outcome of opponent selection.
type Pairing struct {
	Opponent entities.Video
	Tag      string
}

// SelectOpponent picks uniformly among fair, eligible candidates. pick must
// return a value in [0, n). It reports false when nobody qualifies.
func SelectOpponent(
	subject entities.Video,
	candidates []entities.Video,
	marginPercent int,
	pick func(n int) int,
) (Pairing, bool) {
	fair := FairCandidates(subject, EligibleCandidates(subject, candidates), marginPercent)
	if len(fair) == 0 {
		return Pairing{}, false
	}

	index := 0
	if len(fair) > 1 && pick != nil {
		index = pick(len(fair))
		if index < 0 || index >= len(fair) {
			index = 0
		}
	}
	opponent := fair[index]
	tag, ok := entities.SharedTag(subject, opponent)
	if !ok {
		return Pairing{}, false
	}
	return Pairing{Opponent: opponent, Tag: tag}, true
}
