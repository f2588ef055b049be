package application

import "reelrivals/contexts/battle-arena/battle-engine/ports"

const (
	OutcomeMatched          = "matched"
	OutcomeNoCandidate      = "no_candidate"
	OutcomeConflict         = "conflict"
	OutcomeVideoUnavailable = "video_unavailable"
	OutcomeError            = "error"

	OutcomeAccepted         = "accepted"
	OutcomeReplayed         = "replayed"
	OutcomeDuplicate        = "duplicate"
	OutcomeInactive         = "inactive"
	OutcomeInvalidReference = "invalid_reference"

	OutcomeWinner = "winner"
	OutcomeTie    = "tie"
)

type nopMetrics struct{}

func (nopMetrics) ObserveMatchmaking(string)     {}
func (nopMetrics) ObserveVote(string)            {}
func (nopMetrics) ObserveBattleConcluded(string) {}

func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics != nil {
		return metrics
	}
	return nopMetrics{}
}
