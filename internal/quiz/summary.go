package quiz

import (
	"math"

	"github.com/abhisek/cassini/internal/progress"
)

// XP rates for game modes, per correct answer.
const (
	SpeedrunXPPerCorrect  = 15
	SurvivalXPPerCorrect  = 20
	ChallengeXPPerCorrect = 15
)

// Summary is the result of a completed run.
type Summary struct {
	Mode      Mode           `json:"mode"`
	Score     int            `json:"score"`
	Total     int            `json:"total"`
	Accuracy  float64        `json:"accuracy"`
	Phase     progress.Phase `json:"phase"`
	XP        int            `json:"xp"`
	Streak    int            `json:"streak"`
	EndReason string         `json:"end_reason"`

	// Unlocked is the phase a unit moved to because of this run, if any.
	Unlocked progress.Phase `json:"unlocked,omitempty"`
}

// Accuracy returns score/total*100, 0 for an empty run.
func Accuracy(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// BatchXP is the completion award for standard and review runs.
func BatchXP(accuracy float64) int {
	return int(math.Floor(accuracy/10)) * 10
}

// total is the denominator of a run's accuracy: every question for
// standard and review runs, the answered ones for games.
func total(st State) int {
	r := st.Base()
	if IsGame(st) {
		return len(r.History)
	}
	return len(r.Questions)
}

// xpFor returns the completion award for st at accuracy.
func xpFor(st State, accuracy float64) int {
	score := st.Base().Score
	switch st.Mode() {
	case ModeSpeedrun:
		return score * SpeedrunXPPerCorrect
	case ModeSurvival:
		return score * SurvivalXPPerCorrect
	case ModeChallenge:
		return score * ChallengeXPPerCorrect
	}
	return BatchXP(accuracy)
}

func buildSummary(st State, reason string) *Summary {
	r := st.Base()
	n := total(st)
	acc := Accuracy(r.Score, n)
	return &Summary{
		Mode:      st.Mode(),
		Score:     r.Score,
		Total:     n,
		Accuracy:  acc,
		Phase:     progress.DerivePhase(acc),
		XP:        xpFor(st, acc),
		EndReason: reason,
	}
}
