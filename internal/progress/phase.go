package progress

// Phase is a per-unit difficulty tier.
type Phase string

const (
	PhaseBaseline   Phase = "BASELINE"
	PhaseBalanced   Phase = "BALANCED"
	PhaseExamBiased Phase = "EXAM_BIASED"
)

const (
	// DefaultUnlockThreshold is the accuracy needed to unlock the next phase.
	DefaultUnlockThreshold = 80.0

	// ExamThreshold is the batch accuracy reported as exam-ready.
	ExamThreshold = 95.0
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseBaseline, PhaseBalanced, PhaseExamBiased:
		return true
	}
	return false
}

// Number returns the 1-based position of the phase.
func (p Phase) Number() int {
	switch p {
	case PhaseBalanced:
		return 2
	case PhaseExamBiased:
		return 3
	}
	return 1
}

// DerivePhase maps a single batch accuracy to the phase it demonstrates.
// It is informational only and never moves a Record.
func DerivePhase(accuracy float64) Phase {
	switch {
	case accuracy >= ExamThreshold:
		return PhaseExamBiased
	case accuracy >= DefaultUnlockThreshold:
		return PhaseBalanced
	}
	return PhaseBaseline
}
