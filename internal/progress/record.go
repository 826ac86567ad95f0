package progress

import (
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
)

// Record is a user's mastery state for one curriculum unit. The presence of
// a record means the unit has been started, even at 0% completion.
type Record struct {
	UserID  int64
	Unit    curriculum.UnitID
	Subject string
	Grade   int

	CurrentPhase     Phase
	BaselineAccuracy float64
	BalancedAccuracy float64
	ExamAccuracy     float64

	Attempted         int
	Correct           int
	CompletionPercent float64

	UnlockedBalanced bool
	UnlockedExam     bool

	UpdatedAt time.Time
}

// NewRecord returns an empty baseline record for a unit.
func NewRecord(userID int64, unit curriculum.UnitID) Record {
	return Record{
		UserID:       userID,
		Unit:         unit,
		Subject:      unit.SubjectName(),
		Grade:        unit.Grade,
		CurrentPhase: PhaseBaseline,
	}
}

// PhaseTransition describes a change of current phase caused by a batch.
type PhaseTransition struct {
	Unit    curriculum.UnitID
	From    Phase
	To      Phase
	Trigger string
}

// RecordAttempt counts one answered question.
func (r *Record) RecordAttempt(correct bool) {
	r.Attempted++
	if correct {
		r.Correct++
	}
	r.CompletionPercent = float64(r.Correct) / float64(r.Attempted) * 100
}

// CompleteBatch stores the accuracy for phase and unlocks the next phase
// when accuracy meets threshold. Unlocks are never revoked.
func (r *Record) CompleteBatch(phase Phase, accuracy, threshold float64) *PhaseTransition {
	from := r.CurrentPhase
	if !from.Valid() {
		from = PhaseBaseline
	}

	switch phase {
	case PhaseBaseline:
		r.BaselineAccuracy = accuracy
		if accuracy >= threshold {
			r.UnlockedBalanced = true
		}
	case PhaseBalanced:
		r.BalancedAccuracy = accuracy
		if accuracy >= threshold {
			r.UnlockedExam = true
		}
	case PhaseExamBiased:
		r.ExamAccuracy = accuracy
	}

	switch {
	case r.UnlockedExam:
		r.CurrentPhase = PhaseExamBiased
	case r.UnlockedBalanced:
		r.CurrentPhase = PhaseBalanced
	default:
		r.CurrentPhase = PhaseBaseline
	}

	if r.CurrentPhase == from {
		return nil
	}
	return &PhaseTransition{
		Unit:    r.Unit,
		From:    from,
		To:      r.CurrentPhase,
		Trigger: "batch-complete",
	}
}
