package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/review"
)

// Outcome reports what an engine call did to a run.
type Outcome struct {
	// Attempt is set when an answer was evaluated.
	Attempt  *Attempt
	Question curriculum.Question

	// TimedOut is set when a speedrun answer arrived after the deadline
	// and was rejected.
	TimedOut bool

	Done    bool
	Summary *Summary
}

func doneOutcome(r *Run) Outcome {
	return Outcome{Done: true, Summary: r.Result}
}

// Answer evaluates selected against the current question.
//
// Standard and review runs record the attempt, update the review queue
// and wait for Next. Game runs score inline and move on: survival ends at
// the first wrong answer, and a speedrun answer past the deadline plus
// the grace window is rejected and ends the run.
func (e *Engine) Answer(ctx context.Context, userID int64, st State, selected string) (Outcome, error) {
	if st == nil {
		return Outcome{}, ErrNoActiveQuiz
	}
	selected = strings.ToUpper(strings.TrimSpace(selected))
	if !curriculum.ValidLetter(selected) {
		return Outcome{}, fmt.Errorf("%w: %q", ErrInvalidOption, selected)
	}
	r := st.Base()
	if r.Completed {
		return doneOutcome(r), nil
	}
	if AwaitingNext(st) {
		return Outcome{}, ErrAwaitingNext
	}

	if sp, ok := st.(*Speedrun); ok {
		limit := sp.Deadline().Add(e.cfg.SpeedrunGrace)
		if e.now().After(limit) {
			sum, err := e.complete(ctx, userID, st, EndTimeUp)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{TimedOut: true, Done: true, Summary: sum}, nil
		}
	}

	q, ok := r.Current()
	if !ok {
		sum, err := e.complete(ctx, userID, st, EndFinished)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Done: true, Summary: sum}, nil
	}
	correct := selected == q.CorrectAnswer

	if !IsGame(st) {
		if err := e.applyResult(ctx, userID, q, correct); err != nil {
			return Outcome{}, err
		}
	}

	a := r.record(q, selected, correct)
	out := Outcome{Attempt: &a, Question: q}

	switch v := st.(type) {
	case *Standard:
		v.AwaitingNext = true
		return out, nil
	case *Review:
		v.AwaitingNext = true
		return out, nil
	case *Survival:
		if !correct {
			sum, err := e.complete(ctx, userID, st, EndLifeLost)
			if err != nil {
				return Outcome{}, err
			}
			out.Done, out.Summary = true, sum
			return out, nil
		}
		r.Index++
	case *Challenge:
		v.LastFeedback = GlyphWrong
		if correct {
			v.LastFeedback = GlyphCorrect
		}
		r.Index++
	default:
		r.Index++
	}

	if r.Exhausted() {
		sum, err := e.complete(ctx, userID, st, EndFinished)
		if err != nil {
			return Outcome{}, err
		}
		out.Done, out.Summary = true, sum
	}
	return out, nil
}

// applyResult records a standard or review answer against progress and
// the review queue. A correct answer clears the question from review.
func (e *Engine) applyResult(ctx context.Context, userID int64, q curriculum.Question, correct bool) error {
	if unit, ok := q.Unit(); ok {
		if _, err := e.tracker.RecordAttempt(ctx, userID, unit, correct); err != nil {
			return fmt.Errorf("record attempt: %w", err)
		}
	}
	if correct {
		return e.reviews.Remove(ctx, userID, q.ID)
	}
	return e.reviews.Add(ctx, userID, q, review.StatusMistake)
}

// Next leaves the feedback step and advances to the next question.
// Calling it when no feedback is showing does not advance.
func (e *Engine) Next(ctx context.Context, userID int64, st State) (Outcome, error) {
	if st == nil {
		return Outcome{}, ErrNoActiveQuiz
	}
	r := st.Base()
	if r.Completed {
		return doneOutcome(r), nil
	}
	p := awaiting(st)
	if p == nil {
		return Outcome{}, fmt.Errorf("%w: next in %s", ErrUnsupportedMode, st.Mode())
	}
	if *p {
		*p = false
		r.Index++
	}
	if r.Exhausted() {
		sum, err := e.complete(ctx, userID, st, EndFinished)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Done: true, Summary: sum}, nil
	}
	return Outcome{}, nil
}

// Skip moves past the current question without scoring it and queues it
// as skipped.
func (e *Engine) Skip(ctx context.Context, userID int64, st State) (Outcome, error) {
	if st == nil {
		return Outcome{}, ErrNoActiveQuiz
	}
	if IsGame(st) {
		return Outcome{}, fmt.Errorf("%w: skip in %s", ErrUnsupportedMode, st.Mode())
	}
	r := st.Base()
	if r.Completed {
		return doneOutcome(r), nil
	}
	if AwaitingNext(st) {
		return Outcome{}, ErrAwaitingNext
	}
	q, ok := r.Current()
	if ok {
		if err := e.reviews.Add(ctx, userID, q, review.StatusSkipped); err != nil {
			return Outcome{}, err
		}
		r.record(q, SkipMarker, false)
		r.Index++
	}
	if r.Exhausted() {
		sum, err := e.complete(ctx, userID, st, EndFinished)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Done: true, Summary: sum}, nil
	}
	return Outcome{Question: q}, nil
}

// Pin queues the current question for later review without changing the
// run.
func (e *Engine) Pin(ctx context.Context, userID int64, st State) (curriculum.Question, error) {
	if st == nil {
		return curriculum.Question{}, ErrNoActiveQuiz
	}
	q, ok := st.Base().Current()
	if !ok {
		return curriculum.Question{}, ErrNoActiveQuiz
	}
	if err := e.reviews.Add(ctx, userID, q, review.StatusPinned); err != nil {
		return curriculum.Question{}, err
	}
	return q, nil
}

// Refresh re-validates st on read: an expired speedrun or a run whose
// index is past its questions is completed.
func (e *Engine) Refresh(ctx context.Context, userID int64, st State) (Outcome, error) {
	if st == nil {
		return Outcome{}, ErrNoActiveQuiz
	}
	r := st.Base()
	if r.Completed {
		return doneOutcome(r), nil
	}
	if sp, ok := st.(*Speedrun); ok && e.now().After(sp.Deadline()) {
		sum, err := e.complete(ctx, userID, st, EndTimeUp)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{TimedOut: true, Done: true, Summary: sum}, nil
	}
	if r.Exhausted() && !AwaitingNext(st) {
		sum, err := e.complete(ctx, userID, st, EndFinished)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Done: true, Summary: sum}, nil
	}
	return Outcome{}, nil
}

// complete ends a run once: it reports the batch to progress, updates the
// streak, awards XP and stores the summary on the run. Repeated calls
// return the stored summary.
func (e *Engine) complete(ctx context.Context, userID int64, st State, reason string) (*Summary, error) {
	r := st.Base()
	if r.Completed && r.Result != nil {
		return r.Result, nil
	}
	sum := buildSummary(st, reason)

	if s, ok := st.(*Standard); ok && !s.Random {
		if unit := r.UnitID(); !unit.IsZero() {
			phase := progress.PhaseBaseline
			rec, found, err := e.tracker.Get(ctx, userID, unit)
			if err != nil {
				return nil, fmt.Errorf("get progress: %w", err)
			}
			if found && rec.CurrentPhase.Valid() {
				phase = rec.CurrentPhase
			}
			_, tr, err := e.tracker.CompleteBatch(ctx, userID, unit, phase, sum.Accuracy)
			if err != nil {
				return nil, fmt.Errorf("complete batch: %w", err)
			}
			if tr != nil {
				sum.Unlocked = tr.To
				e.log.Info("phase unlocked", "user_id", userID, "unit", unit.String(), "from", tr.From, "to", tr.To)
			}
		}
	}

	streak, err := e.tracker.UpdateStreak(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("update streak: %w", err)
	}
	sum.Streak = streak
	if sum.XP > 0 {
		if _, err := e.tracker.AddXP(ctx, userID, sum.XP); err != nil {
			return nil, fmt.Errorf("add xp: %w", err)
		}
	}

	r.Completed = true
	r.EndReason = reason
	r.Result = sum
	return sum, nil
}

// Replay restarts st. Standard, review and challenge runs replay the same
// questions; speedrun and survival draw a fresh pool with the same
// settings.
func (e *Engine) Replay(ctx context.Context, st State) (State, error) {
	if st == nil {
		return nil, ErrNoActiveQuiz
	}
	switch v := st.(type) {
	case *Speedrun:
		setup := SpeedrunSetup{DurationMinutes: v.DurationSeconds / 60, Count: v.Count, Subject: v.Pool}
		return e.StartSpeedrun(ctx, v.Grade, setup)
	case *Survival:
		return e.StartSurvival(ctx, v.SubjectCode, v.Grade)
	case *Standard:
		v.AwaitingNext = false
	case *Review:
		v.AwaitingNext = false
	case *Challenge:
		v.LastFeedback = ""
	}
	r := st.Base()
	r.reset(e.now().UTC())
	r.ID = e.newID()
	return st, nil
}

// ErrNoMore is returned when there is no further unit or part to load.
var ErrNoMore = errors.New("nothing further to load")

// NextBatch starts a standard quiz on the next open unit after st's unit.
func (e *Engine) NextBatch(ctx context.Context, st State) (*Standard, error) {
	s, ok := st.(*Standard)
	if !ok || s.Random || s.UnitID().IsZero() {
		return nil, ErrNoMore
	}
	units, err := e.openUnits(e.activeLocks(ctx), s.SubjectCode, s.Grade)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	for _, u := range units {
		if u > s.Unit {
			return e.StartUnit(ctx, curriculum.NewUnitID(s.SubjectCode, s.Grade, u))
		}
	}
	return nil, ErrNoMore
}

// NextPart starts the next unit-block review part after st.
func (e *Engine) NextPart(ctx context.Context, st State) (*Review, error) {
	r, ok := st.(*Review)
	if !ok || r.Kind != ReviewUnitBlock || r.Part >= e.cfg.ReviewParts {
		return nil, ErrNoMore
	}
	next, err := e.StartReviewPart(ctx, r.SubjectCode, r.Grade, r.Part+1)
	if errors.Is(err, curriculum.ErrContentNotFound) {
		return nil, ErrNoMore
	}
	return next, err
}
