// Package quiz runs question batches: standard unit quizzes, review
// sessions and the timed, single-life and challenge game variants.
package quiz

import (
	"errors"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
)

// Mode tags a quiz state variant.
type Mode string

const (
	ModeStandard  Mode = "STANDARD"
	ModeSpeedrun  Mode = "SPEEDRUN"
	ModeSurvival  Mode = "SURVIVAL"
	ModeChallenge Mode = "CHALLENGE"
	ModeReview    Mode = "REVIEW"
)

// ReviewKind selects what a review run is built from.
type ReviewKind string

const (
	ReviewUnitBlock ReviewKind = "UNIT_BLOCK"
	ReviewMistakes  ReviewKind = "MISTAKES"
	ReviewSkipped   ReviewKind = "SKIPPED"
	ReviewPinned    ReviewKind = "PINNED"
)

// End reasons reported in summaries.
const (
	EndFinished = "finished"
	EndTimeUp   = "time's up"
	EndLifeLost = "life lost"
	EndStale    = "stale"
)

// SkipMarker is recorded as the selection of a skipped question.
const SkipMarker = "SKIP"

var (
	ErrNoActiveQuiz    = errors.New("no active quiz")
	ErrAwaitingNext    = errors.New("answer already recorded, waiting for next")
	ErrUnsupportedMode = errors.New("operation not supported in this mode")
	ErrInvalidOption   = errors.New("invalid answer option")
	ErrCompleted       = errors.New("quiz already completed")
)

// Attempt is one entry of a run's history.
type Attempt struct {
	QuestionID string `json:"q_id"`
	Selected   string `json:"selected"`
	Correct    string `json:"correct"`
	IsCorrect  bool   `json:"is_correct"`
}

// Run holds the fields every variant shares.
type Run struct {
	ID          string                `json:"id"`
	SubjectCode string                `json:"subject,omitempty"`
	Grade       int                   `json:"grade,omitempty"`
	Unit        int                   `json:"unit,omitempty"`
	UnitTitle   string                `json:"unit_title,omitempty"`
	Questions   []curriculum.Question `json:"questions"`
	Index       int                   `json:"current_index"`
	Score       int                   `json:"score"`
	History     []Attempt             `json:"history"`
	StartedAt   time.Time             `json:"start_time"`
	Completed   bool                  `json:"completed,omitempty"`
	EndReason   string                `json:"end_reason,omitempty"`
	Result      *Summary              `json:"result,omitempty"`
}

// Current returns the question at Index.
func (r *Run) Current() (curriculum.Question, bool) {
	if r.Index < 0 || r.Index >= len(r.Questions) {
		return curriculum.Question{}, false
	}
	return r.Questions[r.Index], true
}

// Exhausted reports whether Index has run past the question list.
func (r *Run) Exhausted() bool {
	return r.Index < 0 || r.Index >= len(r.Questions)
}

// UnitID returns the run's unit, zero for runs spanning several units.
func (r *Run) UnitID() curriculum.UnitID {
	if r.SubjectCode == "" || r.Grade == 0 || r.Unit == 0 {
		return curriculum.UnitID{}
	}
	return curriculum.NewUnitID(r.SubjectCode, r.Grade, r.Unit)
}

// Context returns the run's curriculum position.
func (r *Run) Context() curriculum.Context {
	return curriculum.Context{SubjectCode: r.SubjectCode, Grade: r.Grade, Unit: r.Unit}
}

func (r *Run) reset(now time.Time) {
	r.Index = 0
	r.Score = 0
	r.History = nil
	r.StartedAt = now
	r.Completed = false
	r.EndReason = ""
	r.Result = nil
}

func (r *Run) record(q curriculum.Question, selected string, correct bool) Attempt {
	a := Attempt{QuestionID: q.ID, Selected: selected, Correct: q.CorrectAnswer, IsCorrect: correct}
	r.History = append(r.History, a)
	if correct {
		r.Score++
	}
	return a
}

// State is the in-progress quiz held by a session. Exactly one of the
// variant types below implements it.
type State interface {
	Mode() Mode
	Base() *Run
}

// Standard is a unit quiz with a feedback step after every answer.
// Random marks the cross-unit random quiz.
type Standard struct {
	Run
	AwaitingNext bool `json:"awaiting_next,omitempty"`
	Random       bool `json:"random,omitempty"`
}

func (s *Standard) Mode() Mode { return ModeStandard }
func (s *Standard) Base() *Run { return &s.Run }

// Review replays questions from earlier work. Part is set for unit-block
// reviews.
type Review struct {
	Run
	Kind         ReviewKind `json:"review_kind"`
	Part         int        `json:"part,omitempty"`
	AwaitingNext bool       `json:"awaiting_next,omitempty"`
}

func (r *Review) Mode() Mode { return ModeReview }
func (r *Review) Base() *Run { return &r.Run }

// Speedrun is a timed run. Wrong answers do not end it; the clock does.
type Speedrun struct {
	Run
	DurationSeconds int    `json:"duration_seconds"`
	Count           int    `json:"count"`
	Pool            string `json:"pool"`
}

func (s *Speedrun) Mode() Mode { return ModeSpeedrun }
func (s *Speedrun) Base() *Run { return &s.Run }

// Deadline returns the moment the run's time runs out.
func (s *Speedrun) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.DurationSeconds) * time.Second)
}

// Remaining returns the whole seconds left at now, never negative.
func (s *Speedrun) Remaining(now time.Time) int {
	d := s.Deadline().Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Label names the speedrun flavour shown to learners.
func (s *Speedrun) Label() string {
	if s.DurationSeconds <= 300 {
		return "Sprint"
	}
	return "Exam Mode"
}

// Survival ends on the first wrong answer.
type Survival struct {
	Run
}

func (s *Survival) Mode() Mode { return ModeSurvival }
func (s *Survival) Base() *Run { return &s.Run }

// Challenge plays a shared invite's questions. LastFeedback is the glyph
// for the previous answer, shown in the next question's header.
type Challenge struct {
	Run
	ChallengeID  string `json:"challenge_id"`
	LastFeedback string `json:"last_feedback,omitempty"`
}

func (c *Challenge) Mode() Mode { return ModeChallenge }
func (c *Challenge) Base() *Run { return &c.Run }

// Feedback glyphs for challenge headers.
const (
	GlyphCorrect = "✅"
	GlyphWrong   = "❌"
)

// IsGame reports whether st is one of the game variants, which skip the
// feedback step and do not touch progress or review.
func IsGame(st State) bool {
	switch st.Mode() {
	case ModeSpeedrun, ModeSurvival, ModeChallenge:
		return true
	}
	return false
}

// awaiting returns the feedback flag of variants that have one.
func awaiting(st State) *bool {
	switch v := st.(type) {
	case *Standard:
		return &v.AwaitingNext
	case *Review:
		return &v.AwaitingNext
	}
	return nil
}

// AwaitingNext reports whether st is showing feedback for its current
// question.
func AwaitingNext(st State) bool {
	if p := awaiting(st); p != nil {
		return *p
	}
	return false
}
