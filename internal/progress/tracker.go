// Package progress tracks per-unit mastery, phase unlocks, streaks and
// experience points.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidGrade = errors.New("invalid grade")
)

// Repo persists progress records.
type Repo interface {
	GetProgress(ctx context.Context, userID int64, unit curriculum.UnitID) (Record, bool, error)
	SaveProgress(ctx context.Context, r Record) error
	ListProgress(ctx context.Context, userID int64) ([]Record, error)
	DeleteProgress(ctx context.Context, userID int64) error
}

// Scope selects the leaderboard ranking.
type Scope string

const (
	ScopeGlobal Scope = "GLOBAL"
	ScopeWeekly Scope = "WEEKLY"
)

// UserRepo persists user profiles.
type UserRepo interface {
	GetUser(ctx context.Context, id int64) (User, bool, error)
	SaveUser(ctx context.Context, u User) error
	TopUsers(ctx context.Context, scope Scope, since time.Time, limit int) ([]User, error)
}

// Tracker owns progress records and user-level counters.
type Tracker struct {
	records   Repo
	users     UserRepo
	threshold float64
	now       func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithThreshold overrides the phase unlock threshold.
func WithThreshold(t float64) Option {
	return func(tr *Tracker) { tr.threshold = t }
}

// WithClock overrides the tracker clock.
func WithClock(now func() time.Time) Option {
	return func(tr *Tracker) { tr.now = now }
}

// NewTracker creates a Tracker.
func NewTracker(records Repo, users UserRepo, opts ...Option) *Tracker {
	t := &Tracker{
		records:   records,
		users:     users,
		threshold: DefaultUnlockThreshold,
		now:       time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Threshold returns the configured unlock threshold.
func (t *Tracker) Threshold() float64 { return t.threshold }

// EnsureUser returns the user, creating the profile on first contact.
func (t *Tracker) EnsureUser(ctx context.Context, id int64, name string) (User, error) {
	u, ok, err := t.users.GetUser(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if ok {
		return u, nil
	}
	u = NewUser(id, name, t.now().UTC())
	if err := t.users.SaveUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// User returns a profile.
func (t *Tracker) User(ctx context.Context, id int64) (User, error) {
	u, ok, err := t.users.GetUser(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// Get returns the record for a unit. ok is false when the unit has not
// been started.
func (t *Tracker) Get(ctx context.Context, userID int64, unit curriculum.UnitID) (Record, bool, error) {
	return t.records.GetProgress(ctx, userID, unit)
}

// RecordAttempt counts one answered question against a unit.
func (t *Tracker) RecordAttempt(ctx context.Context, userID int64, unit curriculum.UnitID, correct bool) (Record, error) {
	r, ok, err := t.records.GetProgress(ctx, userID, unit)
	if err != nil {
		return Record{}, fmt.Errorf("get progress: %w", err)
	}
	if !ok {
		r = NewRecord(userID, unit)
	}
	r.RecordAttempt(correct)
	r.UpdatedAt = t.now().UTC()
	if err := t.records.SaveProgress(ctx, r); err != nil {
		return Record{}, fmt.Errorf("save progress: %w", err)
	}
	return r, nil
}

// CompleteBatch stores a finished batch's accuracy for phase and applies
// any unlock it earns.
func (t *Tracker) CompleteBatch(ctx context.Context, userID int64, unit curriculum.UnitID, phase Phase, accuracy float64) (Record, *PhaseTransition, error) {
	r, ok, err := t.records.GetProgress(ctx, userID, unit)
	if err != nil {
		return Record{}, nil, fmt.Errorf("get progress: %w", err)
	}
	if !ok {
		r = NewRecord(userID, unit)
	}
	tr := r.CompleteBatch(phase, accuracy, t.threshold)
	r.UpdatedAt = t.now().UTC()
	if err := t.records.SaveProgress(ctx, r); err != nil {
		return Record{}, nil, fmt.Errorf("save progress: %w", err)
	}
	return r, tr, nil
}

// UpdateStreak applies a completed batch to the user's streak.
func (t *Tracker) UpdateStreak(ctx context.Context, userID int64) (int, error) {
	u, err := t.User(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := u.UpdateStreak(t.now().UTC())
	if err := t.users.SaveUser(ctx, u); err != nil {
		return 0, fmt.Errorf("save user: %w", err)
	}
	return n, nil
}

// AddXP credits experience points.
func (t *Tracker) AddXP(ctx context.Context, userID int64, amount int) (User, error) {
	u, err := t.User(ctx, userID)
	if err != nil {
		return User{}, err
	}
	u.AddXP(amount, t.now().UTC())
	if err := t.users.SaveUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

// SetGrade changes the user's current grade.
func (t *Tracker) SetGrade(ctx context.Context, userID int64, grade int) (User, error) {
	if !curriculum.ValidGrade(grade) {
		return User{}, fmt.Errorf("%w: %d", ErrInvalidGrade, grade)
	}
	u, err := t.User(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if u.Grade == grade {
		return u, nil
	}
	u.Grade = grade
	if err := t.users.SaveUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

// Reset deletes every progress record and clears the user's counters.
func (t *Tracker) Reset(ctx context.Context, userID int64) error {
	if err := t.records.DeleteProgress(ctx, userID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	u, err := t.User(ctx, userID)
	if err != nil {
		return err
	}
	u.ResetProgress()
	if err := t.users.SaveUser(ctx, u); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Leaderboard returns the top users for scope. Weekly rankings only
// consider users whose week started within the last 7 days.
func (t *Tracker) Leaderboard(ctx context.Context, scope Scope, limit int) ([]User, error) {
	since := time.Time{}
	if scope == ScopeWeekly {
		since = t.now().UTC().Add(-weekLength)
	}
	return t.users.TopUsers(ctx, scope, since, limit)
}

// Records returns every record for a user.
func (t *Tracker) Records(ctx context.Context, userID int64) ([]Record, error) {
	return t.records.ListProgress(ctx, userID)
}

// SubjectStats aggregates a user's records for one subject in one grade.
type SubjectStats struct {
	SubjectCode    string
	UnitsStarted   int
	Attempted      int
	Correct        int
	MeanCompletion float64
}

// GradeStats aggregates a user's records for one grade.
type GradeStats struct {
	Grade          int
	UnitsStarted   int
	MeanCompletion float64
	Subjects       []SubjectStats
}

// Stats summarizes a user's progress in grade.
func (t *Tracker) Stats(ctx context.Context, userID int64, grade int) (GradeStats, error) {
	recs, err := t.records.ListProgress(ctx, userID)
	if err != nil {
		return GradeStats{}, fmt.Errorf("list progress: %w", err)
	}
	return BuildStats(recs, grade), nil
}

// BuildStats aggregates recs for grade. Subjects appear in curriculum order.
func BuildStats(recs []Record, grade int) GradeStats {
	gs := GradeStats{Grade: grade}
	by := make(map[string]*SubjectStats)
	var total float64
	for _, r := range recs {
		if r.Unit.Grade != grade {
			continue
		}
		s, ok := by[r.Unit.SubjectCode]
		if !ok {
			s = &SubjectStats{SubjectCode: r.Unit.SubjectCode}
			by[r.Unit.SubjectCode] = s
		}
		s.UnitsStarted++
		s.Attempted += r.Attempted
		s.Correct += r.Correct
		s.MeanCompletion += r.CompletionPercent
		gs.UnitsStarted++
		total += r.CompletionPercent
	}
	if gs.UnitsStarted > 0 {
		gs.MeanCompletion = total / float64(gs.UnitsStarted)
	}
	for _, sub := range curriculum.Subjects {
		if s, ok := by[sub.Code]; ok {
			s.MeanCompletion /= float64(s.UnitsStarted)
			gs.Subjects = append(gs.Subjects, *s)
			delete(by, sub.Code)
		}
	}
	var rest []string
	for code := range by {
		rest = append(rest, code)
	}
	sort.Strings(rest)
	for _, code := range rest {
		s := by[code]
		s.MeanCompletion /= float64(s.UnitsStarted)
		gs.Subjects = append(gs.Subjects, *s)
	}
	return gs
}
