package quiz

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/review"
)

// fakeSupply serves n questions per unit; every correct answer is "A".
type fakeSupply struct {
	units map[string][]int // "BIO:10" -> unit numbers
	n     int
}

func newFakeSupply(n int, units map[string][]int) *fakeSupply {
	return &fakeSupply{units: units, n: n}
}

func (f *fakeSupply) ListUnits(subject string, grade int) ([]int, error) {
	units := append([]int(nil), f.units[fmt.Sprintf("%s:%d", subject, grade)]...)
	sort.Ints(units)
	return units, nil
}

func (f *fakeSupply) LoadUnitQuestions(subject string, grade, unit int) ([]curriculum.Question, string, error) {
	found := false
	for _, u := range f.units[fmt.Sprintf("%s:%d", subject, grade)] {
		found = found || u == unit
	}
	if !found {
		return nil, "", curriculum.ErrContentNotFound
	}
	id := curriculum.NewUnitID(subject, grade, unit)
	qs := make([]curriculum.Question, f.n)
	for i := range qs {
		qs[i] = curriculum.Question{
			ID:            fmt.Sprintf("%s_Q%d", id, i+1),
			Question:      fmt.Sprintf("question %d", i+1),
			Options:       curriculum.Options{A: "a", B: "b", C: "c", D: "d"},
			CorrectAnswer: "A",
			SourceUnit:    id.String(),
		}
	}
	return qs, fmt.Sprintf("Unit %d title", unit), nil
}

type fakeTracker struct {
	records  map[string]progress.Record
	streaks  int
	xp       int
	attempts int
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{records: map[string]progress.Record{}}
}

func (f *fakeTracker) Get(_ context.Context, userID int64, unit curriculum.UnitID) (progress.Record, bool, error) {
	r, ok := f.records[unit.String()]
	return r, ok, nil
}

func (f *fakeTracker) RecordAttempt(_ context.Context, userID int64, unit curriculum.UnitID, correct bool) (progress.Record, error) {
	r, ok := f.records[unit.String()]
	if !ok {
		r = progress.NewRecord(userID, unit)
	}
	r.RecordAttempt(correct)
	f.records[unit.String()] = r
	f.attempts++
	return r, nil
}

func (f *fakeTracker) CompleteBatch(_ context.Context, userID int64, unit curriculum.UnitID, phase progress.Phase, acc float64) (progress.Record, *progress.PhaseTransition, error) {
	r, ok := f.records[unit.String()]
	if !ok {
		r = progress.NewRecord(userID, unit)
	}
	tr := r.CompleteBatch(phase, acc, progress.DefaultUnlockThreshold)
	f.records[unit.String()] = r
	return r, tr, nil
}

func (f *fakeTracker) UpdateStreak(context.Context, int64) (int, error) {
	f.streaks++
	return f.streaks, nil
}

func (f *fakeTracker) AddXP(_ context.Context, _ int64, amount int) (progress.User, error) {
	f.xp += amount
	return progress.User{TotalXP: f.xp}, nil
}

type fakeReviews struct {
	items map[string]review.Item
}

func newFakeReviews() *fakeReviews { return &fakeReviews{items: map[string]review.Item{}} }

func (f *fakeReviews) Add(_ context.Context, userID int64, q curriculum.Question, s review.Status) error {
	it := review.Item{UserID: userID, QuestionID: q.ID, Status: s, Unit: q.SourceUnit}
	if id, ok := q.Unit(); ok {
		it.Subject, it.Grade = id.SubjectName(), id.Grade
	}
	f.items[q.ID] = it
	return nil
}

func (f *fakeReviews) Remove(_ context.Context, _ int64, qid string) error {
	delete(f.items, qid)
	return nil
}

func (f *fakeReviews) Items(_ context.Context, _ int64, s review.Status, _ review.Filter) ([]review.Item, error) {
	var out []review.Item
	for _, it := range f.items {
		if it.Status == s {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (f *fakeReviews) count(s review.Status) int {
	n := 0
	for _, it := range f.items {
		if it.Status == s {
			n++
		}
	}
	return n
}

type fakeInvites struct {
	m map[string]Invite
}

func (f *fakeInvites) SaveInvite(_ context.Context, inv Invite) error {
	f.m[inv.ID] = inv
	return nil
}

func (f *fakeInvites) GetInvite(_ context.Context, id string) (Invite, bool, error) {
	inv, ok := f.m[id]
	return inv, ok, nil
}

type staticLocks struct{ set locks.Set }

func (s staticLocks) Active(context.Context) (locks.Set, error) { return s.set, nil }

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

type harness struct {
	engine  *Engine
	supply  *fakeSupply
	tracker *fakeTracker
	reviews *fakeReviews
	invites *fakeInvites
	clock   *testClock
}

func noShuffle(int, func(i, j int)) {}

func newHarness(n int, units map[string][]int, lockRows ...locks.Lock) *harness {
	h := &harness{
		supply:  newFakeSupply(n, units),
		tracker: newFakeTracker(),
		reviews: newFakeReviews(),
		invites: &fakeInvites{m: map[string]Invite{}},
		clock:   &testClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	seq := 0
	h.engine = NewEngine(h.supply, h.tracker, h.reviews, h.invites,
		staticLocks{set: locks.NewSet(lockRows)},
		WithClock(h.clock.now),
		WithShuffle(noShuffle),
		WithIDs(func() string {
			seq++
			return fmt.Sprintf("abcdef%02d-0000", seq)
		}),
	)
	return h
}
