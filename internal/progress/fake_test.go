package progress

import (
	"context"
	"sort"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
)

type recordKey struct {
	user int64
	unit string
}

type fakeRecords struct {
	m map[recordKey]Record
}

func newFakeRecords() *fakeRecords { return &fakeRecords{m: map[recordKey]Record{}} }

func (f *fakeRecords) GetProgress(_ context.Context, userID int64, unit curriculum.UnitID) (Record, bool, error) {
	r, ok := f.m[recordKey{userID, unit.String()}]
	return r, ok, nil
}

func (f *fakeRecords) SaveProgress(_ context.Context, r Record) error {
	f.m[recordKey{r.UserID, r.Unit.String()}] = r
	return nil
}

func (f *fakeRecords) ListProgress(_ context.Context, userID int64) ([]Record, error) {
	var out []Record
	for k, r := range f.m {
		if k.user == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit.String() < out[j].Unit.String() })
	return out, nil
}

func (f *fakeRecords) DeleteProgress(_ context.Context, userID int64) error {
	for k := range f.m {
		if k.user == userID {
			delete(f.m, k)
		}
	}
	return nil
}

type fakeUsers struct {
	m map[int64]User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{m: map[int64]User{}} }

func (f *fakeUsers) GetUser(_ context.Context, id int64) (User, bool, error) {
	u, ok := f.m[id]
	return u, ok, nil
}

func (f *fakeUsers) SaveUser(_ context.Context, u User) error {
	f.m[u.ID] = u
	return nil
}

func (f *fakeUsers) TopUsers(_ context.Context, scope Scope, since time.Time, limit int) ([]User, error) {
	var out []User
	for _, u := range f.m {
		if scope == ScopeWeekly && (u.WeekStart == nil || u.WeekStart.Before(since)) {
			continue
		}
		out = append(out, u)
	}
	score := func(u User) int {
		if scope == ScopeWeekly {
			return u.WeeklyXP
		}
		return u.TotalXP
	}
	sort.Slice(out, func(i, j int) bool { return score(out[i]) > score(out[j]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type clock struct{ t time.Time }

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(c *clock) *Tracker {
	return NewTracker(newFakeRecords(), newFakeUsers(), WithClock(c.now))
}
