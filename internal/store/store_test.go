package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/quiz"
	"github.com/abhisek/cassini/internal/review"
	"github.com/abhisek/cassini/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	// Each test gets its own named in-memory database.
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}
	for _, tt := range tests {
		var got string
		require.NoError(t, db.QueryRow("PRAGMA "+tt.pragma).Scan(&got))
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestOpenFileDatabaseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cassini.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Users().SaveUser(context.Background(), progress.NewUser(1, "ada", t0)))
	require.NoError(t, s.Close())

	// Migration is idempotent and data survives.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, ok, err := s.Users().GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Users()

	_, ok, err := repo.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	u := progress.NewUser(7, "Grace", t0)
	u.UpdateStreak(t0)
	u.AddXP(120, t0)
	require.NoError(t, repo.SaveUser(ctx, u))

	got, ok, err := repo.GetUser(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Grace", got.DisplayName)
	assert.Equal(t, 120, got.TotalXP)
	assert.Equal(t, u.StreakCount, got.StreakCount)
	require.NotNil(t, got.LastActivity)
	assert.True(t, got.LastActivity.Equal(t0))

	got.Grade = 10
	require.NoError(t, repo.SaveUser(ctx, got))
	again, _, err := repo.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, again.Grade)
	assert.True(t, again.CreatedAt.Equal(u.CreatedAt), "created_at is kept on update")
}

func TestTopUsers(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Users()

	old := t0.Add(-14 * 24 * time.Hour)
	users := []struct {
		id     int64
		total  int
		weekly int
		week   time.Time
	}{
		{1, 500, 10, t0},
		{2, 900, 0, old},
		{3, 300, 80, t0},
		{4, 100, 50, old},
	}
	for _, x := range users {
		u := progress.NewUser(x.id, fmt.Sprintf("u%d", x.id), t0)
		u.TotalXP, u.WeeklyXP = x.total, x.weekly
		w := x.week
		u.WeekStart = &w
		require.NoError(t, repo.SaveUser(ctx, u))
	}

	global, err := repo.TopUsers(ctx, progress.ScopeGlobal, time.Time{}, 3)
	require.NoError(t, err)
	require.Len(t, global, 3)
	assert.Equal(t, []int64{2, 1, 3}, []int64{global[0].ID, global[1].ID, global[2].ID})

	weekly, err := repo.TopUsers(ctx, progress.ScopeWeekly, t0.Add(-7*24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, weekly, 2)
	assert.Equal(t, int64(3), weekly[0].ID)
	assert.Equal(t, int64(1), weekly[1].ID)
}

func TestProgress(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Progress()
	unit := curriculum.NewUnitID("BIO", 10, 1)

	_, ok, err := repo.GetProgress(ctx, 1, unit)
	require.NoError(t, err)
	assert.False(t, ok)

	rec := progress.NewRecord(1, unit)
	rec.RecordAttempt(true)
	rec.CompleteBatch(progress.PhaseBaseline, 80, 75)
	rec.UpdatedAt = t0
	require.NoError(t, repo.SaveProgress(ctx, rec))

	got, ok, err := repo.GetProgress(ctx, 1, unit)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, unit, got.Unit)
	assert.Equal(t, rec.CurrentPhase, got.CurrentPhase)
	assert.Equal(t, 1, got.Attempted)
	assert.True(t, got.UnlockedBalanced)
	assert.InDelta(t, 80, got.BaselineAccuracy, 0.001)

	for _, r := range []progress.Record{
		progress.NewRecord(1, curriculum.NewUnitID("CHEM", 10, 2)),
		progress.NewRecord(2, unit),
	} {
		r.UpdatedAt = t0
		require.NoError(t, repo.SaveProgress(ctx, r))
	}

	list, err := repo.ListProgress(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.DeleteProgress(ctx, 1))
	list, err = repo.ListProgress(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = repo.ListProgress(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 1, "other users keep their records")
}

func TestSessionsOptimisticSave(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Sessions()

	s, err := repo.GetOrCreate(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, nav.Welcome, s.Current.Screen)
	assert.Zero(t, s.Version)

	s.Push(nav.Ref{Screen: nav.Hub}, 10)
	s.Push(nav.Ref{Screen: nav.Subjects}, 10)
	s.Quiz = &quiz.Standard{Run: quiz.Run{ID: "r1", SubjectCode: "BIO", Grade: 10, Unit: 1,
		Questions: []curriculum.Question{{ID: "q1", Question: "?", CorrectAnswer: "A"}}}}
	setup := quiz.SpeedrunSetup{DurationMinutes: 5, Count: 10, Subject: "BIO"}
	s.Setup = &setup
	require.NoError(t, repo.Save(ctx, s))
	assert.Equal(t, int64(1), s.Version)

	a, err := repo.GetOrCreate(ctx, 5)
	require.NoError(t, err)
	b, err := repo.GetOrCreate(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, nav.Subjects, a.Current.Screen)
	assert.Equal(t, []nav.Ref{{Screen: nav.Welcome}, {Screen: nav.Hub}}, a.Stack)
	require.NotNil(t, a.Setup)
	assert.Equal(t, setup, *a.Setup)
	st, ok := a.Quiz.(*quiz.Standard)
	require.True(t, ok)
	assert.Equal(t, "r1", st.ID)

	a.Home()
	require.NoError(t, repo.Save(ctx, a))

	b.Push(nav.Ref{Screen: nav.Help}, 10)
	err = repo.Save(ctx, b)
	assert.ErrorIs(t, err, session.ErrVersionConflict)

	// A second insert for the same user also conflicts.
	fresh := session.New(5)
	assert.ErrorIs(t, repo.Save(ctx, fresh), session.ErrVersionConflict)

	require.NoError(t, repo.Delete(ctx, 5))
	s, err = repo.GetOrCreate(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, s.Version)
	assert.Nil(t, s.Quiz)
}

func TestSessionsDropUndecodableQuiz(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	repo := st.Sessions()

	s := session.New(9)
	s.Current = nav.Ref{Screen: nav.QuizPresent}
	require.NoError(t, repo.Save(ctx, s))
	_, err := st.DB().Exec(`UPDATE user_sessions SET quiz_state = '{"mode":"BLITZ","state":{}}' WHERE user_id = 9`)
	require.NoError(t, err)

	got, err := repo.GetOrCreate(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, got.Quiz)
	assert.Equal(t, nav.QuizPresent, got.Current.Screen)
}

func TestReviews(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Reviews()

	item := func(qid string, status review.Status, subject string, grade int, at time.Time) review.Item {
		return review.Item{UserID: 1, QuestionID: qid, Status: status, Subject: subject, Grade: grade, Unit: "BIO_G10_U1", UpdatedAt: at}
	}
	require.NoError(t, repo.Upsert(ctx, item("q1", review.StatusMistake, "Biology", 10, t0)))
	require.NoError(t, repo.Upsert(ctx, item("q2", review.StatusSkipped, "Biology", 10, t0.Add(time.Minute))))
	require.NoError(t, repo.Upsert(ctx, item("q3", review.StatusMistake, "Chemistry", 11, t0.Add(2*time.Minute))))
	// Last write wins.
	require.NoError(t, repo.Upsert(ctx, item("q2", review.StatusMistake, "Biology", 10, t0.Add(3*time.Minute))))

	counts, err := repo.CountByStatus(ctx, 1, review.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 3, counts[review.StatusMistake])
	assert.Zero(t, counts[review.StatusSkipped])

	counts, err = repo.CountByStatus(ctx, 1, review.Filter{Subject: "BIO", Grade: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[review.StatusMistake])

	items, err := repo.List(ctx, 1, review.StatusMistake, review.Filter{Subject: "Biology"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "q1", items[0].QuestionID)
	assert.Equal(t, "q2", items[1].QuestionID)

	require.NoError(t, repo.Delete(ctx, 1, "q1"))
	require.NoError(t, repo.Delete(ctx, 1, "missing"))
	items, err = repo.List(ctx, 1, review.StatusMistake, review.Filter{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestLocksToggle(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Locks()
	key := locks.Key{Type: locks.TypeUnit, Target: "BIO_G12_U3"}

	l, err := repo.Toggle(ctx, key, 99, "", t0)
	require.NoError(t, err)
	assert.True(t, l.Locked)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(99), active[0].LockedBy)

	l, err = repo.Toggle(ctx, key, 98, "", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, l.Locked)

	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Locked)
}

func TestInvites(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Invites()

	inv := quiz.Invite{
		ID: "CH_ABCDEF12", CreatorID: 3, SubjectCode: "PHY", Grade: 11, CreatedAt: t0,
		Questions: []curriculum.Question{{ID: "p1", Question: "F = ?", CorrectAnswer: "B"}},
	}
	require.NoError(t, repo.SaveInvite(ctx, inv))
	assert.Error(t, repo.SaveInvite(ctx, inv), "ids are unique")

	got, ok, err := repo.GetInvite(ctx, "CH_ABCDEF12")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, inv.Questions, got.Questions)
	assert.Equal(t, 11, got.Grade)

	_, ok, err = repo.GetInvite(ctx, "CH_NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlagsAggregate(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Flags()

	_, err := repo.AddFlag(ctx, "q1", "TYPO", 1, t0)
	require.NoError(t, err)
	f, err := repo.AddFlag(ctx, "q1", "WRONG_ANSWER", 2, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Count)
	assert.Equal(t, []string{"TYPO", "WRONG_ANSWER"}, f.Reasons)
	_, err = repo.AddFlag(ctx, "q2", "UNCLEAR", 1, t0)
	require.NoError(t, err)

	flags, err := repo.ListFlags(ctx, 10)
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, "q1", flags[0].QuestionID)
	assert.Equal(t, int64(2), flags[0].LastBy)
}
