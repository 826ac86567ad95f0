package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/review"
)

var bioUnits = map[string][]int{"BIO:10": {1, 2, 3, 4, 5, 6}, "CHEM:10": {1}}

func TestStandardBatchUnlocksBalanced(t *testing.T) {
	ctx := context.Background()
	h := newHarness(10, bioUnits)
	st, err := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 1))
	if err != nil {
		t.Fatal(err)
	}
	if st.UnitTitle != "Unit 1 title" || len(st.Questions) != 10 {
		t.Fatalf("run = %q with %d questions", st.UnitTitle, len(st.Questions))
	}

	var out Outcome
	for i := 0; i < 10; i++ {
		choice := "A"
		if i == 6 {
			choice = "C"
		}
		if _, err := h.engine.Answer(ctx, 1, st, choice); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if !st.AwaitingNext {
			t.Fatalf("answer %d did not wait for next", i)
		}
		if out, err = h.engine.Next(ctx, 1, st); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}

	if !out.Done || out.Summary == nil {
		t.Fatalf("run not complete: %+v", out)
	}
	sum := out.Summary
	if sum.Accuracy != 90.0 || sum.Score != 9 || sum.Total != 10 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Phase != progress.PhaseBalanced || sum.Unlocked != progress.PhaseBalanced {
		t.Errorf("phase %s unlocked %s", sum.Phase, sum.Unlocked)
	}
	if sum.XP != 90 || h.tracker.xp != 90 {
		t.Errorf("xp = %d tracked %d", sum.XP, h.tracker.xp)
	}
	rec := h.tracker.records["BIO_G10_U1"]
	if !rec.UnlockedBalanced || rec.UnlockedExam || rec.Attempted != 10 || rec.Correct != 9 {
		t.Errorf("record = %+v", rec)
	}
	if h.reviews.count(review.StatusMistake) != 1 {
		t.Errorf("mistakes = %d", h.reviews.count(review.StatusMistake))
	}
	if h.tracker.streaks != 1 {
		t.Errorf("streak updates = %d", h.tracker.streaks)
	}
}

func TestCompletionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(1, bioUnits)
	st, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 1))
	h.engine.Answer(ctx, 1, st, "A")
	out, _ := h.engine.Next(ctx, 1, st)
	if !out.Done {
		t.Fatal("expected completion")
	}
	for i := 0; i < 3; i++ {
		again, err := h.engine.Next(ctx, 1, st)
		if err != nil || !again.Done || again.Summary != out.Summary {
			t.Fatalf("repeat %d: %+v %v", i, again, err)
		}
		if _, err := h.engine.Refresh(ctx, 1, st); err != nil {
			t.Fatal(err)
		}
	}
	if h.tracker.xp != 100 || h.tracker.streaks != 1 {
		t.Errorf("side effects repeated: xp %d streaks %d", h.tracker.xp, h.tracker.streaks)
	}
}

func TestAnswerWhileAwaitingNext(t *testing.T) {
	ctx := context.Background()
	h := newHarness(3, bioUnits)
	st, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 1))
	h.engine.Answer(ctx, 1, st, "B")
	if _, err := h.engine.Answer(ctx, 1, st, "A"); !errors.Is(err, ErrAwaitingNext) {
		t.Fatalf("err = %v, want ErrAwaitingNext", err)
	}
	if len(st.History) != 1 || st.Index != 0 {
		t.Errorf("history %d index %d", len(st.History), st.Index)
	}
}

func TestNextWithoutAnswerDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	h := newHarness(3, bioUnits)
	st, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 1))
	if _, err := h.engine.Next(ctx, 1, st); err != nil {
		t.Fatal(err)
	}
	if st.Index != 0 {
		t.Errorf("Index = %d, want 0", st.Index)
	}
}

func TestInvalidOption(t *testing.T) {
	h := newHarness(3, bioUnits)
	st, _ := h.engine.StartUnit(context.Background(), curriculum.NewUnitID("BIO", 10, 1))
	if _, err := h.engine.Answer(context.Background(), 1, st, "E"); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("err = %v", err)
	}
}

func TestMistakeClearedLater(t *testing.T) {
	ctx := context.Background()
	h := newHarness(2, bioUnits)
	unit := curriculum.NewUnitID("BIO", 10, 1)

	first, _ := h.engine.StartUnit(ctx, unit)
	h.engine.Answer(ctx, 1, first, "D")
	if h.reviews.count(review.StatusMistake) != 1 {
		t.Fatal("mistake not queued")
	}

	second, _ := h.engine.StartUnit(ctx, unit)
	h.engine.Answer(ctx, 1, second, "A")
	if n := h.reviews.count(review.StatusMistake); n != 0 {
		t.Errorf("mistakes = %d, want 0", n)
	}
}

func TestSkipAndPin(t *testing.T) {
	ctx := context.Background()
	h := newHarness(2, bioUnits)
	st, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 1))

	if _, err := h.engine.Pin(ctx, 1, st); err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.Skip(ctx, 1, st); err != nil {
		t.Fatal(err)
	}
	if st.Index != 1 || st.Score != 0 || st.History[0].Selected != SkipMarker {
		t.Fatalf("after skip: index %d score %d history %+v", st.Index, st.Score, st.History)
	}
	// The pinned question was skipped; the latest status wins.
	if h.reviews.count(review.StatusSkipped) != 1 || h.reviews.count(review.StatusPinned) != 0 {
		t.Errorf("queue = %+v", h.reviews.items)
	}

	out, _ := h.engine.Skip(ctx, 1, st)
	if !out.Done || out.Summary.Accuracy != 0 {
		t.Errorf("final skip: %+v", out)
	}
}

func TestSurvivalEndsOnFirstMistake(t *testing.T) {
	ctx := context.Background()
	h := newHarness(20, map[string][]int{"BIO:12": {1, 2, 3, 4, 5}})
	st, err := h.engine.StartSurvival(ctx, "BIO", 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Questions) != 100 {
		t.Fatalf("pool = %d, want 100", len(st.Questions))
	}

	for _, choice := range []string{"A", "A"} {
		out, err := h.engine.Answer(ctx, 1, st, choice)
		if err != nil || out.Done {
			t.Fatalf("answer: %+v %v", out, err)
		}
	}
	out, err := h.engine.Answer(ctx, 1, st, "B")
	if err != nil {
		t.Fatal(err)
	}
	if !out.Done || !st.Completed || st.Score != 2 || st.EndReason != EndLifeLost {
		t.Fatalf("outcome %+v state score %d reason %q", out, st.Score, st.EndReason)
	}
	if out.Summary.XP != 40 || out.Summary.Total != 3 {
		t.Errorf("summary = %+v", out.Summary)
	}
	if h.tracker.attempts != 0 || len(h.reviews.items) != 0 {
		t.Error("games must not touch progress or review")
	}
	if _, err := h.engine.Answer(ctx, 1, st, "A"); err != nil || st.Score != 2 {
		t.Errorf("answer after completion changed state: %v score %d", err, st.Score)
	}
}

func TestSpeedrunDeadline(t *testing.T) {
	ctx := context.Background()
	h := newHarness(10, bioUnits)
	st, err := h.engine.StartSpeedrun(ctx, 10, SpeedrunSetup{DurationMinutes: 1, Count: 30, Subject: "BIO"})
	if err != nil {
		t.Fatal(err)
	}
	if st.DurationSeconds != 60 || len(st.Questions) != 30 || st.Label() != "Sprint" {
		t.Fatalf("speedrun = %ds %d questions %q", st.DurationSeconds, len(st.Questions), st.Label())
	}
	t0 := st.StartedAt

	h.clock.t = t0.Add(30 * time.Second)
	if out, _ := h.engine.Answer(ctx, 1, st, "B"); out.Done || st.Index != 1 {
		t.Fatal("wrong answer should not end a speedrun")
	}
	h.clock.t = t0.Add(61 * time.Second)
	if out, _ := h.engine.Answer(ctx, 1, st, "A"); out.TimedOut || st.Score != 1 {
		t.Fatalf("answer inside grace rejected: %+v", out)
	}

	h.clock.t = t0.Add(63 * time.Second)
	out, err := h.engine.Answer(ctx, 1, st, "A")
	if err != nil {
		t.Fatal(err)
	}
	if !out.TimedOut || !out.Done || st.EndReason != EndTimeUp {
		t.Fatalf("late answer: %+v reason %q", out, st.EndReason)
	}
	if st.Score != 1 || len(st.History) != 2 {
		t.Errorf("late answer was scored: score %d history %d", st.Score, len(st.History))
	}
	if out.Summary.Accuracy != 50 || out.Summary.XP != 15 {
		t.Errorf("summary = %+v", out.Summary)
	}
}

func TestSpeedrunExpiresOnRead(t *testing.T) {
	ctx := context.Background()
	h := newHarness(5, bioUnits)
	st, _ := h.engine.StartSpeedrun(ctx, 10, SpeedrunSetup{DurationMinutes: 10})
	if st.Label() != "Exam Mode" || st.Pool != PoolMixed {
		t.Fatalf("label %q pool %q", st.Label(), st.Pool)
	}
	h.clock.t = st.StartedAt.Add(10*time.Minute + time.Second)
	if st.Remaining(h.clock.t) != 0 {
		t.Errorf("Remaining = %d", st.Remaining(h.clock.t))
	}
	out, err := h.engine.Refresh(ctx, 1, st)
	if err != nil || !out.Done || !out.TimedOut {
		t.Fatalf("refresh: %+v %v", out, err)
	}
}

func TestChallengeFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(4, bioUnits)
	inv, err := h.engine.CreateInvite(ctx, 1, "BIO", 10)
	if err != nil {
		t.Fatal(err)
	}
	if inv.ID != "CH_ABCDEF01" || len(inv.Questions) != 10 {
		t.Fatalf("invite = %s with %d questions", inv.ID, len(inv.Questions))
	}

	st, err := h.engine.StartChallenge(ctx, "abcdef01")
	if err != nil {
		t.Fatal(err)
	}
	h.engine.Answer(ctx, 2, st, "B")
	if st.LastFeedback != GlyphWrong || st.Index != 1 {
		t.Fatalf("feedback %q index %d", st.LastFeedback, st.Index)
	}
	var out Outcome
	for i := 1; i < 10; i++ {
		out, _ = h.engine.Answer(ctx, 2, st, "A")
	}
	if !out.Done || st.Score != 9 || out.Summary.XP != 135 {
		t.Fatalf("final: %+v", out)
	}

	if _, err := h.engine.StartChallenge(ctx, "CH_NOPE"); !errors.Is(err, curriculum.ErrContentNotFound) {
		t.Errorf("missing invite err = %v", err)
	}
}

func TestLockedUnitsExcludedFromPools(t *testing.T) {
	ctx := context.Background()
	h := newHarness(1, bioUnits,
		locks.Lock{Type: locks.TypeUnit, Target: "BIO_G10_U2", Locked: true},
		locks.Lock{Type: locks.TypeSubject, Target: "Chemistry:10", Locked: true},
	)
	st, err := h.engine.StartSpeedrun(ctx, 10, SpeedrunSetup{Count: 100})
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range st.Questions {
		if q.SourceUnit == "BIO_G10_U2" || q.SourceUnit == "CHEM_G10_U1" {
			t.Fatalf("locked question %s in pool", q.ID)
		}
	}
	if len(st.Questions) != 5 {
		t.Errorf("pool = %d, want 5", len(st.Questions))
	}
}

func TestReviewParts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(1, map[string][]int{"BIO:10": {1, 2, 3, 4, 5, 6, 7}})

	tests := []struct {
		part  int
		units []string
	}{
		{1, []string{"BIO_G10_U1", "BIO_G10_U2", "BIO_G10_U3"}},
		{2, []string{"BIO_G10_U4", "BIO_G10_U5", "BIO_G10_U6"}},
		{3, []string{"BIO_G10_U7"}},
	}
	for _, tt := range tests {
		st, err := h.engine.StartReviewPart(ctx, "BIO", 10, tt.part)
		if err != nil {
			t.Fatalf("part %d: %v", tt.part, err)
		}
		if len(st.Questions) != len(tt.units) {
			t.Fatalf("part %d: %d questions", tt.part, len(st.Questions))
		}
		for i, q := range st.Questions {
			if q.SourceUnit != tt.units[i] {
				t.Errorf("part %d q%d from %s, want %s", tt.part, i, q.SourceUnit, tt.units[i])
			}
		}
	}

	st, _ := h.engine.StartReviewPart(ctx, "BIO", 10, 2)
	next, err := h.engine.NextPart(ctx, st)
	if err != nil || next.Part != 3 {
		t.Fatalf("NextPart = %+v, %v", next, err)
	}
	if _, err := h.engine.NextPart(ctx, next); !errors.Is(err, ErrNoMore) {
		t.Errorf("after last part err = %v", err)
	}
}

func TestReviewPartsKeepBoundariesWhenUnitLocked(t *testing.T) {
	ctx := context.Background()
	h := newHarness(1, map[string][]int{"BIO:10": {1, 2, 3, 4, 5, 6, 7}},
		locks.Lock{Type: locks.TypeUnit, Target: "BIO_G10_U2", Locked: true},
	)

	tests := []struct {
		part  int
		units []string
	}{
		{1, []string{"BIO_G10_U1", "BIO_G10_U3"}},
		{2, []string{"BIO_G10_U4", "BIO_G10_U5", "BIO_G10_U6"}},
		{3, []string{"BIO_G10_U7"}},
	}
	for _, tt := range tests {
		st, err := h.engine.StartReviewPart(ctx, "BIO", 10, tt.part)
		if err != nil {
			t.Fatalf("part %d: %v", tt.part, err)
		}
		if len(st.Questions) != len(tt.units) {
			t.Fatalf("part %d: %d questions, want %d", tt.part, len(st.Questions), len(tt.units))
		}
		for i, q := range st.Questions {
			if q.SourceUnit != tt.units[i] {
				t.Errorf("part %d q%d from %s, want %s", tt.part, i, q.SourceUnit, tt.units[i])
			}
		}
	}
}

func TestReviewPartFullyLocked(t *testing.T) {
	ctx := context.Background()
	h := newHarness(1, map[string][]int{"BIO:10": {1, 2, 3}},
		locks.Lock{Type: locks.TypeUnit, Target: "BIO_G10_U3", Locked: true},
	)
	if _, err := h.engine.StartReviewPart(ctx, "BIO", 10, 3); !errors.Is(err, curriculum.ErrContentNotFound) {
		t.Errorf("locked part err = %v", err)
	}
}

func TestSmartReview(t *testing.T) {
	ctx := context.Background()
	h := newHarness(3, bioUnits)
	unit, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 2))
	h.engine.Answer(ctx, 1, unit, "B")
	h.engine.Next(ctx, 1, unit)
	h.engine.Answer(ctx, 1, unit, "A")
	h.engine.Next(ctx, 1, unit)
	h.engine.Answer(ctx, 1, unit, "C")

	st, err := h.engine.StartSmartReview(ctx, 1, ReviewMistakes, "BIO", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Questions) != 2 || st.Kind != ReviewMistakes {
		t.Fatalf("review = %d questions kind %s", len(st.Questions), st.Kind)
	}
	if _, err := h.engine.StartSmartReview(ctx, 1, ReviewPinned, "", 0); !errors.Is(err, curriculum.ErrContentNotFound) {
		t.Errorf("empty pinned err = %v", err)
	}

	// Review answers do not complete a unit batch.
	for range st.Questions {
		h.engine.Answer(ctx, 1, st, "A")
		h.engine.Next(ctx, 1, st)
	}
	if !st.Completed || h.reviews.count(review.StatusMistake) != 0 {
		t.Errorf("completed %v mistakes %d", st.Completed, h.reviews.count(review.StatusMistake))
	}
	if rec := h.tracker.records["BIO_G10_U2"]; rec.BaselineAccuracy != 0 {
		t.Errorf("review changed batch accuracy: %+v", rec)
	}
}

func TestNextBatchAndRandom(t *testing.T) {
	ctx := context.Background()
	h := newHarness(8, bioUnits, locks.Lock{Type: locks.TypeUnit, Target: "BIO_G10_U2", Locked: true})
	st, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 1))
	next, err := h.engine.NextBatch(ctx, st)
	if err != nil || next.Unit != 3 {
		t.Fatalf("NextBatch = %+v, %v", next, err)
	}
	last, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 6))
	if _, err := h.engine.NextBatch(ctx, last); !errors.Is(err, ErrNoMore) {
		t.Errorf("after last unit err = %v", err)
	}

	rnd, err := h.engine.StartRandom(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !rnd.Random || len(rnd.Questions) != 10 {
		t.Fatalf("random = %+v", rnd.Run)
	}
	for range rnd.Questions {
		h.engine.Answer(ctx, 1, rnd, "A")
		h.engine.Next(ctx, 1, rnd)
	}
	if rnd.Result == nil || rnd.Result.Unlocked != "" {
		t.Errorf("random result = %+v", rnd.Result)
	}
}

func TestReplay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(2, bioUnits)
	st, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 1))
	h.engine.Answer(ctx, 1, st, "A")
	h.engine.Next(ctx, 1, st)
	h.engine.Answer(ctx, 1, st, "A")
	h.engine.Next(ctx, 1, st)

	again, err := h.engine.Replay(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	r := again.Base()
	if r.Index != 0 || r.Score != 0 || len(r.History) != 0 || r.Completed || len(r.Questions) != 2 {
		t.Errorf("replayed run = %+v", r)
	}
}

func TestOutOfRangeIndexCompletes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(3, bioUnits)
	st, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 1))
	st.Index = 7

	out, err := h.engine.Refresh(ctx, 1, st)
	if err != nil || !out.Done {
		t.Fatalf("refresh: %+v %v", out, err)
	}
	st2, _ := h.engine.StartUnit(ctx, curriculum.NewUnitID("BIO", 10, 1))
	st2.Index = -1
	out, err = h.engine.Answer(ctx, 1, st2, "A")
	if err != nil || !out.Done {
		t.Fatalf("answer: %+v %v", out, err)
	}
}

func TestContentNotFound(t *testing.T) {
	h := newHarness(3, bioUnits)
	_, err := h.engine.StartUnit(context.Background(), curriculum.NewUnitID("PHYS", 10, 1))
	if !errors.Is(err, curriculum.ErrContentNotFound) {
		t.Fatalf("err = %v", err)
	}
	_, err = h.engine.StartSurvival(context.Background(), "MATH", 11)
	if !errors.Is(err, curriculum.ErrContentNotFound) {
		t.Fatalf("survival err = %v", err)
	}
}
