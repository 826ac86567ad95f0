package quiz

import (
	"errors"
	"testing"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
)

func sampleRun() Run {
	return Run{
		ID:          "run-1",
		SubjectCode: "BIO",
		Grade:       10,
		Unit:        1,
		UnitTitle:   "Cells",
		Questions: []curriculum.Question{
			{ID: "Q1", Question: "?", Options: curriculum.Options{A: "a", B: "b", C: "c", D: "d"}, CorrectAnswer: "A", SourceUnit: "BIO_G10_U1"},
			{ID: "Q2", CorrectAnswer: "C"},
		},
		Index:     1,
		Score:     1,
		History:   []Attempt{{QuestionID: "Q1", Selected: "A", Correct: "A", IsCorrect: true}},
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	done := sampleRun()
	done.Completed = true
	done.Result = &Summary{Mode: ModeStandard, Score: 1, Total: 3, Accuracy: 100.0 / 3, XP: 30}

	states := []State{
		&Standard{Run: sampleRun(), AwaitingNext: true},
		&Standard{Run: done, Random: true},
		&Review{Run: sampleRun(), Kind: ReviewUnitBlock, Part: 2},
		&Speedrun{Run: sampleRun(), DurationSeconds: 60, Count: 30, Pool: PoolMixed},
		&Survival{Run: sampleRun()},
		&Challenge{Run: sampleRun(), ChallengeID: "CH_X", LastFeedback: GlyphCorrect},
	}
	for _, st := range states {
		t.Run(string(st.Mode()), func(t *testing.T) {
			raw, err := Encode(st)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Decode(raw)
			if err != nil {
				t.Fatal(err)
			}
			if got.Mode() != st.Mode() {
				t.Fatalf("mode = %s, want %s", got.Mode(), st.Mode())
			}
			a, b := st.Base(), got.Base()
			if a.Index != b.Index || a.Score != b.Score || len(a.History) != len(b.History) {
				t.Errorf("run = %+v, want %+v", b, a)
			}
			if !a.StartedAt.Equal(b.StartedAt) || a.Questions[0] != b.Questions[0] {
				t.Errorf("fields lost: %+v", b)
			}
			if a.Result != nil && b.Result.Accuracy != a.Result.Accuracy {
				t.Errorf("accuracy = %v, want %v", b.Result.Accuracy, a.Result.Accuracy)
			}
			if AwaitingNext(got) != AwaitingNext(st) {
				t.Errorf("AwaitingNext lost")
			}
		})
	}
}

func TestCodecVariantFields(t *testing.T) {
	raw, _ := Encode(&Speedrun{Run: sampleRun(), DurationSeconds: 90, Count: 12, Pool: "BIO"})
	got, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	sp := got.(*Speedrun)
	if sp.DurationSeconds != 90 || sp.Count != 12 || sp.Pool != "BIO" {
		t.Errorf("speedrun = %+v", sp)
	}
}

func TestDecodeEmptyAndUnknown(t *testing.T) {
	for _, in := range []string{"", "null"} {
		st, err := Decode([]byte(in))
		if err != nil || st != nil {
			t.Errorf("Decode(%q) = %v, %v", in, st, err)
		}
	}
	if _, err := Decode([]byte(`{"mode":"BLITZ","state":{}}`)); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("unknown mode err = %v", err)
	}
	if raw, err := Encode(nil); raw != nil || err != nil {
		t.Errorf("Encode(nil) = %s, %v", raw, err)
	}
}

func TestSetupNormalize(t *testing.T) {
	got := SpeedrunSetup{Subject: "biology"}.Normalize()
	if got.DurationMinutes != 30 || got.Count != 30 || got.Subject != "BIO" {
		t.Errorf("Normalize = %+v", got)
	}
	if s := (SpeedrunSetup{Subject: "??"}).Normalize(); s.Subject != PoolMixed || len(s.Subjects()) != 4 {
		t.Errorf("unknown subject = %+v", s)
	}
}

func TestBatchXP(t *testing.T) {
	for acc, want := range map[float64]int{0: 0, 9.99: 0, 66.6: 60, 90: 90, 100: 100} {
		if got := BatchXP(acc); got != want {
			t.Errorf("BatchXP(%v) = %d, want %d", acc, got, want)
		}
	}
}
