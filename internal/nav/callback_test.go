package nav

import (
	"errors"
	"testing"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		in   string
		want Callback
	}{
		{"NAV|SCR_HUB", Callback{KindNav, "SCR_HUB", ""}},
		{"NAV|SCR_UNITS|BIO:Grade 12", Callback{KindNav, "SCR_UNITS", "BIO:Grade 12"}},
		{"ACT|LOCK|TOGGLE_UNIT|BIO_G12_U1", Callback{KindAct, "LOCK", "TOGGLE_UNIT|BIO_G12_U1"}},
		{"ACT|SURVIVAL|START|BIO:G12", Callback{KindAct, "SURVIVAL", "START|BIO:G12"}},
		{"ans|SCR_QUIZ_PRES|B", Callback{KindAns, "SCR_QUIZ_PRES", "B"}},
	}
	for _, tt := range tests {
		got, err := ParseCallback(tt.in)
		if err != nil {
			t.Fatalf("ParseCallback(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseCallback(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "NAV", "NAV|", "JUMP|SCR_HUB"} {
		if _, err := ParseCallback(bad); !errors.Is(err, ErrBadCallback) {
			t.Errorf("ParseCallback(%q) err = %v", bad, err)
		}
	}
}

func TestVerb(t *testing.T) {
	cb, _ := ParseCallback("ACT|LOCK|TOGGLE_SUBJECT|Biology:10")
	verb, rest := cb.Verb()
	if verb != "TOGGLE_SUBJECT" || rest != "Biology:10" {
		t.Errorf("Verb = %q %q", verb, rest)
	}
}

func TestBuilders(t *testing.T) {
	if got := Act("QUIZ", "REVIEW_2"); got != "ACT|QUIZ|REVIEW_2" {
		t.Errorf("Act = %q", got)
	}
	if got := Nav(Hub, ""); got != "NAV|SCR_HUB" {
		t.Errorf("Nav = %q", got)
	}
	if got := Ans(GamePresent, "C"); got != "ANS|SCR_GAME_PRES|C" {
		t.Errorf("Ans = %q", got)
	}
	for _, id := range []ID{AdminLocks, LockUnits, Admin} {
		if !id.IsAdmin() {
			t.Errorf("%s should be admin", id)
		}
	}
	if Hub.IsAdmin() || !QuizSummary.HoldsQuiz() || Hub.HoldsQuiz() {
		t.Error("screen classification")
	}
}
