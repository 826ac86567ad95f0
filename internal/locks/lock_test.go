package locks

import (
	"errors"
	"testing"

	"github.com/abhisek/cassini/internal/curriculum"
)

func l2u(s string) curriculum.UnitID {
	id, _ := curriculum.FindUnitID(s)
	return id
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		typ     Type
		target  string
		want    string
		wantErr bool
	}{
		{TypeFeature, "leaderboard", FeatureLeaderboard, false},
		{TypeFeature, "TELEPORT", "", true},
		{TypeSubject, "Biology:10", "Biology:10", false},
		{TypeSubject, "BIO:Grade 10", "Biology:10", false},
		{TypeSubject, "Biology", "", true},
		{TypeUnit, "BIO_G12_U1", "BIO_G12_U1", false},
		{TypeUnit, "PHYS:G9:U3", "PHYS_G9_U3", false},
		{TypeUnit, "PHYS:G9", "", true},
		{Type("GRADE"), "9", "", true},
	}
	for _, tt := range tests {
		k, err := NormalizeKey(tt.typ, tt.target)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTarget) {
				t.Errorf("NormalizeKey(%s, %q) err = %v, want ErrInvalidTarget", tt.typ, tt.target, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeKey(%s, %q): %v", tt.typ, tt.target, err)
			continue
		}
		if k.Target != tt.want {
			t.Errorf("NormalizeKey(%s, %q) = %q, want %q", tt.typ, tt.target, k.Target, tt.want)
		}
	}
}

func TestSetExcludes(t *testing.T) {
	s := NewSet([]Lock{
		{Type: TypeSubject, Target: "Physics:11", Locked: true},
		{Type: TypeUnit, Target: "MATH_G12_U2", Locked: true},
	})
	cases := map[string]bool{
		"PHYS_G11_U1": true,
		"PHYS_G12_U1": false,
		"MATH_G12_U2": true,
		"MATH_G12_U3": false,
	}
	for id, want := range cases {
		if got := s.Excludes(l2u(id)); got != want {
			t.Errorf("Excludes(%s) = %v, want %v", id, got, want)
		}
	}
	if len(s.All()) != 2 {
		t.Errorf("All() = %v", s.All())
	}
}
