package quiz

import (
	"strings"

	"github.com/abhisek/cassini/internal/curriculum"
)

// PoolMixed draws speedrun questions from every subject.
const PoolMixed = "MIXED"

// SpeedrunSetup is the pending configuration of a speedrun. It lives in
// the session next to, not inside, the quiz state.
type SpeedrunSetup struct {
	DurationMinutes int    `json:"dur"`
	Count           int    `json:"cnt"`
	Subject         string `json:"subj"`
}

// DefaultSpeedrunSetup returns the setup shown before any choice is made.
func DefaultSpeedrunSetup() SpeedrunSetup {
	return SpeedrunSetup{DurationMinutes: 30, Count: 30, Subject: PoolMixed}
}

// Normalize fills zero fields with defaults and canonicalizes the subject.
func (s SpeedrunSetup) Normalize() SpeedrunSetup {
	d := DefaultSpeedrunSetup()
	if s.DurationMinutes <= 0 {
		s.DurationMinutes = d.DurationMinutes
	}
	if s.Count <= 0 {
		s.Count = d.Count
	}
	if sub, ok := curriculum.LookupSubject(s.Subject); ok {
		s.Subject = sub.Code
	} else {
		s.Subject = PoolMixed
	}
	return s
}

// Subjects returns the subject codes the pool draws from.
func (s SpeedrunSetup) Subjects() []string {
	if s.Subject == "" || strings.EqualFold(s.Subject, PoolMixed) {
		codes := make([]string, 0, len(curriculum.Subjects))
		for _, sub := range curriculum.Subjects {
			codes = append(codes, sub.Code)
		}
		return codes
	}
	return []string{curriculum.SubjectCode(s.Subject)}
}
