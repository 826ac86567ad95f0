// Package locks holds administrator content locks and decides whether an
// attempted transition is blocked by one.
package locks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
)

// Type is the kind of thing a lock restricts.
type Type string

const (
	TypeFeature Type = "FEATURE"
	TypeSubject Type = "SUBJECT"
	TypeUnit    Type = "UNIT"
)

// Features that can be locked.
const (
	FeatureAdvancedPractice    = "ADVANCED_PRACTICE"
	FeatureReviewHub           = "REVIEW_HUB"
	FeaturePDFs                = "PDFS_AND_FILES"
	FeatureLeaderboard         = "LEADERBOARD"
	FeaturePracticeWithFriends = "PRACTICE_WITH_FRIENDS"
	FeatureAITutor             = "AI_TUTOR"
)

// AllFeatures lists lockable features in display order.
var AllFeatures = []string{
	FeatureAdvancedPractice,
	FeatureReviewHub,
	FeaturePDFs,
	FeatureLeaderboard,
	FeaturePracticeWithFriends,
	FeatureAITutor,
}

var ErrInvalidTarget = errors.New("invalid lock target")

// Lock is one administrator lock row.
type Lock struct {
	Type     Type
	Target   string
	Locked   bool
	LockedBy int64
	LockedAt time.Time
	Reason   string
}

// Key identifies a lock.
type Key struct {
	Type   Type
	Target string
}

// Repo persists locks.
type Repo interface {
	// ListActive returns every lock whose Locked flag is set.
	ListActive(ctx context.Context) ([]Lock, error)

	// List returns every lock row, active or not.
	List(ctx context.Context) ([]Lock, error)

	// Toggle flips the lock identified by key, creating it locked when absent.
	Toggle(ctx context.Context, key Key, by int64, reason string, at time.Time) (Lock, error)
}

// SubjectTarget renders the grade-qualified subject target, e.g. "Biology:10".
func SubjectTarget(subject string, grade int) string {
	return fmt.Sprintf("%s:%d", curriculum.SubjectName(subject), grade)
}

// NormalizeKey validates a lock key and rewrites its target into canonical
// form: feature names upper-cased, subjects as "Biology:10", units as
// "BIO_G10_U1".
func NormalizeKey(typ Type, target string) (Key, error) {
	target = strings.TrimSpace(target)
	switch typ {
	case TypeFeature:
		name := strings.ToUpper(target)
		for _, f := range AllFeatures {
			if f == name {
				return Key{Type: typ, Target: name}, nil
			}
		}
		return Key{}, fmt.Errorf("%w: unknown feature %q", ErrInvalidTarget, target)
	case TypeSubject:
		c := curriculum.ParseContext(target)
		if !c.HasSubject() || !c.HasGrade() {
			return Key{}, fmt.Errorf("%w: subject lock needs subject and grade, got %q", ErrInvalidTarget, target)
		}
		return Key{Type: typ, Target: SubjectTarget(c.SubjectCode, c.Grade)}, nil
	case TypeUnit:
		id := curriculum.ParseContext(target).UnitID()
		if id.IsZero() {
			return Key{}, fmt.Errorf("%w: unit lock needs CODE_G<n>_U<n>, got %q", ErrInvalidTarget, target)
		}
		return Key{Type: typ, Target: id.String()}, nil
	}
	return Key{}, fmt.Errorf("%w: unknown lock type %q", ErrInvalidTarget, typ)
}

// Set is an immutable snapshot of the active locks.
type Set struct {
	m map[Key]Lock
}

// NewSet builds a Set from rows, keeping only active ones.
func NewSet(rows []Lock) Set {
	m := make(map[Key]Lock, len(rows))
	for _, l := range rows {
		if l.Locked {
			m[Key{Type: l.Type, Target: l.Target}] = l
		}
	}
	return Set{m: m}
}

func (s Set) lookup(k Key) (Lock, bool) {
	l, ok := s.m[k]
	return l, ok
}

// Feature returns the active lock on a feature, if any.
func (s Set) Feature(name string) (Lock, bool) {
	return s.lookup(Key{Type: TypeFeature, Target: name})
}

// Subject returns the active lock on a subject within a grade, if any.
func (s Set) Subject(subject string, grade int) (Lock, bool) {
	return s.lookup(Key{Type: TypeSubject, Target: SubjectTarget(subject, grade)})
}

// Unit returns the active lock on a unit, if any.
func (s Set) Unit(id curriculum.UnitID) (Lock, bool) {
	return s.lookup(Key{Type: TypeUnit, Target: id.String()})
}

// Excludes reports whether content from unit id is hidden by a subject or
// unit lock. Used when building question pools.
func (s Set) Excludes(id curriculum.UnitID) bool {
	if _, ok := s.Subject(id.SubjectCode, id.Grade); ok {
		return true
	}
	_, ok := s.Unit(id)
	return ok
}

// Len returns the number of active locks.
func (s Set) Len() int { return len(s.m) }

// All returns the active locks sorted by type then target.
func (s Set) All() []Lock {
	out := make([]Lock, 0, len(s.m))
	for _, l := range s.m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Target < out[j].Target
	})
	return out
}
