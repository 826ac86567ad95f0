// Package session holds the durable per-user record of navigation
// position and in-progress quiz state.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/quiz"
)

// DefaultStackLimit bounds the navigation stack.
const DefaultStackLimit = 10

var ErrVersionConflict = errors.New("session was modified concurrently")

// Session is one user's navigation and quiz state. It is the single
// source of truth every action reads and writes.
type Session struct {
	UserID        int64
	Current       nav.Ref
	Stack         []nav.Ref
	LastMessageID int64
	Quiz          quiz.State
	Setup         *quiz.SpeedrunSetup
	Version       int64
	UpdatedAt     time.Time
}

// New returns the session a user starts with.
func New(userID int64) *Session {
	return &Session{UserID: userID, Current: nav.Ref{Screen: nav.Welcome}}
}

// Push records the current ref on the stack and moves to to. Nothing is
// pushed when to names the current screen.
func (s *Session) Push(to nav.Ref, limit int) {
	if !s.Current.IsZero() && s.Current.Screen != to.Screen {
		s.Stack = append(s.Stack, s.Current)
	}
	s.Current = to
	s.Normalize(limit)
}

// Replace moves to to without touching the stack.
func (s *Session) Replace(to nav.Ref, limit int) {
	s.Current = to
	s.Normalize(limit)
}

// Pop removes and returns the most recent stack entry.
func (s *Session) Pop() (nav.Ref, bool) {
	if len(s.Stack) == 0 {
		return nav.Ref{}, false
	}
	top := s.Stack[len(s.Stack)-1]
	s.Stack = s.Stack[:len(s.Stack)-1]
	return top, true
}

// Home resets to the home screen with an empty stack.
func (s *Session) Home() {
	s.Current = nav.Ref{Screen: nav.Home}
	s.Stack = nil
}

// Normalize restores the stack invariants: entries equal to the current
// ref are dropped from the top and at most limit entries are kept, oldest
// dropped first.
func (s *Session) Normalize(limit int) {
	if limit <= 0 {
		limit = DefaultStackLimit
	}
	for n := len(s.Stack); n > 0 && s.Stack[n-1].Equal(s.Current); n = len(s.Stack) {
		s.Stack = s.Stack[:n-1]
	}
	if over := len(s.Stack) - limit; over > 0 {
		s.Stack = append([]nav.Ref(nil), s.Stack[over:]...)
	}
}

// ClearQuiz drops any in-progress quiz.
func (s *Session) ClearQuiz() { s.Quiz = nil }

// Store persists sessions. Save is atomic and optimistic: it fails with
// ErrVersionConflict when the stored version differs from s.Version, and
// bumps s.Version on success.
type Store interface {
	GetOrCreate(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}
