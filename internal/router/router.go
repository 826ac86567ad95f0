// Package router applies screen transitions to a session, consulting the
// lock evaluator first.
package router

import (
	"context"

	"github.com/abhisek/cassini/internal/authz"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/session"
)

// Checker decides whether a transition is blocked.
type Checker interface {
	Check(ctx context.Context, actor authz.Actor, req locks.Request) locks.Decision
}

// Result describes the outcome of a transition.
type Result struct {
	// Ref is the screen to render. For a blocked transition it is the
	// unchanged current screen.
	Ref nav.Ref

	Blocked   bool
	Unchanged bool

	// Notice is the lock denial or admin bypass text, if any.
	Notice string
}

// Router mediates every change to a session's current screen and stack.
// It mutates the session in memory; the caller persists it.
type Router struct {
	checker Checker
	limit   int
}

// New creates a Router. A non-positive limit uses the default stack bound.
func New(checker Checker, limit int) *Router {
	if limit <= 0 {
		limit = session.DefaultStackLimit
	}
	return &Router{checker: checker, limit: limit}
}

// Limit returns the stack bound.
func (r *Router) Limit() int { return r.limit }

// Check runs the lock gate for an arbitrary action.
func (r *Router) Check(ctx context.Context, actor authz.Actor, action, target, param string, grade int) locks.Decision {
	if r.checker == nil {
		return locks.Decision{}
	}
	return r.checker.Check(ctx, actor, locks.Request{Action: action, Screen: target, Param: param, UserGrade: grade})
}

// Transition moves s to to. A blocked transition leaves s untouched. A
// transition to the current ref reports Unchanged.
func (r *Router) Transition(ctx context.Context, actor authz.Actor, s *session.Session, to nav.Ref, push bool, grade int) Result {
	d := r.Check(ctx, actor, "NAV", string(to.Screen), to.Param, grade)
	if d.Blocked {
		return Result{Ref: s.Current, Blocked: true, Notice: d.Notice()}
	}
	res := Result{Ref: to, Notice: d.Notice()}
	if s.Current.Equal(to) {
		res.Unchanged = true
		return res
	}
	r.Apply(s, to, push)
	return res
}

// Apply moves s to to without a lock check. Used for transitions that
// follow an already-checked action.
func (r *Router) Apply(s *session.Session, to nav.Ref, push bool) {
	if push {
		s.Push(to, r.limit)
	} else {
		s.Replace(to, r.limit)
	}
	if !to.Screen.HoldsQuiz() {
		s.ClearQuiz()
	}
}

// Back returns to the most recent stack entry, or home with an empty
// stack when there is none. Entries that have since been locked are
// skipped.
func (r *Router) Back(ctx context.Context, actor authz.Actor, s *session.Session, grade int) Result {
	for {
		prev, ok := s.Pop()
		if !ok {
			return r.Home(s)
		}
		d := r.Check(ctx, actor, "NAV", string(prev.Screen), prev.Param, grade)
		if d.Blocked {
			continue
		}
		r.Apply(s, prev, false)
		return Result{Ref: prev, Notice: d.Notice()}
	}
}

// Home resets s to the home screen and clears the stack.
func (r *Router) Home(s *session.Session) Result {
	unchanged := s.Current.Screen == nav.Home && s.Current.Param == "" && len(s.Stack) == 0
	s.Home()
	s.ClearQuiz()
	return Result{Ref: s.Current, Unchanged: unchanged}
}
