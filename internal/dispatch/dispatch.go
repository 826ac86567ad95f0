// Package dispatch runs inbound user actions against a session: one
// action per user at a time, one load and at most one save per action.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/cassini/internal/authz"
	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/logger"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/present"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/quiz"
	"github.com/abhisek/cassini/internal/review"
	"github.com/abhisek/cassini/internal/router"
	"github.com/abhisek/cassini/internal/session"
)

// Notices shown to users. Internal errors never reach them.
const (
	NoticeNoContent = "No questions are available for this selection yet."
	NoticeStale     = "That quiz is no longer active."
	NoticeRetry     = "Something went wrong. Please try again."
	NoticeAdminOnly = "Only administrators can do that."
	NoticePinned    = "Pinned for review."
	NoticeReported  = "Thanks, the question was reported."
	NoticeTimeUp    = "Time's up!"
)

var ErrUnknownAction = errors.New("unknown action")

// Request is one inbound action.
type Request struct {
	UserID    int64
	Name      string
	Data      string
	MessageID int64
}

// Deps wires a Dispatcher.
type Deps struct {
	Sessions  session.Store
	Locker    *session.Locker
	Router    *router.Router
	Engine    *quiz.Engine
	Tracker   *progress.Tracker
	Reporter  *review.Reporter
	Registry  *locks.Registry
	Presenter *present.Presenter
	Admins    authz.Admins
	Log       *logger.Logger
	Timeout   time.Duration
}

// Dispatcher is the single-writer action pipeline.
type Dispatcher struct {
	Deps
}

// New creates a Dispatcher.
func New(d Deps) *Dispatcher {
	if d.Locker == nil {
		d.Locker = session.NewLocker()
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	d.Log = d.Log.With("component", "dispatch")
	return &Dispatcher{Deps: d}
}

func (d *Dispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.Timeout)
}

// Handle applies req and renders the resulting screen. Blocked, empty and
// stale actions come back as a view with a notice; an error is returned
// only when the session could not be loaded or saved.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (present.View, error) {
	unlock := d.Locker.Lock(req.UserID)
	defer unlock()

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	d.Log.Debug("dispatch", "user_id", req.UserID, "data", req.Data)

	user, err := d.Tracker.EnsureUser(ctx, req.UserID, req.Name)
	if err != nil {
		return present.View{}, err
	}
	actor := d.Admins.Resolve(req.UserID)

	sess, err := d.Sessions.GetOrCreate(ctx, req.UserID)
	if err != nil {
		return present.View{}, fmt.Errorf("load session: %w", err)
	}
	a, before, dirty := d.apply(ctx, actor, user, sess, req)
	if !dirty {
		return d.render(ctx, actor, a.user, sess, a.notice, a.notice == "")
	}

	err = d.Sessions.Save(ctx, sess)
	if errors.Is(err, session.ErrVersionConflict) {
		d.Log.Warn("session version conflict, retrying", "user_id", req.UserID)
		a, sess, err = d.retry(ctx, actor, req, a, sess, before)
		if errors.Is(err, session.ErrVersionConflict) {
			d.Log.Warn("session version conflict after retry", "user_id", req.UserID)
			return d.render(ctx, actor, a.user, sess, NoticeRetry, false)
		}
	}
	if err != nil {
		return present.View{}, fmt.Errorf("save session: %w", err)
	}
	return d.render(ctx, actor, a.user, sess, a.notice, false)
}

// apply runs req against sess and reports the pre-action fingerprint and
// whether sess needs saving.
func (d *Dispatcher) apply(ctx context.Context, actor authz.Actor, user progress.User, sess *session.Session, req Request) (*action, []byte, bool) {
	before := d.fingerprint(sess)
	a := &action{d: d, actor: actor, user: user, sess: sess}
	a.run(ctx, req.Data)
	a.settle(ctx)
	if req.MessageID != 0 && sess.LastMessageID != req.MessageID {
		sess.LastMessageID = req.MessageID
	}
	after := d.fingerprint(sess)
	dirty := before == nil || after == nil || !bytes.Equal(before, after) || sess.Version == 0
	return a, before, dirty
}

// retry handles one version conflict against freshly loaded state. An
// action that wrote nothing outside the session simply runs again. One
// that did (attempts, review items, XP, locks) must not run twice: its
// result is saved over the fresh session only when that session still
// holds the state the action started from, and otherwise the fresh
// session is returned with a conflict.
func (d *Dispatcher) retry(ctx context.Context, actor authz.Actor, req Request, a *action, done *session.Session, before []byte) (*action, *session.Session, error) {
	fresh, err := d.Sessions.GetOrCreate(ctx, req.UserID)
	if err != nil {
		return a, done, fmt.Errorf("reload session: %w", err)
	}
	user := a.user
	if u, err := d.Tracker.User(ctx, req.UserID); err == nil {
		user = u
	}

	if !a.effects {
		next, _, dirty := d.apply(ctx, actor, user, fresh, req)
		if !dirty {
			return next, fresh, nil
		}
		return next, fresh, d.Sessions.Save(ctx, fresh)
	}

	a.user = user
	if fp := d.fingerprint(fresh); before == nil || fp == nil || !bytes.Equal(fp, before) {
		return a, fresh, fmt.Errorf("session %d changed under an applied action: %w", req.UserID, session.ErrVersionConflict)
	}
	done.Version = fresh.Version
	return a, done, d.Sessions.Save(ctx, done)
}

// Current renders the user's screen without applying anything.
func (d *Dispatcher) Current(ctx context.Context, userID int64, name string) (present.View, error) {
	unlock := d.Locker.Lock(userID)
	defer unlock()

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	user, err := d.Tracker.EnsureUser(ctx, userID, name)
	if err != nil {
		return present.View{}, err
	}
	sess, err := d.Sessions.GetOrCreate(ctx, userID)
	if err != nil {
		return present.View{}, fmt.Errorf("load session: %w", err)
	}
	return d.render(ctx, d.Admins.Resolve(userID), user, sess, "", false)
}

func (d *Dispatcher) render(ctx context.Context, actor authz.Actor, user progress.User, sess *session.Session, notice string, unchanged bool) (present.View, error) {
	v, err := d.Presenter.Render(ctx, actor, user, sess)
	if err != nil {
		d.Log.Error("render failed", "user_id", user.ID, "screen", sess.Current.Screen, "error", err)
		v = present.View{Screen: sess.Current.Screen, Param: sess.Current.Param, Title: string(sess.Current.Screen)}
		if notice == "" {
			notice = NoticeRetry
		}
	}
	v.Notice = notice
	v.Unchanged = unchanged
	return v, nil
}

// fingerprint captures every persisted field an action can change. It
// returns nil when the session cannot be encoded, which callers treat as
// dirty so the save reports the failure.
func (d *Dispatcher) fingerprint(s *session.Session) []byte {
	q, err := quiz.Encode(s.Quiz)
	if err != nil {
		d.Log.Error("encoding quiz state for fingerprint failed", "user_id", s.UserID, "error", err)
		return nil
	}
	b, err := json.Marshal(struct {
		Current nav.Ref
		Stack   []nav.Ref
		Quiz    []byte
		Setup   *quiz.SpeedrunSetup
	}{s.Current, s.Stack, q, s.Setup})
	if err != nil {
		d.Log.Error("encoding session fingerprint failed", "user_id", s.UserID, "error", err)
		return nil
	}
	return b
}

// action carries the state of one dispatched callback.
type action struct {
	d      *Dispatcher
	actor  authz.Actor
	user   progress.User
	sess   *session.Session
	notice string

	// effects is set once the action has written outside the session.
	effects bool
}

func (a *action) run(ctx context.Context, data string) {
	cb, err := nav.ParseCallback(data)
	if err != nil {
		a.d.Log.Warn("bad callback", "user_id", a.actor.UserID, "data", data)
		a.notice = NoticeRetry
		return
	}

	switch cb.Kind {
	case nav.KindNav:
		err = a.navigate(ctx, cb)
	case nav.KindAct:
		err = a.act(ctx, cb)
	case nav.KindAns:
		err = a.answer(ctx, cb)
	}
	a.fail(err)
}

// fail maps an action error to a notice.
func (a *action) fail(err error) {
	switch {
	case err == nil:
	case errors.Is(err, curriculum.ErrContentNotFound):
		a.notice = NoticeNoContent
	case errors.Is(err, quiz.ErrNoActiveQuiz):
		a.d.Router.Home(a.sess)
		a.notice = NoticeStale
	case errors.Is(err, quiz.ErrAwaitingNext), errors.Is(err, quiz.ErrInvalidOption):
		// Re-render the current screen.
	case errors.Is(err, ErrUnknownAction), errors.Is(err, locks.ErrInvalidTarget),
		errors.Is(err, progress.ErrInvalidGrade), errors.Is(err, quiz.ErrUnsupportedMode):
		a.d.Log.Warn("rejected action", "user_id", a.actor.UserID, "error", err)
		a.notice = NoticeRetry
	default:
		a.d.Log.Error("action failed", "user_id", a.actor.UserID, "screen", a.sess.Current.Screen, "error", err)
		a.notice = NoticeRetry
	}
}

func (a *action) blocked(d locks.Decision) bool {
	if d.Blocked {
		a.notice = d.Notice()
		return true
	}
	if n := d.Notice(); n != "" {
		a.notice = n
	}
	return false
}

// show moves to the screen that presents st.
func (a *action) show(st quiz.State, push bool) {
	a.sess.Quiz = st
	a.d.Router.Apply(a.sess, nav.Ref{Screen: presentScreen(st)}, push)
}

// finish moves to st's summary screen.
func (a *action) finish(st quiz.State) {
	a.d.Router.Apply(a.sess, nav.Ref{Screen: summaryScreen(st)}, false)
}

func presentScreen(st quiz.State) nav.ID {
	if quiz.IsGame(st) {
		return nav.GamePresent
	}
	return nav.QuizPresent
}

func summaryScreen(st quiz.State) nav.ID {
	switch s := st.(type) {
	case *quiz.Standard:
		if s.Random {
			return nav.RandomSummary
		}
		return nav.QuizSummary
	case *quiz.Review:
		return nav.ReviewSummary
	}
	return nav.GameSummary
}

// settle re-validates quiz screens after the action: an expired or
// finished run moves to its summary and a quiz screen without a quiz
// goes home.
func (a *action) settle(ctx context.Context) {
	cur := a.sess.Current.Screen
	if !cur.HoldsQuiz() {
		return
	}
	st := a.sess.Quiz
	if st == nil {
		a.d.Router.Home(a.sess)
		if a.notice == "" {
			a.notice = NoticeStale
		}
		return
	}
	if cur != nav.QuizPresent && cur != nav.GamePresent {
		return
	}
	out, err := a.d.Engine.Refresh(ctx, a.actor.UserID, st)
	if err != nil {
		a.fail(err)
		return
	}
	if out.Done {
		a.effects = true
		if out.TimedOut && a.notice == "" {
			a.notice = NoticeTimeUp
		}
		a.finish(st)
	}
}
