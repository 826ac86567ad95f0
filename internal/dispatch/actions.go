package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/quiz"
	"github.com/abhisek/cassini/internal/session"
)

func (a *action) navigate(ctx context.Context, cb nav.Callback) error {
	r := a.d.Router
	if cb.Target == nav.BackTarget {
		res := r.Back(ctx, a.actor, a.sess, a.user.Grade)
		a.notice = res.Notice
		return nil
	}

	to := nav.Ref{Screen: nav.ID(cb.Target), Param: cb.Param}
	if to.Screen.IsAdmin() && !a.actor.Admin {
		a.notice = NoticeAdminOnly
		return nil
	}

	switch to.Screen {
	case nav.QuizPresent:
		if unit, ok := curriculum.FindUnitID(cb.Param); ok {
			return a.startUnit(ctx, to, unit)
		}
	}

	res := r.Transition(ctx, a.actor, a.sess, to, true, a.user.Grade)
	a.notice = res.Notice
	if to.Screen == nav.SpeedrunHub && !res.Blocked && a.sess.Setup == nil {
		setup := quiz.DefaultSpeedrunSetup()
		a.sess.Setup = &setup
	}
	if to.Screen == nav.Units && !res.Blocked {
		return a.syncGrade(ctx, curriculum.ParseContext(cb.Param))
	}
	return nil
}

// startUnit opens a fresh standard run for unit, or resumes the one in
// progress when it is for the same unit.
func (a *action) startUnit(ctx context.Context, to nav.Ref, unit curriculum.UnitID) error {
	if a.blocked(a.d.Router.Check(ctx, a.actor, "NAV", string(to.Screen), to.Param, a.user.Grade)) {
		return nil
	}
	if st, ok := a.sess.Quiz.(*quiz.Standard); ok && !st.Random && !st.Completed && st.UnitID() == unit {
		a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.QuizPresent}, true)
		return nil
	}
	st, err := a.d.Engine.StartUnit(ctx, unit)
	if err != nil {
		return err
	}
	a.show(st, true)
	return nil
}

// syncGrade moves the user to the grade they just browsed to.
func (a *action) syncGrade(ctx context.Context, c curriculum.Context) error {
	if !c.HasGrade() || c.Grade == a.user.Grade || !curriculum.ValidGrade(c.Grade) {
		return nil
	}
	a.effects = true
	u, err := a.d.Tracker.SetGrade(ctx, a.user.ID, c.Grade)
	if err != nil {
		return err
	}
	a.user = u
	return nil
}

func (a *action) act(ctx context.Context, cb nav.Callback) error {
	if cb.Target == "LOCK" {
		return a.lock(ctx, cb)
	}
	if a.blocked(a.d.Router.Check(ctx, a.actor, "ACT", cb.Target, cb.Param, a.user.Grade)) {
		return nil
	}
	switch cb.Target {
	case "QUIZ":
		return a.quizAction(ctx, cb)
	case "SPEEDRUN":
		return a.speedrun(ctx, cb)
	case "SURVIVAL":
		verb, rest := cb.Verb()
		if verb != "START" {
			break
		}
		c := a.context(rest)
		if !c.HasSubject() {
			return fmt.Errorf("%w: survival without subject", ErrUnknownAction)
		}
		st, err := a.d.Engine.StartSurvival(ctx, c.SubjectCode, c.Grade)
		if err != nil {
			return err
		}
		a.show(st, true)
		return nil
	case "GAME":
		return a.game(ctx, cb)
	case "MP":
		return a.multiplayer(ctx, cb)
	case "REPORT_OPTIONS":
		return a.report(ctx, cb.Param)
	case "SET":
		return a.settings(ctx, cb)
	case "RANK":
		scope := progress.ScopeGlobal
		if cb.Param == "SWITCH_WEEKLY" {
			scope = progress.ScopeWeekly
		}
		a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.Ranking, Param: string(scope)}, false)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
}

// context parses a content param, defaulting the grade to the user's.
func (a *action) context(param string) curriculum.Context {
	c := curriculum.ParseContext(param)
	if !c.HasGrade() {
		c = c.WithGrade(a.user.Grade)
	}
	return c
}

func (a *action) quizAction(ctx context.Context, cb nav.Callback) error {
	e := a.d.Engine
	uid := a.user.ID
	verb, rest := cb.Verb()

	switch verb {
	case "LOAD_NEXT", "SKIP", "PIN":
		a.effects = true
	}

	switch verb {
	case "LOAD_NEXT":
		out, err := e.Next(ctx, uid, a.sess.Quiz)
		if err != nil {
			return err
		}
		return a.advance(out)
	case "SKIP":
		out, err := e.Skip(ctx, uid, a.sess.Quiz)
		if err != nil {
			return err
		}
		return a.advance(out)
	case "PIN":
		if _, err := e.Pin(ctx, uid, a.sess.Quiz); err != nil {
			return err
		}
		a.notice = NoticePinned
		return nil
	case "FLAG":
		if a.sess.Quiz == nil {
			return quiz.ErrNoActiveQuiz
		}
		a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.ReportOptions}, true)
		return nil
	case "LOAD_NEW_BATCH":
		st, err := e.NextBatch(ctx, a.sess.Quiz)
		if errors.Is(err, quiz.ErrNoMore) {
			return a.backToUnits()
		}
		if err != nil {
			return err
		}
		a.show(st, false)
		return nil
	case "LOAD_NEXT_PART":
		st, err := e.NextPart(ctx, a.sess.Quiz)
		if errors.Is(err, quiz.ErrNoMore) {
			base := a.sess.Quiz.Base()
			a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.ReviewHub, Param: base.Context().String()}, false)
			return nil
		}
		if err != nil {
			return err
		}
		a.show(st, false)
		return nil
	case "REPLAY":
		st, err := e.Replay(ctx, a.sess.Quiz)
		if err != nil {
			return err
		}
		a.show(st, false)
		return nil
	case "START_RANDOM_QUIZ":
		grade := a.user.Grade
		if g, err := strconv.Atoi(rest); err == nil && curriculum.ValidGrade(g) {
			grade = g
		}
		st, err := e.StartRandom(ctx, grade)
		if err != nil {
			return err
		}
		a.show(st, true)
		return nil
	case "REVIEW_MISTAKES", "REVIEW_SKIPPED", "REVIEW_PINNED":
		c := a.context(rest)
		kind := quiz.ReviewKind(strings.TrimPrefix(verb, "REVIEW_"))
		st, err := e.StartSmartReview(ctx, uid, kind, c.SubjectCode, c.Grade)
		if err != nil {
			return err
		}
		a.show(st, true)
		return nil
	}

	if n, ok := strings.CutPrefix(verb, "REVIEW_"); ok {
		part, err := strconv.Atoi(n)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
		}
		c := a.context(rest)
		if !c.HasSubject() {
			return fmt.Errorf("%w: review part without subject", ErrUnknownAction)
		}
		st, err := e.StartReviewPart(ctx, c.SubjectCode, c.Grade, part)
		if err != nil {
			return err
		}
		a.show(st, true)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
}

// advance moves to the next question screen or, when the run is done, to
// its summary.
func (a *action) advance(out quiz.Outcome) error {
	st := a.sess.Quiz
	if out.Done {
		a.finish(st)
		return nil
	}
	a.d.Router.Apply(a.sess, nav.Ref{Screen: presentScreen(st)}, false)
	return nil
}

func (a *action) backToUnits() error {
	base := a.sess.Quiz.Base()
	param := fmt.Sprintf("%s:Grade %d", base.SubjectCode, base.Grade)
	a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.Units, Param: param}, false)
	return nil
}

func (a *action) answer(ctx context.Context, cb nav.Callback) error {
	st := a.sess.Quiz
	if st == nil {
		return quiz.ErrNoActiveQuiz
	}
	if a.blocked(a.d.Router.Check(ctx, a.actor, "ANS", string(presentScreen(st)), answerContext(st).String(), a.user.Grade)) {
		return nil
	}
	a.effects = true
	out, err := a.d.Engine.Answer(ctx, a.user.ID, st, cb.Param)
	if err != nil {
		return err
	}
	if out.TimedOut {
		a.notice = NoticeTimeUp
	}
	switch {
	case out.Done:
		a.finish(st)
	case quiz.IsGame(st):
		a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.GamePresent}, false)
	default:
		a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.QuizFeedback}, false)
	}
	return nil
}

// answerContext is the content an answer touches: the run's own context,
// narrowed to the current question's unit when the run spans units.
func answerContext(st quiz.State) curriculum.Context {
	base := st.Base()
	c := base.Context()
	if c.HasUnit() {
		return c
	}
	if q, ok := base.Current(); ok {
		if id, ok := q.Unit(); ok {
			return curriculum.Context{SubjectCode: id.SubjectCode, Grade: id.Grade, Unit: id.Unit}
		}
	}
	return c
}

// report flags the current question and moves past it.
func (a *action) report(ctx context.Context, reason string) error {
	st := a.sess.Quiz
	if st == nil {
		return quiz.ErrNoActiveQuiz
	}
	q, ok := st.Base().Current()
	if !ok {
		return quiz.ErrNoActiveQuiz
	}
	a.effects = true
	if _, err := a.d.Reporter.Report(ctx, a.user.ID, q.ID, reason); err != nil {
		return err
	}
	a.notice = NoticeReported

	// Drop the entry pushed when the report screen opened.
	a.sess.Pop()

	var out quiz.Outcome
	var err error
	if quiz.AwaitingNext(st) {
		out, err = a.d.Engine.Next(ctx, a.user.ID, st)
	} else {
		out, err = a.d.Engine.Skip(ctx, a.user.ID, st)
	}
	if err != nil {
		return err
	}
	return a.advance(out)
}

func (a *action) speedrun(ctx context.Context, cb nav.Callback) error {
	setup := quiz.DefaultSpeedrunSetup()
	if a.sess.Setup != nil {
		setup = *a.sess.Setup
	}
	verb, rest := cb.Verb()
	switch verb {
	case "DUR", "CNT":
		n, err := strconv.Atoi(rest)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
		}
		if verb == "DUR" {
			setup.DurationMinutes = n
		} else {
			setup.Count = n
		}
		setup = setup.Normalize()
		a.sess.Setup = &setup
		a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.SpeedrunHub}, false)
		return nil
	case "SUBJ":
		setup.Subject = rest
		setup = setup.Normalize()
		a.sess.Setup = &setup
		st, err := a.d.Engine.StartSpeedrun(ctx, a.user.Grade, setup)
		if err != nil {
			return err
		}
		a.show(st, true)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
}

func (a *action) game(ctx context.Context, cb nav.Callback) error {
	switch cb.Param {
	case "REPLAY":
		if !quiz.IsGame(a.sess.Quiz) {
			return quiz.ErrNoActiveQuiz
		}
		st, err := a.d.Engine.Replay(ctx, a.sess.Quiz)
		if err != nil {
			return err
		}
		a.show(st, false)
		return nil
	case "CHECK":
		// settle does the work.
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
}

func (a *action) multiplayer(ctx context.Context, cb nav.Callback) error {
	verb, rest := cb.Verb()
	switch verb {
	case "GENERATE":
		a.effects = true
		inv, err := a.d.Engine.CreateInvite(ctx, a.user.ID, rest, a.user.Grade)
		if err != nil {
			return err
		}
		a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.MultiplayerReady, Param: inv.ID}, true)
		return nil
	case "JOIN":
		st, err := a.d.Engine.StartChallenge(ctx, rest)
		if err != nil {
			return err
		}
		a.show(st, true)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
}

func (a *action) settings(ctx context.Context, cb nav.Callback) error {
	a.effects = true
	verb, rest := cb.Verb()
	switch verb {
	case "UPDATE_GRADE", "ONBOARD_GRADE":
		g, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
		}
		u, err := a.d.Tracker.SetGrade(ctx, a.user.ID, g)
		if err != nil {
			return err
		}
		a.user = u
		if verb == "ONBOARD_GRADE" {
			a.d.Router.Home(a.sess)
			return nil
		}
		a.d.Router.Apply(a.sess, nav.Ref{Screen: nav.ProfileSettings}, false)
		return nil
	case "RESET_CONFIRM":
		if err := a.d.Tracker.Reset(ctx, a.user.ID); err != nil {
			return err
		}
		if err := a.d.Sessions.Delete(ctx, a.user.ID); err != nil {
			return err
		}
		fresh := session.New(a.user.ID)
		fresh.LastMessageID = a.sess.LastMessageID
		*a.sess = *fresh
		a.d.Router.Home(a.sess)
		a.notice = "Your progress has been reset."
		if u, err := a.d.Tracker.User(ctx, a.user.ID); err == nil {
			a.user = u
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
}

func (a *action) lock(ctx context.Context, cb nav.Callback) error {
	if !a.actor.Admin {
		a.notice = NoticeAdminOnly
		return nil
	}
	verb, target := cb.Verb()
	var typ locks.Type
	switch verb {
	case "TOGGLE_FEATURE":
		typ = locks.TypeFeature
	case "TOGGLE_SUBJECT":
		typ = locks.TypeSubject
	case "TOGGLE_UNIT":
		typ = locks.TypeUnit
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, cb)
	}
	a.effects = true
	l, err := a.d.Registry.Toggle(ctx, a.actor.UserID, typ, target, "")
	if err != nil {
		return err
	}
	state := "unlocked"
	if l.Locked {
		state = "locked"
	}
	a.notice = fmt.Sprintf("%s %s %s.", strings.ToLower(string(l.Type)), l.Target, state)
	a.d.Log.Info("lock toggled", "admin_id", a.actor.UserID, "type", l.Type, "target", l.Target, "locked", l.Locked)
	return nil
}
