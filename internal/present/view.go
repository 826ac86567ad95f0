// Package present builds the variable bag and buttons for a screen. It
// produces data only; transports decide how to draw it.
package present

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/cassini/internal/authz"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/review"
	"github.com/abhisek/cassini/internal/session"
)

// Button is one selectable option. Data is the callback dispatched when
// it is chosen.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Var is one named screen variable.
type Var struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// View is a rendered screen reference.
type View struct {
	Screen    nav.ID     `json:"screen"`
	Param     string     `json:"param,omitempty"`
	Title     string     `json:"title"`
	Vars      []Var      `json:"vars"`
	Buttons   [][]Button `json:"buttons"`
	Notice    string     `json:"notice,omitempty"`
	Unchanged bool       `json:"unchanged,omitempty"`
}

// Get returns the value of key, or "".
func (v *View) Get(key string) string {
	for _, kv := range v.Vars {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

func (v *View) set(key string, val any) {
	s := fmt.Sprint(val)
	for i := range v.Vars {
		if v.Vars[i].Key == key {
			v.Vars[i].Value = s
			return
		}
	}
	v.Vars = append(v.Vars, Var{Key: key, Value: s})
}

func (v *View) row(btns ...Button) {
	if len(btns) > 0 {
		v.Buttons = append(v.Buttons, btns)
	}
}

// column adds each button on its own row.
func (v *View) column(btns ...Button) {
	for _, b := range btns {
		v.row(b)
	}
}

func btn(label, data string) Button { return Button{Label: label, Data: data} }

func backButton() Button { return btn("Back", nav.Back()) }

func homeButton() Button { return btn("Home", nav.Nav(nav.Home, "")) }

// Profiles reads user-level progress.
type Profiles interface {
	Records(ctx context.Context, userID int64) ([]progress.Record, error)
	Leaderboard(ctx context.Context, scope progress.Scope, limit int) ([]progress.User, error)
}

// ReviewCounts reads review queue sizes.
type ReviewCounts interface {
	Counts(ctx context.Context, userID int64, f review.Filter) (review.Counts, error)
}

// Units lists the units available for a subject and grade.
type Units interface {
	ListUnits(subject string, grade int) ([]int, error)
}

// Flags lists reported questions.
type Flags interface {
	Flags(ctx context.Context, limit int) ([]review.Flag, error)
}

// LockLister reads lock rows and the active set.
type LockLister interface {
	locks.Source
	List(ctx context.Context) ([]locks.Lock, error)
}

// Deps are the read-only collaborators a Presenter draws from.
type Deps struct {
	Profiles Profiles
	Reviews  ReviewCounts
	Units    Units
	Flags    Flags
	Locks    LockLister
	Now      func() time.Time
}

// Presenter renders sessions into views.
type Presenter struct {
	d Deps
}

// New creates a Presenter.
func New(d Deps) *Presenter {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Presenter{d: d}
}

// LeaderboardSize is the number of ranked users shown.
const LeaderboardSize = 10

// Render builds the view for the session's current screen.
func (p *Presenter) Render(ctx context.Context, actor authz.Actor, user progress.User, s *session.Session) (View, error) {
	v := View{Screen: s.Current.Screen, Param: s.Current.Param, Title: titleOf(s.Current.Screen)}
	r := renderers[s.Current.Screen]
	if r == nil {
		r = (*Presenter).renderUnknown
	}
	if err := r(p, ctx, &rc{actor: actor, user: user, sess: s}, &v); err != nil {
		return View{}, err
	}
	if len(v.Buttons) == 0 {
		v.row(homeButton())
	}
	return v, nil
}

// rc is the per-render context handed to screen renderers.
type rc struct {
	actor authz.Actor
	user  progress.User
	sess  *session.Session
}

func (c *rc) param() string { return c.sess.Current.Param }

type renderer func(p *Presenter, ctx context.Context, c *rc, v *View) error

var renderers map[nav.ID]renderer

func init() {
	renderers = map[nav.ID]renderer{
		nav.Welcome:          (*Presenter).renderWelcome,
		nav.Hub:              (*Presenter).renderHub,
		nav.Subjects:         (*Presenter).renderSubjects,
		nav.Grades:           (*Presenter).renderGrades,
		nav.Units:            (*Presenter).renderUnits,
		nav.QuizPresent:      (*Presenter).renderQuestion,
		nav.GamePresent:      (*Presenter).renderQuestion,
		nav.QuizFeedback:     (*Presenter).renderFeedback,
		nav.QuizSummary:      (*Presenter).renderSummary,
		nav.ReviewSummary:    (*Presenter).renderSummary,
		nav.RandomSummary:    (*Presenter).renderSummary,
		nav.GameSummary:      (*Presenter).renderSummary,
		nav.ReviewHub:        (*Presenter).renderReviewHub,
		nav.RandomSetup:      (*Presenter).renderRandomSetup,
		nav.GameMode:         (*Presenter).renderGameMode,
		nav.SpeedrunHub:      (*Presenter).renderSpeedrunHub,
		nav.SpeedrunSetup:    (*Presenter).renderSpeedrunDurations,
		nav.SpeedrunCounts:   (*Presenter).renderSpeedrunCounts,
		nav.SpeedrunSubjects: (*Presenter).renderSpeedrunSubjects,
		nav.SurvivalSetup:    (*Presenter).renderSurvivalSetup,
		nav.MultiplayerHub:   (*Presenter).renderMultiplayerHub,
		nav.MultiplayerSubj:  (*Presenter).renderMultiplayerSubjects,
		nav.MultiplayerReady: (*Presenter).renderInviteReady,
		nav.Invites:          (*Presenter).renderInvites,
		nav.Ranking:          (*Presenter).renderRanking,
		nav.Stats:            (*Presenter).renderStats,
		nav.Settings:         (*Presenter).renderSettings,
		nav.ProfileSettings:  (*Presenter).renderProfileSettings,
		nav.GradeSelect:      (*Presenter).renderGradeSelect,
		nav.ReportOptions:    (*Presenter).renderReportOptions,
		nav.PDFVault:         (*Presenter).renderComingSoon,
		nav.AIChat:           (*Presenter).renderComingSoon,
		nav.Help:             (*Presenter).renderHelp,
		nav.Admin:            (*Presenter).renderAdmin,
		nav.AdminLocks:       (*Presenter).renderAdminLocks,
		nav.AdminFlags:       (*Presenter).renderAdminFlags,
		nav.LockFeatures:     (*Presenter).renderLockFeatures,
		nav.LockSubjects:     (*Presenter).renderLockSubjects,
		nav.LockUnits:        (*Presenter).renderLockUnits,
		nav.LockUnitList:     (*Presenter).renderLockUnitList,
	}
}

var titles = map[nav.ID]string{
	nav.Welcome:          "Welcome",
	nav.Hub:              "Home",
	nav.Subjects:         "Subjects",
	nav.Grades:           "Grades",
	nav.Units:            "Units",
	nav.QuizPresent:      "Quiz",
	nav.QuizFeedback:     "Answer",
	nav.QuizSummary:      "Quiz Complete",
	nav.ReviewSummary:    "Review Complete",
	nav.RandomSummary:    "Random Quiz Complete",
	nav.ReviewHub:        "Review Hub",
	nav.RandomSetup:      "Random Quiz",
	nav.GameMode:         "Advanced Practice",
	nav.SpeedrunHub:      "Speedrun",
	nav.SpeedrunSetup:    "Speedrun Duration",
	nav.SpeedrunCounts:   "Speedrun Questions",
	nav.SpeedrunSubjects: "Speedrun Subject",
	nav.SurvivalSetup:    "Survival",
	nav.GamePresent:      "Game",
	nav.GameSummary:      "Game Over",
	nav.MultiplayerHub:   "Practice With Friends",
	nav.MultiplayerSubj:  "New Challenge",
	nav.MultiplayerReady: "Challenge Ready",
	nav.Invites:          "Join Challenge",
	nav.Ranking:          "Leaderboard",
	nav.Stats:            "Stats",
	nav.Settings:         "Settings",
	nav.ProfileSettings:  "Profile",
	nav.GradeSelect:      "Change Grade",
	nav.ReportOptions:    "Report Question",
	nav.PDFVault:         "PDF Vault",
	nav.AIChat:           "AI Tutor",
	nav.Help:             "Help",
	nav.Admin:            "Admin",
	nav.AdminLocks:       "Locks",
	nav.AdminFlags:       "Flagged Questions",
	nav.LockFeatures:     "Feature Locks",
	nav.LockSubjects:     "Subject Locks",
	nav.LockUnits:        "Unit Locks",
	nav.LockUnitList:     "Unit Locks",
}

func titleOf(id nav.ID) string {
	if t, ok := titles[id]; ok {
		return t
	}
	return string(id)
}

func (p *Presenter) renderUnknown(_ context.Context, _ *rc, v *View) error {
	v.row(backButton(), homeButton())
	return nil
}
