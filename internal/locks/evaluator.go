package locks

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/cassini/internal/authz"
	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/logger"
	"github.com/abhisek/cassini/internal/nav"
)

// screenFeatures maps screens to the feature that gates them.
var screenFeatures = map[nav.ID]string{
	nav.GameMode:         FeatureAdvancedPractice,
	nav.SpeedrunHub:      FeatureAdvancedPractice,
	nav.SpeedrunSetup:    FeatureAdvancedPractice,
	nav.SpeedrunSubjects: FeatureAdvancedPractice,
	nav.SpeedrunCounts:   FeatureAdvancedPractice,
	nav.SurvivalSetup:    FeatureAdvancedPractice,
	nav.GamePresent:      FeatureAdvancedPractice,
	nav.ReviewHub:        FeatureReviewHub,
	nav.PDFVault:         FeaturePDFs,
	nav.Ranking:          FeatureLeaderboard,
	nav.MultiplayerHub:   FeaturePracticeWithFriends,
	nav.MultiplayerSubj:  FeaturePracticeWithFriends,
	nav.Invites:          FeaturePracticeWithFriends,
	nav.AIChat:           FeatureAITutor,
}

// actionFeatures maps ACT groups to the feature they exercise.
var actionFeatures = map[string]string{
	"SPEEDRUN": FeatureAdvancedPractice,
	"SURVIVAL": FeatureAdvancedPractice,
	"MP":       FeaturePracticeWithFriends,
}

// contentScreens fall back to the user's grade when the param has none.
var contentScreens = map[nav.ID]bool{
	nav.Units:            true,
	nav.QuizPresent:      true,
	nav.ReviewHub:        true,
	nav.SpeedrunSubjects: true,
	nav.SurvivalSetup:    true,
	nav.PDFVault:         true,
	nav.RandomSetup:      true,
}

// unitScreens carry a unit id worth checking against unit locks.
var unitScreens = map[nav.ID]bool{
	nav.QuizPresent: true,
	nav.PDFVault:    true,
	nav.GamePresent: true,
}

// contentActions are ACT groups whose params address curriculum content.
var contentActions = map[string]bool{
	"QUIZ":     true,
	"SPEEDRUN": true,
	"SURVIVAL": true,
	"FILE":     true,
}

// Request describes an attempted transition.
type Request struct {
	Action string // NAV, ACT or ANS
	Screen string // a screen id for NAV, an action group for ACT
	Param  string

	// UserGrade is the acting user's current grade, used when the param
	// carries none.
	UserGrade int
}

// Decision is the outcome of a lock check.
type Decision struct {
	Blocked bool
	Bypass  bool
	Reason  string
	Lock    *Lock
}

// Notice returns the text the caller should surface, or "" for none.
func (d Decision) Notice() string {
	switch {
	case d.Blocked:
		return "LOCKED: " + d.Reason
	case d.Bypass:
		return "LOCKED (Admin Bypass): " + d.Reason
	}
	return ""
}

// Evaluator checks requests against the active lock set.
type Evaluator struct {
	source Source
	log    *logger.Logger
}

// NewEvaluator creates an Evaluator reading locks from source.
func NewEvaluator(source Source, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{source: source, log: log.With("component", "locks")}
}

// Check decides whether req is blocked for actor. Any failure while
// evaluating is logged and treated as not locked.
func (e *Evaluator) Check(ctx context.Context, actor authz.Actor, req Request) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("lock check panicked, failing open", "user_id", actor.UserID, "screen", req.Screen, "panic", fmt.Sprint(r))
			d = Decision{}
		}
	}()

	if isExempt(req) {
		return Decision{}
	}

	set, err := e.source.Active(ctx)
	if err != nil {
		e.log.Error("lock check failed, failing open", "user_id", actor.UserID, "screen", req.Screen, "error", err)
		return Decision{}
	}
	if set.Len() == 0 {
		return Decision{}
	}

	lock, reason, found := match(set, req)
	if !found {
		return Decision{}
	}
	if actor.Admin {
		return Decision{Bypass: true, Reason: reason, Lock: &lock}
	}
	return Decision{Blocked: true, Reason: reason, Lock: &lock}
}

func isExempt(req Request) bool {
	if req.Action == "ACT" && (req.Screen == "LOCK" || req.Screen == "ADMIN") {
		return true
	}
	return nav.ID(req.Screen).IsAdmin()
}

// match walks feature, subject and unit locks in order; the first active
// lock wins.
func match(set Set, req Request) (Lock, string, bool) {
	screen := nav.ID(req.Screen)
	isAct := req.Action == "ACT"

	feature := screenFeatures[screen]
	if isAct {
		if f, ok := actionFeatures[req.Screen]; ok {
			feature = f
		}
		if req.Screen == "QUIZ" && strings.HasPrefix(req.Param, "REVIEW_") {
			feature = FeatureReviewHub
		}
	}
	if feature != "" {
		if l, ok := set.Feature(feature); ok {
			return l, fmt.Sprintf("%s is currently locked.", featureTitle(feature)), true
		}
	}

	ctx := curriculum.ParseContext(req.Param)
	if !ctx.HasGrade() && req.UserGrade > 0 && (contentScreens[screen] || (isAct && contentActions[req.Screen])) {
		ctx.Grade = req.UserGrade
	}

	if ctx.HasSubject() && ctx.HasGrade() {
		if l, ok := set.Subject(ctx.SubjectCode, ctx.Grade); ok {
			return l, fmt.Sprintf("%s for Grade %d is locked.", ctx.SubjectName(), ctx.Grade), true
		}
	}

	if unitScreens[screen] || (isAct && contentActions[req.Screen]) {
		if id := ctx.UnitID(); !id.IsZero() {
			if l, ok := set.Unit(id); ok {
				return l, "This unit is currently locked.", true
			}
		}
	}
	return Lock{}, "", false
}

func featureTitle(feature string) string {
	words := strings.Split(strings.ToLower(feature), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
