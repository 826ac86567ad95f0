// Package nav names the screens of the application.
package nav

import "strings"

// ID identifies a screen.
type ID string

const (
	Welcome ID = "SCR_WELCOME"
	Hub     ID = "SCR_HUB"

	Subjects ID = "SCR_SUBJECTS"
	Grades   ID = "SCR_GRADES"
	Units    ID = "SCR_UNITS"

	QuizPresent  ID = "SCR_QUIZ_PRES"
	QuizFeedback ID = "SCR_QUIZ_FB"
	QuizSummary  ID = "SCR_QUIZ_SUM"

	ReviewHub     ID = "SCR_REVIEW_HUB"
	ReviewSummary ID = "SCR_REVIEW_SUM"
	RandomSetup   ID = "SCR_RANDOM_SETUP"
	RandomSummary ID = "SCR_RANDOM_SUM"

	GameMode          ID = "SCR_GAMEMODE"
	SpeedrunHub       ID = "SCR_SPEEDRUN_HUB"
	SpeedrunSetup     ID = "SCR_SPEEDRUN_SETUP"
	SpeedrunSubjects  ID = "SCR_SPEEDRUN_SUBJECTS"
	SpeedrunCounts    ID = "SCR_SPEEDRUN_COUNTS"
	SurvivalSetup     ID = "SCR_SURVIVAL_SETUP"
	GamePresent       ID = "SCR_GAME_PRES"
	GameSummary       ID = "SCR_GAME_SUM"
	MultiplayerHub    ID = "SCR_MULTIPLAYER_HUB"
	MultiplayerSubj   ID = "SCR_MP_SUBJ_SELECT"
	MultiplayerReady  ID = "SCR_MP_LINK_READY"
	Invites           ID = "SCR_INVITES"
	Ranking           ID = "SCR_RANKING"
	Stats             ID = "SCR_STATS"
	Settings          ID = "SCR_SETTINGS"
	ProfileSettings   ID = "SCR_PROFILE_SETTINGS"
	GradeSelect       ID = "SCR_GRADE_SELECT"
	ReportOptions     ID = "SCR_REPORT_OPTIONS"
	PDFVault          ID = "SCR_PDF_VAULT"
	AIChat            ID = "SCR_AI_CHAT"
	Help              ID = "SCR_HELP"
	Admin             ID = "SCR_ADMIN"
	AdminLocks        ID = "SCR_ADMIN_LOCKS"
	AdminFlags        ID = "SCR_ADMIN_FLAGS"
	LockFeatures      ID = "SCR_LOCK_FEATURES"
	LockSubjects      ID = "SCR_LOCK_SUBJECTS"
	LockUnits         ID = "SCR_LOCK_UNITS"
	LockUnitList      ID = "SCR_LOCK_UNIT_LIST"
)

// Home is the base screen reached by "back" on an empty stack.
const Home = Hub

// IsAdmin reports whether id belongs to the lock-management or admin surface.
func (id ID) IsAdmin() bool {
	s := string(id)
	return id == Admin || strings.HasPrefix(s, "SCR_ADMIN_") || strings.HasPrefix(s, "SCR_LOCK_")
}

// Ref is a screen plus its opaque context parameter.
type Ref struct {
	Screen ID     `json:"screen"`
	Param  string `json:"param,omitempty"`
}

// Equal reports whether two refs point at the same screen and param.
func (r Ref) Equal(o Ref) bool {
	return r.Screen == o.Screen && r.Param == o.Param
}

// IsZero reports whether the ref is unset.
func (r Ref) IsZero() bool { return r.Screen == "" }

// quizScreens show or depend on the in-progress quiz.
var quizScreens = map[ID]bool{
	QuizPresent:   true,
	QuizFeedback:  true,
	QuizSummary:   true,
	ReviewSummary: true,
	RandomSummary: true,
	GamePresent:   true,
	GameSummary:   true,
	ReportOptions: true,
}

// HoldsQuiz reports whether id keeps the in-progress quiz alive. Moving
// to any other screen discards it.
func (id ID) HoldsQuiz() bool { return quizScreens[id] }
