package present

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/progress"
)

// contextOf parses the current param, filling the grade from the user
// when the param has none.
func (c *rc) contextOf() curriculum.Context {
	ctx := curriculum.ParseContext(c.param())
	if !ctx.HasGrade() {
		ctx.Grade = c.user.Grade
	}
	if !ctx.HasGrade() {
		ctx.Grade = curriculum.DefaultGrade
	}
	return ctx
}

func gradeButtons(label func(g int) string, data func(g int) string) []Button {
	out := make([]Button, 0, len(curriculum.Grades))
	for _, g := range curriculum.Grades {
		out = append(out, btn(label(g), data(g)))
	}
	return out
}

func gradeLabel(g int) string { return fmt.Sprintf("Grade %d", g) }

func (p *Presenter) renderWelcome(_ context.Context, c *rc, v *View) error {
	v.set("name", c.user.DisplayName)
	v.row(gradeButtons(gradeLabel, func(g int) string {
		return nav.Act("SET", "ONBOARD_GRADE", strconv.Itoa(g))
	})...)
	return nil
}

func (p *Presenter) renderHub(_ context.Context, c *rc, v *View) error {
	u := c.user
	v.set("name", u.DisplayName)
	v.set("grade", u.Grade)
	v.set("level", u.Level)
	v.set("total_xp", u.TotalXP)
	v.set("weekly_xp", u.WeeklyXP)
	v.set("streak", u.StreakCount)

	g := strconv.Itoa(u.Grade)
	v.column(
		btn("Study", nav.Nav(nav.Subjects, "")),
		btn("Review Hub", nav.Nav(nav.ReviewHub, g)),
		btn("Random Quiz", nav.Nav(nav.RandomSetup, g)),
		btn("Advanced Practice", nav.Nav(nav.GameMode, "")),
		btn("Practice With Friends", nav.Nav(nav.MultiplayerHub, "")),
	)
	v.row(
		btn("Leaderboard", nav.Nav(nav.Ranking, string(progress.ScopeGlobal))),
		btn("Stats", nav.Nav(nav.Stats, g)),
	)
	v.row(
		btn("PDF Vault", nav.Nav(nav.PDFVault, g)),
		btn("AI Tutor", nav.Nav(nav.AIChat, "")),
	)
	v.row(
		btn("Settings", nav.Nav(nav.Settings, "")),
		btn("Help", nav.Nav(nav.Help, "")),
	)
	if c.actor.Admin {
		v.row(btn("Admin", nav.Nav(nav.Admin, "")))
	}
	return nil
}

func (p *Presenter) renderSubjects(_ context.Context, c *rc, v *View) error {
	v.set("grade", c.user.Grade)
	for _, sub := range curriculum.Subjects {
		v.row(
			btn(sub.Name, nav.Nav(nav.Units, fmt.Sprintf("%s:Grade %d", sub.Code, c.user.Grade))),
			btn("Other grade", nav.Nav(nav.Grades, sub.Code)),
		)
	}
	v.row(backButton())
	return nil
}

func (p *Presenter) renderGrades(_ context.Context, c *rc, v *View) error {
	ctx := curriculum.ParseContext(c.param())
	v.set("subject", ctx.SubjectName())
	v.row(gradeButtons(gradeLabel, func(g int) string {
		return nav.Nav(nav.Units, fmt.Sprintf("%s:Grade %d", ctx.SubjectCode, g))
	})...)
	v.row(backButton())
	return nil
}

// unitState renders a unit's row status: "locked", "not started" or its
// completion percentage.
func unitState(locked bool, rec progress.Record, started bool) string {
	switch {
	case locked:
		return "locked"
	case !started:
		return "not started"
	}
	return fmt.Sprintf("%.0f%% %s", rec.CompletionPercent, rec.CurrentPhase)
}

func (p *Presenter) renderUnits(ctx context.Context, c *rc, v *View) error {
	cc := c.contextOf()
	v.set("subject", cc.SubjectName())
	v.set("grade", cc.Grade)

	var units []int
	if cc.HasSubject() {
		var err error
		if units, err = p.d.Units.ListUnits(cc.SubjectCode, cc.Grade); err != nil {
			return err
		}
	}
	recs, err := p.d.Profiles.Records(ctx, c.user.ID)
	if err != nil {
		return err
	}
	byUnit := make(map[string]progress.Record, len(recs))
	for _, r := range recs {
		byUnit[r.Unit.String()] = r
	}
	set := p.activeSet(ctx)

	v.set("units_count", len(units))
	for _, n := range units {
		id := curriculum.NewUnitID(cc.SubjectCode, cc.Grade, n)
		rec, started := byUnit[id.String()]
		state := unitState(set.Excludes(id), rec, started)
		v.set("unit_"+strconv.Itoa(n), state)
		v.row(
			btn(fmt.Sprintf("%s (%s)", curriculum.UnitLabel(n), state), nav.Nav(nav.QuizPresent, id.String())),
			btn("PDF", nav.Nav(nav.PDFVault, id.String())),
		)
	}
	v.row(backButton(), homeButton())
	return nil
}

func (p *Presenter) renderStats(ctx context.Context, c *rc, v *View) error {
	cc := c.contextOf()
	recs, err := p.d.Profiles.Records(ctx, c.user.ID)
	if err != nil {
		return err
	}
	gs := progress.BuildStats(recs, cc.Grade)
	v.set("grade", gs.Grade)
	v.set("units_started", gs.UnitsStarted)
	v.set("mean_completion", fmt.Sprintf("%.1f", gs.MeanCompletion))
	v.set("level", c.user.Level)
	v.set("total_xp", c.user.TotalXP)
	v.set("streak", c.user.StreakCount)
	for _, s := range gs.Subjects {
		v.set("subject_"+s.SubjectCode, fmt.Sprintf("%d units, %.1f%%, %d/%d correct",
			s.UnitsStarted, s.MeanCompletion, s.Correct, s.Attempted))
	}
	v.row(gradeButtons(func(g int) string { return strconv.Itoa(g) }, func(g int) string {
		return nav.Nav(nav.Stats, strconv.Itoa(g))
	})...)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderRanking(ctx context.Context, c *rc, v *View) error {
	scope := progress.ScopeGlobal
	if c.param() == string(progress.ScopeWeekly) {
		scope = progress.ScopeWeekly
	}
	users, err := p.d.Profiles.Leaderboard(ctx, scope, LeaderboardSize)
	if err != nil {
		return err
	}
	v.set("scope", scope)
	for i, u := range users {
		xp := u.TotalXP
		if scope == progress.ScopeWeekly {
			xp = u.WeeklyXP
		}
		name := u.DisplayName
		if name == "" {
			name = fmt.Sprintf("user %d", u.ID)
		}
		v.set(fmt.Sprintf("rank_%d", i+1), fmt.Sprintf("%s %d XP (level %d)", name, xp, u.Level))
	}
	v.row(
		btn("All time", nav.Act("RANK", "SWITCH_GLOBAL")),
		btn("This week", nav.Act("RANK", "SWITCH_WEEKLY")),
	)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderSettings(_ context.Context, c *rc, v *View) error {
	v.set("grade", c.user.Grade)
	v.column(
		btn("Profile", nav.Nav(nav.ProfileSettings, "")),
		btn("Change grade", nav.Nav(nav.GradeSelect, "")),
	)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderProfileSettings(_ context.Context, c *rc, v *View) error {
	u := c.user
	v.set("name", u.DisplayName)
	v.set("grade", u.Grade)
	v.set("level", u.Level)
	v.set("total_xp", u.TotalXP)
	v.set("streak", u.StreakCount)
	v.column(
		btn("Change grade", nav.Nav(nav.GradeSelect, "")),
		btn("Reset all progress", nav.Act("SET", "RESET_CONFIRM")),
	)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderGradeSelect(_ context.Context, c *rc, v *View) error {
	v.set("grade", c.user.Grade)
	v.row(gradeButtons(gradeLabel, func(g int) string {
		return nav.Act("SET", "UPDATE_GRADE", strconv.Itoa(g))
	})...)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderHelp(_ context.Context, _ *rc, v *View) error {
	v.set("phases", "BASELINE, BALANCED, EXAM_BIASED")
	v.set("unlock_threshold", fmt.Sprintf("%.0f", progress.DefaultUnlockThreshold))
	v.row(backButton())
	return nil
}

// renderComingSoon serves screens whose content lives outside this
// service.
func (p *Presenter) renderComingSoon(_ context.Context, c *rc, v *View) error {
	v.set("status", "coming_soon")
	if cc := curriculum.ParseContext(c.param()); cc.HasSubject() {
		v.set("subject", cc.SubjectName())
	}
	v.row(backButton(), homeButton())
	return nil
}
