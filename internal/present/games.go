package present

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/quiz"
)

// Speedrun choices offered on the setup screens.
var (
	SpeedrunDurations = []int{5, 10, 30, 60}
	SpeedrunCounts    = []int{10, 20, 30, 50}
)

func (p *Presenter) renderGameMode(_ context.Context, c *rc, v *View) error {
	v.set("grade", c.user.Grade)
	v.column(
		btn("Speedrun", nav.Nav(nav.SpeedrunHub, "")),
		btn("Survival", nav.Nav(nav.SurvivalSetup, strconv.Itoa(c.user.Grade))),
	)
	v.row(backButton())
	return nil
}

func (c *rc) setup() quiz.SpeedrunSetup {
	if c.sess.Setup != nil {
		return c.sess.Setup.Normalize()
	}
	return quiz.DefaultSpeedrunSetup()
}

func (p *Presenter) renderSpeedrunHub(_ context.Context, c *rc, v *View) error {
	s := c.setup()
	v.set("duration_minutes", s.DurationMinutes)
	v.set("count", s.Count)
	v.set("subject", s.Subject)
	v.set("grade", c.user.Grade)
	v.column(
		btn(fmt.Sprintf("Duration: %d min", s.DurationMinutes), nav.Nav(nav.SpeedrunSetup, "")),
		btn(fmt.Sprintf("Questions: %d", s.Count), nav.Nav(nav.SpeedrunCounts, "")),
		btn("Choose subject and start", nav.Nav(nav.SpeedrunSubjects, strconv.Itoa(c.user.Grade))),
	)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderSpeedrunDurations(_ context.Context, c *rc, v *View) error {
	v.set("duration_minutes", c.setup().DurationMinutes)
	row := make([]Button, 0, len(SpeedrunDurations))
	for _, m := range SpeedrunDurations {
		row = append(row, btn(fmt.Sprintf("%d min", m), nav.Act("SPEEDRUN", "DUR", strconv.Itoa(m))))
	}
	v.row(row...)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderSpeedrunCounts(_ context.Context, c *rc, v *View) error {
	v.set("count", c.setup().Count)
	row := make([]Button, 0, len(SpeedrunCounts))
	for _, n := range SpeedrunCounts {
		row = append(row, btn(strconv.Itoa(n), nav.Act("SPEEDRUN", "CNT", strconv.Itoa(n))))
	}
	v.row(row...)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderSpeedrunSubjects(_ context.Context, c *rc, v *View) error {
	s := c.setup()
	v.set("duration_minutes", s.DurationMinutes)
	v.set("count", s.Count)
	for _, sub := range curriculum.Subjects {
		v.row(btn(sub.Name, nav.Act("SPEEDRUN", "SUBJ", sub.Code)))
	}
	v.row(btn("Mixed", nav.Act("SPEEDRUN", "SUBJ", quiz.PoolMixed)))
	v.row(backButton())
	return nil
}

func (p *Presenter) renderSurvivalSetup(_ context.Context, c *rc, v *View) error {
	g := c.contextOf().Grade
	v.set("grade", g)
	for _, sub := range curriculum.Subjects {
		v.row(btn(sub.Name, nav.Act("SURVIVAL", "START", fmt.Sprintf("%s:G%d", sub.Code, g))))
	}
	v.row(backButton())
	return nil
}

func (p *Presenter) renderMultiplayerHub(_ context.Context, _ *rc, v *View) error {
	v.column(
		btn("Create challenge", nav.Nav(nav.MultiplayerSubj, "")),
		btn("Join challenge", nav.Nav(nav.Invites, "")),
	)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderMultiplayerSubjects(_ context.Context, c *rc, v *View) error {
	v.set("grade", c.user.Grade)
	for _, sub := range curriculum.Subjects {
		v.row(btn(sub.Name, nav.Act("MP", "GENERATE", sub.Code)))
	}
	v.row(backButton())
	return nil
}

func (p *Presenter) renderInviteReady(_ context.Context, c *rc, v *View) error {
	id := c.param()
	v.set("challenge_id", id)
	v.set("join_data", nav.Act("MP", "JOIN", id))
	v.row(btn("Play now", nav.Act("MP", "JOIN", id)))
	v.row(homeButton())
	return nil
}

func (p *Presenter) renderInvites(_ context.Context, c *rc, v *View) error {
	v.set("id_prefix", quiz.InvitePrefix)
	if c.param() != "" {
		v.set("challenge_id", c.param())
		v.row(btn("Join", nav.Act("MP", "JOIN", c.param())))
	}
	v.row(backButton())
	return nil
}
