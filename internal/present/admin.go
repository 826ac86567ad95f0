package present

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/nav"
)

func lockSetNone() locks.Set { return locks.NewSet(nil) }

func lockMark(locked bool) string {
	if locked {
		return "locked"
	}
	return "open"
}

func (p *Presenter) activeSet(ctx context.Context) locks.Set {
	set, err := p.d.Locks.Active(ctx)
	if err != nil {
		return lockSetNone()
	}
	return set
}

func (p *Presenter) renderAdmin(_ context.Context, c *rc, v *View) error {
	if !c.actor.Admin {
		v.set("status", "forbidden")
		v.row(homeButton())
		return nil
	}
	v.column(
		btn("Locks", nav.Nav(nav.AdminLocks, "")),
		btn("Flagged questions", nav.Nav(nav.AdminFlags, "")),
	)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderAdminLocks(ctx context.Context, c *rc, v *View) error {
	v.set("active_locks", p.activeSet(ctx).Len())
	g := strconv.Itoa(c.user.Grade)
	v.column(
		btn("Features", nav.Nav(nav.LockFeatures, "")),
		btn("Subjects", nav.Nav(nav.LockSubjects, g)),
		btn("Units", nav.Nav(nav.LockUnits, g)),
	)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderAdminFlags(ctx context.Context, _ *rc, v *View) error {
	flags, err := p.d.Flags.Flags(ctx, 20)
	if err != nil {
		return err
	}
	v.set("flagged", len(flags))
	for _, f := range flags {
		v.set("flag_"+f.QuestionID, fmt.Sprintf("%d reports %v", f.Count, f.Reasons))
	}
	v.row(backButton())
	return nil
}

func (p *Presenter) renderLockFeatures(ctx context.Context, _ *rc, v *View) error {
	set := p.activeSet(ctx)
	for _, f := range locks.AllFeatures {
		_, locked := set.Feature(f)
		v.set(f, lockMark(locked))
		v.row(btn(fmt.Sprintf("%s [%s]", f, lockMark(locked)), nav.Act("LOCK", "TOGGLE_FEATURE", f)))
	}
	v.row(backButton())
	return nil
}

func (p *Presenter) renderLockSubjects(ctx context.Context, c *rc, v *View) error {
	g := c.contextOf().Grade
	set := p.activeSet(ctx)
	v.set("grade", g)
	for _, sub := range curriculum.Subjects {
		_, locked := set.Subject(sub.Code, g)
		target := locks.SubjectTarget(sub.Code, g)
		v.set(target, lockMark(locked))
		v.row(btn(fmt.Sprintf("%s [%s]", target, lockMark(locked)), nav.Act("LOCK", "TOGGLE_SUBJECT", target)))
	}
	v.row(gradeButtons(strconv.Itoa, func(gr int) string {
		return nav.Nav(nav.LockSubjects, strconv.Itoa(gr))
	})...)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderLockUnits(_ context.Context, c *rc, v *View) error {
	g := c.contextOf().Grade
	v.set("grade", g)
	for _, sub := range curriculum.Subjects {
		v.row(btn(sub.Name, nav.Nav(nav.LockUnitList, fmt.Sprintf("%s:Grade %d", sub.Code, g))))
	}
	v.row(gradeButtons(strconv.Itoa, func(gr int) string {
		return nav.Nav(nav.LockUnits, strconv.Itoa(gr))
	})...)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderLockUnitList(ctx context.Context, c *rc, v *View) error {
	cc := c.contextOf()
	units, err := p.d.Units.ListUnits(cc.SubjectCode, cc.Grade)
	if err != nil {
		return err
	}
	set := p.activeSet(ctx)
	v.set("subject", cc.SubjectName())
	v.set("grade", cc.Grade)
	for _, n := range units {
		id := curriculum.NewUnitID(cc.SubjectCode, cc.Grade, n)
		_, locked := set.Unit(id)
		v.set(id.String(), lockMark(locked))
		v.row(btn(fmt.Sprintf("%s [%s]", id, lockMark(locked)), nav.Act("LOCK", "TOGGLE_UNIT", id.String())))
	}
	v.row(backButton())
	return nil
}
