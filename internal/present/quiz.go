package present

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/quiz"
	"github.com/abhisek/cassini/internal/review"
)

func (p *Presenter) renderQuestion(_ context.Context, c *rc, v *View) error {
	st := c.sess.Quiz
	if st == nil {
		v.set("status", "no_active_quiz")
		v.row(homeButton())
		return nil
	}
	r := st.Base()
	q, ok := r.Current()
	if !ok {
		v.set("status", "complete")
		v.row(homeButton())
		return nil
	}

	v.Title = r.UnitTitle
	v.set("mode", st.Mode())
	v.set("subject", curriculum.SubjectName(r.SubjectCode))
	v.set("grade", r.Grade)
	v.set("unit_title", r.UnitTitle)
	v.set("curr_index", r.Index+1)
	v.set("total_count", len(r.Questions))
	v.set("unit_progress", fmt.Sprintf("%d/%d", r.Index+1, len(r.Questions)))
	v.set("score", r.Score)
	v.set("question_stem", q.Question)
	for _, l := range curriculum.Letters {
		v.set("opt_"+strings.ToLower(l), q.Options.Get(l))
	}

	switch s := st.(type) {
	case *quiz.Speedrun:
		v.set("remaining_seconds", s.Remaining(p.d.Now()))
		v.set("label", s.Label())
	case *quiz.Challenge:
		v.set("last_feedback", s.LastFeedback)
		v.set("challenge_id", s.ChallengeID)
	case *quiz.Survival:
		v.set("lives", 1)
	}

	screen := c.sess.Current.Screen
	answers := make([]Button, 0, len(curriculum.Letters))
	for _, l := range curriculum.Letters {
		answers = append(answers, btn(l, nav.Ans(screen, l)))
	}
	v.row(answers...)
	if !quiz.IsGame(st) {
		v.row(
			btn("Skip", nav.Act("QUIZ", "SKIP")),
			btn("Pin", nav.Act("QUIZ", "PIN")),
			btn("Report", nav.Act("QUIZ", "FLAG")),
		)
	}
	v.row(homeButton())
	return nil
}

func (p *Presenter) renderFeedback(_ context.Context, c *rc, v *View) error {
	st := c.sess.Quiz
	if st == nil || len(st.Base().History) == 0 {
		v.set("status", "no_active_quiz")
		v.row(homeButton())
		return nil
	}
	r := st.Base()
	last := r.History[len(r.History)-1]
	v.Title = r.UnitTitle
	v.set("is_correct", last.IsCorrect)
	v.set("selected", last.Selected)
	v.set("correct_answer", last.Correct)
	if q, ok := r.Current(); ok && q.ID == last.QuestionID {
		v.set("correct_text", q.Options.Get(q.CorrectAnswer))
		v.set("explanation", q.Explanation)
	}
	v.set("score", r.Score)
	v.set("unit_progress", fmt.Sprintf("%d/%d", r.Index+1, len(r.Questions)))

	v.row(btn("Next", nav.Act("QUIZ", "LOAD_NEXT")))
	v.row(
		btn("Pin", nav.Act("QUIZ", "PIN")),
		btn("Report", nav.Act("QUIZ", "FLAG")),
	)
	v.row(homeButton())
	return nil
}

func (p *Presenter) renderSummary(_ context.Context, c *rc, v *View) error {
	st := c.sess.Quiz
	if st == nil || st.Base().Result == nil {
		v.set("status", "no_result")
		v.row(homeButton())
		return nil
	}
	r := st.Base()
	sum := r.Result
	v.Title = titleOf(c.sess.Current.Screen)
	v.set("mode", sum.Mode)
	v.set("score", sum.Score)
	v.set("total", sum.Total)
	v.set("accuracy", fmt.Sprintf("%.1f", sum.Accuracy))
	v.set("phase", sum.Phase)
	v.set("xp", sum.XP)
	v.set("streak", sum.Streak)
	v.set("end_reason", sum.EndReason)
	if sum.Unlocked != "" {
		v.set("unlocked", sum.Unlocked)
	}

	switch s := st.(type) {
	case *quiz.Standard:
		v.set("unit_title", s.UnitTitle)
		if s.Random {
			v.row(
				btn("Replay", nav.Act("QUIZ", "REPLAY")),
				btn("New random quiz", nav.Act("QUIZ", "START_RANDOM_QUIZ", strconv.Itoa(s.Grade))),
			)
			break
		}
		v.row(
			btn("Replay", nav.Act("QUIZ", "REPLAY")),
			btn("Next unit", nav.Act("QUIZ", "LOAD_NEW_BATCH")),
		)
		v.row(btn("Units", nav.Nav(nav.Units, fmt.Sprintf("%s:Grade %d", s.SubjectCode, s.Grade))))
	case *quiz.Review:
		v.set("review_kind", s.Kind)
		if s.Kind == quiz.ReviewUnitBlock {
			v.set("part", s.Part)
			v.row(btn("Next part", nav.Act("QUIZ", "LOAD_NEXT_PART")))
		}
		v.row(
			btn("Replay", nav.Act("QUIZ", "REPLAY")),
			btn("Review Hub", nav.Nav(nav.ReviewHub, r.Context().String())),
		)
	case *quiz.Speedrun:
		v.set("label", s.Label())
		v.row(btn("Play again", nav.Act("GAME", "REPLAY")), btn("Modes", nav.Nav(nav.GameMode, "")))
	case *quiz.Survival:
		v.row(btn("Play again", nav.Act("GAME", "REPLAY")), btn("Modes", nav.Nav(nav.GameMode, "")))
	case *quiz.Challenge:
		v.set("challenge_id", s.ChallengeID)
		v.row(btn("Play again", nav.Act("GAME", "REPLAY")), btn("Friends", nav.Nav(nav.MultiplayerHub, "")))
	}
	v.row(homeButton())
	return nil
}

func (p *Presenter) renderReviewHub(ctx context.Context, c *rc, v *View) error {
	cc := c.contextOf()
	counts, err := p.d.Reviews.Counts(ctx, c.user.ID, review.Filter{Subject: cc.SubjectCode, Grade: cc.Grade})
	if err != nil {
		return err
	}
	if cc.HasSubject() {
		v.set("subject", cc.SubjectName())
	}
	v.set("grade", cc.Grade)
	v.set("mistakes", counts[review.StatusMistake])
	v.set("skipped", counts[review.StatusSkipped])
	v.set("pinned", counts[review.StatusPinned])

	scope := cc.String()
	v.row(
		btn(fmt.Sprintf("Mistakes (%d)", counts[review.StatusMistake]), nav.Act("QUIZ", "REVIEW_MISTAKES", scope)),
		btn(fmt.Sprintf("Skipped (%d)", counts[review.StatusSkipped]), nav.Act("QUIZ", "REVIEW_SKIPPED", scope)),
		btn(fmt.Sprintf("Pinned (%d)", counts[review.StatusPinned]), nav.Act("QUIZ", "REVIEW_PINNED", scope)),
	)
	if cc.HasSubject() {
		parts := make([]Button, 0, 3)
		for i := 1; i <= 3; i++ {
			parts = append(parts, btn(fmt.Sprintf("Part %d", i), nav.Act("QUIZ", fmt.Sprintf("REVIEW_%d", i), scope)))
		}
		v.row(parts...)
	} else {
		subs := make([]Button, 0, len(curriculum.Subjects))
		for _, sub := range curriculum.Subjects {
			subs = append(subs, btn(sub.Name, nav.Nav(nav.ReviewHub, fmt.Sprintf("%s:Grade %d", sub.Code, cc.Grade))))
		}
		v.row(subs...)
	}
	v.row(backButton(), homeButton())
	return nil
}

func (p *Presenter) renderRandomSetup(_ context.Context, c *rc, v *View) error {
	v.set("grade", c.contextOf().Grade)
	v.row(gradeButtons(gradeLabel, func(g int) string {
		return nav.Act("QUIZ", "START_RANDOM_QUIZ", strconv.Itoa(g))
	})...)
	v.row(backButton())
	return nil
}

func (p *Presenter) renderReportOptions(_ context.Context, c *rc, v *View) error {
	if st := c.sess.Quiz; st != nil {
		if q, ok := st.Base().Current(); ok {
			v.set("question_id", q.ID)
		}
	}
	for _, reason := range review.ReportReasons {
		v.row(btn(reason, nav.Act("REPORT_OPTIONS", reason)))
	}
	v.row(backButton())
	return nil
}
