package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/locks"
	"github.com/abhisek/cassini/internal/logger"
	"github.com/abhisek/cassini/internal/progress"
	"github.com/abhisek/cassini/internal/review"
)

// Supply loads curriculum questions. Results are deterministic for a
// given unit; the engine does its own shuffling.
type Supply interface {
	ListUnits(subject string, grade int) ([]int, error)
	LoadUnitQuestions(subject string, grade, unit int) ([]curriculum.Question, string, error)
}

// Tracker receives attempt and completion results.
type Tracker interface {
	Get(ctx context.Context, userID int64, unit curriculum.UnitID) (progress.Record, bool, error)
	RecordAttempt(ctx context.Context, userID int64, unit curriculum.UnitID, correct bool) (progress.Record, error)
	CompleteBatch(ctx context.Context, userID int64, unit curriculum.UnitID, phase progress.Phase, accuracy float64) (progress.Record, *progress.PhaseTransition, error)
	UpdateStreak(ctx context.Context, userID int64) (int, error)
	AddXP(ctx context.Context, userID int64, amount int) (progress.User, error)
}

// Reviews is the review backlog.
type Reviews interface {
	Add(ctx context.Context, userID int64, q curriculum.Question, status review.Status) error
	Remove(ctx context.Context, userID int64, questionID string) error
	Items(ctx context.Context, userID int64, status review.Status, f review.Filter) ([]review.Item, error)
}

// Config tunes batch sizes and timing.
type Config struct {
	SpeedrunGrace         time.Duration
	RandomCount           int
	RandomUnitsPerSubject int
	SurvivalCount         int
	ChallengeCount        int
	ReviewParts           int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		SpeedrunGrace:         2 * time.Second,
		RandomCount:           10,
		RandomUnitsPerSubject: 2,
		SurvivalCount:         100,
		ChallengeCount:        10,
		ReviewParts:           3,
	}
}

// Engine starts and advances quiz runs. It holds no per-user state; every
// call receives the State it works on.
type Engine struct {
	supply  Supply
	tracker Tracker
	reviews Reviews
	invites InviteRepo
	locks   locks.Source
	cfg     Config
	log     *logger.Logger

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithShuffle overrides question shuffling.
func WithShuffle(fn func(n int, swap func(i, j int))) Option {
	return func(e *Engine) { e.shuffle = fn }
}

// WithIDs overrides run and invite id generation.
func WithIDs(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithConfig overrides the tuning.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an Engine.
func NewEngine(supply Supply, tracker Tracker, reviews Reviews, invites InviteRepo, lockSource locks.Source, opts ...Option) *Engine {
	e := &Engine{
		supply:  supply,
		tracker: tracker,
		reviews: reviews,
		invites: invites,
		locks:   lockSource,
		cfg:     DefaultConfig(),
		log:     logger.Nop(),
		now:     time.Now,
		shuffle: rand.Shuffle,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With("component", "quiz")
	return e
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.now() }

func (e *Engine) newRun(ctx curriculum.Context, title string, qs []curriculum.Question) Run {
	return Run{
		ID:          e.newID(),
		SubjectCode: ctx.SubjectCode,
		Grade:       ctx.Grade,
		Unit:        ctx.Unit,
		UnitTitle:   title,
		Questions:   qs,
		StartedAt:   e.now().UTC(),
	}
}

func (e *Engine) shuffled(qs []curriculum.Question) []curriculum.Question {
	out := make([]curriculum.Question, len(qs))
	copy(out, qs)
	e.shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func truncate(qs []curriculum.Question, n int) []curriculum.Question {
	if n > 0 && len(qs) > n {
		return qs[:n]
	}
	return qs
}

// activeLocks returns the lock set used to filter pools. A failed lookup
// filters nothing.
func (e *Engine) activeLocks(ctx context.Context) locks.Set {
	if e.locks == nil {
		return locks.NewSet(nil)
	}
	set, err := e.locks.Active(ctx)
	if err != nil {
		e.log.Error("loading locks for pool failed, not filtering", "error", err)
		return locks.NewSet(nil)
	}
	return set
}

// openUnits lists the units of subject/grade not hidden by a lock.
func (e *Engine) openUnits(set locks.Set, subject string, grade int) ([]int, error) {
	units, err := e.supply.ListUnits(subject, grade)
	if err != nil {
		return nil, err
	}
	out := units[:0:0]
	for _, u := range units {
		if !set.Excludes(curriculum.NewUnitID(subject, grade, u)) {
			out = append(out, u)
		}
	}
	return out, nil
}

// loadUnits concatenates the questions of units, skipping units with no
// content.
func (e *Engine) loadUnits(subject string, grade int, units []int) ([]curriculum.Question, error) {
	var all []curriculum.Question
	for _, u := range units {
		qs, _, err := e.supply.LoadUnitQuestions(subject, grade, u)
		if errors.Is(err, curriculum.ErrContentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		all = append(all, qs...)
	}
	return all, nil
}

// pool gathers every unlocked question of the given subjects in grade.
func (e *Engine) pool(ctx context.Context, subjects []string, grade int) ([]curriculum.Question, error) {
	set := e.activeLocks(ctx)
	var all []curriculum.Question
	for _, s := range subjects {
		units, err := e.openUnits(set, s, grade)
		if err != nil {
			return nil, fmt.Errorf("list units %s grade %d: %w", s, grade, err)
		}
		qs, err := e.loadUnits(s, grade, units)
		if err != nil {
			return nil, fmt.Errorf("load %s grade %d: %w", s, grade, err)
		}
		all = append(all, qs...)
	}
	return all, nil
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", curriculum.ErrContentNotFound, fmt.Sprintf(format, args...))
}

// StartUnit begins a standard quiz over a whole unit in bank order.
func (e *Engine) StartUnit(ctx context.Context, unit curriculum.UnitID) (*Standard, error) {
	if unit.IsZero() {
		return nil, notFound("no unit selected")
	}
	qs, title, err := e.supply.LoadUnitQuestions(unit.SubjectCode, unit.Grade, unit.Unit)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", unit, err)
	}
	c := curriculum.Context{SubjectCode: unit.SubjectCode, Grade: unit.Grade, Unit: unit.Unit}
	return &Standard{Run: e.newRun(c, title, qs)}, nil
}

// StartRandom builds a quiz from a few random open units of every subject
// in grade.
func (e *Engine) StartRandom(ctx context.Context, grade int) (*Standard, error) {
	set := e.activeLocks(ctx)
	var all []curriculum.Question
	for _, sub := range curriculum.Subjects {
		units, err := e.openUnits(set, sub.Code, grade)
		if err != nil {
			return nil, fmt.Errorf("list units %s grade %d: %w", sub.Code, grade, err)
		}
		e.shuffle(len(units), func(i, j int) { units[i], units[j] = units[j], units[i] })
		if n := e.cfg.RandomUnitsPerSubject; n > 0 && len(units) > n {
			units = units[:n]
		}
		qs, err := e.loadUnits(sub.Code, grade, units)
		if err != nil {
			return nil, err
		}
		all = append(all, qs...)
	}
	if len(all) == 0 {
		return nil, notFound("grade %d", grade)
	}
	qs := truncate(e.shuffled(all), e.cfg.RandomCount)
	st := &Standard{Run: e.newRun(curriculum.Context{Grade: grade}, "Random Quiz", qs), Random: true}
	return st, nil
}

// StartReviewPart builds unit-block review part (1-based) for subject and
// grade. All units are split into contiguous chunks, one per part, and
// locked units are then dropped from the chosen chunk, so a lock never
// moves a unit into another part.
func (e *Engine) StartReviewPart(ctx context.Context, subject string, grade, part int) (*Review, error) {
	parts := e.cfg.ReviewParts
	if part < 1 || part > parts {
		return nil, notFound("review part %d", part)
	}
	units, err := e.supply.ListUnits(subject, grade)
	if err != nil {
		return nil, fmt.Errorf("list units %s grade %d: %w", subject, grade, err)
	}
	size := (len(units) + parts - 1) / parts
	lo, hi := (part-1)*size, part*size
	if hi > len(units) {
		hi = len(units)
	}
	if lo >= hi {
		return nil, notFound("%s grade %d part %d", subject, grade, part)
	}
	set := e.activeLocks(ctx)
	chunk := make([]int, 0, hi-lo)
	for _, u := range units[lo:hi] {
		if !set.Excludes(curriculum.NewUnitID(subject, grade, u)) {
			chunk = append(chunk, u)
		}
	}
	qs, err := e.loadUnits(subject, grade, chunk)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, notFound("%s grade %d part %d", subject, grade, part)
	}
	c := curriculum.Context{SubjectCode: subject, Grade: grade}
	title := fmt.Sprintf("Review Part %d", part)
	return &Review{Run: e.newRun(c, title, e.shuffled(qs)), Kind: ReviewUnitBlock, Part: part}, nil
}

// ReviewStatus maps a smart review kind to the queue status it reads.
func ReviewStatus(kind ReviewKind) (review.Status, bool) {
	switch kind {
	case ReviewMistakes:
		return review.StatusMistake, true
	case ReviewSkipped:
		return review.StatusSkipped, true
	case ReviewPinned:
		return review.StatusPinned, true
	}
	return "", false
}

var reviewTitles = map[ReviewKind]string{
	ReviewMistakes: "Mistakes",
	ReviewSkipped:  "Skipped",
	ReviewPinned:   "Pinned",
}

// StartSmartReview builds a review of the user's queued questions of kind,
// narrowed to subject and grade when given.
func (e *Engine) StartSmartReview(ctx context.Context, userID int64, kind ReviewKind, subject string, grade int) (*Review, error) {
	status, ok := ReviewStatus(kind)
	if !ok {
		return nil, fmt.Errorf("%w: review kind %q", ErrUnsupportedMode, kind)
	}
	items, err := e.reviews.Items(ctx, userID, status, review.Filter{Subject: subject, Grade: grade})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFound("no %s questions", strings.ToLower(string(status)))
	}

	set := e.activeLocks(ctx)
	wanted := make(map[string]bool, len(items))
	byUnit := make(map[curriculum.UnitID]bool)
	var loose []review.Item
	for _, it := range items {
		wanted[it.QuestionID] = true
		if id, ok := curriculum.FindUnitID(it.Unit); ok {
			byUnit[id] = true
		} else {
			loose = append(loose, it)
		}
	}

	var qs []curriculum.Question
	found := make(map[string]bool, len(items))
	take := func(list []curriculum.Question) {
		for _, q := range list {
			if wanted[q.ID] && !found[q.ID] {
				found[q.ID] = true
				qs = append(qs, q)
			}
		}
	}
	for id := range byUnit {
		if set.Excludes(id) {
			continue
		}
		list, _, err := e.supply.LoadUnitQuestions(id.SubjectCode, id.Grade, id.Unit)
		if err != nil && !errors.Is(err, curriculum.ErrContentNotFound) {
			return nil, err
		}
		take(list)
	}

	// Items without a usable unit tag are found by scanning their grade.
	for _, it := range loose {
		if found[it.QuestionID] {
			continue
		}
		code := curriculum.SubjectCode(it.Subject)
		units, err := e.openUnits(set, code, it.Grade)
		if err != nil {
			continue
		}
		list, err := e.loadUnits(code, it.Grade, units)
		if err != nil {
			return nil, err
		}
		take(list)
	}

	if len(qs) == 0 {
		return nil, notFound("queued questions no longer available")
	}
	c := curriculum.Context{SubjectCode: curriculum.SubjectCode(subject), Grade: grade}
	title := "Smart Review: " + reviewTitles[kind]
	return &Review{Run: e.newRun(c, title, e.shuffled(qs)), Kind: kind}, nil
}

// StartSpeedrun begins a timed run configured by setup at grade.
func (e *Engine) StartSpeedrun(ctx context.Context, grade int, setup SpeedrunSetup) (*Speedrun, error) {
	setup = setup.Normalize()
	all, err := e.pool(ctx, setup.Subjects(), grade)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, notFound("speedrun pool %s grade %d", setup.Subject, grade)
	}
	qs := truncate(e.shuffled(all), setup.Count)
	c := curriculum.Context{Grade: grade}
	if setup.Subject != PoolMixed {
		c.SubjectCode = setup.Subject
	}
	st := &Speedrun{
		Run:             e.newRun(c, "", qs),
		DurationSeconds: setup.DurationMinutes * 60,
		Count:           setup.Count,
		Pool:            setup.Subject,
	}
	st.UnitTitle = st.Label()
	return st, nil
}

// StartSurvival begins a single-life run over subject in grade.
func (e *Engine) StartSurvival(ctx context.Context, subject string, grade int) (*Survival, error) {
	all, err := e.pool(ctx, []string{subject}, grade)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, notFound("survival pool %s grade %d", subject, grade)
	}
	qs := truncate(e.shuffled(all), e.cfg.SurvivalCount)
	c := curriculum.Context{SubjectCode: subject, Grade: grade}
	return &Survival{Run: e.newRun(c, "Survival", qs)}, nil
}
