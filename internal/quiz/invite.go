package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
)

// InvitePrefix starts every challenge id.
const InvitePrefix = "CH_"

// Invite is a stored challenge: a fixed question set others can play.
type Invite struct {
	ID          string
	CreatorID   int64
	SubjectCode string
	Grade       int
	Questions   []curriculum.Question
	CreatedAt   time.Time
}

// InviteRepo persists challenge invites.
type InviteRepo interface {
	SaveInvite(ctx context.Context, inv Invite) error
	GetInvite(ctx context.Context, id string) (Invite, bool, error)
}

// NormalizeInviteID upper-cases id and adds the prefix when missing.
func NormalizeInviteID(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" || strings.HasPrefix(id, InvitePrefix) {
		return id
	}
	return InvitePrefix + id
}

func (e *Engine) inviteID() string {
	raw := strings.ReplaceAll(e.newID(), "-", "")
	if len(raw) > 8 {
		raw = raw[:8]
	}
	return InvitePrefix + strings.ToUpper(raw)
}

// CreateInvite draws a challenge from subject in grade and stores it.
func (e *Engine) CreateInvite(ctx context.Context, creatorID int64, subject string, grade int) (Invite, error) {
	all, err := e.pool(ctx, []string{subject}, grade)
	if err != nil {
		return Invite{}, err
	}
	if len(all) == 0 {
		return Invite{}, notFound("challenge pool %s grade %d", subject, grade)
	}
	inv := Invite{
		ID:          e.inviteID(),
		CreatorID:   creatorID,
		SubjectCode: subject,
		Grade:       grade,
		Questions:   truncate(e.shuffled(all), e.cfg.ChallengeCount),
		CreatedAt:   e.now().UTC(),
	}
	if err := e.invites.SaveInvite(ctx, inv); err != nil {
		return Invite{}, fmt.Errorf("save invite: %w", err)
	}
	return inv, nil
}

// StartChallenge begins a run over a stored invite's questions, in the
// stored order.
func (e *Engine) StartChallenge(ctx context.Context, id string) (*Challenge, error) {
	id = NormalizeInviteID(id)
	inv, ok, err := e.invites.GetInvite(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invite %s: %w", id, err)
	}
	if !ok || len(inv.Questions) == 0 {
		return nil, notFound("challenge %s", id)
	}
	c := curriculum.Context{SubjectCode: inv.SubjectCode, Grade: inv.Grade}
	qs := make([]curriculum.Question, len(inv.Questions))
	copy(qs, inv.Questions)
	return &Challenge{Run: e.newRun(c, "Challenge "+inv.ID, qs), ChallengeID: inv.ID}, nil
}
