package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/cassini/internal/quiz"
)

var inviteColumns = []string{"challenge_id", "creator_id", "subject", "grade", "questions", "created_at"}

// InviteRepo implements quiz.InviteRepo.
type InviteRepo struct {
	db *sql.DB
}

var _ quiz.InviteRepo = (*InviteRepo)(nil)

// SaveInvite stores a challenge. Ids are unique; saving an existing id
// fails.
func (r *InviteRepo) SaveInvite(ctx context.Context, inv quiz.Invite) error {
	qs, err := json.Marshal(inv.Questions)
	if err != nil {
		return fmt.Errorf("encode challenge questions: %w", err)
	}
	_, err = exec(ctx, r.db, builder().Insert("challenges").
		Columns(inviteColumns...).
		Values(inv.ID, inv.CreatorID, inv.SubjectCode, inv.Grade, string(qs), inv.CreatedAt.UTC()))
	if err != nil {
		return fmt.Errorf("save challenge %s: %w", inv.ID, err)
	}
	return nil
}

// GetInvite loads a challenge by id.
func (r *InviteRepo) GetInvite(ctx context.Context, id string) (quiz.Invite, bool, error) {
	b := builder()
	query, args := b.Select(inviteColumns...).
		From(b.Table("challenges")).
		Where(entsql.EQ("challenge_id", id)).
		Query()
	var (
		inv quiz.Invite
		qs  string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&inv.ID, &inv.CreatorID, &inv.SubjectCode, &inv.Grade, &qs, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Invite{}, false, nil
	}
	if err != nil {
		return quiz.Invite{}, false, fmt.Errorf("get challenge %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(qs), &inv.Questions); err != nil {
		return quiz.Invite{}, false, fmt.Errorf("decode challenge %s: %w", id, err)
	}
	return inv, true, nil
}
