package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/cassini/internal/progress"
)

var userColumns = []string{
	"user_id", "display_name", "grade", "streak_count", "last_activity",
	"total_xp", "weekly_xp", "week_start", "level", "created_at",
}

// UserRepo implements progress.UserRepo.
type UserRepo struct {
	db *sql.DB
}

var _ progress.UserRepo = (*UserRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (progress.User, error) {
	var (
		u            progress.User
		last, wstart sql.NullTime
	)
	err := r.Scan(&u.ID, &u.DisplayName, &u.Grade, &u.StreakCount, &last,
		&u.TotalXP, &u.WeeklyXP, &wstart, &u.Level, &u.CreatedAt)
	if err != nil {
		return progress.User{}, err
	}
	u.LastActivity = timePtr(last)
	u.WeekStart = timePtr(wstart)
	return u, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// GetUser loads a profile.
func (r *UserRepo) GetUser(ctx context.Context, id int64) (progress.User, bool, error) {
	b := builder()
	query, args := b.Select(userColumns...).
		From(b.Table("users")).
		Where(entsql.EQ("user_id", id)).
		Query()
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return progress.User{}, false, nil
	}
	if err != nil {
		return progress.User{}, false, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, true, nil
}

// SaveUser inserts or replaces a profile.
func (r *UserRepo) SaveUser(ctx context.Context, u progress.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := exec(ctx, r.db, builder().Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.DisplayName, u.Grade, u.StreakCount, nullTime(u.LastActivity),
			u.TotalXP, u.WeeklyXP, nullTime(u.WeekStart), u.Level, created.UTC()).
		OnConflict(
			entsql.ConflictColumns("user_id"),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				for _, c := range userColumns[1:] {
					if c != "created_at" {
						s.SetExcluded(c)
					}
				}
			}),
		))
	if err != nil {
		return fmt.Errorf("save user %d: %w", u.ID, err)
	}
	return nil
}

// TopUsers ranks users by total XP, or by weekly XP among users whose
// week started at or after since.
func (r *UserRepo) TopUsers(ctx context.Context, scope progress.Scope, since time.Time, limit int) ([]progress.User, error) {
	b := builder()
	sel := b.Select(userColumns...).From(b.Table("users"))
	if scope == progress.ScopeWeekly {
		sel = sel.Where(entsql.And(
			entsql.GTE("week_start", since.UTC()),
			entsql.GT("weekly_xp", 0),
		)).OrderBy(entsql.Desc(sel.C("weekly_xp")), sel.C("user_id"))
	} else {
		sel = sel.OrderBy(entsql.Desc(sel.C("total_xp")), sel.C("user_id"))
	}
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	var out []progress.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
