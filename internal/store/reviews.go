package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/cassini/internal/review"
)

var reviewColumns = []string{"user_id", "question_id", "status", "subject", "grade", "unit", "updated_at"}

// ReviewRepo implements review.Repo.
type ReviewRepo struct {
	db *sql.DB
}

var _ review.Repo = (*ReviewRepo)(nil)

// Upsert inserts item or overwrites the status of the existing row.
func (r *ReviewRepo) Upsert(ctx context.Context, it review.Item) error {
	_, err := exec(ctx, r.db, builder().Insert("review_items").
		Columns(reviewColumns...).
		Values(it.UserID, it.QuestionID, string(it.Status), it.Subject, it.Grade, it.Unit, it.UpdatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("user_id", "question_id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("upsert review item %d/%s: %w", it.UserID, it.QuestionID, err)
	}
	return nil
}

// Delete removes a question from the user's queue. Missing rows are fine.
func (r *ReviewRepo) Delete(ctx context.Context, userID int64, questionID string) error {
	_, err := exec(ctx, r.db, builder().Delete("review_items").
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("question_id", questionID))))
	if err != nil {
		return fmt.Errorf("delete review item %d/%s: %w", userID, questionID, err)
	}
	return nil
}

func filterPredicate(userID int64, f review.Filter) *entsql.Predicate {
	ps := []*entsql.Predicate{entsql.EQ("user_id", userID)}
	if f.Subject != "" {
		ps = append(ps, entsql.EQ("subject", f.Subject))
	}
	if f.Grade > 0 {
		ps = append(ps, entsql.EQ("grade", f.Grade))
	}
	return entsql.And(ps...)
}

// CountByStatus counts queued questions per status.
func (r *ReviewRepo) CountByStatus(ctx context.Context, userID int64, f review.Filter) (review.Counts, error) {
	f = f.Normalize()
	b := builder()
	query, args := b.Select("status", entsql.Count("*")).
		From(b.Table("review_items")).
		Where(filterPredicate(userID, f)).
		GroupBy("status").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count review items %d: %w", userID, err)
	}
	defer rows.Close()

	out := review.Counts{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan review count: %w", err)
		}
		out[review.Status(status)] = n
	}
	return out, rows.Err()
}

// List returns queued questions with status, oldest first.
func (r *ReviewRepo) List(ctx context.Context, userID int64, status review.Status, f review.Filter) ([]review.Item, error) {
	f = f.Normalize()
	b := builder()
	sel := b.Select(reviewColumns...).
		From(b.Table("review_items")).
		Where(entsql.And(filterPredicate(userID, f), entsql.EQ("status", string(status))))
	query, args := sel.OrderBy(sel.C("updated_at"), sel.C("question_id")).Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list review items %d: %w", userID, err)
	}
	defer rows.Close()

	var out []review.Item
	for rows.Next() {
		var (
			it     review.Item
			status string
		)
		if err := rows.Scan(&it.UserID, &it.QuestionID, &status, &it.Subject, &it.Grade, &it.Unit, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		it.Status = review.Status(status)
		out = append(out, it)
	}
	return out, rows.Err()
}
