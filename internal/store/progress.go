package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/progress"
)

var progressColumns = []string{
	"user_id", "unit_id", "subject", "grade", "current_phase",
	"baseline_accuracy", "balanced_accuracy", "exam_accuracy",
	"questions_attempted", "questions_correct", "completion_percent",
	"unlocked_balanced", "unlocked_exam", "updated_at",
}

// ProgressRepo implements progress.Repo.
type ProgressRepo struct {
	db *sql.DB
}

var _ progress.Repo = (*ProgressRepo)(nil)

func scanRecord(r rowScanner) (progress.Record, error) {
	var (
		rec   progress.Record
		unit  string
		phase string
	)
	err := r.Scan(&rec.UserID, &unit, &rec.Subject, &rec.Grade, &phase,
		&rec.BaselineAccuracy, &rec.BalancedAccuracy, &rec.ExamAccuracy,
		&rec.Attempted, &rec.Correct, &rec.CompletionPercent,
		&rec.UnlockedBalanced, &rec.UnlockedExam, &rec.UpdatedAt)
	if err != nil {
		return progress.Record{}, err
	}
	id, ok := curriculum.FindUnitID(unit)
	if !ok {
		return progress.Record{}, fmt.Errorf("bad unit id %q", unit)
	}
	rec.Unit = id
	rec.CurrentPhase = progress.Phase(phase)
	return rec, nil
}

// GetProgress loads one unit record.
func (r *ProgressRepo) GetProgress(ctx context.Context, userID int64, unit curriculum.UnitID) (progress.Record, bool, error) {
	b := builder()
	query, args := b.Select(progressColumns...).
		From(b.Table("user_progress")).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("unit_id", unit.String()))).
		Query()
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return progress.Record{}, false, nil
	}
	if err != nil {
		return progress.Record{}, false, fmt.Errorf("get progress %d/%s: %w", userID, unit, err)
	}
	return rec, true, nil
}

// SaveProgress upserts a unit record.
func (r *ProgressRepo) SaveProgress(ctx context.Context, rec progress.Record) error {
	_, err := exec(ctx, r.db, builder().Insert("user_progress").
		Columns(progressColumns...).
		Values(rec.UserID, rec.Unit.String(), rec.Subject, rec.Grade, string(rec.CurrentPhase),
			rec.BaselineAccuracy, rec.BalancedAccuracy, rec.ExamAccuracy,
			rec.Attempted, rec.Correct, rec.CompletionPercent,
			rec.UnlockedBalanced, rec.UnlockedExam, rec.UpdatedAt.UTC()).
		OnConflict(entsql.ConflictColumns("user_id", "unit_id"), entsql.ResolveWithNewValues()))
	if err != nil {
		return fmt.Errorf("save progress %d/%s: %w", rec.UserID, rec.Unit, err)
	}
	return nil
}

// ListProgress returns every record of a user ordered by unit id.
func (r *ProgressRepo) ListProgress(ctx context.Context, userID int64) ([]progress.Record, error) {
	b := builder()
	sel := b.Select(progressColumns...).
		From(b.Table("user_progress")).
		Where(entsql.EQ("user_id", userID))
	query, args := sel.OrderBy(sel.C("unit_id")).Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress %d: %w", userID, err)
	}
	defer rows.Close()

	var out []progress.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteProgress removes every record of a user.
func (r *ProgressRepo) DeleteProgress(ctx context.Context, userID int64) error {
	if _, err := exec(ctx, r.db, builder().Delete("user_progress").Where(entsql.EQ("user_id", userID))); err != nil {
		return fmt.Errorf("delete progress %d: %w", userID, err)
	}
	return nil
}
