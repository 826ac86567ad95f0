package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/cassini/internal/review"
)

var flagColumns = []string{"question_id", "flag_count", "reasons", "last_flagged_by", "last_flagged"}

// FlagRepo implements review.FlagRepo.
type FlagRepo struct {
	db *sql.DB
}

var _ review.FlagRepo = (*FlagRepo)(nil)

func scanFlag(r rowScanner) (review.Flag, error) {
	var (
		f       review.Flag
		reasons string
	)
	if err := r.Scan(&f.QuestionID, &f.Count, &reasons, &f.LastBy, &f.LastFlagged); err != nil {
		return review.Flag{}, err
	}
	if reasons != "" {
		if err := json.Unmarshal([]byte(reasons), &f.Reasons); err != nil {
			return review.Flag{}, fmt.Errorf("decode reasons of %s: %w", f.QuestionID, err)
		}
	}
	return f, nil
}

// AddFlag records one more report against questionID.
func (r *FlagRepo) AddFlag(ctx context.Context, questionID, reason string, by int64, at time.Time) (review.Flag, error) {
	var out review.Flag
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		b := builder()
		query, args := b.Select(flagColumns...).
			From(b.Table("flagged_questions")).
			Where(entsql.EQ("question_id", questionID)).
			Query()
		cur, err := scanFlag(tx.QueryRowContext(ctx, query, args...))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		out = review.Flag{
			QuestionID:  questionID,
			Count:       cur.Count + 1,
			Reasons:     append(cur.Reasons, reason),
			LastBy:      by,
			LastFlagged: at.UTC(),
		}
		raw, err := json.Marshal(out.Reasons)
		if err != nil {
			return err
		}
		_, err = exec(ctx, tx, builder().Insert("flagged_questions").
			Columns(flagColumns...).
			Values(out.QuestionID, out.Count, string(raw), out.LastBy, out.LastFlagged).
			OnConflict(entsql.ConflictColumns("question_id"), entsql.ResolveWithNewValues()))
		return err
	})
	if err != nil {
		return review.Flag{}, fmt.Errorf("flag question %s: %w", questionID, err)
	}
	return out, nil
}

// ListFlags returns the most reported questions first.
func (r *FlagRepo) ListFlags(ctx context.Context, limit int) ([]review.Flag, error) {
	b := builder()
	sel := b.Select(flagColumns...).From(b.Table("flagged_questions"))
	sel = sel.OrderBy(entsql.Desc(sel.C("flag_count")), entsql.Desc(sel.C("last_flagged")))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	var out []review.Flag
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
