package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/cassini/internal/locks"
)

var lockColumns = []string{"lock_type", "target", "is_locked", "locked_by", "locked_at", "reason"}

// LockRepo implements locks.Repo.
type LockRepo struct {
	db *sql.DB
}

var _ locks.Repo = (*LockRepo)(nil)

func scanLock(r rowScanner) (locks.Lock, error) {
	var (
		l   locks.Lock
		typ string
	)
	if err := r.Scan(&typ, &l.Target, &l.Locked, &l.LockedBy, &l.LockedAt, &l.Reason); err != nil {
		return locks.Lock{}, err
	}
	l.Type = locks.Type(typ)
	return l, nil
}

func (r *LockRepo) list(ctx context.Context, where *entsql.Predicate) ([]locks.Lock, error) {
	b := builder()
	sel := b.Select(lockColumns...).From(b.Table("system_locks"))
	if where != nil {
		sel = sel.Where(where)
	}
	query, args := sel.OrderBy(sel.C("lock_type"), sel.C("target")).Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	defer rows.Close()

	var out []locks.Lock
	for rows.Next() {
		l, err := scanLock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListActive returns locks currently in force.
func (r *LockRepo) ListActive(ctx context.Context) ([]locks.Lock, error) {
	return r.list(ctx, entsql.EQ("is_locked", true))
}

// List returns every lock row.
func (r *LockRepo) List(ctx context.Context) ([]locks.Lock, error) {
	return r.list(ctx, nil)
}

// Toggle flips a lock, creating it locked when absent.
func (r *LockRepo) Toggle(ctx context.Context, key locks.Key, by int64, reason string, at time.Time) (locks.Lock, error) {
	var out locks.Lock
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		b := builder()
		match := entsql.And(entsql.EQ("lock_type", string(key.Type)), entsql.EQ("target", key.Target))
		query, args := b.Select(lockColumns...).From(b.Table("system_locks")).Where(match).Query()
		cur, err := scanLock(tx.QueryRowContext(ctx, query, args...))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			out = locks.Lock{Type: key.Type, Target: key.Target, Locked: true, LockedBy: by, LockedAt: at, Reason: reason}
			_, err = exec(ctx, tx, builder().Insert("system_locks").
				Columns(lockColumns...).
				Values(string(out.Type), out.Target, out.Locked, out.LockedBy, out.LockedAt, out.Reason))
			return err
		case err != nil:
			return err
		}
		out = cur
		out.Locked = !cur.Locked
		out.LockedBy = by
		out.LockedAt = at
		if reason != "" {
			out.Reason = reason
		}
		_, err = exec(ctx, tx, builder().Update("system_locks").
			Set("is_locked", out.Locked).
			Set("locked_by", out.LockedBy).
			Set("locked_at", out.LockedAt).
			Set("reason", out.Reason).
			Where(match))
		return err
	})
	if err != nil {
		return locks.Lock{}, fmt.Errorf("toggle lock %s/%s: %w", key.Type, key.Target, err)
	}
	return out, nil
}
