package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/abhisek/cassini/internal/logger"
	"github.com/abhisek/cassini/internal/nav"
	"github.com/abhisek/cassini/internal/quiz"
	"github.com/abhisek/cassini/internal/session"
)

var sessionColumns = []string{
	"user_id", "current_screen", "current_param", "nav_stack",
	"last_message_id", "quiz_state", "game_setup", "version", "updated_at",
}

// SessionRepo implements session.Store with optimistic versioning.
type SessionRepo struct {
	db  *sql.DB
	log *logger.Logger
	now func() time.Time
}

var _ session.Store = (*SessionRepo)(nil)

func (r *SessionRepo) clock() time.Time {
	if r.now != nil {
		return r.now().UTC()
	}
	return time.Now().UTC()
}

// GetOrCreate loads the user's session. A user without one gets a fresh
// unsaved session with Version 0. A quiz or setup blob that no longer
// decodes is dropped; the caller treats the quiz as stale.
func (r *SessionRepo) GetOrCreate(ctx context.Context, userID int64) (*session.Session, error) {
	b := builder()
	query, args := b.Select(sessionColumns...).
		From(b.Table("user_sessions")).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var (
		s            session.Session
		screen       string
		param        string
		stack        string
		state, setup sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.UserID, &screen, &param, &stack,
		&s.LastMessageID, &state, &setup, &s.Version, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return session.New(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", userID, err)
	}

	s.Current = nav.Ref{Screen: nav.ID(screen), Param: param}
	if stack != "" {
		if err := json.Unmarshal([]byte(stack), &s.Stack); err != nil {
			r.log.Warn("dropping undecodable nav stack", "user_id", userID, "error", err)
			s.Stack = nil
		}
	}
	if state.Valid {
		st, err := quiz.Decode([]byte(state.String))
		if err != nil {
			r.log.Warn("dropping undecodable quiz state", "user_id", userID, "error", err)
		}
		s.Quiz = st
	}
	if setup.Valid && setup.String != "" {
		var ss quiz.SpeedrunSetup
		if err := json.Unmarshal([]byte(setup.String), &ss); err != nil {
			r.log.Warn("dropping undecodable game setup", "user_id", userID, "error", err)
		} else {
			s.Setup = &ss
		}
	}
	return &s, nil
}

// Save writes s if the stored version still equals s.Version and then
// increments s.Version. A Version 0 session is inserted; it conflicts
// when a row already exists.
func (r *SessionRepo) Save(ctx context.Context, s *session.Session) error {
	s.Normalize(0)
	stack, err := json.Marshal(s.Stack)
	if err != nil {
		return fmt.Errorf("encode nav stack: %w", err)
	}
	state, err := quiz.Encode(s.Quiz)
	if err != nil {
		return fmt.Errorf("encode quiz state: %w", err)
	}
	var setup sql.NullString
	if s.Setup != nil {
		raw, err := json.Marshal(s.Setup)
		if err != nil {
			return fmt.Errorf("encode game setup: %w", err)
		}
		setup = sql.NullString{String: string(raw), Valid: true}
	}
	stateCol := sql.NullString{String: string(state), Valid: state != nil}
	now := r.clock()
	next := s.Version + 1

	var res sql.Result
	if s.Version == 0 {
		res, err = exec(ctx, r.db, builder().Insert("user_sessions").
			Columns(sessionColumns...).
			Values(s.UserID, string(s.Current.Screen), s.Current.Param, string(stack),
				s.LastMessageID, stateCol, setup, next, now).
			OnConflict(entsql.ConflictColumns("user_id"), entsql.DoNothing()))
	} else {
		res, err = exec(ctx, r.db, builder().Update("user_sessions").
			Set("current_screen", string(s.Current.Screen)).
			Set("current_param", s.Current.Param).
			Set("nav_stack", string(stack)).
			Set("last_message_id", s.LastMessageID).
			Set("quiz_state", stateCol).
			Set("game_setup", setup).
			Set("version", next).
			Set("updated_at", now).
			Where(entsql.And(entsql.EQ("user_id", s.UserID), entsql.EQ("version", s.Version))))
	}
	if err != nil {
		return fmt.Errorf("save session %d: %w", s.UserID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save session %d: %w", s.UserID, err)
	}
	if n == 0 {
		return fmt.Errorf("session %d at version %d: %w", s.UserID, s.Version, session.ErrVersionConflict)
	}
	s.Version = next
	s.UpdatedAt = now
	return nil
}

// Delete removes the user's session.
func (r *SessionRepo) Delete(ctx context.Context, userID int64) error {
	if _, err := exec(ctx, r.db, builder().Delete("user_sessions").Where(entsql.EQ("user_id", userID))); err != nil {
		return fmt.Errorf("delete session %d: %w", userID, err)
	}
	return nil
}
