// Package review keeps the per-user backlog of questions to revisit.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
)

// Status is why a question is in the queue.
type Status string

const (
	StatusSkipped Status = "SKIPPED"
	StatusMistake Status = "MISTAKE"
	StatusPinned  Status = "PINNED"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusMistake, StatusSkipped, StatusPinned}

var ErrInvalidStatus = errors.New("invalid review status")

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusSkipped, StatusMistake, StatusPinned:
		return true
	}
	return false
}

// Item is one queued question. There is at most one Item per
// (UserID, QuestionID).
type Item struct {
	UserID     int64
	QuestionID string
	Status     Status
	Subject    string // full subject name, e.g. "Biology"
	Grade      int
	Unit       string // unit id, e.g. "BIO_G10_U1"
	UpdatedAt  time.Time
}

// Filter narrows Counts and Items. Zero values match everything.
type Filter struct {
	Subject string // code or full name
	Grade   int
}

// Normalize rewrites the subject to its full name and drops a
// non-positive grade.
func (f Filter) Normalize() Filter {
	if f.Subject != "" {
		f.Subject = curriculum.SubjectName(strings.TrimSpace(f.Subject))
	}
	if f.Grade < 0 {
		f.Grade = 0
	}
	return f
}

// Counts holds queue sizes per status.
type Counts map[Status]int

// Total is the sum over all statuses.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Repo persists review items.
type Repo interface {
	// Upsert inserts item, or overwrites status and timestamp of the
	// existing (UserID, QuestionID) row.
	Upsert(ctx context.Context, item Item) error
	Delete(ctx context.Context, userID int64, questionID string) error
	CountByStatus(ctx context.Context, userID int64, f Filter) (Counts, error)
	List(ctx context.Context, userID int64, status Status, f Filter) ([]Item, error)
}

// Queue is the review backlog service.
type Queue struct {
	repo Repo
	now  func() time.Time
}

// NewQueue creates a Queue.
func NewQueue(repo Repo, now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{repo: repo, now: now}
}

// Add queues q under status. Re-adding a queued question overwrites its
// status; the latest write wins.
func (q *Queue) Add(ctx context.Context, userID int64, question curriculum.Question, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	item := Item{
		UserID:     userID,
		QuestionID: question.ID,
		Status:     status,
		Unit:       question.SourceUnit,
		UpdatedAt:  q.now().UTC(),
	}
	if unit, ok := question.Unit(); ok {
		item.Subject = unit.SubjectName()
		item.Grade = unit.Grade
		item.Unit = unit.String()
	}
	if err := q.repo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("upsert review item: %w", err)
	}
	return nil
}

// Remove drops a question from the queue. Removing an absent question is
// not an error.
func (q *Queue) Remove(ctx context.Context, userID int64, questionID string) error {
	if err := q.repo.Delete(ctx, userID, questionID); err != nil {
		return fmt.Errorf("delete review item: %w", err)
	}
	return nil
}

// Counts returns the queue size per status. Every status is present in
// the result, zero when empty.
func (q *Queue) Counts(ctx context.Context, userID int64, f Filter) (Counts, error) {
	got, err := q.repo.CountByStatus(ctx, userID, f.Normalize())
	if err != nil {
		return nil, fmt.Errorf("count review items: %w", err)
	}
	out := Counts{}
	for _, s := range Statuses {
		out[s] = got[s]
	}
	return out, nil
}

// Items lists queued questions with status, oldest first.
func (q *Queue) Items(ctx context.Context, userID int64, status Status, f Filter) ([]Item, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	items, err := q.repo.List(ctx, userID, status, f.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}
	return items, nil
}
