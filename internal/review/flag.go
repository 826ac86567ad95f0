package review

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Flag aggregates every report filed against one question.
type Flag struct {
	QuestionID  string
	Count       int
	Reasons     []string
	LastBy      int64
	LastFlagged time.Time
}

// FlagRepo persists question reports.
type FlagRepo interface {
	// AddFlag increments the report count for questionID and appends reason.
	AddFlag(ctx context.Context, questionID, reason string, by int64, at time.Time) (Flag, error)
	ListFlags(ctx context.Context, limit int) ([]Flag, error)
}

// Report reasons offered to learners.
var ReportReasons = []string{"WRONG_ANSWER", "TYPO", "UNCLEAR", "OTHER"}

// Reporter files question reports.
type Reporter struct {
	repo FlagRepo
	now  func() time.Time
}

// NewReporter creates a Reporter.
func NewReporter(repo FlagRepo, now func() time.Time) *Reporter {
	if now == nil {
		now = time.Now
	}
	return &Reporter{repo: repo, now: now}
}

// Report records a flag against questionID.
func (r *Reporter) Report(ctx context.Context, userID int64, questionID, reason string) (Flag, error) {
	reason = strings.ToUpper(strings.TrimSpace(reason))
	if reason == "" {
		reason = "OTHER"
	}
	f, err := r.repo.AddFlag(ctx, questionID, reason, userID, r.now().UTC())
	if err != nil {
		return Flag{}, fmt.Errorf("flag question %s: %w", questionID, err)
	}
	return f, nil
}

// Flags returns the most reported questions first.
func (r *Reporter) Flags(ctx context.Context, limit int) ([]Flag, error) {
	return r.repo.ListFlags(ctx, limit)
}
