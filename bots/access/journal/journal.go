// Package journal keeps an audit trail of completed submissions and reviewer
// decisions. It never stores live sessions.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/m3rciful/gatekeeper/bots/access/flow"
	"github.com/m3rciful/gatekeeper/bots/access/review"
)

// ErrDisabled is returned by reads when no database is configured.
var ErrDisabled = errors.New("journal: disabled")

// Journal records what happened to each submission.
type Journal interface {
	RecordSubmission(ctx context.Context, s flow.Session) error
	RecordDecision(ctx context.Context, s flow.Session, action review.Action, reviewerID int64, at time.Time) error
	RecentDecisions(ctx context.Context, limit int) ([]DecisionEntry, error)
}

// DecisionEntry is one reviewer decision joined with its submission.
type DecisionEntry struct {
	SubmissionID string    `db:"submission_id"`
	UserID       int64     `db:"user_id"`
	DisplayName  string    `db:"display_name"`
	Action       string    `db:"action"`
	DecidedAt    time.Time `db:"decided_at"`
}

// Nop discards everything. Used when the database is disabled.
type Nop struct{}

func (Nop) RecordSubmission(context.Context, flow.Session) error { return nil }

func (Nop) RecordDecision(context.Context, flow.Session, review.Action, int64, time.Time) error {
	return nil
}

func (Nop) RecentDecisions(context.Context, int) ([]DecisionEntry, error) {
	return nil, ErrDisabled
}
