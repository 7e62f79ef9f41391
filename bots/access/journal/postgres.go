package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/gatekeeper/bots/access/flow"
	"github.com/m3rciful/gatekeeper/bots/access/review"
	"github.com/m3rciful/gatekeeper/core/logger"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 50
)

const insertSubmission = `
INSERT INTO access_submissions (
    id, user_id, username, display_name, phone_number, poll_choice, text_response, started_at, submitted_at
) VALUES (
    :id, :user_id, :username, :display_name, :phone_number, :poll_choice, :text_response, :started_at, :submitted_at
)
ON CONFLICT (id) DO NOTHING`

const insertDecision = `
INSERT INTO access_decisions (submission_id, user_id, reviewer_id, action, decided_at)
VALUES (:submission_id, :user_id, :reviewer_id, :action, :decided_at)`

const selectRecent = `
SELECT d.submission_id, d.user_id, s.display_name, d.action, d.decided_at
FROM access_decisions d
JOIN access_submissions s ON s.id = d.submission_id
ORDER BY d.decided_at DESC
LIMIT $1`

type submissionRow struct {
	ID           string    `db:"id"`
	UserID       int64     `db:"user_id"`
	Username     string    `db:"username"`
	DisplayName  string    `db:"display_name"`
	PhoneNumber  string    `db:"phone_number"`
	PollChoice   string    `db:"poll_choice"`
	TextResponse string    `db:"text_response"`
	StartedAt    time.Time `db:"started_at"`
	SubmittedAt  time.Time `db:"submitted_at"`
}

type decisionRow struct {
	SubmissionID string    `db:"submission_id"`
	UserID       int64     `db:"user_id"`
	ReviewerID   int64     `db:"reviewer_id"`
	Action       string    `db:"action"`
	DecidedAt    time.Time `db:"decided_at"`
}

func newSubmissionRow(s flow.Session) submissionRow {
	return submissionRow{
		ID:           s.SubmissionID,
		UserID:       s.UserID,
		Username:     s.Profile.Username,
		DisplayName:  s.Profile.DisplayName(),
		PhoneNumber:  s.PhoneNumber,
		PollChoice:   s.PollChoice,
		TextResponse: s.TextResponse,
		StartedAt:    s.StartedAt.UTC(),
		SubmittedAt:  s.SubmittedAt.UTC(),
	}
}

func newDecisionRow(s flow.Session, action review.Action, reviewerID int64, at time.Time) decisionRow {
	return decisionRow{
		SubmissionID: s.SubmissionID,
		UserID:       s.UserID,
		ReviewerID:   reviewerID,
		Action:       string(action),
		DecidedAt:    at.UTC(),
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	}
	return limit
}

// Postgres stores the journal in the access_* tables.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// RecordSubmission stores a completed session. Re-forwarding the same
// submission is a no-op.
func (p *Postgres) RecordSubmission(ctx context.Context, s flow.Session) error {
	if s.SubmissionID == "" {
		return fmt.Errorf("journal: submission without id for user %d", s.UserID)
	}
	start := time.Now()
	if _, err := p.db.NamedExecContext(ctx, insertSubmission, newSubmissionRow(s)); err != nil {
		return fmt.Errorf("journal: insert submission: %w", err)
	}
	logger.Debug(ctx, "db", "journal.submission",
		slog.String("submission_id", s.SubmissionID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// namedExecer is satisfied by *sqlx.DB and *sqlx.Tx.
type namedExecer interface {
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// writeDecision upserts the submission row before the decision so a decision
// survives an earlier failed RecordSubmission.
func writeDecision(ctx context.Context, ex namedExecer, s flow.Session, action review.Action, reviewerID int64, at time.Time) error {
	if _, err := ex.NamedExecContext(ctx, insertSubmission, newSubmissionRow(s)); err != nil {
		return fmt.Errorf("journal: upsert submission: %w", err)
	}
	if _, err := ex.NamedExecContext(ctx, insertDecision, newDecisionRow(s, action, reviewerID, at)); err != nil {
		return fmt.Errorf("journal: insert decision: %w", err)
	}
	return nil
}

// RecordDecision stores the reviewer's verdict together with its submission
// in one transaction.
func (p *Postgres) RecordDecision(ctx context.Context, s flow.Session, action review.Action, reviewerID int64, at time.Time) error {
	if s.SubmissionID == "" {
		return fmt.Errorf("journal: decision without submission id for user %d", s.UserID)
	}
	start := time.Now()
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	if err := writeDecision(ctx, tx, s, action, reviewerID, at); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit decision: %w", err)
	}
	logger.Debug(ctx, "db", "journal.decision",
		slog.String("submission_id", s.SubmissionID),
		slog.String("action", string(action)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// RecentDecisions returns the latest decisions, newest first.
func (p *Postgres) RecentDecisions(ctx context.Context, limit int) ([]DecisionEntry, error) {
	var out []DecisionEntry
	if err := p.db.SelectContext(ctx, &out, selectRecent, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("journal: select decisions: %w", err)
	}
	return out, nil
}
