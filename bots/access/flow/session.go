// Package flow holds the access questionnaire: the per-user session record and
// the pure transition rules that advance it.
package flow

import "time"

// Step is the session's position in the questionnaire.
type Step string

const (
	StepAwaitingPhone Step = "awaiting_phone"
	StepAwaitingPoll  Step = "awaiting_poll"
	StepAwaitingText  Step = "awaiting_text"
	StepCompleted     Step = "completed"
)

var stepOrder = map[Step]int{
	StepAwaitingPhone: 0,
	StepAwaitingPoll:  1,
	StepAwaitingText:  2,
	StepCompleted:     3,
}

// Before reports whether s comes earlier in the questionnaire than other.
func (s Step) Before(other Step) bool {
	return stepOrder[s] < stepOrder[other]
}

// Profile is the display metadata captured when a session starts.
type Profile struct {
	Username  string
	FirstName string
	LastName  string
}

// DisplayName prefers the username, then the full name, then whichever name
// part is present.
func (p Profile) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	if p.FirstName != "" && p.LastName != "" {
		return p.FirstName + " " + p.LastName
	}
	if p.FirstName != "" {
		return p.FirstName
	}
	if p.LastName != "" {
		return p.LastName
	}
	return "Unknown user"
}

// Session tracks one user's progress through the questionnaire.
type Session struct {
	UserID       int64
	Step         Step
	Profile      Profile
	PhoneNumber  string
	PollChoice   string
	TextResponse string
	StartedAt    time.Time

	// SubmissionID is assigned once the session reaches StepCompleted.
	SubmissionID string
	SubmittedAt  time.Time
	// Forwarded is true once the reviewer has received the submission.
	Forwarded bool
}

// NewSession starts a session at the first step.
func NewSession(userID int64, profile Profile, now time.Time) Session {
	return Session{
		UserID:    userID,
		Step:      StepAwaitingPhone,
		Profile:   profile,
		StartedAt: now,
	}
}

// Apply copies the accepted outcome into the session. Rejected outcomes leave
// the session untouched.
func (s *Session) Apply(o Outcome) {
	if !o.Accepted {
		return
	}
	switch {
	case o.Patch.PhoneNumber != "":
		s.PhoneNumber = o.Patch.PhoneNumber
	case o.Patch.PollChoice != "":
		s.PollChoice = o.Patch.PollChoice
	case o.Patch.TextResponse != "":
		s.TextResponse = o.Patch.TextResponse
	}
	s.Step = o.Step
}

// AwaitingReview reports whether the session is complete and still waiting on
// a reviewer decision.
func (s Session) AwaitingReview() bool {
	return s.Step == StepCompleted
}
