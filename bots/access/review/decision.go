package review

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Action is the reviewer's verdict carried by a decision button.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

const payloadSep = ":"

var (
	// ErrMalformedPayload reports a payload without an action or a positive numeric user id.
	ErrMalformedPayload = errors.New("review: malformed decision payload")
	// ErrUnknownAction reports a well-formed payload naming an action other than approve/reject.
	ErrUnknownAction = errors.New("review: unknown decision action")
)

// Decision is a parsed decision button payload.
type Decision struct {
	Action Action
	UserID int64
}

// Payload encodes the decision as "action:userId".
func (d Decision) Payload() string {
	return string(d.Action) + payloadSep + strconv.FormatInt(d.UserID, 10)
}

// ParseDecision validates raw callback data of the form "action:userId".
func ParseDecision(raw string) (Decision, error) {
	parts := strings.Split(strings.TrimSpace(raw), payloadSep)
	if len(parts) != 2 {
		return Decision{}, fmt.Errorf("%w: %q", ErrMalformedPayload, raw)
	}
	action := strings.TrimSpace(parts[0])
	if action == "" {
		return Decision{}, fmt.Errorf("%w: missing action", ErrMalformedPayload)
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || userID <= 0 {
		return Decision{}, fmt.Errorf("%w: bad user id %q", ErrMalformedPayload, parts[1])
	}

	switch Action(action) {
	case ActionApprove, ActionReject:
		return Decision{Action: Action(action), UserID: userID}, nil
	}
	return Decision{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}
