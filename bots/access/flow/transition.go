package flow

import (
	"strings"
	"unicode/utf8"
)

// Kind names the inbound event types the questionnaire reacts to.
type Kind string

const (
	KindContact    Kind = "contact"
	KindPollAnswer Kind = "poll_answer"
	KindText       Kind = "text"
)

// Event is a questionnaire input stripped of transport details.
type Event struct {
	Kind     Kind
	SenderID int64

	// Contact
	ContactOwnerID int64
	PhoneNumber    string

	// Poll answer: selected option indexes as delivered by the platform.
	Options []int

	// Text
	Text string
}

// Reason explains a rejected event.
type Reason string

const (
	ReasonWrongStep      Reason = "wrong_step"
	ReasonForeignContact Reason = "foreign_contact"
	ReasonEmptyPhone     Reason = "empty_phone"
	ReasonEmptyPoll      Reason = "empty_poll"
	ReasonPollOutOfRange Reason = "poll_out_of_range"
	ReasonTextTooShort   Reason = "text_too_short"
	ReasonTextTooLong    Reason = "text_too_long"
)

// Patch carries the single field an accepted event contributes.
type Patch struct {
	PhoneNumber  string
	PollChoice   string
	TextResponse string
}

// Outcome is the result of Transition. Step is the next step when accepted and
// the unchanged current step when rejected.
type Outcome struct {
	Accepted bool
	Step     Step
	Reason   Reason
	Patch    Patch
}

// Rules are the tunable limits of the questionnaire.
type Rules struct {
	MinText     int
	MaxText     int
	PollOptions []string
}

// DefaultRules mirrors the stock questionnaire: 10..500 characters of text and
// a two-option poll.
func DefaultRules() Rules {
	return Rules{
		MinText:     10,
		MaxText:     500,
		PollOptions: []string{"Option A", "Option B"},
	}
}

var expects = map[Step]Kind{
	StepAwaitingPhone: KindContact,
	StepAwaitingPoll:  KindPollAnswer,
	StepAwaitingText:  KindText,
}

// Transition decides what an event does to a session at step. It has no side
// effects.
func Transition(step Step, ev Event, rules Rules) Outcome {
	if want, ok := expects[step]; !ok || want != ev.Kind {
		return reject(step, ReasonWrongStep)
	}

	switch ev.Kind {
	case KindContact:
		if ev.ContactOwnerID != ev.SenderID {
			return reject(step, ReasonForeignContact)
		}
		phone := strings.TrimSpace(ev.PhoneNumber)
		if phone == "" {
			return reject(step, ReasonEmptyPhone)
		}
		return accept(StepAwaitingPoll, Patch{PhoneNumber: phone})

	case KindPollAnswer:
		if len(ev.Options) == 0 {
			return reject(step, ReasonEmptyPoll)
		}
		idx := ev.Options[0]
		if idx < 0 || idx >= len(rules.PollOptions) {
			return reject(step, ReasonPollOutOfRange)
		}
		return accept(StepAwaitingText, Patch{PollChoice: rules.PollOptions[idx]})

	case KindText:
		text := strings.TrimSpace(ev.Text)
		n := utf8.RuneCountInString(text)
		if n == 0 || n < rules.MinText {
			return reject(step, ReasonTextTooShort)
		}
		if rules.MaxText > 0 && n > rules.MaxText {
			return reject(step, ReasonTextTooLong)
		}
		return accept(StepCompleted, Patch{TextResponse: text})
	}

	return reject(step, ReasonWrongStep)
}

func accept(next Step, p Patch) Outcome {
	return Outcome{Accepted: true, Step: next, Patch: p}
}

func reject(current Step, r Reason) Outcome {
	return Outcome{Step: current, Reason: r}
}
