package flow

import (
	"strings"
	"testing"
	"time"
)

func TestTransitionHappyPath(t *testing.T) {
	rules := DefaultRules()
	s := NewSession(42, Profile{Username: "alice"}, time.Unix(0, 0))

	steps := []struct {
		ev   Event
		want Step
	}{
		{Event{Kind: KindContact, SenderID: 42, ContactOwnerID: 42, PhoneNumber: " +15550100 "}, StepAwaitingPoll},
		{Event{Kind: KindPollAnswer, SenderID: 42, Options: []int{1}}, StepAwaitingText},
		{Event{Kind: KindText, SenderID: 42, Text: "  hello world  "}, StepCompleted},
	}
	for i, tc := range steps {
		out := Transition(s.Step, tc.ev, rules)
		if !out.Accepted {
			t.Fatalf("step %d rejected: %s", i, out.Reason)
		}
		if out.Step != tc.want {
			t.Fatalf("step %d: next = %s, want %s", i, out.Step, tc.want)
		}
		prev := s.Step
		s.Apply(out)
		if !prev.Before(s.Step) {
			t.Fatalf("step %d regressed from %s to %s", i, prev, s.Step)
		}
	}

	if s.PhoneNumber != "+15550100" {
		t.Errorf("phone = %q", s.PhoneNumber)
	}
	if s.PollChoice != "Option B" {
		t.Errorf("poll choice = %q", s.PollChoice)
	}
	if s.TextResponse != "hello world" {
		t.Errorf("text = %q", s.TextResponse)
	}
}

func TestTransitionRejectsWrongKind(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		step Step
		ev   Event
	}{
		{StepAwaitingPhone, Event{Kind: KindText, SenderID: 1, Text: "long enough text"}},
		{StepAwaitingPhone, Event{Kind: KindPollAnswer, SenderID: 1, Options: []int{0}}},
		{StepAwaitingPoll, Event{Kind: KindContact, SenderID: 1, ContactOwnerID: 1, PhoneNumber: "1"}},
		{StepAwaitingPoll, Event{Kind: KindText, SenderID: 1, Text: "long enough text"}},
		{StepAwaitingText, Event{Kind: KindContact, SenderID: 1, ContactOwnerID: 1, PhoneNumber: "1"}},
		{StepAwaitingText, Event{Kind: KindPollAnswer, SenderID: 1, Options: []int{0}}},
		{StepCompleted, Event{Kind: KindText, SenderID: 1, Text: "long enough text"}},
		{StepCompleted, Event{Kind: KindContact, SenderID: 1, ContactOwnerID: 1, PhoneNumber: "1"}},
	}
	for _, tc := range cases {
		out := Transition(tc.step, tc.ev, rules)
		if out.Accepted {
			t.Errorf("%s at %s: accepted", tc.ev.Kind, tc.step)
			continue
		}
		if out.Reason != ReasonWrongStep || out.Step != tc.step {
			t.Errorf("%s at %s: got (%s, %s)", tc.ev.Kind, tc.step, out.Step, out.Reason)
		}
	}
}

func TestTransitionRejectsForeignContactAtAnyStep(t *testing.T) {
	out := Transition(StepAwaitingPhone, Event{Kind: KindContact, SenderID: 1, ContactOwnerID: 2, PhoneNumber: "123"}, DefaultRules())
	if out.Accepted || out.Reason != ReasonForeignContact || out.Step != StepAwaitingPhone {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	for _, step := range []Step{StepAwaitingPoll, StepAwaitingText, StepCompleted} {
		out := Transition(step, Event{Kind: KindContact, SenderID: 1, ContactOwnerID: 2, PhoneNumber: "123"}, DefaultRules())
		if out.Accepted || out.Step != step {
			t.Fatalf("foreign contact accepted at %s", step)
		}
	}
}

func TestTransitionPoll(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		name    string
		options []int
		reason  Reason
	}{
		{"empty", nil, ReasonEmptyPoll},
		{"negative", []int{-1}, ReasonPollOutOfRange},
		{"past end", []int{2}, ReasonPollOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Transition(StepAwaitingPoll, Event{Kind: KindPollAnswer, Options: tc.options}, rules)
			if out.Accepted || out.Reason != tc.reason || out.Step != StepAwaitingPoll {
				t.Fatalf("unexpected outcome: %+v", out)
			}
		})
	}

	out := Transition(StepAwaitingPoll, Event{Kind: KindPollAnswer, Options: []int{0, 1}}, rules)
	if !out.Accepted || out.Patch.PollChoice != "Option A" {
		t.Fatalf("first selected option should win: %+v", out)
	}
}

func TestTransitionTextBounds(t *testing.T) {
	rules := Rules{MinText: 3, MaxText: 5, PollOptions: []string{"x"}}
	cases := []struct {
		text   string
		ok     bool
		reason Reason
	}{
		{"", false, ReasonTextTooShort},
		{"     ", false, ReasonTextTooShort},
		{"ab", false, ReasonTextTooShort},
		{"abc", true, ""},
		{"  abcde  ", true, ""},
		{"abcdef", false, ReasonTextTooLong},
		{"ёжикй", true, ""},
	}
	for _, tc := range cases {
		out := Transition(StepAwaitingText, Event{Kind: KindText, Text: tc.text}, rules)
		if out.Accepted != tc.ok || out.Reason != tc.reason {
			t.Errorf("text %q: got accepted=%v reason=%s", tc.text, out.Accepted, out.Reason)
		}
	}
}

func TestTransitionTextDefaultMaximum(t *testing.T) {
	rules := DefaultRules()
	exact := strings.Repeat("a", rules.MaxText)
	if out := Transition(StepAwaitingText, Event{Kind: KindText, Text: exact}, rules); !out.Accepted {
		t.Fatalf("text of exactly %d chars rejected: %s", rules.MaxText, out.Reason)
	}
	over := exact + "a"
	if out := Transition(StepAwaitingText, Event{Kind: KindText, Text: over}, rules); out.Accepted || out.Reason != ReasonTextTooLong {
		t.Fatalf("text of %d chars: %+v", len(over), out)
	}
}

func TestApplyIgnoresRejection(t *testing.T) {
	s := NewSession(1, Profile{}, time.Now())
	s.Step = StepAwaitingPoll
	s.PhoneNumber = "123"
	before := s

	s.Apply(Transition(s.Step, Event{Kind: KindContact, SenderID: 1, ContactOwnerID: 1, PhoneNumber: "999"}, DefaultRules()))
	if s != before {
		t.Fatalf("rejected event mutated session: %+v", s)
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		p    Profile
		want string
	}{
		{Profile{Username: "bob", FirstName: "Bob"}, "bob"},
		{Profile{FirstName: "Bob", LastName: "Stone"}, "Bob Stone"},
		{Profile{FirstName: "Bob"}, "Bob"},
		{Profile{LastName: "Stone"}, "Stone"},
		{Profile{}, "Unknown user"},
	}
	for _, tc := range cases {
		if got := tc.p.DisplayName(); got != tc.want {
			t.Errorf("%+v: got %q, want %q", tc.p, got, tc.want)
		}
	}
}
