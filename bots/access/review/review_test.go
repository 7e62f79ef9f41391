package review

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/gatekeeper/bots/access/flow"
)

func TestGate(t *testing.T) {
	g := NewGate(100)
	if !g.IsReviewer(100) {
		t.Fatal("reviewer not recognised")
	}
	if g.IsReviewer(101) {
		t.Fatal("non-reviewer accepted")
	}
	if (Gate{}).IsReviewer(0) {
		t.Fatal("unconfigured gate must reject everyone")
	}
}

func TestParseDecision(t *testing.T) {
	cases := []struct {
		raw  string
		want Decision
		err  error
	}{
		{"approve:12345", Decision{ActionApprove, 12345}, nil},
		{"reject:7", Decision{ActionReject, 7}, nil},
		{"approve:0", Decision{}, ErrMalformedPayload},
		{"approve:", Decision{}, ErrMalformedPayload},
		{"approve:-5", Decision{}, ErrMalformedPayload},
		{"approve:abc", Decision{}, ErrMalformedPayload},
		{":12345", Decision{}, ErrMalformedPayload},
		{"approve", Decision{}, ErrMalformedPayload},
		{"approve:1:2", Decision{}, ErrMalformedPayload},
		{"", Decision{}, ErrMalformedPayload},
		{"ban:12345", Decision{}, ErrUnknownAction},
	}
	for _, tc := range cases {
		got, err := ParseDecision(tc.raw)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("%q: err = %v, want %v", tc.raw, err, tc.err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: got %+v, want %+v", tc.raw, got, tc.want)
		}
		if got.Payload() != tc.raw {
			t.Errorf("%q: payload round trip = %q", tc.raw, got.Payload())
		}
	}
}

func TestFormatSubmissionEscapesUserInput(t *testing.T) {
	s := flow.Session{
		UserID:       42,
		Step:         flow.StepCompleted,
		Profile:      flow.Profile{Username: "eve"},
		PhoneNumber:  "+100",
		PollChoice:   "Option A",
		TextResponse: "<script>&",
		StartedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SubmissionID: "sub-1",
	}
	msg := FormatSubmission(s, time.UTC)
	for _, want := range []string{
		"<code>@eve</code>",
		"<code>42</code>",
		"<i>&lt;script&gt;&amp;</i>",
		"2026-01-02 03:04:05 UTC",
		"<code>sub-1</code>",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatSubmissionMissingFields(t *testing.T) {
	msg := FormatSubmission(flow.Session{UserID: 1}, nil)
	if !strings.Contains(msg, "Phone: <code>N/A</code>") {
		t.Fatalf("expected N/A placeholder:\n%s", msg)
	}
	if !strings.Contains(msg, "Name: <code>Unknown user</code>") {
		t.Fatalf("expected unknown user placeholder:\n%s", msg)
	}
}

func TestAnnotate(t *testing.T) {
	got := Annotate("New request <1>", ActionApprove)
	if got != "New request &lt;1&gt;\n\n✅ <b>APPROVED</b>" {
		t.Fatalf("approve annotate = %q", got)
	}
	if got := Annotate("", ActionReject); got != "❌ <b>REJECTED</b>" {
		t.Fatalf("reject annotate = %q", got)
	}
}

func TestFormatRequester(t *testing.T) {
	got := FormatRequester(9, flow.Profile{FirstName: "Ann"})
	if got != "User ID: 9\nUsername: N/A\nName: Ann" {
		t.Fatalf("got %q", got)
	}
}
