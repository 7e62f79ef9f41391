package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/gatekeeper/bots/access/flow"
	"github.com/m3rciful/gatekeeper/bots/access/journal"
	"github.com/m3rciful/gatekeeper/bots/access/review"

	tele "gopkg.in/telebot.v4"
)

func TestDecisionFromNonReviewer(t *testing.T) {
	hs := newHarness(t, flow.DefaultRules())
	hs.complete(userID)
	before, _ := hs.session(userID)

	c := hs.decide(4242, "approve:12345", "msg")
	resp := c.lastResponse()
	if resp == nil || !resp.ShowAlert || resp.Text != msgUnauthorized {
		t.Fatalf("unexpected response: %+v", resp)
	}
	after, ok := hs.session(userID)
	if !ok || after != before {
		t.Fatalf("session touched: %+v", after)
	}
	if len(hs.platform.invites) != 0 || len(c.edits) != 0 {
		t.Fatal("no side effects expected")
	}
}

func TestDecisionPayloadErrors(t *testing.T) {
	cases := []struct {
		data string
		want string
	}{
		{"approve:0", msgInvalidPayload},
		{"approve:", msgInvalidPayload},
		{"approve:abc", msgInvalidPayload},
		{"approve", msgInvalidPayload},
		{":12345", msgInvalidPayload},
		{"approve:1:2", msgInvalidPayload},
		{"ban:12345", msgUnknownAction},
	}
	for _, tc := range cases {
		t.Run(tc.data, func(t *testing.T) {
			hs := newHarness(t, flow.DefaultRules())
			hs.complete(userID)

			c := hs.decide(reviewerID, tc.data, "msg")
			resp := c.lastResponse()
			if resp == nil || !resp.ShowAlert || resp.Text != tc.want {
				t.Fatalf("unexpected response: %+v", resp)
			}
			if _, ok := hs.session(userID); !ok {
				t.Fatal("session must survive a bad payload")
			}
		})
	}
}

func TestDecisionWithoutSession(t *testing.T) {
	hs := newHarness(t, flow.DefaultRules())

	c := hs.decide(reviewerID, "reject:12345", "msg")
	resp := c.lastResponse()
	if resp == nil || !resp.ShowAlert || resp.Text != msgSessionNotFound {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(hs.platform.sent) != 0 {
		t.Fatal("nothing must be sent")
	}
}

func TestDecisionOnUnfinishedSession(t *testing.T) {
	hs := newHarness(t, flow.DefaultRules())
	hs.start(userID)

	c := hs.decide(reviewerID, "approve:12345", "msg")
	if resp := c.lastResponse(); resp == nil || resp.Text != msgSessionNotFound {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if s, ok := hs.session(userID); !ok || s.Step != flow.StepAwaitingPhone {
		t.Fatal("unfinished session must be left alone")
	}
}

func TestRejectDecision(t *testing.T) {
	hs := newHarness(t, flow.DefaultRules())
	hs.complete(userID)

	c := hs.decide(reviewerID, "reject:12345", "User <b>x</b>")
	if resp := c.lastResponse(); resp == nil || resp.ShowAlert || resp.Text != msgRejectedToast {
		t.Fatalf("unexpected response: %+v", resp)
	}
	msgs := hs.platform.sentTo(userID)
	if len(msgs) == 0 || msgs[len(msgs)-1].text() != msgRejectedUser {
		t.Fatalf("user not notified: %+v", msgs)
	}
	if len(hs.platform.invites) != 0 {
		t.Fatal("reject must not create invites")
	}
	if len(c.edits) != 1 || c.edits[0] != "User &lt;b&gt;x&lt;/b&gt;\n\n❌ <b>REJECTED</b>" {
		t.Fatalf("unexpected edit: %v", c.edits)
	}
	if _, ok := hs.session(userID); ok {
		t.Fatal("session must be deleted")
	}
}

func TestDecisionPlatformFailureKeepsSession(t *testing.T) {
	t.Run("invite", func(t *testing.T) {
		hs := newHarness(t, flow.DefaultRules())
		hs.complete(userID)
		hs.platform.inviteErr = errPlatform

		c := hs.decide(reviewerID, "approve:12345", "msg")
		if resp := c.lastResponse(); resp == nil || !resp.ShowAlert || resp.Text != msgProcessingError {
			t.Fatalf("unexpected response: %+v", resp)
		}
		if _, ok := hs.session(userID); !ok {
			t.Fatal("session must be kept")
		}
		if len(c.edits) != 0 {
			t.Fatal("reviewer message must stay untouched")
		}
	})

	t.Run("notify", func(t *testing.T) {
		hs := newHarness(t, flow.DefaultRules())
		hs.complete(userID)
		hs.platform.failSendsTo(userID, errPlatform)

		c := hs.decide(reviewerID, "reject:12345", "msg")
		if resp := c.lastResponse(); resp == nil || resp.Text != msgProcessingError {
			t.Fatalf("unexpected response: %+v", resp)
		}
		if _, ok := hs.session(userID); !ok {
			t.Fatal("session must be kept")
		}
	})

	t.Run("edit", func(t *testing.T) {
		hs := newHarness(t, flow.DefaultRules())
		hs.complete(userID)

		c := newContext(user(reviewerID))
		c.cb = &tele.Callback{Data: "approve:12345", Message: &tele.Message{Text: "msg"}}
		c.editErr = errPlatform
		if err := hs.h.Decision(c); err != nil {
			t.Fatalf("Decision: %v", err)
		}
		if resp := c.lastResponse(); resp == nil || resp.Text != msgProcessingError {
			t.Fatalf("unexpected response: %+v", resp)
		}
		if _, ok := hs.session(userID); !ok {
			t.Fatal("session must be kept")
		}
	})
}

func TestApproveAndRejectCommands(t *testing.T) {
	hs := newHarness(t, flow.DefaultRules())
	hs.complete(userID)

	c := newContext(user(reviewerID))
	c.args = []string{"nope"}
	if err := hs.h.ApproveCommand(c); err != nil {
		t.Fatalf("ApproveCommand: %v", err)
	}
	if c.lastText() != "Usage: /approve <user_id>" {
		t.Fatalf("unexpected reply %q", c.lastText())
	}

	c = newContext(user(reviewerID))
	c.args = []string{"12345"}
	if err := hs.h.ApproveCommand(c); err != nil {
		t.Fatalf("ApproveCommand: %v", err)
	}
	if !strings.Contains(c.lastText(), "approved") {
		t.Fatalf("unexpected reply %q", c.lastText())
	}
	if len(hs.platform.invites) != 1 {
		t.Fatal("expected an invite")
	}
	if _, ok := hs.session(userID); ok {
		t.Fatal("session must be deleted")
	}

	c = newContext(user(reviewerID))
	c.args = []string{"12345"}
	if err := hs.h.RejectCommand(c); err != nil {
		t.Fatalf("RejectCommand: %v", err)
	}
	if c.lastText() != msgSessionNotFound {
		t.Fatalf("unexpected reply %q", c.lastText())
	}
}

func TestPending(t *testing.T) {
	hs := newHarness(t, flow.DefaultRules())

	c := newContext(user(reviewerID))
	if err := hs.h.Pending(c); err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if c.lastText() != msgNoPending {
		t.Fatalf("unexpected reply %q", c.lastText())
	}

	hs.complete(userID)
	hs.start(555)

	c = newContext(user(reviewerID))
	if err := hs.h.Pending(c); err != nil {
		t.Fatalf("Pending: %v", err)
	}
	got := c.lastText()
	if !strings.Contains(got, "(1)") || !strings.Contains(got, "12345") || strings.Contains(got, "555") {
		t.Fatalf("unexpected pending list: %q", got)
	}
}

type recordingJournal struct {
	submissions []flow.Session
	decisions   []review.Action
	recent      []journal.DecisionEntry
}

func (r *recordingJournal) RecordSubmission(_ context.Context, s flow.Session) error {
	r.submissions = append(r.submissions, s)
	return nil
}

func (r *recordingJournal) RecordDecision(_ context.Context, _ flow.Session, a review.Action, _ int64, _ time.Time) error {
	r.decisions = append(r.decisions, a)
	return nil
}

func (r *recordingJournal) RecentDecisions(context.Context, int) ([]journal.DecisionEntry, error) {
	return r.recent, nil
}

func TestJournalAndHistory(t *testing.T) {
	hs := newHarness(t, flow.DefaultRules())
	j := &recordingJournal{}

	c := newContext(user(reviewerID))
	if err := hs.h.History(c); err != nil {
		t.Fatalf("History: %v", err)
	}
	if c.lastText() != msgHistoryDisabled {
		t.Fatalf("unexpected reply %q", c.lastText())
	}

	hs.h.journal = j
	hs.complete(userID)
	hs.decide(reviewerID, "approve:12345", "msg")
	if len(j.submissions) != 1 || j.submissions[0].SubmissionID != "sub-1" {
		t.Fatalf("submission not journaled: %+v", j.submissions)
	}
	if len(j.decisions) != 1 || j.decisions[0] != review.ActionApprove {
		t.Fatalf("decision not journaled: %+v", j.decisions)
	}

	j.recent = []journal.DecisionEntry{{UserID: userID, DisplayName: "alice", Action: "approve", DecidedAt: hs.now}}
	c = newContext(user(reviewerID))
	if err := hs.h.History(c); err != nil {
		t.Fatalf("History: %v", err)
	}
	if got := c.lastText(); !strings.Contains(got, "✅") || !strings.Contains(got, "alice") {
		t.Fatalf("unexpected history: %q", got)
	}
}

func TestRequest(t *testing.T) {
	hs := newHarness(t, flow.DefaultRules())

	c := newContext(user(userID))
	if err := hs.h.Request(c); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if c.lastText() != msgRequestSent {
		t.Fatalf("unexpected reply %q", c.lastText())
	}
	msgs := hs.platform.sentTo(reviewerID)
	if len(msgs) != 1 || !strings.Contains(msgs[0].text(), "User ID: 12345") {
		t.Fatalf("unexpected reviewer message: %+v", msgs)
	}

	hs.platform.failSendsTo(reviewerID, errPlatform)
	c = newContext(user(userID))
	if err := hs.h.Request(c); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if c.lastText() != msgRequestFailed {
		t.Fatalf("unexpected reply %q", c.lastText())
	}
}

func TestHelp(t *testing.T) {
	hs := newHarness(t, flow.DefaultRules())

	c := newContext(user(userID))
	if err := hs.h.Help(c); err != nil {
		t.Fatalf("Help: %v", err)
	}
	public := c.lastText()
	if !strings.Contains(public, "/start - ") || strings.Contains(public, "Admin Commands") {
		t.Fatalf("unexpected public help: %q", public)
	}

	c = newContext(user(reviewerID))
	if err := hs.h.Help(c); err != nil {
		t.Fatalf("Help: %v", err)
	}
	admin := c.lastText()
	if !strings.Contains(admin, "Admin Commands") || !strings.Contains(admin, "/approve <user_id> - ") {
		t.Fatalf("unexpected reviewer help: %q", admin)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{Gate: review.NewGate(1), ChannelID: "@c"}); err == nil {
		t.Fatal("expected error without platform")
	}
	if _, err := New(Options{Platform: &fakePlatform{}, ChannelID: "@c"}); err == nil {
		t.Fatal("expected error without reviewer")
	}
	if _, err := New(Options{Platform: &fakePlatform{}, Gate: review.NewGate(1)}); err == nil {
		t.Fatal("expected error without channel")
	}
}
