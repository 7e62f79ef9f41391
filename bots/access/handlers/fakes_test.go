package handlers

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/gatekeeper/bots/access/flow"
	"github.com/m3rciful/gatekeeper/bots/access/review"
	tg "github.com/m3rciful/gatekeeper/core/telegram"

	tele "gopkg.in/telebot.v4"
)

const (
	reviewerID = int64(900)
	userID     = int64(12345)
	channelID  = "-1001234567890"
)

var errPlatform = errors.New("telegram: Bad Request: chat not found (400)")

type sentMsg struct {
	to   string
	what interface{}
	opts []interface{}
}

func (m sentMsg) text() string {
	s, _ := m.what.(string)
	return s
}

func (m sentMsg) markup() *tele.ReplyMarkup {
	for _, o := range m.opts {
		if so, ok := o.(*tele.SendOptions); ok {
			return so.ReplyMarkup
		}
	}
	return nil
}

// fakeContext implements the parts of tele.Context the handlers touch.
type fakeContext struct {
	tele.Context

	sender *tele.User
	msg    *tele.Message
	text   string
	args   []string
	cb     *tele.Callback
	answer *tele.PollAnswer

	store     map[string]interface{}
	sent      []sentMsg
	edits     []string
	responses []*tele.CallbackResponse
	editErr   error
}

func newContext(sender *tele.User) *fakeContext {
	return &fakeContext{sender: sender, store: map[string]interface{}{}}
}

func (f *fakeContext) Sender() *tele.User { return f.sender }

func (f *fakeContext) Chat() *tele.Chat {
	if f.sender == nil || f.answer != nil {
		return nil
	}
	return &tele.Chat{ID: f.sender.ID}
}

func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 1} }
func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Text() string { return f.text }
func (f *fakeContext) Args() []string { return f.args }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) PollAnswer() *tele.PollAnswer { return f.answer }
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) { f.store[key] = v }

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, sentMsg{what: what, opts: opts})
	return nil
}

func (f *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	if f.editErr != nil {
		return f.editErr
	}
	s, _ := what.(string)
	f.edits = append(f.edits, s)
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func (f *fakeContext) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].text()
}

func (f *fakeContext) lastResponse() *tele.CallbackResponse {
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

// fakePlatform records out-of-band sends and invite requests.
type fakePlatform struct {
	sent      []sentMsg
	invites   []*tele.ChatInviteLink
	inviteTo  []string
	sendErr   map[string]error
	inviteErr error
}

func (p *fakePlatform) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if err := p.sendErr[to.Recipient()]; err != nil {
		return nil, err
	}
	p.sent = append(p.sent, sentMsg{to: to.Recipient(), what: what, opts: opts})
	return &tele.Message{ID: len(p.sent)}, nil
}

func (p *fakePlatform) CreateInviteLink(chat tele.Recipient, link *tele.ChatInviteLink) (*tele.ChatInviteLink, error) {
	if p.inviteErr != nil {
		return nil, p.inviteErr
	}
	p.inviteTo = append(p.inviteTo, chat.Recipient())
	p.invites = append(p.invites, link)
	out := *link
	out.InviteLink = "https://t.me/+invite"
	return &out, nil
}

func (p *fakePlatform) failSendsTo(id int64, err error) {
	if p.sendErr == nil {
		p.sendErr = map[string]error{}
	}
	p.sendErr[(&tele.User{ID: id}).Recipient()] = err
}

func (p *fakePlatform) sentTo(id int64) []sentMsg {
	want := (&tele.User{ID: id}).Recipient()
	var out []sentMsg
	for _, m := range p.sent {
		if m.to == want {
			out = append(out, m)
		}
	}
	return out
}

type harness struct {
	t        *testing.T
	h        *Handlers
	platform *fakePlatform
	now      time.Time
}

func newHarness(t *testing.T, rules flow.Rules) *harness {
	t.Helper()
	hs := &harness{
		t:        t,
		platform: &fakePlatform{},
		now:      time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
	}
	reg := tg.NewRegistry()
	h, err := New(Options{
		Platform:     hs.platform,
		Gate:         review.NewGate(reviewerID),
		Rules:        rules,
		Registry:     reg,
		PollQuestion: "Which option do you prefer?",
		ChannelID:    channelID,
		Now:          func() time.Time { return hs.now },
		NewID:        func() string { return "sub-1" },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.Register(reg)
	hs.h = h
	return hs
}

func user(id int64) *tele.User {
	return &tele.User{ID: id, Username: "alice", FirstName: "Alice", LastName: "Doe"}
}

func (hs *harness) start(id int64) *fakeContext {
	hs.t.Helper()
	c := newContext(user(id))
	c.text = "/start"
	if err := hs.h.Start(c); err != nil {
		hs.t.Fatalf("Start: %v", err)
	}
	return c
}

func (hs *harness) contact(id, owner int64) *fakeContext {
	hs.t.Helper()
	c := newContext(user(id))
	c.msg = &tele.Message{Contact: &tele.Contact{PhoneNumber: "+15550001", UserID: owner}}
	if err := hs.h.Contact(c); err != nil {
		hs.t.Fatalf("Contact: %v", err)
	}
	return c
}

func (hs *harness) pollAnswer(id int64, options ...int) *fakeContext {
	hs.t.Helper()
	c := newContext(user(id))
	c.answer = &tele.PollAnswer{Options: options}
	if err := hs.h.PollAnswer(c); err != nil {
		hs.t.Fatalf("PollAnswer: %v", err)
	}
	return c
}

func (hs *harness) sendText(id int64, text string) *fakeContext {
	hs.t.Helper()
	c := newContext(user(id))
	c.text = text
	if err := hs.h.Text(c); err != nil {
		hs.t.Fatalf("Text: %v", err)
	}
	return c
}

func (hs *harness) decide(senderID int64, data, original string) *fakeContext {
	hs.t.Helper()
	c := newContext(user(senderID))
	c.cb = &tele.Callback{Data: data, Message: &tele.Message{Text: original}}
	if err := hs.h.Decision(c); err != nil {
		hs.t.Fatalf("Decision: %v", err)
	}
	return c
}

// complete walks id through the whole questionnaire.
func (hs *harness) complete(id int64) {
	hs.t.Helper()
	hs.start(id)
	hs.contact(id, id)
	hs.pollAnswer(id, 0)
	hs.sendText(id, strings.Repeat("x", hs.h.rules.MinText))
}

func (hs *harness) session(id int64) (flow.Session, bool) {
	return hs.h.Sessions().Get(id)
}
