// Package handlers turns Telegram updates into questionnaire transitions and
// reviewer decisions for the access bot.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	accessconfig "github.com/m3rciful/gatekeeper/bots/access/config"
	"github.com/m3rciful/gatekeeper/bots/access/flow"
	"github.com/m3rciful/gatekeeper/bots/access/journal"
	"github.com/m3rciful/gatekeeper/bots/access/review"
	"github.com/m3rciful/gatekeeper/core/logger"
	tg "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/commands"
	"github.com/m3rciful/gatekeeper/core/telegram/helpers"
	"github.com/m3rciful/gatekeeper/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const component = "access"

// Platform is the subset of the Bot API the handlers call outside the
// current update's reply path. *tele.Bot implements it.
type Platform interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	CreateInviteLink(chat tele.Recipient, link *tele.ChatInviteLink) (*tele.ChatInviteLink, error)
}

// Options wires the handlers to their collaborators.
type Options struct {
	Platform Platform
	Sessions *state.MemoryStore[flow.Session]
	Gate     review.Gate
	Rules    flow.Rules
	Journal  journal.Journal
	Registry *tg.Registry

	PollQuestion string
	// ChannelID is a numeric chat id or an @username.
	ChannelID string
	InviteTTL time.Duration
	Location  *time.Location

	Now   func() time.Time
	NewID func() string
}

// Handlers owns the session store and serves every access bot endpoint.
type Handlers struct {
	platform Platform
	sessions *state.MemoryStore[flow.Session]
	gate     review.Gate
	rules    flow.Rules
	journal  journal.Journal
	registry *tg.Registry

	pollQuestion string
	channel      tele.Recipient
	inviteTTL    time.Duration
	loc          *time.Location

	now   func() time.Time
	newID func() string
}

// New validates opts and fills defaults for the optional ones.
func New(opts Options) (*Handlers, error) {
	if opts.Platform == nil {
		return nil, fmt.Errorf("handlers: platform is required")
	}
	if opts.Gate.ReviewerID == 0 {
		return nil, fmt.Errorf("handlers: reviewer id is required")
	}
	channel := strings.TrimSpace(opts.ChannelID)
	if channel == "" {
		return nil, fmt.Errorf("handlers: channel id is required")
	}
	if len(opts.Rules.PollOptions) == 0 {
		opts.Rules = flow.DefaultRules()
	}

	h := &Handlers{
		platform:     opts.Platform,
		sessions:     opts.Sessions,
		gate:         opts.Gate,
		rules:        opts.Rules,
		journal:      opts.Journal,
		registry:     opts.Registry,
		pollQuestion: opts.PollQuestion,
		channel:      channelRef(channel),
		inviteTTL:    opts.InviteTTL,
		loc:          opts.Location,
		now:          opts.Now,
		newID:        opts.NewID,
	}
	if h.sessions == nil {
		h.sessions = state.NewMemoryStore[flow.Session]()
	}
	if h.journal == nil {
		h.journal = journal.Nop{}
	}
	if h.registry == nil {
		h.registry = tg.NewRegistry()
	}
	if h.pollQuestion == "" {
		h.pollQuestion = accessconfig.DefaultPollQuestion
	}
	if h.inviteTTL <= 0 {
		h.inviteTTL = time.Hour
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newID == nil {
		h.newID = uuid.NewString
	}
	return h, nil
}

// Sessions exposes the store, mainly for lifecycle logging.
func (h *Handlers) Sessions() *state.MemoryStore[flow.Session] {
	return h.sessions
}

// Register adds the bot commands to reg. The same registry backs /help.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Start the authorization process",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h.Cancel,
		Description: "Cancel the current request",
	})
	reg.RegisterCommand("/request", commands.Command{
		Handler:     h.Request,
		Description: "Request channel access",
	})
	reg.RegisterCommand("/resubmit", commands.Command{
		Handler:     h.Resubmit,
		Description: "Send a completed application to the reviewer again",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     h.Help,
		Description: "Show this help message",
	})

	reg.RegisterCommand("/pending", commands.Command{
		Handler:      h.Pending,
		Description:  "List applications waiting for a decision",
		ReviewerOnly: true,
	})
	reg.RegisterCommand("/approve", commands.Command{
		Handler:      h.ApproveCommand,
		Description:  "Approve user request",
		Usage:        "/approve <user_id>",
		ReviewerOnly: true,
	})
	reg.RegisterCommand("/reject", commands.Command{
		Handler:      h.RejectCommand,
		Description:  "Reject user request",
		Usage:        "/reject <user_id>",
		ReviewerOnly: true,
		Aliases:      []string{"deny"},
	})
	reg.RegisterCommand("/history", commands.Command{
		Handler:      h.History,
		Description:  "Show recent decisions",
		Usage:        "/history [n]",
		ReviewerOnly: true,
	})
	h.registry = reg
}

// IsReviewer reports whether senderID may run reviewer commands.
func (h *Handlers) IsReviewer(senderID int64) bool {
	return h.gate.IsReviewer(senderID)
}

// RejectNonReviewer answers reviewer-only commands sent by anyone else.
func (h *Handlers) RejectNonReviewer(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	logger.Warn(ctx, "review", "command.unauthorized",
		slog.String("outcome", "denied"),
		slog.String("reason", "not_reviewer"),
	)
	return helpers.SendText(c, "Unauthorized. This command is admin-only.")
}

// channelRef addresses a chat by numeric id or @username.
type channelRef string

func (c channelRef) Recipient() string { return string(c) }

func userRecipient(id int64) tele.Recipient {
	return &tele.User{ID: id}
}

func profileOf(u *tele.User) flow.Profile {
	return flow.Profile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func parseUserArg(c tele.Context) (int64, bool) {
	args := c.Args()
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func stepAttrs(s flow.Session) []slog.Attr {
	return []slog.Attr{
		slog.Int64("target_user_id", s.UserID),
		slog.String("step", string(s.Step)),
	}
}

func logRejection(ctx context.Context, current flow.Step, o flow.Outcome) {
	logger.Info(ctx, component, "step.rejected",
		slog.String("status", "rejected"),
		slog.String("step", string(current)),
		slog.String("reason", string(o.Reason)),
	)
}
