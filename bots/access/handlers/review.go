package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/gatekeeper/bots/access/flow"
	"github.com/m3rciful/gatekeeper/bots/access/journal"
	"github.com/m3rciful/gatekeeper/bots/access/review"
	"github.com/m3rciful/gatekeeper/core/logger"
	"github.com/m3rciful/gatekeeper/core/telegram/callbacks"
	"github.com/m3rciful/gatekeeper/core/telegram/format"
	"github.com/m3rciful/gatekeeper/core/telegram/helpers"
	"github.com/m3rciful/gatekeeper/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

func decisionKeyboard(userID int64) *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: btnApprove, Data: review.Decision{Action: review.ActionApprove, UserID: userID}.Payload()},
		{Text: btnReject, Data: review.Decision{Action: review.ActionReject, UserID: userID}.Payload()},
	})
}

func (h *Handlers) reviewerChat() tele.Recipient {
	return &tele.Chat{ID: h.gate.ReviewerID}
}

func alert(text string) *tele.CallbackResponse {
	return &tele.CallbackResponse{Text: text, ShowAlert: true}
}

// Decision handles the Approve/Reject buttons on a forwarded submission.
// Checks run in order: reviewer identity, payload shape, session existence.
func (h *Handlers) Decision(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	sender := c.Sender()
	if sender == nil || !h.gate.IsReviewer(sender.ID) {
		logger.Warn(ctx, "review", "decision.unauthorized", slog.String("outcome", "denied"))
		return c.Respond(alert(msgUnauthorized))
	}

	d, err := review.ParseDecision(callbacks.RawData(c))
	if err != nil {
		logger.Warn(ctx, "review", "decision.invalid",
			slog.String("err", logger.SanitizeLimit(err.Error(), 128)),
		)
		if errors.Is(err, review.ErrUnknownAction) {
			return c.Respond(alert(msgUnknownAction))
		}
		return c.Respond(alert(msgInvalidPayload))
	}

	s, ok := h.sessions.Get(d.UserID)
	if !ok || !s.AwaitingReview() {
		logger.Warn(ctx, "review", "decision.no_session",
			slog.Int64("target_user_id", d.UserID),
		)
		return c.Respond(alert(msgSessionNotFound))
	}

	if err := h.execute(d, s); err != nil {
		return h.failDecision(c, d, err)
	}

	var original string
	if cb := c.Callback(); cb != nil && cb.Message != nil {
		original = cb.Message.Text
	}
	if err := helpers.EditHTML(c, review.Annotate(original, d.Action)); err != nil {
		return h.failDecision(c, d, err)
	}

	h.finish(c, d, s, sender.ID)
	if d.Action == review.ActionApprove {
		return c.Respond(&tele.CallbackResponse{Text: msgApprovedToast})
	}
	return c.Respond(&tele.CallbackResponse{Text: msgRejectedToast})
}

// ApproveCommand is the typed fallback for the Approve button: /approve <user_id>.
func (h *Handlers) ApproveCommand(c tele.Context) error {
	return h.decideByCommand(c, review.ActionApprove)
}

// RejectCommand is the typed fallback for the Reject button: /reject <user_id>.
func (h *Handlers) RejectCommand(c tele.Context) error {
	return h.decideByCommand(c, review.ActionReject)
}

func (h *Handlers) decideByCommand(c tele.Context, action review.Action) error {
	userID, ok := parseUserArg(c)
	if !ok {
		return helpers.SendText(c, fmt.Sprintf("Usage: /%s <user_id>", action))
	}

	s, found := h.sessions.Get(userID)
	if !found || !s.AwaitingReview() {
		return helpers.SendText(c, msgSessionNotFound)
	}

	d := review.Decision{Action: action, UserID: userID}
	if err := h.execute(d, s); err != nil {
		ctx := helpers.BuildContext(c)
		logger.Error(ctx, "review", "decision.fail",
			slog.String("action", string(action)),
			slog.Int64("target_user_id", userID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return helpers.SendText(c, msgProcessingError)
	}

	h.finish(c, d, s, c.Sender().ID)
	if action == review.ActionApprove {
		return helpers.SendText(c, fmt.Sprintf("User %d has been approved and sent an invite link.", userID))
	}
	return helpers.SendText(c, fmt.Sprintf("User %d has been notified of the rejection.", userID))
}

// execute performs the platform side of a decision: invite and notify on
// approve, notify on reject. The session is not touched.
func (h *Handlers) execute(d review.Decision, s flow.Session) error {
	to := userRecipient(s.UserID)

	switch d.Action {
	case review.ActionApprove:
		link, err := h.platform.CreateInviteLink(h.channel, &tele.ChatInviteLink{
			ExpireUnixtime: h.now().Add(h.inviteTTL).Unix(),
			MemberLimit:    1,
		})
		if err != nil {
			return fmt.Errorf("create invite link: %w", err)
		}
		if link == nil || link.InviteLink == "" {
			return fmt.Errorf("create invite link: empty link")
		}
		if _, err := h.platform.Send(to, approvedUser(link.InviteLink, h.inviteTTL)); err != nil {
			return fmt.Errorf("send invite: %w", err)
		}
	case review.ActionReject:
		if _, err := h.platform.Send(to, msgRejectedUser); err != nil {
			return fmt.Errorf("send rejection: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", review.ErrUnknownAction, d.Action)
	}
	return nil
}

func (h *Handlers) finish(c tele.Context, d review.Decision, s flow.Session, reviewerID int64) {
	ctx := helpers.BuildContext(c)
	h.sessions.Delete(s.UserID)
	logger.Info(ctx, "review", "decision.done",
		slog.String("action", string(d.Action)),
		slog.Int64("target_user_id", s.UserID),
		slog.String("submission_id", s.SubmissionID),
	)
	if err := h.journal.RecordDecision(ctx, s, d.Action, reviewerID, h.now()); err != nil {
		logger.Warn(ctx, component, "journal.decision.fail",
			slog.String("submission_id", s.SubmissionID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

func (h *Handlers) failDecision(c tele.Context, d review.Decision, err error) error {
	ctx := helpers.BuildContext(c)
	logger.Error(ctx, "review", "decision.fail",
		slog.String("action", string(d.Action)),
		slog.Int64("target_user_id", d.UserID),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	return c.Respond(alert(msgProcessingError))
}

// Pending lists completed applications still waiting for a decision.
func (h *Handlers) Pending(c tele.Context) error {
	entries := h.sessions.Snapshot(flow.Session.AwaitingReview)

	ctx := helpers.BuildContext(c)
	logger.Info(ctx, "review", "pending.list", slog.Int("pending", len(entries)))

	if len(entries) == 0 {
		return helpers.SendText(c, msgNoPending)
	}

	var b strings.Builder
	b.WriteString(format.Bold(fmt.Sprintf("⏳ Pending applications (%d)", len(entries))))
	for _, e := range entries {
		s := e.Session
		fmt.Fprintf(&b, "\n\n• %s, id %s\n  submitted %s",
			format.Escape(s.Profile.DisplayName()),
			format.Code(strconv.FormatInt(s.UserID, 10)),
			s.SubmittedAt.In(h.loc).Format("2006-01-02 15:04"),
		)
		if !s.Forwarded {
			b.WriteString(" ⚠️ " + format.Italic("not delivered"))
		}
	}
	return helpers.SendHTML(c, b.String())
}

// History shows the most recent decisions from the journal: /history [n].
func (h *Handlers) History(c tele.Context) error {
	limit := 0
	if args := c.Args(); len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil {
			limit = n
		}
	}

	ctx := helpers.BuildContext(c)
	entries, err := h.journal.RecentDecisions(ctx, limit)
	switch {
	case errors.Is(err, journal.ErrDisabled):
		return helpers.SendText(c, msgHistoryDisabled)
	case err != nil:
		logger.Error(ctx, "review", "history.fail",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return helpers.SendText(c, msgHistoryFailed)
	case len(entries) == 0:
		return helpers.SendText(c, msgHistoryEmpty)
	}

	var b strings.Builder
	b.WriteString(format.Bold("🗂 Recent decisions"))
	for _, e := range entries {
		mark := "❌"
		if e.Action == string(review.ActionApprove) {
			mark = "✅"
		}
		fmt.Fprintf(&b, "\n%s %s %s (%s)",
			mark,
			e.DecidedAt.In(h.loc).Format("2006-01-02 15:04"),
			format.Escape(e.DisplayName),
			format.Code(strconv.FormatInt(e.UserID, 10)),
		)
	}
	return helpers.SendHTML(c, b.String())
}

// Request sends the sender's identity to the reviewer without running the
// questionnaire.
func (h *Handlers) Request(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return helpers.SendText(c, msgUnidentified)
	}

	ctx := helpers.BuildContext(c)
	text := "📝 New Access Request:\n\n" + review.FormatRequester(sender.ID, profileOf(sender))
	if _, err := h.platform.Send(h.reviewerChat(), text); err != nil {
		logger.Error(ctx, "review", "request.fail",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return helpers.SendText(c, msgRequestFailed)
	}
	logger.Info(ctx, "review", "request.sent")
	return helpers.SendText(c, msgRequestSent)
}

// Help lists public commands, plus reviewer commands for the reviewer.
func (h *Handlers) Help(c tele.Context) error {
	var b strings.Builder
	b.WriteString("🤖 Bot Commands:\n\n")
	b.WriteString(strings.Join(h.registry.HelpLines(false), "\n"))

	if sender := c.Sender(); sender != nil && h.gate.IsReviewer(sender.ID) {
		if lines := h.registry.HelpLines(true); len(lines) > 0 {
			b.WriteString("\n\nAdmin Commands:\n")
			b.WriteString(strings.Join(lines, "\n"))
		}
	}
	return helpers.SendText(c, b.String())
}
