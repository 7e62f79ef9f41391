package handlers

import (
	"log/slog"

	"github.com/m3rciful/gatekeeper/bots/access/flow"
	"github.com/m3rciful/gatekeeper/bots/access/review"
	"github.com/m3rciful/gatekeeper/core/logger"
	"github.com/m3rciful/gatekeeper/core/telegram/helpers"
	"github.com/m3rciful/gatekeeper/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Start resets the sender's session to the first step and asks for the phone
// number.
func (h *Handlers) Start(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return helpers.SendText(c, msgUnidentified)
	}

	s := flow.NewSession(sender.ID, profileOf(sender), h.now())
	h.sessions.Create(sender.ID, s)

	ctx := helpers.BuildContext(c)
	logger.Info(ctx, component, "session.start", stepAttrs(s)...)

	if err := helpers.SendText(c, msgWelcome); err != nil {
		return err
	}
	return helpers.SendText(c, msgAskPhone, &tele.SendOptions{
		ReplyMarkup: keyboard.ContactRequest(btnSharePhone),
	})
}

// Contact accepts the sender's own phone number and issues the poll.
func (h *Handlers) Contact(c tele.Context) error {
	sender := c.Sender()
	msg := c.Message()
	if sender == nil || msg == nil || msg.Contact == nil {
		return helpers.SendText(c, msgBadContact)
	}

	s, ok := h.sessions.Get(sender.ID)
	if !ok {
		return helpers.SendText(c, msgStartFirst)
	}

	out := flow.Transition(s.Step, flow.Event{
		Kind:           flow.KindContact,
		SenderID:       sender.ID,
		ContactOwnerID: msg.Contact.UserID,
		PhoneNumber:    msg.Contact.PhoneNumber,
	}, h.rules)

	ctx := helpers.BuildContext(c)
	if !out.Accepted {
		logRejection(ctx, s.Step, out)
		switch out.Reason {
		case flow.ReasonForeignContact:
			return helpers.SendText(c, msgForeignPhone, &tele.SendOptions{
				ReplyMarkup: keyboard.ContactRequest(btnSharePhone),
			})
		case flow.ReasonEmptyPhone:
			return helpers.SendText(c, msgBadContact)
		}
		return helpers.SendText(c, reminderFor(out.Step))
	}

	h.sessions.Mutate(sender.ID, func(s *flow.Session) { s.Apply(out) })
	logger.Info(ctx, component, "step.advanced",
		slog.String("step", string(s.Step)),
		slog.String("next_step", string(out.Step)),
	)

	if err := helpers.SendText(c, msgPhoneReceived, &tele.SendOptions{
		ReplyMarkup: keyboard.RemoveKeyboard(),
	}); err != nil {
		return err
	}
	if err := helpers.SendText(c, msgAskPoll); err != nil {
		return err
	}
	return helpers.SendPoll(c, h.poll())
}

// PollAnswer records the selected option. Poll answers arrive outside any
// chat, so replies are addressed to the voter directly.
func (h *Handlers) PollAnswer(c tele.Context) error {
	sender := c.Sender()
	answer := c.PollAnswer()
	if sender == nil || answer == nil {
		return nil
	}
	to := userRecipient(sender.ID)

	s, ok := h.sessions.Get(sender.ID)
	if !ok {
		return helpers.SendHTMLTo(c, h.platform, to, msgStartFirst)
	}

	out := flow.Transition(s.Step, flow.Event{
		Kind:     flow.KindPollAnswer,
		SenderID: sender.ID,
		Options:  answer.Options,
	}, h.rules)

	ctx := helpers.BuildContext(c)
	if !out.Accepted {
		logRejection(ctx, s.Step, out)
		switch out.Reason {
		case flow.ReasonEmptyPoll:
			return helpers.SendHTMLTo(c, h.platform, to, msgEmptyPoll)
		case flow.ReasonPollOutOfRange:
			return helpers.SendHTMLTo(c, h.platform, to, msgPollRange)
		}
		return helpers.SendHTMLTo(c, h.platform, to, reminderFor(out.Step))
	}

	h.sessions.Mutate(sender.ID, func(s *flow.Session) { s.Apply(out) })
	logger.Info(ctx, component, "step.advanced",
		slog.String("step", string(s.Step)),
		slog.String("next_step", string(out.Step)),
	)

	if err := helpers.SendHTMLTo(c, h.platform, to, msgPollReceived); err != nil {
		return err
	}
	return helpers.SendHTMLTo(c, h.platform, to, msgAskText)
}

// Text takes the free-text answer, completes the session and forwards the
// submission to the reviewer. Commands never reach this handler.
func (h *Handlers) Text(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	s, ok := h.sessions.Get(sender.ID)
	if !ok {
		return helpers.SendText(c, msgStartFirst)
	}

	out := flow.Transition(s.Step, flow.Event{
		Kind:     flow.KindText,
		SenderID: sender.ID,
		Text:     c.Text(),
	}, h.rules)

	ctx := helpers.BuildContext(c)
	if !out.Accepted {
		logRejection(ctx, s.Step, out)
		switch out.Reason {
		case flow.ReasonTextTooShort:
			return helpers.SendText(c, textTooShort(h.rules.MinText))
		case flow.ReasonTextTooLong:
			return helpers.SendText(c, textTooLong(h.rules.MaxText))
		}
		return helpers.SendText(c, reminderFor(out.Step))
	}

	submittedAt := h.now()
	submissionID := h.newID()
	h.sessions.Mutate(sender.ID, func(s *flow.Session) {
		s.Apply(out)
		s.SubmissionID = submissionID
		s.SubmittedAt = submittedAt
	})
	s, _ = h.sessions.Get(sender.ID)
	logger.Info(ctx, component, "session.completed",
		slog.String("submission_id", submissionID),
	)

	if err := helpers.SendText(c, msgSubmitted); err != nil {
		return err
	}
	return h.submit(c, s)
}

// Cancel drops the sender's session, if any, and always acknowledges.
func (h *Handlers) Cancel(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return helpers.SendText(c, msgUnidentified)
	}
	existed := h.sessions.Delete(sender.ID)

	ctx := helpers.BuildContext(c)
	logger.Info(ctx, component, "session.cancel",
		slog.Bool("existed", existed),
	)
	return helpers.SendText(c, msgCancelled)
}

// Resubmit forwards a completed application whose earlier forward failed.
func (h *Handlers) Resubmit(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return helpers.SendText(c, msgUnidentified)
	}

	s, ok := h.sessions.Get(sender.ID)
	switch {
	case !ok:
		return helpers.SendText(c, msgStartFirst)
	case !s.AwaitingReview():
		return helpers.SendText(c, reminderFor(s.Step))
	case s.Forwarded:
		return helpers.SendText(c, msgAlreadyInQueue)
	}

	if !h.forward(c, s) {
		return helpers.SendText(c, msgForwardFailed)
	}
	return helpers.SendText(c, msgResubmitted)
}

func (h *Handlers) submit(c tele.Context, s flow.Session) error {
	if !h.forward(c, s) {
		return helpers.SendText(c, msgForwardFailed)
	}
	return nil
}

// forward delivers the submission to the reviewer and marks it forwarded.
// A failed forward leaves the session completed so /resubmit can retry it.
func (h *Handlers) forward(c tele.Context, s flow.Session) bool {
	ctx := helpers.BuildContext(c)

	_, err := h.platform.Send(h.reviewerChat(), review.FormatSubmission(s, h.loc), &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: decisionKeyboard(s.UserID),
	})
	if err != nil {
		logger.Error(ctx, "review", "forward.fail",
			slog.String("submission_id", s.SubmissionID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return false
	}

	h.sessions.Mutate(s.UserID, func(s *flow.Session) { s.Forwarded = true })
	logger.Info(ctx, "review", "forward.ok",
		slog.String("submission_id", s.SubmissionID),
		slog.Bool("forwarded", true),
	)

	if err := h.journal.RecordSubmission(ctx, s); err != nil {
		logger.Warn(ctx, component, "journal.submission.fail",
			slog.String("submission_id", s.SubmissionID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return true
}

func (h *Handlers) poll() *tele.Poll {
	options := make([]tele.PollOption, len(h.rules.PollOptions))
	for i, label := range h.rules.PollOptions {
		options[i] = tele.PollOption{Text: label}
	}
	return &tele.Poll{
		Type:      tele.PollRegular,
		Question:  h.pollQuestion,
		Options:   options,
		Anonymous: false,
	}
}
