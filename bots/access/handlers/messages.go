package handlers

import (
	"fmt"
	"time"

	"github.com/m3rciful/gatekeeper/bots/access/flow"
)

const (
	msgUnidentified = "Unable to identify user."
	msgStartFirst   = "Please start the authorization process first using /start"

	msgWelcome = "👋 Welcome to the authorization bot!\n\n" +
		"To gain access to our channel, please complete the following 3 steps:\n\n" +
		"📱 Step 1: Share your phone number\n" +
		"📊 Step 2: Answer a quick poll\n" +
		"💬 Step 3: Provide a text response\n\n" +
		"Let's get started!"
	msgAskPhone      = "📱 Step 1/3: Please share your phone number"
	btnSharePhone    = "📱 Share Phone Number"
	msgBadContact    = "Unable to process contact information."
	msgForeignPhone  = "❌ Please share your own phone number, not someone else's.\n\nUse the button below to share your contact."
	msgPhoneReceived = "✅ Phone number received!"
	msgAskPoll       = "📊 Step 2/3: Please answer this poll question"

	msgEmptyPoll    = "❌ Please select an option from the poll."
	msgPollRange    = "❌ That option is not available. Please pick one of the poll options."
	msgPollReceived = "✅ Poll answer received!"
	msgAskText      = "💬 Step 3/3: Please provide a text response.\n\nType your message below (or use /cancel to restart):"

	msgSubmitted      = "✅ Thank you! Your application is being reviewed."
	msgForwardFailed  = "⚠️ There was an error submitting your application. Please try again later with /resubmit."
	msgResubmitted    = "✅ Your application has been sent to the reviewer again."
	msgAlreadyInQueue = "Your application is already under review."

	msgCancelled = "❌ Authorization process cancelled.\n\nUse /start to begin again."

	msgRemindPhone = "Please share your phone number using the button provided."
	msgRemindPoll  = "Please answer the poll first."
	msgRemindText  = "Please provide your text response."
	msgRemindDone  = "You have already completed the authorization process."

	msgRequestSent   = "Your request has been submitted to the admin for review."
	msgRequestFailed = "Failed to submit request. Please try again later."

	msgApprovedToast   = "✅ User approved and invite sent!"
	msgRejectedToast   = "❌ User rejected and notified."
	msgUnauthorized    = "⛔ Unauthorized. Admin only."
	msgInvalidPayload  = "Invalid callback data"
	msgUnknownAction   = "Unknown action"
	msgSessionNotFound = "⚠️ User session not found"
	msgProcessingError = "⚠️ Error processing request"

	msgRejectedUser = "❌ Your authorization request has been rejected.\n\nIf you believe this is an error, please contact support."

	msgNoPending       = "No requests are waiting for review."
	msgHistoryDisabled = "History is unavailable: no database is configured."
	msgHistoryEmpty    = "No decisions recorded yet."
	msgHistoryFailed   = "⚠️ Failed to load decision history."

	btnApprove = "✅ Approve"
	btnReject  = "❌ Reject"
)

func textTooShort(min int) string {
	return fmt.Sprintf("❌ Your response is too short. Please provide at least %d characters.\n\nTry again:", min)
}

func textTooLong(max int) string {
	return fmt.Sprintf("❌ Your response is too long. Please keep it to %d characters or fewer.\n\nTry again:", max)
}

func approvedUser(link string, ttl time.Duration) string {
	return fmt.Sprintf("✅ Your authorization request has been approved!\n\n"+
		"Join the channel using this link: %s\n\n"+
		"Note: This link expires in %s and works once.", link, humanDuration(ttl))
}

func reminderFor(step flow.Step) string {
	switch step {
	case flow.StepAwaitingPhone:
		return msgRemindPhone
	case flow.StepAwaitingPoll:
		return msgRemindPoll
	case flow.StepAwaitingText:
		return msgRemindText
	}
	return msgRemindDone
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return d.String()
}
