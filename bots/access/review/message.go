package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/gatekeeper/bots/access/flow"
	"github.com/m3rciful/gatekeeper/core/telegram/format"
)

const na = "N/A"

// FormatSubmission renders a completed session as the HTML reviewer message.
func FormatSubmission(s flow.Session, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	username := na
	if s.Profile.Username != "" {
		username = "@" + s.Profile.Username
	}

	var b strings.Builder
	b.WriteString("<b>📋 New access request</b>\n\n")
	b.WriteString("<b>User</b>\n")
	fmt.Fprintf(&b, "👤 Name: %s\n", format.Code(s.Profile.DisplayName()))
	fmt.Fprintf(&b, "🆔 Username: %s\n", format.Code(username))
	fmt.Fprintf(&b, "🔢 User ID: %s\n\n", format.Code(fmt.Sprint(s.UserID)))
	b.WriteString("<b>Answers</b>\n")
	fmt.Fprintf(&b, "📞 Phone: %s\n", format.Code(format.OrNA(s.PhoneNumber, na)))
	fmt.Fprintf(&b, "📊 Poll choice: %s\n", format.Italic(format.OrNA(s.PollChoice, na)))
	fmt.Fprintf(&b, "💬 Text response: %s\n\n", format.Italic(format.OrNA(s.TextResponse, na)))
	fmt.Fprintf(&b, "⏰ Started: %s", s.StartedAt.In(loc).Format("2006-01-02 15:04:05 MST"))
	if s.SubmissionID != "" {
		fmt.Fprintf(&b, "\n🧾 Submission: %s", format.Code(s.SubmissionID))
	}
	return b.String()
}

// FormatRequester renders the identity block sent with a plain /request.
func FormatRequester(userID int64, p flow.Profile) string {
	username := na
	if p.Username != "" {
		username = "@" + p.Username
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	return fmt.Sprintf("User ID: %d\nUsername: %s\nName: %s", userID, username, format.OrNA(name, na))
}

// Annotate appends the verdict banner to the reviewer's original message text.
// The original text arrives without markup, so it is escaped before reuse.
func Annotate(original string, action Action) string {
	banner := "❌ <b>REJECTED</b>"
	if action == ActionApprove {
		banner = "✅ <b>APPROVED</b>"
	}
	if strings.TrimSpace(original) == "" {
		return banner
	}
	return format.Escape(original) + "\n\n" + banner
}
