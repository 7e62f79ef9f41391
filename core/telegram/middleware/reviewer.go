package middleware

import tele "gopkg.in/telebot.v4"

// ReviewerOptions defines how reviewer-only checks should behave.
type ReviewerOptions struct {
	IsReviewer func(senderID int64) bool
	OnReject   tele.HandlerFunc
}

// ReviewerOnlyMiddleware ensures that only the reviewer can invoke downstream handlers.
// Without a predicate every sender is rejected.
func ReviewerOnlyMiddleware(opts ReviewerOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || opts.IsReviewer == nil || !opts.IsReviewer(sender.ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
