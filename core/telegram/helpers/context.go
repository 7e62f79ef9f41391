package helpers

import (
	"context"

	"github.com/m3rciful/gatekeeper/core/logger"

	tele "gopkg.in/telebot.v4"
)

const logContextKey = "log_ctx"

// BuildContext returns the logging context of the update behind c. The
// first call derives it from the update, sender and chat ids and caches it on c.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(logContextKey).(context.Context); ok {
		return ctx
	}
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	ctx := logger.WithMeta(context.Background(), logger.NewMeta(c.Update().ID, chatID, userID))
	c.Set(logContextKey, ctx)
	return ctx
}

// HasContext reports whether BuildContext already ran for this update.
func HasContext(c tele.Context) bool {
	_, ok := c.Get(logContextKey).(context.Context)
	return ok
}

// WithHandler names the handler serving c in every later log line.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	c.Set(logContextKey, ctx)
	return ctx
}
