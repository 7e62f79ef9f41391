package middleware

import (
	"log/slog"

	"github.com/m3rciful/gatekeeper/core/logger"
	"github.com/m3rciful/gatekeeper/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/gatekeeper/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware attaches the update's logging context and writes one
// debug line describing what arrived. The chain may wrap a handler twice
// (global and per route); only the first pass logs.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if tghelpers.HasContext(c) {
			return next(c)
		}
		ctx := tghelpers.BuildContext(c)
		logger.Debug(ctx, "tg", "update.received", updateAttrs(c)...)
		return next(c)
	}
}

// updateAttrs describes the update kind the access flow cares about.
func updateAttrs(c tele.Context) []slog.Attr {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return []slog.Attr{
			slog.String("kind", "callback"),
			slog.String("cb_key", callbacks.CallbackKey(c)),
		}
	case upd.PollAnswer != nil:
		return []slog.Attr{
			slog.String("kind", "poll_answer"),
			slog.Int("options", len(upd.PollAnswer.Options)),
		}
	case upd.Message != nil && upd.Message.Contact != nil:
		return []slog.Attr{slog.String("kind", "contact")}
	case upd.Message != nil:
		// Free text may hold personal data; log only its size.
		return []slog.Attr{
			slog.String("kind", "text"),
			slog.Int("runes", len([]rune(upd.Message.Text))),
		}
	}
	return []slog.Attr{slog.String("kind", "other")}
}
