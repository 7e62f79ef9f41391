package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns the route for inline button presses. The handler owns
// the callback answer so it can choose between a toast and an alert.
func CallbackRoute(handler tele.HandlerFunc) tg.Route {
	h := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := callbacks.CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)
		return handleWithSummary(c, name, start, "", "", func() error {
			return handler(c)
		}, slog.String("cb_key", key))
	}
	return wrap(tele.OnCallback, h)
}
