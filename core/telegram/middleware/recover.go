package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/gatekeeper/core/logger"
	tghelpers "github.com/m3rciful/gatekeeper/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into an error so one bad update
// cannot stop the poller. The session the handler was touching is left as is.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err = fmt.Errorf("handler panic: %v", r)
			logger.Error(tghelpers.BuildContext(c), "tg", "handler.panic",
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				slog.String("stack", string(debug.Stack())),
			)
		}()
		return next(c)
	}
}
