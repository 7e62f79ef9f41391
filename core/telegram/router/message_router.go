package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandPrefix marks text that belongs to command routing.
const CommandPrefix = "/"

// MessageHandlers are the non-command inbound handlers of a conversational bot.
// Nil handlers are skipped.
type MessageHandlers struct {
	Text       tele.HandlerFunc
	Contact    tele.HandlerFunc
	PollAnswer tele.HandlerFunc
}

// MessageRoutes builds routes for free text, contact shares and poll answers.
// Text starting with the command prefix never reaches the Text handler: it is
// resolved against the registry (so aliases typed with arguments still work)
// or dropped.
func MessageRoutes(reg *tg.Registry, h MessageHandlers) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		body := c.Text()

		if strings.HasPrefix(body, CommandPrefix) {
			if reg != nil {
				if key, cmd, ok := reg.LookupCommand(body); ok && cmd.Handler != nil && !cmd.ReviewerOnly {
					return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
						return cmd.Handler(c)
					})
				}
			}
			logHandlerSummary(c, "unknown_command", start, "skip", "ok", nil)
			return nil
		}

		if h.Text == nil {
			logHandlerSummary(c, "text", start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, "text", start, "", "", func() error {
			return h.Text(c)
		})
	}

	routes := []tg.Route{wrap(tele.OnText, text)}
	if h.Contact != nil {
		routes = append(routes, wrap(tele.OnContact, summarize("contact", h.Contact)))
	}
	if h.PollAnswer != nil {
		routes = append(routes, wrap(tele.OnPollAnswer, summarize("poll_answer", h.PollAnswer)))
	}
	return routes
}

func wrap(endpoint string, h tele.HandlerFunc) tg.Route {
	return tg.Route{
		Endpoint: endpoint,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
	}
}
