package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/gatekeeper/core/logger"
	tg "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	IsReviewer       func(senderID int64) bool
	OnReviewerReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
// Aliases get their own endpoints bound to the same handler.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	gate := middleware.ReviewerOnlyMiddleware(middleware.ReviewerOptions{
		IsReviewer: opts.IsReviewer,
		OnReject:   opts.OnReviewerReject,
	})

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		h := summarize(normalizeHandlerName(cmd), def.Handler)
		if def.ReviewerOnly {
			h = gate(h)
		}
		h = middleware.RecoverMiddleware(h)
		h = middleware.LoggerMiddleware(h)

		routes = append(routes, tg.Route{Endpoint: cmd, Handler: h})
		for _, alias := range def.Aliases {
			if alias == "" {
				continue
			}
			if alias[0] != '/' {
				alias = "/" + alias
			}
			routes = append(routes, tg.Route{Endpoint: alias, Handler: h})
		}
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("routes", len(routes)),
	)

	return routes
}

func summarize(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return handleWithSummary(c, name, time.Now(), "", "", func() error {
			return h(c)
		})
	}
}
