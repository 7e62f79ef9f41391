// Package app assembles the access bot from its configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	accessconfig "github.com/m3rciful/gatekeeper/bots/access/config"
	"github.com/m3rciful/gatekeeper/bots/access/flow"
	"github.com/m3rciful/gatekeeper/bots/access/handlers"
	"github.com/m3rciful/gatekeeper/bots/access/journal"
	"github.com/m3rciful/gatekeeper/bots/access/review"
	"github.com/m3rciful/gatekeeper/core/bootstrap"
	corecmd "github.com/m3rciful/gatekeeper/core/cmd"
	"github.com/m3rciful/gatekeeper/core/logger"
	coretelegram "github.com/m3rciful/gatekeeper/core/telegram"
	"github.com/m3rciful/gatekeeper/core/telegram/router"
	"github.com/m3rciful/gatekeeper/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// App holds the infrastructure shared by the access bot's handlers.
type App struct {
	cfg      *accessconfig.Config
	infra    *bootstrap.Result
	journal  journal.Journal
	sessions *state.MemoryStore[flow.Session]
}

// LoadConfig adapts accessconfig.Load to the command runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := accessconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap initializes logging and the optional journal database.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*accessconfig.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	infra, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	var j journal.Journal = journal.Nop{}
	if infra.DB != nil {
		j = journal.NewPostgres(infra.DB)
	}

	return &App{
		cfg:      cfg,
		infra:    infra,
		journal:  j,
		sessions: state.NewMemoryStore[flow.Session](),
	}, nil
}

// TelegramRunOptions builds the bot, the handlers and their routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()

	bot, err := coretelegram.NewBot(core)
	if err != nil {
		return coretelegram.RunOptions{}, err
	}

	reg := coretelegram.NewRegistry()
	h, err := handlers.New(a.handlerOptions(bot, reg))
	if err != nil {
		return coretelegram.RunOptions{}, err
	}
	h.Register(reg)

	return coretelegram.RunOptions{
		Config:            core,
		Registry:          reg,
		Bot:               bot,
		DispatcherOptions: coretelegram.DispatcherOptionsFrom(core),
		Middlewares:       coretelegram.DefaultMiddlewares(),
		Routes:            Routes(h, reg),
		OnStart:           a.onStart,
		OnStop:            a.onStop,
	}, nil
}

func (a *App) handlerOptions(p handlers.Platform, reg *coretelegram.Registry) handlers.Options {
	ac := a.cfg.Access
	return handlers.Options{
		Platform: p,
		Sessions: a.sessions,
		Gate:     review.NewGate(a.cfg.Core.Telegram.ReviewerID),
		Rules: flow.Rules{
			MinText:     ac.TextMin,
			MaxText:     ac.TextMax,
			PollOptions: ac.PollOptions,
		},
		Journal:      a.journal,
		Registry:     reg,
		PollQuestion: ac.PollQuestion,
		ChannelID:    ac.ChannelID,
		InviteTTL:    ac.InviteTTL,
		Location:     a.cfg.Location(),
	}
}

// Routes binds every access bot endpoint to its handler.
func Routes(h *handlers.Handlers, reg *coretelegram.Registry) []coretelegram.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		IsReviewer:       h.IsReviewer,
		OnReviewerReject: h.RejectNonReviewer,
	})
	routes = append(routes, router.MessageRoutes(reg, router.MessageHandlers{
		Text:       h.Text,
		Contact:    h.Contact,
		PollAnswer: h.PollAnswer,
	})...)
	routes = append(routes, router.CallbackRoute(h.Decision))
	return routes
}

func (a *App) onStart(_ context.Context, rt coretelegram.Runtime) error {
	logger.L.With("component", "access").Info("access bot started",
		slog.String("event", "start"),
		slog.String("bot", botName(rt.Bot)),
		slog.String("channel", a.cfg.Access.ChannelID),
		slog.Bool("journal", a.infra.DB != nil),
	)
	return nil
}

// onStop reports how many sessions are lost with the process and releases the
// database.
func (a *App) onStop(_ context.Context, _ coretelegram.Runtime) error {
	logger.L.With("component", "access").Info("access bot stopped",
		slog.String("event", "stop"),
		slog.Int("sessions", a.sessions.Len()),
	)
	if err := a.infra.Close(); err != nil {
		return fmt.Errorf("app: close database: %w", err)
	}
	return nil
}

func botName(b *tele.Bot) string {
	if b == nil || b.Me == nil {
		return ""
	}
	return b.Me.Username
}
