// Package bot wires the Unsplash photo bot: commands, text search,
// callback navigation, and the quota-aware API client behind them.
package bot

import (
	"context"
	"sync/atomic"

	coreconfig "splashbot/core/config"
	"splashbot/core/outbound"
	"splashbot/core/ratelimit"
	"splashbot/core/sessions"
	coretelegram "splashbot/core/telegram"
	"splashbot/core/telegram/router"
	"splashbot/core/unsplash"

	tele "gopkg.in/telebot.v4"
)

// App bundles every long-lived component the handlers need. One instance
// is built at startup and threaded through the dispatch layer; there is
// no package-level mutable state.
type App struct {
	cfg        *coreconfig.Config
	limiter    *ratelimit.Limiter
	client     *unsplash.Client
	store      *sessions.Store
	dispatcher *outbound.Dispatcher

	// me holds the bot identity, captured once the session is live.
	// Group-chat trigger detection needs the username and ID.
	me atomic.Pointer[tele.User]
}

// New constructs the application from normalized configuration.
func New(cfg *coreconfig.Config) (*App, error) {
	dispatcher := outbound.NewDispatcher(outbound.Options{})
	limiter := ratelimit.New(cfg.Unsplash.MaxRequests, cfg.Unsplash.Window())
	client := unsplash.NewClient(unsplash.Config{
		AccessKey: cfg.Unsplash.AccessKey,
		BaseURL:   cfg.Unsplash.BaseURL,
		Timeout:   cfg.Unsplash.Timeout(),
	}, limiter, dispatcher)
	store := sessions.NewStore(cfg.Sessions.Capacity, cfg.Sessions.TTL())

	return &App{
		cfg:        cfg,
		limiter:    limiter,
		client:     client,
		store:      store,
		dispatcher: dispatcher,
	}, nil
}

// CoreConfig exposes the embedded configuration for the runner.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg
}

// TelegramRunOptions assembles registry, middleware chain, and routes.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	a.registerCallbacks(reg)
	reg.SetTextFallback(a.handleText)

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	mws := coretelegram.DefaultMiddlewares(a.cfg, func(c tele.Context) error {
		return c.Send("Easy there, try again in a moment.")
	})

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Dispatcher:  a.dispatcher,
		Middlewares: mws,
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			if rt.Bot != nil && rt.Bot.Me != nil {
				a.me.Store(rt.Bot.Me)
			}
			return nil
		},
	}, nil
}

// Close releases the API client's pooled connections. The runner calls it
// only after the bot loop has stopped and the dispatcher has drained, so
// queued tracking pings still reuse warm connections.
func (a *App) Close() error {
	a.client.Close()
	return nil
}

func (a *App) botUser() *tele.User {
	return a.me.Load()
}
