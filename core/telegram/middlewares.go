package telegram

import (
	"strings"

	coreconfig "splashbot/core/config"
	"splashbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain for bots.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil && cfg.Flood.PerUserRPS > 0 {
		ex := make(map[string]struct{}, len(cfg.Flood.ExcludeUpdates))
		for _, t := range cfg.Flood.ExcludeUpdates {
			ex[strings.ToLower(t)] = struct{}{}
		}
		opts := middleware.RateLimitOptions{
			PerUserRPS: cfg.Flood.PerUserRPS,
			Burst:      cfg.Flood.Burst,
			Exclude:    ex,
		}
		if onLimited != nil {
			opts.OnLimited = onLimited
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use:  middleware.RateLimitMiddleware(opts),
		})
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)

	return mws
}
