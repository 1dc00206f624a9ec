package middleware

import (
	"sync"
	"time"

	"splashbot/core/logger"
	"log/slog"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the per-user flood middleware.
type RateLimitOptions struct {
	// PerUserRPS is the sustained allowance per user; Burst tops it up for
	// short button-mashing spikes.
	PerUserRPS float64
	Burst      int
	Exclude    map[string]struct{}
	OnLimited  tele.HandlerFunc
	// IdleEvict drops per-user limiters untouched for this long; 0 -> 10m.
	IdleEvict time.Duration
}

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware returns a middleware that throttles inbound updates
// per user with a token bucket. One limiter per user, evicted after idling.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.IdleEvict <= 0 {
		opts.IdleEvict = 10 * time.Minute
	}

	var (
		mu       sync.Mutex
		limiters = make(map[int64]*userLimiter)
		lastGC   = time.Now()
	)

	limiterFor := func(userID int64, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		if now.Sub(lastGC) > opts.IdleEvict {
			for id, ul := range limiters {
				if now.Sub(ul.lastSeen) > opts.IdleEvict {
					delete(limiters, id)
				}
			}
			lastGC = now
		}

		ul, ok := limiters[userID]
		if !ok {
			ul = &userLimiter{lim: rate.NewLimiter(rate.Limit(opts.PerUserRPS), opts.Burst)}
			limiters[userID] = ul
		}
		ul.lastSeen = now
		return ul.lim
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.PerUserRPS <= 0 {
				return next(c)
			}

			// Determine update kind and apply configured exclusions
			upd := c.Update()
			kind := "other"
			switch {
			case upd.Callback != nil:
				kind = "callback"
			case upd.Message != nil:
				kind = "message"
			case upd.Query != nil:
				kind = "inline_query"
			}
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			if !limiterFor(user.ID, time.Now()).Allow() {
				attrs := []slog.Attr{
					slog.String("event", "tg.rate_limit"),
					slog.Int64("user_id", user.ID),
				}
				if chat := c.Chat(); chat != nil {
					attrs = append(attrs, slog.Int64("chat_id", chat.ID))
				}
				logger.TG.LogAttrs(logger.Background(), slog.LevelWarn, "rate limit", attrs...)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
