package bot

import (
	"splashbot/core/sessions"
	coretelegram "splashbot/core/telegram"
	"splashbot/core/telegram/callbacks"
	"splashbot/core/telegram/helpers"
	"splashbot/core/unsplash"

	tele "gopkg.in/telebot.v4"
)

// Each action gets its own callback unique; the payload carries only the
// session key as "chatID|userID". Filter kinds live in the unique itself,
// so neither side of the payload can collide with a delimiter.
const (
	cbRefresh = "photo_refresh"
	cbNext    = "photo_next"
	cbPrev    = "photo_prev"
	cbFilters = "photo_filters"
	cbBack    = "photo_back"

	cbFilterLandscape = "photo_f_landscape"
	cbFilterPortrait  = "photo_f_portrait"
	cbFilterBW        = "photo_f_bw"
	cbFilterBlue      = "photo_f_blue"
	cbFilterGreen     = "photo_f_green"
	cbFilterRed       = "photo_f_red"
)

func (a *App) registerCallbacks(reg *coretelegram.Registry) {
	_ = reg.RegisterCallback(cbRefresh, a.cbRefreshHandler)
	_ = reg.RegisterCallback(cbNext, a.navHandler(1))
	_ = reg.RegisterCallback(cbPrev, a.navHandler(-1))
	_ = reg.RegisterCallback(cbFilters, a.cbFiltersHandler)
	_ = reg.RegisterCallback(cbBack, a.cbBackHandler)

	_ = reg.RegisterCallback(cbFilterLandscape, a.filterHandler("landscape"))
	_ = reg.RegisterCallback(cbFilterPortrait, a.filterHandler("portrait"))
	_ = reg.RegisterCallback(cbFilterBW, a.filterHandler("black_and_white"))
	_ = reg.RegisterCallback(cbFilterBlue, a.filterHandler("blue"))
	_ = reg.RegisterCallback(cbFilterGreen, a.filterHandler("green"))
	_ = reg.RegisterCallback(cbFilterRed, a.filterHandler("red"))
}

// callbackKey recovers the session key from the payload, falling back to
// the callback's own chat and sender when the payload is malformed.
func (a *App) callbackKey(c tele.Context) sessions.Key {
	chatID, userID, err := callbacks.PayloadTwoInt64(c, "|")
	if err != nil {
		return keyFor(c)
	}
	return sessions.Key{ChatID: chatID, UserID: userID}
}

// cbRefreshHandler fetches a fresh random photo. With a live session the
// stored query constrains the fetch; the session's results and cursor are
// left alone.
func (a *App) cbRefreshHandler(c tele.Context) error {
	key := a.callbackKey(c)
	query, hasSession := a.store.Query(key)

	photo, err := a.client.RandomPhoto(helpers.BuildContext(c), query, "")
	if err != nil {
		return helpers.SendText(c, errorText(err))
	}

	_ = c.Delete()
	return a.sendPhoto(c, photo, hasSession, key)
}

// navHandler moves the session cursor with wrap-around. A missing or
// expired session degrades to a plain random photo.
func (a *App) navHandler(delta int) tele.HandlerFunc {
	return func(c tele.Context) error {
		key := a.callbackKey(c)

		var (
			photo unsplash.Photo
			ok    bool
		)
		if delta > 0 {
			photo, ok = a.store.Next(key)
		} else {
			photo, ok = a.store.Prev(key)
		}
		if !ok {
			return a.sendFallbackRandom(c, key)
		}

		_ = c.Delete()
		return a.sendPhoto(c, photo, true, key)
	}
}

func (a *App) cbFiltersHandler(c tele.Context) error {
	return c.Edit(filterKeyboard(a.callbackKey(c)))
}

func (a *App) cbBackHandler(c tele.Context) error {
	key := a.callbackKey(c)
	_, hasSession := a.store.Query(key)
	return c.Edit(controlsKeyboard(key, isPrivate(c), hasSession, ""))
}

// filterHandler re-runs the stored query (or "random" without a session)
// under the given orientation or color constraint. The stored session is
// not mutated; the result is an independent one-off photo.
func (a *App) filterHandler(kind string) tele.HandlerFunc {
	return func(c tele.Context) error {
		key := a.callbackKey(c)
		query, ok := a.store.Query(key)
		if !ok {
			query = "random"
		}

		params := filterParams(kind)
		params.Query = query
		params.PerPage = 1

		result, err := a.client.SearchPhotos(helpers.BuildContext(c), params)
		if err != nil {
			return helpers.SendText(c, errorText(err))
		}
		if len(result.Results) == 0 {
			return helpers.SendText(c, "🔍 No results for this filter.")
		}

		_ = c.Delete()
		return a.sendPhoto(c, result.Results[0], false, key)
	}
}

// filterParams maps a filter kind onto the search parameter it constrains.
func filterParams(kind string) unsplash.SearchParams {
	switch kind {
	case "landscape", "portrait", "squarish":
		return unsplash.SearchParams{Orientation: kind}
	default:
		return unsplash.SearchParams{Color: kind}
	}
}

func (a *App) sendFallbackRandom(c tele.Context, key sessions.Key) error {
	photo, err := a.client.RandomPhoto(helpers.BuildContext(c), "", "")
	if err != nil {
		return helpers.SendText(c, errorText(err))
	}
	_ = c.Delete()
	return a.sendPhoto(c, photo, false, key)
}
