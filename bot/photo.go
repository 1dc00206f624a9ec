package bot

import (
	"errors"
	"fmt"
	"time"

	"splashbot/core/sessions"
	"splashbot/core/telegram/format"
	"splashbot/core/telegram/helpers"
	"splashbot/core/telegram/keyboard"
	"splashbot/core/unsplash"

	tele "gopkg.in/telebot.v4"
)

// quotaStats is a point-in-time view of the admission window, rendered
// into captions and /stats output.
type quotaStats struct {
	Remaining int
	Max       int
	ResetIn   time.Duration
	HasReset  bool
}

func (a *App) quota() quotaStats {
	eta, ok := a.limiter.ResetETA()
	return quotaStats{
		Remaining: a.limiter.Remaining(),
		Max:       a.limiter.Max(),
		ResetIn:   eta,
		HasReset:  ok,
	}
}

// line renders the compact quota indicator appended to photo captions.
// The reset countdown only shows up when the budget is nearly gone.
func (q quotaStats) line() string {
	s := fmt.Sprintf("📊 %d/%d", q.Remaining, q.Max)
	if q.HasReset && q.Remaining < 10 {
		s += " | ⏳ reset " + formatETA(q.ResetIn)
	}
	return s
}

func formatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// photoCaption builds the caption text. Private chats get the full card;
// groups get one compact line to keep the noise down.
func photoCaption(p unsplash.Photo, private bool, q quotaStats) string {
	alt := format.DerefString(p.AltDescription, "Photo")
	if private {
		title := format.DerefString(p.Description, alt)
		return fmt.Sprintf("📸 %s\n\n👤 %s (%s)\n💚 %d | 📏 %dx%d\n\n%s",
			title, p.User.Name, p.User.Links.HTML, p.Likes, p.Width, p.Height, q.line())
	}
	return fmt.Sprintf("📸 %s\n👤 %s | %s", alt, p.User.Name, q.line())
}

func sessionPayload(key sessions.Key) string {
	return fmt.Sprintf("%d|%d", key.ChatID, key.UserID)
}

// controlsKeyboard builds the inline controls under a photo. With nav set
// the full prev/refresh/next row appears; otherwise a lone refresh button.
// photoURL adds the external Unsplash link row when non-empty.
func controlsKeyboard(key sessions.Key, private, nav bool, photoURL string) *tele.ReplyMarkup {
	payload := sessionPayload(key)

	var rows [][]keyboard.InlineBtn
	if nav {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "⬅️", Unique: cbPrev, Data: payload},
			{Text: "🔄", Unique: cbRefresh, Data: payload},
			{Text: "➡️", Unique: cbNext, Data: payload},
		})
	} else {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "🔄 New", Unique: cbRefresh, Data: payload},
		})
	}
	if private {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "🎨 Filters", Unique: cbFilters, Data: payload},
		})
	}
	if photoURL != "" {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "🔗 Unsplash", URL: photoURL},
		})
	}
	return keyboard.InlineButtonsRows(rows...)
}

func filterKeyboard(key sessions.Key) *tele.ReplyMarkup {
	payload := sessionPayload(key)
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "🏔 Landscape", Unique: cbFilterLandscape, Data: payload},
			{Text: "📱 Portrait", Unique: cbFilterPortrait, Data: payload},
		},
		[]keyboard.InlineBtn{
			{Text: "⬛ B&W", Unique: cbFilterBW, Data: payload},
			{Text: "🔵 Blue", Unique: cbFilterBlue, Data: payload},
		},
		[]keyboard.InlineBtn{
			{Text: "🟢 Green", Unique: cbFilterGreen, Data: payload},
			{Text: "🔴 Red", Unique: cbFilterRed, Data: payload},
		},
		[]keyboard.InlineBtn{
			{Text: "🔙 Back", Unique: cbBack, Data: payload},
		},
	)
}

// sendPhoto delivers a photo message with caption and controls, and fires
// the download-tracking ping required by the API terms.
func (a *App) sendPhoto(c tele.Context, p unsplash.Photo, nav bool, key sessions.Key) error {
	private := isPrivate(c)
	caption := photoCaption(p, private, a.quota())
	markup := controlsKeyboard(key, private, nav, p.Links.HTML)

	a.client.TrackDownload(helpers.BuildContext(c), p.Links.DownloadLocation)

	return helpers.SendPhoto(c, p.URLs.Regular, caption, markup)
}

func isPrivate(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type == tele.ChatPrivate
}

func keyFor(c tele.Context) sessions.Key {
	var key sessions.Key
	if chat := c.Chat(); chat != nil {
		key.ChatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		key.UserID = user.ID
	}
	return key
}

// errorText maps client errors to the short user-facing messages the bot
// replies with. Prior chat state is never disturbed by a failure.
func errorText(err error) string {
	var quotaErr *unsplash.QuotaError
	if errors.As(err, &quotaErr) {
		return "⏳ Hourly limit reached, resets in " + formatETA(quotaErr.ResetIn)
	}
	if errors.Is(err, unsplash.ErrThrottled) {
		return "⚠️ The photo API is throttling us, try again in a bit."
	}
	if errors.Is(err, unsplash.ErrTimeout) {
		return "⏱ The request timed out, try again."
	}
	var apiErr *unsplash.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("❌ Photo API error (%d).", apiErr.Status)
	}
	return "❌ Something went wrong, try again."
}
