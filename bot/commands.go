package bot

import (
	"fmt"
	"strings"

	coretelegram "splashbot/core/telegram"
	"splashbot/core/telegram/commands"
	"splashbot/core/telegram/helpers"
	"splashbot/core/unsplash"

	tele "gopkg.in/telebot.v4"
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Welcome and quick usage",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "How to use the bot",
	})
	reg.RegisterCommand("/random", commands.Command{
		Handler:     a.handleRandom,
		Description: "Random photo, optionally by topic",
	})
	reg.RegisterCommand("/search", commands.Command{
		Handler:     a.handleSearch,
		Description: "Search photos by keyword",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Request quota usage",
	})
}

func (a *App) handleStart(c tele.Context) error {
	if isPrivate(c) {
		return helpers.SendMD(c, fmt.Sprintf(
			"🌄 *Welcome to the Unsplash bot!*\n\n"+
				"🔍 *Search:* just send a word\n"+
				"   e.g. `mountain` or `city sunset`\n\n"+
				"🎲 *Random:*\n"+
				"   • `/random` - fully random\n"+
				"   • `/random nature` - by topic\n\n"+
				"📊 *Usage:* /stats\n"+
				"❓ *Help:* /help\n\n"+
				"⚡️ Limit: %d photos per hour", a.limiter.Max()))
	}
	return helpers.SendMD(c,
		"👋 Hi! I'm an Unsplash photo bot.\n\n"+
			"🔍 *In a group:*\n"+
			"   • mention me: `@"+usernameOf(a.botUser())+" mountain`\n"+
			"   • reply to one of my messages with a query\n"+
			"   • start with a keyword: `photo mountain`\n\n"+
			"📝 *Commands:*\n"+
			"   • `/random` - random photo\n"+
			"   • `/search mountain` - search\n"+
			"   • `/stats` - usage\n\n"+
			"💡 I'm easier to use in a private chat!")
}

func (a *App) handleHelp(c tele.Context) error {
	if isPrivate(c) {
		return helpers.SendMD(c, fmt.Sprintf(
			"📚 *How to use:*\n\n"+
				"*1️⃣ Search:* just type\n"+
				"   • `mountain`\n"+
				"   • `city night`\n\n"+
				"*2️⃣ Random photo:*\n"+
				"   • `/random`\n"+
				"   • `/random ocean`\n\n"+
				"*3️⃣ Command search:*\n"+
				"   • `/search mountain`\n\n"+
				"*4️⃣ Usage:* `/stats`\n\n"+
				"*🎨 Filters* (under each photo):\n"+
				"   • orientation: Landscape, Portrait\n"+
				"   • color: B&W, Blue, Green, Red\n"+
				"   • fresh photo: 🔄\n\n"+
				"⚠️ Limit: %d photos/hour", a.limiter.Max()))
	}
	return helpers.SendMD(c,
		"📚 *Help (group):*\n\n"+
			"*🔸 Mention:* `@"+usernameOf(a.botUser())+" mountain`\n"+
			"*🔸 Reply:* reply to my message with `sea`\n"+
			"*🔸 Keyword:* `photo city`\n\n"+
			"*📝 Commands:*\n"+
			"   • `/random` - random\n"+
			"   • `/search mountain` - search\n"+
			"   • `/stats` - usage\n\n"+
			"💡 Private chat is easier!")
}

func (a *App) handleRandom(c tele.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args(), " "))

	photo, err := a.client.RandomPhoto(helpers.BuildContext(c), query, "")
	if err != nil {
		return helpers.SendText(c, errorText(err))
	}
	return a.sendPhoto(c, photo, false, keyFor(c))
}

func (a *App) handleSearch(c tele.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args(), " "))
	if query == "" {
		return helpers.SendMD(c, "❌ Usage: `/search mountain`\nOr in a private chat just type: `mountain`")
	}
	return a.runSearch(c, query)
}

// runSearch is the shared search path behind /search, plain text in private
// chats, and triggered group messages. A non-empty result replaces the
// session wholesale; an empty one leaves any prior session untouched.
func (a *App) runSearch(c tele.Context, query string) error {
	result, err := a.client.SearchPhotos(helpers.BuildContext(c), unsplash.SearchParams{
		Query:   query,
		PerPage: a.cfg.Unsplash.SearchPerPage,
	})
	if err != nil {
		return helpers.SendText(c, errorText(err))
	}
	if len(result.Results) == 0 {
		return helpers.SendText(c, fmt.Sprintf("🔍 No results for %q.", query))
	}

	key := keyFor(c)
	a.store.Put(key, query, result.Results)
	return a.sendPhoto(c, result.Results[0], true, key)
}

func (a *App) handleStats(c tele.Context) error {
	text := statsText(a.quota(), !isPrivate(c))
	return helpers.SendMD(c, text)
}

// statsText renders /stats. The reset countdown appears once the budget is
// exhausted or close to it.
func statsText(q quotaStats, group bool) string {
	var b strings.Builder
	b.WriteString("📊 *Usage*\n\n")
	fmt.Fprintf(&b, "✅ Remaining: *%d/%d* requests\n", q.Remaining, q.Max)
	if q.HasReset {
		switch {
		case q.Remaining == 0:
			fmt.Fprintf(&b, "⏳ Resets in: *%s*\n", formatETA(q.ResetIn))
		case q.Remaining < 10:
			fmt.Fprintf(&b, "⚠️ Next reset: *%s*\n", formatETA(q.ResetIn))
		}
	}
	if group {
		b.WriteString("\n💡 Mention me or reply to my messages to use me here.")
	}
	return b.String()
}

func usernameOf(u *tele.User) string {
	if u == nil {
		return "bot"
	}
	return u.Username
}
