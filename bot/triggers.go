package bot

import (
	"strings"

	"splashbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Keywords that make the bot react to a group message without a mention.
// Longest first so "picture" is not eaten by "pic".
var triggerKeywords = []string{"picture", "photo", "image", "pic"}

// handleText turns free-form text into a photo search. Private chats always
// search; groups only when the message is addressed to the bot.
func (a *App) handleText(c tele.Context) error {
	m := c.Message()
	if m == nil {
		return nil
	}
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return nil
	}

	me := a.botUser()
	if !isPrivate(c) && !groupTriggered(text, usernameOf(me), isReplyToBot(m, me)) {
		return nil
	}

	query := stripQuery(text, usernameOf(me))
	if query == "" {
		return helpers.SendMD(c, "❓ What should I search for?\nExample: `mountain` or `city night`")
	}
	return a.runSearch(c, query)
}

func isReplyToBot(m *tele.Message, me *tele.User) bool {
	return m != nil && me != nil && m.ReplyTo != nil &&
		m.ReplyTo.Sender != nil && m.ReplyTo.Sender.ID == me.ID
}

// groupTriggered reports whether a group message addresses the bot: a reply
// to one of its messages, an @mention, or a leading trigger keyword.
func groupTriggered(text, botUsername string, replyToBot bool) bool {
	if replyToBot {
		return true
	}
	if botUsername != "" && strings.Contains(text, "@"+botUsername) {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range triggerKeywords {
		if hasKeywordPrefix(lower, kw) {
			return true
		}
	}
	return false
}

// stripQuery removes the bot mention and one leading trigger keyword,
// leaving the bare search term.
func stripQuery(text, botUsername string) string {
	if botUsername != "" {
		text = strings.ReplaceAll(text, "@"+botUsername, "")
	}
	text = strings.TrimSpace(text)

	lower := strings.ToLower(text)
	for _, kw := range triggerKeywords {
		if hasKeywordPrefix(lower, kw) {
			return strings.TrimSpace(text[len(kw):])
		}
	}
	return text
}

// hasKeywordPrefix matches the keyword only on a word boundary, so
// "picnic spot" is not treated as a "pic" trigger.
func hasKeywordPrefix(lower, kw string) bool {
	if !strings.HasPrefix(lower, kw) {
		return false
	}
	return len(lower) == len(kw) || lower[len(kw)] == ' '
}
