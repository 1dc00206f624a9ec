package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"splashbot/core/logger"
	"splashbot/core/outbound"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[outbound.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *outbound.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *outbound.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, outbound.ErrQueueFull) || errors.Is(err, outbound.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm}
	return SendText(c, text, opts)
}

// SendPhoto delivers a photo by URL with a plain-text caption.
func SendPhoto(c tele.Context, url, caption string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	photo := &tele.Photo{File: tele.FromURL(url), Caption: caption}
	return sendAsync(c, "send.photo", "sendPhoto", func() error {
		return c.Send(photo, &tele.SendOptions{ReplyMarkup: rm})
	})
}
