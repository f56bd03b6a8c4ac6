package router

import (
	"time"

	tg "github.com/parkops/shiftbot/core/telegram"
	"github.com/parkops/shiftbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Dialogs is the minimal interface the router requires from the dialog engine.
type Dialogs interface {
	InProgress(userID int64) bool
	HandleMessage(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/photo updates.
type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownPhoto tele.HandlerFunc
}

// TextRoutes builds handlers that route text and photo messages either
// into the active dialog or to registry commands and fallbacks.
func TextRoutes(dialogs Dialogs, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if dialogs != nil && dialogs.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "dialog", start, "", "", func() error {
				return dialogs.HandleMessage(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if dialogs != nil && dialogs.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "dialog_photo", start, "", "", func() error {
				return dialogs.HandleMessage(c)
			})
		}
		if opts.UnknownPhoto != nil {
			return handleWithSummary(c, "unexpected_photo", start, "", "", func() error {
				return opts.UnknownPhoto(c)
			})
		}
		logHandlerSummary(c, "unexpected_photo", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnPhoto,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(photoHandler)),
		},
	}
}
