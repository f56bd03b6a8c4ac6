package middleware

import (
	"context"

	"log/slog"

	"github.com/parkops/shiftbot/core/logger"
	tghelpers "github.com/parkops/shiftbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only the admin user can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.AdminID != 0 && c.Sender().ID != opts.AdminID {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

// AccessChecker reports whether a Telegram user is allowed to use the bot.
type AccessChecker interface {
	IsAllowed(ctx context.Context, userID int64) (bool, error)
}

// AccessOptions configures the allow-list middleware.
type AccessOptions struct {
	Checker  AccessChecker
	OnReject tele.HandlerFunc
}

// AccessMiddleware gates handlers behind an allow-list lookup.
// Lookup errors fail closed: the update is rejected and logged.
func AccessMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.Checker == nil {
				return next(c)
			}
			user := c.Sender()
			if user == nil {
				return nil
			}
			ctx := tghelpers.BuildContext(c)
			allowed, err := opts.Checker.IsAllowed(ctx, user.ID)
			if err != nil {
				logger.Error(ctx, "tg", "access.check_failed",
					slog.Int64("user_id", user.ID),
					slog.String("err", err.Error()),
				)
				allowed = false
			}
			if !allowed {
				logger.Warn(ctx, "tg", "access.denied",
					slog.Int64("user_id", user.ID),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
