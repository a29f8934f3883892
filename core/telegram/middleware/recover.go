// Package middleware holds the global Telebot middlewares.
package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/plushpepe/instabot/core/logger"
	tghelpers "github.com/plushpepe/instabot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Recover catches panics in handlers and prevents the bot from crashing.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				ctx := tghelpers.BuildContext(c)
				logger.Error(ctx, "tg", "panic recovered",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}
