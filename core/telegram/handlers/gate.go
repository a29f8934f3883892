package handlers

import (
	"context"
	"log/slog"

	"github.com/plushpepe/instabot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// requireMembership enforces the channel-join gate. It returns true when the
// user may proceed. When the user is not a member, or the membership lookup
// fails, the join prompt is shown instead.
func (h *Handler) requireMembership(ctx context.Context, c tele.Context) bool {
	userID := c.Sender().ID

	joined, err := h.isJoined(userID)
	if err != nil {
		logger.Warn(ctx, "tg", "membership lookup failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
	if joined {
		return true
	}

	if _, err := h.screens.ShowFresh(ctx, c.Chat().ID, joinPromptText(h.cfg.Channel.Nickname), h.joinKeyboard()); err != nil {
		logger.Error(ctx, "tg", "join prompt failed", slog.String("err", err.Error()))
	}
	return false
}

// requireService enforces the global service flag for non-operators. It
// returns true only when the flag was read and the bot is enabled. A flag
// that cannot be read aborts the event with a failure notice, never serves
// through an unknown state.
func (h *Handler) requireService(ctx context.Context, c tele.Context) bool {
	enabled, err := h.store.ServiceEnabled(ctx)
	if err != nil {
		logger.Error(ctx, "tg", "service flag lookup failed", slog.String("err", err.Error()))
		if _, serr := h.screens.ShowFresh(ctx, c.Chat().ID, textProcessingError, nil); serr != nil {
			logger.Error(ctx, "tg", "failure notice failed", slog.String("err", serr.Error()))
		}
		return false
	}
	if enabled {
		return true
	}
	if _, err := h.screens.ShowFresh(ctx, c.Chat().ID, textServiceOff, nil); err != nil {
		logger.Error(ctx, "tg", "service notice failed", slog.String("err", err.Error()))
	}
	return false
}
