package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/plushpepe/instabot/core/logger"
	"github.com/plushpepe/instabot/core/session"

	tele "gopkg.in/telebot.v4"
)

// handleAdminAction consumes the operator's message as input to the pending
// action taken from the session manager.
func (h *Handler) handleAdminAction(ctx context.Context, c tele.Context, action session.Action) error {
	chatID := c.Chat().ID

	switch action {
	case session.ActionBroadcast:
		text := strings.TrimSpace(c.Text())
		if text == "" {
			_, err := h.screens.ShowFresh(ctx, chatID, textInvalidBroadcast, nil)
			return err
		}
		if _, err := h.screens.ShowFresh(ctx, chatID, textBroadcasting, nil); err != nil {
			logger.Error(ctx, "tg", "broadcast notice failed", slog.String("err", err.Error()))
		}
		res, err := h.caster.Broadcast(ctx, text)
		if err != nil {
			logger.Error(ctx, "broadcast", "broadcast run failed", slog.String("err", err.Error()))
			_, serr := h.screens.ShowFresh(ctx, chatID, textProcessingError, nil)
			return serr
		}
		_, err = h.screens.ShowFresh(ctx, chatID, castResultText("broadcast", res), nil)
		return err

	case session.ActionForward:
		msg := c.Message()
		if msg == nil {
			_, err := h.screens.ShowFresh(ctx, chatID, textProcessingError, nil)
			return err
		}
		if _, err := h.screens.ShowFresh(ctx, chatID, textForwarding, nil); err != nil {
			logger.Error(ctx, "tg", "forward notice failed", slog.String("err", err.Error()))
		}
		res, err := h.caster.Forward(ctx, chatID, msg.ID)
		if err != nil {
			logger.Error(ctx, "broadcast", "forward run failed", slog.String("err", err.Error()))
			_, serr := h.screens.ShowFresh(ctx, chatID, textProcessingError, nil)
			return serr
		}
		_, err = h.screens.ShowFresh(ctx, chatID, castResultText("forward", res), nil)
		return err

	case session.ActionBlock:
		userID, err := session.ParseUserID(c.Text())
		if err != nil {
			var verr *session.ValidationError
			if errors.As(err, &verr) {
				_, serr := h.screens.ShowFresh(ctx, chatID, textInvalidUserID, nil)
				return serr
			}
			return err
		}
		if err := h.store.Block(ctx, userID); err != nil {
			logger.Error(ctx, "store", "block failed", slog.String("err", err.Error()))
			_, serr := h.screens.ShowFresh(ctx, chatID, textProcessingError, nil)
			return serr
		}
		logger.Info(ctx, "tg", "user blocked", slog.Int64("target_id", userID))
		_, err = h.screens.ShowFresh(ctx, chatID, blockedConfirmText(userID), nil)
		return err

	case session.ActionUnblock:
		userID, err := session.ParseUserID(c.Text())
		if err != nil {
			var verr *session.ValidationError
			if errors.As(err, &verr) {
				_, serr := h.screens.ShowFresh(ctx, chatID, textInvalidUserID, nil)
				return serr
			}
			return err
		}
		if err := h.store.Unblock(ctx, userID); err != nil {
			logger.Error(ctx, "store", "unblock failed", slog.String("err", err.Error()))
			_, serr := h.screens.ShowFresh(ctx, chatID, textProcessingError, nil)
			return serr
		}
		logger.Info(ctx, "tg", "user unblocked", slog.Int64("target_id", userID))
		_, err = h.screens.ShowFresh(ctx, chatID, unblockedConfirmText(userID), nil)
		return err
	}

	return nil
}
