package handlers

import (
	"log/slog"
	"strings"

	"github.com/plushpepe/instabot/core/logger"
	"github.com/plushpepe/instabot/core/session"
	tghelpers "github.com/plushpepe/instabot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Callback routes inline keyboard presses. Navigation edits the current
// screen in place; admin buttons additionally arm the pending action that the
// operator's next message will complete.
func (h *Handler) Callback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	chatID := c.Chat().ID
	userID := c.Sender().ID
	if isAnonymousAdmin(chatID) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	// The pressed button lives on a concrete message; edits target it.
	msgID := 0
	if cb.Message != nil {
		msgID = cb.Message.ID
	}

	data := strings.TrimSpace(strings.TrimPrefix(cb.Data, "\f"))

	switch data {
	case cbCheckJoin:
		joined, err := h.isJoined(userID)
		if err != nil {
			logger.Warn(ctx, "tg", "membership lookup failed", slog.String("err", err.Error()))
		}
		if !joined {
			return c.Respond(&tele.CallbackResponse{Text: textNotJoinedAlert, ShowAlert: true})
		}
		h.ensureUser(ctx, userID)
		if err := c.Respond(&tele.CallbackResponse{}); err != nil {
			logger.Debug(ctx, "tg", "callback answer failed", slog.String("err", err.Error()))
		}
		_, err = h.screens.ShowInPlace(ctx, chatID, msgID, textJoinConfirmed, h.userKeyboard())
		return err

	case cbMyProfile:
		u, err := h.store.GetUser(ctx, userID)
		if err != nil {
			logger.Error(ctx, "tg", "profile lookup failed", slog.String("err", err.Error()))
			u = nil
		}
		_ = c.Respond(&tele.CallbackResponse{})
		_, err = h.screens.ShowInPlace(ctx, chatID, msgID, profileText(userID, u), profileKeyboard())
		return err

	case cbDownloadHelp:
		_ = c.Respond(&tele.CallbackResponse{})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textHelp, helpKeyboard())
		return err

	case cbStartDownload:
		_ = c.Respond(&tele.CallbackResponse{})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textStartDownload, nil)
		return err

	case cbBackToMain:
		_ = c.Respond(&tele.CallbackResponse{})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textMainMenu, h.userKeyboard())
		return err
	}

	// Everything below is the operator's panel.
	if !h.isOperator(userID) {
		return c.Respond(&tele.CallbackResponse{Text: textOperatorOnly, ShowAlert: true})
	}

	switch data {
	case cbStats:
		stats, err := h.store.GetStats(ctx)
		if err != nil {
			logger.Error(ctx, "store", "stats lookup failed", slog.String("err", err.Error()))
			return c.Respond(&tele.CallbackResponse{Text: textProcessingError, ShowAlert: true})
		}
		enabled, err := h.store.ServiceEnabled(ctx)
		if err != nil {
			logger.Error(ctx, "store", "service flag lookup failed", slog.String("err", err.Error()))
			enabled = true
		}
		_ = c.Respond(&tele.CallbackResponse{})
		_, err = h.screens.ShowInPlace(ctx, chatID, msgID, statsText(stats, enabled, userID), backKeyboard())
		return err

	case cbBroadcast:
		h.sessions.Set(userID, session.ActionBroadcast)
		_ = c.Respond(&tele.CallbackResponse{})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textAskBroadcast, backKeyboard())
		return err

	case cbForward:
		h.sessions.Set(userID, session.ActionForward)
		_ = c.Respond(&tele.CallbackResponse{})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textAskForward, backKeyboard())
		return err

	case cbBlock:
		h.sessions.Set(userID, session.ActionBlock)
		_ = c.Respond(&tele.CallbackResponse{})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textAskBlock, backKeyboard())
		return err

	case cbUnblock:
		h.sessions.Set(userID, session.ActionUnblock)
		_ = c.Respond(&tele.CallbackResponse{})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textAskUnblock, backKeyboard())
		return err

	case cbBotOn:
		if err := h.store.SetServiceEnabled(ctx, true); err != nil {
			logger.Error(ctx, "store", "service flag update failed", slog.String("err", err.Error()))
			return c.Respond(&tele.CallbackResponse{Text: textProcessingError, ShowAlert: true})
		}
		logger.Info(ctx, "tg", "service enabled")
		_ = c.Respond(&tele.CallbackResponse{Text: textServiceOnAlert})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textAdminPanel, adminKeyboard())
		return err

	case cbBotOff:
		if err := h.store.SetServiceEnabled(ctx, false); err != nil {
			logger.Error(ctx, "store", "service flag update failed", slog.String("err", err.Error()))
			return c.Respond(&tele.CallbackResponse{Text: textProcessingError, ShowAlert: true})
		}
		logger.Info(ctx, "tg", "service disabled")
		_ = c.Respond(&tele.CallbackResponse{Text: textServiceOffAlert})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textAdminPanel, adminKeyboard())
		return err

	case cbBack:
		// Leaving a prompt cancels the pending action it armed.
		h.sessions.Clear(userID)
		_ = c.Respond(&tele.CallbackResponse{})
		_, err := h.screens.ShowInPlace(ctx, chatID, msgID, textAdminPanel, adminKeyboard())
		return err
	}

	return c.Respond(&tele.CallbackResponse{})
}
