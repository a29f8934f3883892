package handlers

import (
	"log/slog"

	"github.com/plushpepe/instabot/core/logger"
	"github.com/plushpepe/instabot/core/ratelimit"
	tghelpers "github.com/plushpepe/instabot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Start handles /start: admission, the channel-join gate, registration and
// the main menu. The operator gets the admin panel instead.
func (h *Handler) Start(c tele.Context) error {
	userID := c.Sender().ID
	if isAnonymousAdmin(c.Chat().ID) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	h.deleteIncoming(c)

	if !h.isOperator(userID) {
		dec, err := h.limiter.Check(ctx, userID, h.now())
		if err != nil {
			logger.Error(ctx, "tg", "admission check failed", slog.String("err", err.Error()))
			_, serr := h.screens.ShowFresh(ctx, userID, textProcessingError, nil)
			return serr
		}
		switch dec.Outcome {
		case ratelimit.PermanentlyBlocked:
			_, err := h.screens.ShowFresh(ctx, userID, textBlocked, nil)
			return err
		case ratelimit.TempBlocked:
			_, err := h.screens.ShowFresh(ctx, userID, tempBlockedText(dec.RetryAfter), nil)
			return err
		}

		if ok := h.requireMembership(ctx, c); !ok {
			return nil
		}
	}

	h.ensureUser(ctx, userID)

	if h.isOperator(userID) {
		_, err := h.screens.ShowFresh(ctx, userID, textAdminPanel, adminKeyboard())
		return err
	}
	_, err := h.screens.ShowFresh(ctx, userID, textWelcome, h.userKeyboard())
	return err
}

// Help handles /help.
func (h *Handler) Help(c tele.Context) error {
	if isAnonymousAdmin(c.Chat().ID) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	h.deleteIncoming(c)

	_, err := h.screens.ShowFresh(ctx, c.Chat().ID, textHelp, helpKeyboard())
	return err
}

// Profile handles /profile and /me.
func (h *Handler) Profile(c tele.Context) error {
	userID := c.Sender().ID
	if isAnonymousAdmin(c.Chat().ID) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	h.deleteIncoming(c)

	u, err := h.store.GetUser(ctx, userID)
	if err != nil {
		logger.Error(ctx, "tg", "profile lookup failed", slog.String("err", err.Error()))
		u = nil
	}
	_, err = h.screens.ShowFresh(ctx, c.Chat().ID, profileText(userID, u), profileKeyboard())
	return err
}
