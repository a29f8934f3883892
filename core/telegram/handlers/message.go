package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/plushpepe/instabot/core/fetch"
	"github.com/plushpepe/instabot/core/logger"
	"github.com/plushpepe/instabot/core/ratelimit"
	"github.com/plushpepe/instabot/core/session"
	tghelpers "github.com/plushpepe/instabot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Message is the inbound pipeline for everything that is not a command or a
// callback. The stages run in a fixed order: anonymous-admin filter, incoming
// message cleanup, admission, service flag, channel-join gate, the operator's
// pending action, and finally link handling.
func (h *Handler) Message(c tele.Context) error {
	userID := c.Sender().ID
	chatID := c.Chat().ID
	if isAnonymousAdmin(chatID) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	h.deleteIncoming(c)

	operator := h.isOperator(userID)

	if !operator {
		dec, err := h.limiter.Check(ctx, userID, h.now())
		if err != nil {
			logger.Error(ctx, "tg", "admission check failed", slog.String("err", err.Error()))
			_, serr := h.screens.ShowFresh(ctx, chatID, textProcessingError, nil)
			return serr
		}
		switch dec.Outcome {
		case ratelimit.PermanentlyBlocked:
			_, err := h.screens.ShowFresh(ctx, chatID, textBlocked, nil)
			return err
		case ratelimit.TempBlocked:
			_, err := h.screens.ShowFresh(ctx, chatID, tempBlockedText(dec.RetryAfter), nil)
			return err
		}

		if !h.requireService(ctx, c) {
			return nil
		}
		if !h.requireMembership(ctx, c) {
			return nil
		}
	}

	if operator {
		if action := h.sessions.Take(userID); action != session.ActionNone {
			return h.handleAdminAction(ctx, c, action)
		}
	}

	text := strings.TrimSpace(c.Text())
	if fetch.IsPostLink(text) {
		return h.download(ctx, c, text)
	}

	if !operator {
		_, err := h.screens.ShowFresh(ctx, chatID, textUsageHint, usageKeyboard())
		return err
	}
	return nil
}

// download runs the content path: admission with quota, resolver call, media
// delivery and only then the quota commit. A failed fetch or send never
// consumes quota.
func (h *Handler) download(ctx context.Context, c tele.Context, link string) error {
	userID := c.Sender().ID
	chatID := c.Chat().ID
	now := h.now()

	// Register on first sight so the committed download has a user row.
	h.ensureUser(ctx, userID)

	var grant *ratelimit.Grant
	if !h.isOperator(userID) {
		dec, g, err := h.limiter.Acquire(ctx, userID, now)
		if err != nil {
			logger.Error(ctx, "ratelimit", "acquire failed", slog.String("err", err.Error()))
			_, serr := h.screens.ShowFresh(ctx, chatID, textProcessingError, nil)
			return serr
		}
		switch dec.Outcome {
		case ratelimit.PermanentlyBlocked:
			_, err := h.screens.ShowFresh(ctx, chatID, textBlocked, nil)
			return err
		case ratelimit.TempBlocked:
			_, err := h.screens.ShowFresh(ctx, chatID, tempBlockedText(dec.RetryAfter), nil)
			return err
		case ratelimit.CooldownWait:
			_, err := h.screens.ShowFresh(ctx, chatID, cooldownText(dec.RetryAfter), nil)
			return err
		}
		grant = g
		defer grant.Release()
	}

	if _, err := h.screens.ShowFresh(ctx, chatID, textProcessing, nil); err != nil {
		logger.Error(ctx, "tg", "processing notice failed", slog.String("err", err.Error()))
	}

	items, err := h.fetcher.Post(ctx, link)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			_, serr := h.screens.ShowFresh(ctx, chatID, textFetchFailed, nil)
			return serr
		}
		logger.Error(ctx, "fetch", "resolver call failed",
			slog.String("link", logger.SanitizeLimit(link, 256)),
			slog.String("err", err.Error()),
		)
		_, serr := h.screens.ShowFresh(ctx, chatID, textProcessingError, nil)
		return serr
	}

	first := items[0]
	caption := downloadCaption(link, first.Caption, h.bot.Me.Username)

	var media interface{}
	switch {
	case first.IsVideo && first.VideoURL != "":
		media = &tele.Video{File: tele.FromURL(first.VideoURL), Caption: caption}
	case first.ImageURL != "":
		media = &tele.Photo{File: tele.FromURL(first.ImageURL), Caption: caption}
	default:
		_, err := h.screens.ShowFresh(ctx, chatID, textNoContent, nil)
		return err
	}

	// Drop the processing screen before the media arrives. The media message
	// itself is deliberately not tracked so later screens never delete it.
	h.screens.Clear(ctx, chatID)

	if _, err := h.bot.Send(tele.ChatID(chatID), media, tele.ModeHTML); err != nil {
		logger.Error(ctx, "tg", "media send failed",
			slog.String("link", logger.SanitizeLimit(link, 256)),
			slog.String("err", err.Error()),
		)
		_, serr := h.screens.ShowFresh(ctx, chatID, textProcessingError, nil)
		return serr
	}

	if grant != nil {
		if err := grant.Commit(ctx, h.now()); err != nil {
			logger.Error(ctx, "ratelimit", "commit failed", slog.String("err", err.Error()))
		}
	} else {
		window := time.Duration(h.cfg.RateLimit.WindowSeconds) * time.Second
		if err := h.store.RecordDownload(ctx, userID, h.now(), window); err != nil {
			logger.Error(ctx, "store", "record download failed", slog.String("err", err.Error()))
		}
	}

	logger.Info(ctx, "tg", "download delivered",
		slog.Int64("user_id", userID),
		slog.String("link", logger.SanitizeLimit(link, 256)),
	)

	_, err = h.screens.ShowFresh(ctx, chatID, textDownloadDone, h.userKeyboard())
	return err
}
