// Package handlers wires the bot's commands, callbacks and the inbound
// message pipeline to the admission, session, screen and download components.
package handlers

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/plushpepe/instabot/core/broadcast"
	coreconfig "github.com/plushpepe/instabot/core/config"
	"github.com/plushpepe/instabot/core/fetch"
	"github.com/plushpepe/instabot/core/ratelimit"
	"github.com/plushpepe/instabot/core/screen"
	"github.com/plushpepe/instabot/core/session"
	"github.com/plushpepe/instabot/core/store"

	tele "gopkg.in/telebot.v4"
)

// Handler carries the components every route needs.
type Handler struct {
	cfg      *coreconfig.Config
	store    store.Store
	limiter  *ratelimit.Limiter
	sessions *session.Manager
	screens  *screen.Manager
	fetcher  *fetch.Client
	caster   *broadcast.Engine
	bot      *tele.Bot

	channelMu sync.Mutex
	channel   *tele.Chat
}

// New constructs the handler set.
func New(
	cfg *coreconfig.Config,
	st store.Store,
	limiter *ratelimit.Limiter,
	sessions *session.Manager,
	screens *screen.Manager,
	fetcher *fetch.Client,
	caster *broadcast.Engine,
	bot *tele.Bot,
) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    st,
		limiter:  limiter,
		sessions: sessions,
		screens:  screens,
		fetcher:  fetcher,
		caster:   caster,
		bot:      bot,
	}
}

// Register binds every route on the bot.
func (h *Handler) Register() {
	h.bot.Handle("/start", h.Start)
	h.bot.Handle("/help", h.Help)
	h.bot.Handle("/profile", h.Profile)
	h.bot.Handle("/me", h.Profile)
	h.bot.Handle(tele.OnCallback, h.Callback)
	h.bot.Handle(tele.OnText, h.Message)
	h.bot.Handle(tele.OnMedia, h.Message)
	h.bot.Handle(tele.OnSticker, h.Message)
}

// isOperator reports whether the user is the configured bot operator.
func (h *Handler) isOperator(userID int64) bool {
	return userID == h.cfg.Telegram.AdminID
}

// isAnonymousAdmin reports whether the sender is a channel posting as an
// anonymous admin. Those ids carry the "-100" supergroup prefix and cannot
// be served as users.
func isAnonymousAdmin(id int64) bool {
	return strings.HasPrefix(strconv.FormatInt(id, 10), "-100")
}

// isJoined checks the user's membership in the required channel. The channel
// chat is resolved by username once and cached.
func (h *Handler) isJoined(userID int64) (bool, error) {
	h.channelMu.Lock()
	chat := h.channel
	h.channelMu.Unlock()

	if chat == nil {
		resolved, err := h.bot.ChatByUsername("@" + h.cfg.Channel.Username)
		if err != nil {
			return false, err
		}
		h.channelMu.Lock()
		h.channel = resolved
		h.channelMu.Unlock()
		chat = resolved
	}

	member, err := h.bot.ChatMemberOf(chat, &tele.User{ID: userID})
	if err != nil {
		return false, err
	}
	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true, nil
	default:
		return false, nil
	}
}

// deleteIncoming removes the user's own message so only bot screens remain
// in the chat. Operator messages are kept.
func (h *Handler) deleteIncoming(c tele.Context) {
	if h.isOperator(c.Sender().ID) {
		return
	}
	_ = c.Delete()
}

func (h *Handler) now() time.Time {
	return time.Now()
}

// ensureUser registers the user on first sight.
func (h *Handler) ensureUser(ctx context.Context, userID int64) {
	_ = h.store.UpsertUser(ctx, userID, h.now())
}
