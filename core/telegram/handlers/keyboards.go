package handlers

import (
	"fmt"

	tele "gopkg.in/telebot.v4"
)

// Callback data values shared between keyboards and the callback router.
const (
	cbCheckJoin     = "check_join"
	cbMyProfile     = "my_profile"
	cbDownloadHelp  = "download_help"
	cbStartDownload = "start_download"
	cbBackToMain    = "back_to_main"

	cbStats     = "stats"
	cbBroadcast = "broadcast"
	cbForward   = "forward"
	cbBlock     = "block"
	cbUnblock   = "unblock"
	cbBotOn     = "bot_on"
	cbBotOff    = "bot_off"
	cbBack      = "back"
)

const supportURL = "https://t.me/PlushPepeDesigner"

func btn(text, data string) tele.InlineButton {
	return tele.InlineButton{Text: text, Data: data}
}

func (h *Handler) userKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{btn("📥 Download an Instagram post", cbDownloadHelp)},
		{btn("👤 My profile", cbMyProfile)},
		{{Text: "👥 Our channel", URL: fmt.Sprintf("https://t.me/%s", h.cfg.Channel.Username)}},
		{{Text: "📞 Support", URL: supportURL}},
	}}
}

func adminKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{btn("📊 Bot statistics", cbStats)},
		{btn("📢 Broadcast", cbBroadcast), btn("🔁 Mass forward", cbForward)},
		{btn("🚫 Block a user", cbBlock), btn("✅ Unblock a user", cbUnblock)},
		{btn("🟢 Enable the bot", cbBotOn), btn("🔴 Disable the bot", cbBotOff)},
		{{Text: "👤 Support", URL: supportURL}},
	}}
}

func (h *Handler) joinKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{{Text: "📢 " + h.cfg.Channel.Nickname, URL: fmt.Sprintf("https://t.me/%s", h.cfg.Channel.Username)}},
		{btn("✅ I joined", cbCheckJoin)},
	}}
}

func helpKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{btn("🔙 Back to the main menu", cbBackToMain)},
		{btn("📥 Start downloading", cbStartDownload)},
	}}
}

func profileKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{btn("📥 Download content", cbStartDownload)},
		{btn("🔙 Back", cbBackToMain)},
	}}
}

func backKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{btn("🔙 Back", cbBack)},
	}}
}

func usageKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{btn("📖 How to use the bot", cbDownloadHelp)},
		{{Text: "👤 Support", URL: supportURL}},
	}}
}
