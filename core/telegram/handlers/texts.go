package handlers

import (
	"fmt"
	"time"

	"github.com/plushpepe/instabot/core/broadcast"
	"github.com/plushpepe/instabot/core/store"
)

const (
	textWelcome = "<blockquote>👋 <b>Welcome to the Instagram downloader bot!</b>\n\n</blockquote>" +
		"<blockquote>📥 This bot downloads Instagram posts, videos and reels for you.\n\n</blockquote>" +
		"<blockquote>✨ <b>How to use it:</b>\n" +
		"1. Copy an Instagram post link\n" +
		"2. Send the link to the bot\n" +
		"3. The bot fetches the content for you\n\n</blockquote>" +
		"<blockquote>📎 <b>Example of a valid link:</b>\n" +
		"https://www.instagram.com/p/Cxxxxxxxxxx/\n\n</blockquote>" +
		"<blockquote>⚠️ Note: the post must be public.</blockquote>"

	textMainMenu = "<blockquote>👋 <b>Welcome to the Instagram downloader bot!</b>\n\n</blockquote>" +
		"<blockquote>Use the menu below to get started.</blockquote>"

	textJoinConfirmed = "<blockquote>✅ <b>Thanks, your membership is confirmed!</b>\n\n</blockquote>" +
		"👋 <b>Welcome to the Instagram downloader bot!</b>\n\n" +
		"📥 This bot downloads Instagram posts, videos and reels for you.\n\n" +
		"✨ Send an Instagram link to get started."

	textNotJoinedAlert = "❌ You have not joined the channel yet. Please join first, then press the button again."

	textHelp = "<blockquote>📖 <b>How to use this bot</b>\n\n</blockquote>" +
		"<blockquote>🔹 This bot downloads Instagram content.\n\n</blockquote>" +
		"<blockquote>🔹 <b>Steps:</b>\n" +
		"1. Copy an Instagram post link\n" +
		"2. Send the link to the bot\n" +
		"3. The bot fetches the content for you\n\n</blockquote>" +
		"<blockquote>🔹 <b>Supported content:</b>\n" +
		"• 📷 Photos\n" +
		"• 🎬 Videos\n" +
		"• 📹 Reels\n" +
		"• 🎞️ IGTV\n\n</blockquote>" +
		"<blockquote>🔹 <b>Limitations:</b>\n" +
		"• The post must be public\n" +
		"• Private posts and accounts cannot be accessed\n\n</blockquote>" +
		"<blockquote>🔹 <b>Example of a valid link:</b>\n" +
		"<code>https://www.instagram.com/p/Cxxxxxxxxxx/</code>\n\n</blockquote>" +
		"<blockquote>Send an Instagram link to get started.</blockquote>"

	textStartDownload = "<blockquote>📥 <b>Send an Instagram post link to download it.</b>\n\n</blockquote>" +
		"<blockquote>Example of a valid link:\n" +
		"<code>https://www.instagram.com/p/Cxxxxxxxxxx/</code></blockquote>"

	textUsageHint = "<blockquote>📝 <b>Please send a valid Instagram link.</b>\n\n</blockquote>" +
		"<blockquote>🔹 Example of a valid link:\n</blockquote>" +
		"<code>https://www.instagram.com/p/Cxxxxxxxxxx/</code>\n\n" +
		"<blockquote>Use the help button for more details.</blockquote>"

	textProcessing = "<blockquote>⏳ <b>Fetching the content...</b>\n\nPlease wait a moment.</blockquote>"

	textDownloadDone = "✅ <b>Download finished!</b>\n\n" +
		"Send another link or use the menu below."

	textNoContent = "❌ <b>No downloadable content was found.</b>"

	textFetchFailed = "❌ <b>Could not fetch the post from Instagram.</b>\n\n" +
		"The link may be invalid or the post may have been deleted."

	textProcessingError = "❌ <b>Something went wrong while processing the request.</b>\n\n" +
		"Please try again later or send a different link."

	textBlocked = "<blockquote>⛔️ <b>You have been blocked by the administration.</b>\n\n" +
		"Contact support if you believe this is a mistake.</blockquote>"

	textServiceOff = "<blockquote>🔴 <b>The bot is temporarily unavailable.</b>\n\nPlease try again later.</blockquote>"

	textAdminPanel = "<blockquote>🛠️ <b>Bot administration panel</b>\n\nUse the buttons below to manage the bot.</blockquote>"

	textAskBroadcast = "<blockquote>📢 <b>Broadcast</b>\n\n" +
		"Send the message you want delivered to every user:</blockquote>"

	textAskForward = "🔁 <b>Mass forward</b>\n\n" +
		"Send the message you want forwarded to every user:"

	textAskBlock = "🚫 <b>Block a user</b>\n\n" +
		"Send the numeric id of the user to block:"

	textAskUnblock = "✅ <b>Unblock a user</b>\n\n" +
		"Send the numeric id of the user to unblock:"

	textBroadcasting = "⏳ <b>Broadcasting...</b>"
	textForwarding   = "⏳ <b>Forwarding...</b>"

	textInvalidUserID = "❌ <b>That user id is not valid.</b>"

	textInvalidBroadcast = "❌ <b>The broadcast message must contain text.</b>"

	textServiceOnAlert  = "✅ Bot enabled"
	textServiceOffAlert = "⛔️ Bot disabled"
	textOperatorOnly    = "⛔️ This section is for bot administrators only"
)

func joinPromptText(nickname string) string {
	return "<blockquote>👋 <b>Welcome to the Instagram downloader bot!</b>\n\n</blockquote>" +
		fmt.Sprintf("<blockquote>🔒 To use the bot you first need to join %s.\n\n", nickname) +
		"Once you have joined, press the \"I joined\" button.</blockquote>"
}

func tempBlockedText(remaining time.Duration) string {
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	return "<blockquote>⏰ <b>You are temporarily blocked for sending too many requests.</b>\n\n</blockquote>" +
		fmt.Sprintf("<blockquote>⏳ Time until the block lifts: %dh %dm\n\n</blockquote>", hours, minutes) +
		"<blockquote>Please try again after that.</blockquote>"
}

func cooldownText(remaining time.Duration) string {
	secs := int(remaining.Seconds())
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("<blockquote>⏰ <b>Please wait %d more seconds before sending a new request.</b>\n\n</blockquote>", secs) +
		"<blockquote>Try again after that.</blockquote>"
}

func profileText(userID int64, u *store.User) string {
	joined := "unknown"
	count := int64(0)
	last := "no downloads yet"
	if u != nil {
		joined = u.JoinedAt.Format("2006-01-02 15:04:05")
		count = u.DownloadCount
		if u.LastDownloadAt != nil {
			last = u.LastDownloadAt.Format("2006-01-02 15:04:05")
		}
	}
	return "<blockquote>👤 <b>Your profile</b>\n\n</blockquote>" +
		fmt.Sprintf("🆔 User id: <code>%d</code>\n", userID) +
		fmt.Sprintf("📅 Joined: <code>%s</code>\n", joined) +
		fmt.Sprintf("📥 Downloads: <code>%d</code>\n", count) +
		fmt.Sprintf("🕒 Last download: <code>%s</code>\n\n", last) +
		"✨ Send an Instagram link to download content."
}

func statsText(s store.Stats, enabled bool, operatorID int64) string {
	status := "🔴 off"
	if enabled {
		status = "🟢 on"
	}
	return "<blockquote>📊 <b>Bot statistics</b>\n\n</blockquote>" +
		fmt.Sprintf("👥 Total users: <code>%d</code>\n", s.Users) +
		fmt.Sprintf("🚫 Blocked users: <code>%d</code>\n", s.Blocked) +
		fmt.Sprintf("📥 Total downloads: <code>%d</code>\n", s.Downloads) +
		fmt.Sprintf("🔧 Bot status: %s\n\n", status) +
		fmt.Sprintf("🆔 Your id: <code>%d</code>", operatorID)
}

func castResultText(kind string, res broadcast.Result) string {
	title := "Broadcast results"
	if kind == "forward" {
		title = "Forward results"
	}
	return fmt.Sprintf("📊 <b>%s:</b>\n\n✅ Delivered: %d\n❌ Failed: %d", title, res.Succeeded, res.Failed)
}

func blockedConfirmText(userID int64) string {
	return fmt.Sprintf("✅ <b>User %d has been blocked.</b>", userID)
}

func unblockedConfirmText(userID int64) string {
	return fmt.Sprintf("✅ <b>User %d has been unblocked.</b>", userID)
}

func downloadCaption(link, caption, botUsername string) string {
	return "<blockquote>📥 <b>Downloaded via the Instagram downloader bot</b>\n\n</blockquote>" +
		"🔗 <b>Downloaded post link:</b>\n" +
		fmt.Sprintf("<blockquote>%s</blockquote>\n\n", link) +
		"📝 <b>Caption:</b>\n" +
		fmt.Sprintf("<blockquote>%s\n\n</blockquote>", caption) +
		"🤖 @" + botUsername
}
