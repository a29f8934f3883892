package telegram

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// Transport adapts a Telebot bot to the narrow messaging interfaces the
// screen manager and the broadcast engine consume.
type Transport struct {
	bot *tele.Bot
}

// NewTransport wraps the given bot.
func NewTransport(bot *tele.Bot) *Transport {
	return &Transport{bot: bot}
}

func stored(chatID int64, messageID int) tele.StoredMessage {
	return tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}
}

func sendOptions(markup any) []interface{} {
	opts := []interface{}{tele.ModeHTML}
	if rm, ok := markup.(*tele.ReplyMarkup); ok && rm != nil {
		opts = append(opts, rm)
	}
	return opts
}

// Send sends an HTML text message and returns its message id.
func (t *Transport) Send(_ context.Context, chatID int64, text string, markup any) (int, error) {
	msg, err := t.bot.Send(tele.ChatID(chatID), text, sendOptions(markup)...)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// Edit replaces the text and markup of an existing message.
func (t *Transport) Edit(_ context.Context, chatID int64, messageID int, text string, markup any) error {
	_, err := t.bot.Edit(stored(chatID, messageID), text, sendOptions(markup)...)
	return err
}

// Delete removes a message.
func (t *Transport) Delete(_ context.Context, chatID int64, messageID int) error {
	return t.bot.Delete(stored(chatID, messageID))
}

// Forward forwards a message to a user keeping the original attribution.
func (t *Transport) Forward(_ context.Context, userID int64, fromChatID int64, messageID int) error {
	_, err := t.bot.Forward(tele.ChatID(userID), stored(fromChatID, messageID))
	return err
}

// Caster narrows Transport to the delivery operations of a broadcast run.
type Caster struct {
	t *Transport
}

// NewCaster wraps the transport for broadcast use.
func NewCaster(t *Transport) *Caster {
	return &Caster{t: t}
}

// Send delivers an HTML text message to the user without tracking it.
func (c *Caster) Send(ctx context.Context, userID int64, text string) error {
	_, err := c.t.Send(ctx, userID, text, nil)
	return err
}

// Forward forwards a message to the user.
func (c *Caster) Forward(ctx context.Context, userID int64, fromChatID int64, messageID int) error {
	return c.t.Forward(ctx, userID, fromChatID, messageID)
}
