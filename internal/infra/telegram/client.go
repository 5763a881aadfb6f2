// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"

	"gopkg.in/telebot.v3"

	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/telegram"
)

// TelebotAdapter implements telegram.Client on gopkg.in/telebot.v3.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

func (tba *TelebotAdapter) SendMessage(chatID int64, text string, options *telebot.SendOptions) (int, error) {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	msg, err := tba.bot.Send(&telebot.Chat{ID: chatID}, text, options)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// Transport delivers push messages to linked Telegram chats. The device
// token is the chat id.
type Transport struct {
	client telegram.Client
}

func NewTransport(client telegram.Client) *Transport {
	return &Transport{client: client}
}

func (t *Transport) Send(ctx context.Context, msg push.Message) (string, error) {
	chatID, err := strconv.ParseInt(msg.Device.Token, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: chat id %q is not numeric", push.ErrInvalidToken, msg.Device.Token)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text := fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(msg.Title), html.EscapeString(msg.Body))
	id, err := t.client.SendMessage(chatID, text, &telebot.SendOptions{ParseMode: telebot.ModeHTML})
	if err != nil {
		return "", mapSendError(err)
	}
	return strconv.Itoa(id), nil
}

func mapSendError(err error) error {
	switch {
	case errors.Is(err, telebot.ErrBlockedByUser),
		errors.Is(err, telebot.ErrChatNotFound),
		errors.Is(err, telebot.ErrUserIsDeactivated):
		return errors.Join(push.ErrInvalidToken, err)
	case errors.Is(err, telebot.ErrUnauthorized):
		return errors.Join(push.ErrUnauthorized, err)
	}
	return err
}
