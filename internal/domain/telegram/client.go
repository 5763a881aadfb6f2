package telegram

import "gopkg.in/telebot.v3"

// Client sends a message to a chat and returns the Telegram message id.
// It decouples delivery from the bot library.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) (int, error)
}
