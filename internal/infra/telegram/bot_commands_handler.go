// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	idb "padel_notifier/internal/infra/database"
)

const helpText = "Reminders for your bookings, training sessions and tournament matches can be delivered here.\n\n" +
	"/start <code> - link this chat with the code issued in the app\n" +
	"/stop <user id> - stop receiving reminders in this chat\n" +
	"/help - show this message"

// ChatLinker is the part of the device service the bot needs.
type ChatLinker interface {
	LinkTelegram(ctx context.Context, code, chatID string) (string, error)
	UnlinkTelegram(ctx context.Context, userID, chatID string) error
}

// Commands answers the bot's chat commands.
type Commands struct {
	devices ChatLinker
	logger  logrus.FieldLogger
}

func NewCommands(devices ChatLinker, logger logrus.FieldLogger) *Commands {
	return &Commands{devices: devices, logger: logger}
}

// Start links chatID to the account that issued the code in payload.
func (h *Commands) Start(ctx context.Context, chatID int64, payload string) string {
	code := strings.TrimSpace(payload)
	logCtx := h.logger.WithFields(logrus.Fields{"command": "/start", "chat_id": chatID})
	if code == "" {
		logCtx.Info("Start without link code")
		return "Hi! Open the app, request a Telegram link code and send /start <code> here to receive reminders."
	}

	userID, err := h.devices.LinkTelegram(ctx, code, strconv.FormatInt(chatID, 10))
	switch {
	case err == nil:
		logCtx.WithField("user_id", userID).Info("Chat linked")
		return "Done. Reminders for your account will be sent to this chat."
	case errors.Is(err, idb.ErrLinkCodeNotFound), errors.Is(err, idb.ErrUserNotFound):
		logCtx.Warn("Invalid or expired link code")
		return "That code is invalid or has expired. Request a new one in the app."
	default:
		logCtx.WithError(err).Error("Failed to link chat")
		return "Something went wrong while linking this chat. Please try again later."
	}
}

// Stop unlinks this chat from the account named in payload. Chats other than
// the linked one are refused.
func (h *Commands) Stop(ctx context.Context, chatID int64, payload string) string {
	userID := strings.TrimSpace(payload)
	logCtx := h.logger.WithFields(logrus.Fields{"command": "/stop", "chat_id": chatID, "user_id": userID})
	if userID == "" {
		return "Send /stop <user id> to stop reminders in this chat."
	}

	err := h.devices.UnlinkTelegram(ctx, userID, strconv.FormatInt(chatID, 10))
	switch {
	case err == nil:
		logCtx.Info("Chat unlinked")
		return "Reminders will no longer be sent to this chat."
	case errors.Is(err, idb.ErrDeviceNotFound):
		logCtx.Warn("Stop from a chat that is not linked to the account")
		return "This chat is not linked to that account."
	default:
		logCtx.WithError(err).Error("Failed to unlink chat")
		return "Something went wrong. Please try again later."
	}
}

func (h *Commands) Help() string {
	return helpText
}

// RegisterBotCommands wires the commands into b.
func RegisterBotCommands(ctx context.Context, b *telebot.Bot, h *Commands) {
	b.Handle("/start", func(c telebot.Context) error {
		return c.Send(h.Start(ctx, c.Chat().ID, c.Message().Payload))
	})
	b.Handle("/stop", func(c telebot.Context) error {
		return c.Send(h.Stop(ctx, c.Chat().ID, c.Message().Payload))
	})
	b.Handle("/help", func(c telebot.Context) error {
		return c.Send(h.Help())
	})
}
