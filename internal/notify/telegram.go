// Package notify delivers outbound notifications; Telegram is the only channel.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram sends digest messages to linked chats. Outbound only; the bot
// never polls for updates.
type Telegram struct {
	api *tgbotapi.BotAPI
	log *zap.Logger
}

func NewTelegram(token string, log *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("telegram notifier authorized", zap.String("account", api.Self.UserName))
	return &Telegram{api: api, log: log}, nil
}

// Send delivers one HTML-formatted message to a chat.
func (t *Telegram) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
