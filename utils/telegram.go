package utils

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tour-backend/config"
)

// TelegramSender posts plain-text alerts to one admin chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender authenticates the bot. It returns nil, nil when Telegram is not configured.
func NewTelegramSender(cfg config.TelegramConfig) (*TelegramSender, error) {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Printf("Telegram alerts enabled as @%s", bot.Self.UserName)
	return &TelegramSender{bot: bot, chatID: cfg.ChatID}, nil
}

func (t *TelegramSender) SendText(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
