package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"SwingSentinel/internal/logger"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// StartPolling long-polls for commands from the configured chat. Blocks
// until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			logger.Info("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update, handler)
		}
	}
}

func (t *TelegramNotifier) handleUpdate(ctx context.Context, update tgbotapi.Update, handler CommandHandler) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	if msg.Chat == nil || msg.Chat.ID != t.ChatID {
		logger.Warn("ignoring message from chat %v", chatID(msg))
		return
	}
	text := strings.TrimSpace(msg.Text)
	logger.Info("received command: %s", text)
	if reply := handler(ctx, text); reply != "" {
		if err := t.Send(reply); err != nil {
			logger.Error("send reply: %v", err)
		}
	}
}

func chatID(msg *tgbotapi.Message) any {
	if msg.Chat == nil {
		return "unknown"
	}
	return msg.Chat.ID
}
