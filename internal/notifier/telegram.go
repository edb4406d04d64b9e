package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"SwingSentinel/internal/logger"
	"SwingSentinel/internal/model"
)

// Sink receives the output of a scan.
type Sink interface {
	DeliverSignal(ctx context.Context, sig model.Signal) error
	DeliverSummary(ctx context.Context, res *model.ScanResult) error
}

// botAPI is the subset of tgbotapi.BotAPI the notifier uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	bot     botAPI
	ChatID  int64
	Retries int
	Backoff time.Duration // first retry delay, doubled per attempt
}

// NewTelegramNotifier connects to the Bot API with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) (*TelegramNotifier, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse chat id %q: %w", chatID, err)
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{Timeout: 45 * time.Second, Transport: transport}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	logger.Info("telegram bot authorised as @%s", bot.Self.UserName)
	return newTelegram(bot, id), nil
}

func newTelegram(bot botAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, ChatID: chatID, Retries: 3, Backoff: time.Second}
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	msg := tgbotapi.NewMessage(t.ChatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.Backoff * time.Duration(1<<uint(i))
		logger.Warn("telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}

func (t *TelegramNotifier) DeliverSignal(ctx context.Context, sig model.Signal) error {
	return t.SendWithRetry(ctx, FormatSignal(sig), t.Retries)
}

// DeliverSummary sends the run summary, or the no-signal message for an
// empty run. A run that never completed sends nothing.
func (t *TelegramNotifier) DeliverSummary(ctx context.Context, res *model.ScanResult) error {
	if res == nil || res.Status == model.ScanNotRun {
		return nil
	}
	return t.SendWithRetry(ctx, FormatScanSummary(res), t.Retries)
}

// LogSink writes deliveries to the log instead of a chat. Used for dry runs.
type LogSink struct{}

func (LogSink) DeliverSignal(_ context.Context, sig model.Signal) error {
	logger.Info("signal:\n%s", FormatSignal(sig))
	return nil
}

func (LogSink) DeliverSummary(_ context.Context, res *model.ScanResult) error {
	if res == nil || res.Status == model.ScanNotRun {
		return nil
	}
	logger.Info("summary:\n%s", FormatScanSummary(res))
	return nil
}
