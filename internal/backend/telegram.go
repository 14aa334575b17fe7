package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smsrelay/internal/domain"
)

// Telegram relays channel traffic through a Telegram bot. Backend args
// carry the bot token plus one entry per member mapping an E.164 number
// to that member's chat id, e.g. token=... +15550000001=123456789.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	chats   map[string]int64 // number -> chat id
	numbers map[int64]string // chat id -> number
	offset  int              // in-memory update cursor; a restart may redeliver the last batch
	logger  *slog.Logger
}

func NewTelegram(args map[string]string, logger *slog.Logger) (*Telegram, error) {
	t := &Telegram{
		chats:   make(map[string]int64),
		numbers: make(map[int64]string),
		logger:  logger,
	}
	var token string
	for key, value := range args {
		if key == "token" {
			token = value
			continue
		}
		if err := domain.ValidNumber(key); err != nil {
			return nil, fmt.Errorf("invalid argument: %s", key)
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id for %s: %s", key, value)
		}
		t.chats[key] = id
		t.numbers[id] = key
	}
	if token == "" {
		return nil, fmt.Errorf("token argument is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect bot: %w", err)
	}
	t.bot = bot
	return t, nil
}

func (t *Telegram) Send(ctx context.Context, number string, text string) error {
	id, ok := t.chats[number]
	if !ok {
		return fmt.Errorf("no chat mapped for %s", number)
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
		return fmt.Errorf("send to %s: %w", number, err)
	}
	return nil
}

func (t *Telegram) Receive(ctx context.Context) ([]domain.Message, error) {
	cfg := tgbotapi.NewUpdate(t.offset)
	updates, err := t.bot.GetUpdates(cfg)
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	var messages []domain.Message
	for _, update := range updates {
		if update.UpdateID >= t.offset {
			t.offset = update.UpdateID + 1
		}
		if update.Message == nil {
			continue
		}
		number, ok := t.numbers[update.Message.Chat.ID]
		if !ok {
			t.logger.Debug("ignoring message from unmapped chat", "chat", update.Message.Chat.ID)
			continue
		}
		messages = append(messages, domain.Message{Number: number, Text: update.Message.Text})
	}
	return messages, nil
}
