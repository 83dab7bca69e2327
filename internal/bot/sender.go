package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// LiveSender delivers messages through the Telegram Bot API. Clients are
// created lazily per token so a token change in the console takes effect at once.
type LiveSender struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[string]*tgbotapi.BotAPI
}

func NewLiveSender(log *zap.Logger) *LiveSender {
	return &LiveSender{log: log, clients: make(map[string]*tgbotapi.BotAPI)}
}

// Client returns the Bot API client for token, authorising it on first use.
func (s *LiveSender) Client(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is not set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if api, ok := s.clients[token]; ok {
		return api, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	s.clients[token] = api
	s.log.Info("Authorized Telegram bot", zap.String("username", api.Self.UserName))
	return api, nil
}

func (s *LiveSender) Send(ctx context.Context, token string, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	api, err := s.Client(token)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (s *LiveSender) Ping(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	api, err := s.Client(token)
	if err != nil {
		return "", err
	}
	me, err := api.GetMe()
	if err != nil {
		return "", fmt.Errorf("get me: %w", err)
	}
	return me.UserName, nil
}

// SimulatedMessage is a message the simulated sender pretended to deliver
type SimulatedMessage struct {
	ChatID int64
	Text   string
	SentAt time.Time
}

// SimulatedSender never touches the network. Messages are logged and kept in memory.
type SimulatedSender struct {
	log   *zap.Logger
	delay time.Duration

	mu   sync.Mutex
	sent []SimulatedMessage
}

func NewSimulatedSender(log *zap.Logger, delay time.Duration) *SimulatedSender {
	return &SimulatedSender{log: log, delay: delay}
}

func (s *SimulatedSender) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *SimulatedSender) Send(ctx context.Context, _ string, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.sent = append(s.sent, SimulatedMessage{ChatID: chatID, Text: text, SentAt: time.Now()})
	s.mu.Unlock()

	s.log.Info("Simulated Telegram message", zap.Int64("chat_id", chatID), zap.Int("length", len([]rune(text))))
	return nil
}

// Ping always succeeds after the configured delay
func (s *SimulatedSender) Ping(ctx context.Context, _ string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	return "simulated_bot", nil
}

// Sent returns a copy of every simulated message so far
func (s *SimulatedSender) Sent() []SimulatedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimulatedMessage(nil), s.sent...)
}
