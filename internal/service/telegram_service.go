package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/storage"
)

// Sender delivers Telegram messages. The live implementation talks to the Bot API,
// the simulated one only logs.
type Sender interface {
	Send(ctx context.Context, token string, chatID int64, text string) error
	// Ping verifies the token and returns the bot username
	Ping(ctx context.Context, token string) (string, error)
}

// Templates are the quick broadcast messages offered to operators.
var Templates = []string{
	"운항 주의 바랍니다.",
	"가평나루 호출입니다.",
	"남이나루 이동하십시요.",
	"오늘 업무 종료입니다. 수고하셨습니다.",
}

// BroadcastResult reports how a broadcast went
type BroadcastResult struct {
	Delivered int      `json:"delivered"`
	Failed    []string `json:"failed,omitempty"` // names of members that did not receive it
}

type TelegramService struct {
	sn           *storage.Snapshots
	members      *MemberService
	sender       Sender
	defaultToken string
	log          *zap.Logger

	mu sync.Mutex
}

func NewTelegramService(sn *storage.Snapshots, members *MemberService, sender Sender, defaultToken string, log *zap.Logger) *TelegramService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TelegramService{sn: sn, members: members, sender: sender, defaultToken: defaultToken, log: log}
}

func (s *TelegramService) load(ctx context.Context) domain.TelegramConfig {
	cfg := storage.Load(ctx, s.sn, storage.KeyTelegram, domain.TelegramConfig{BotToken: s.defaultToken})
	if cfg.SelectedRecipientIDs == nil {
		cfg.SelectedRecipientIDs = []string{}
	}
	return cfg
}

func (s *TelegramService) save(ctx context.Context, cfg domain.TelegramConfig) error {
	if err := s.sn.Save(ctx, storage.KeyTelegram, cfg); err != nil {
		return fmt.Errorf("save telegram config: %w", err)
	}
	return nil
}

// Config returns the stored Telegram settings
func (s *TelegramService) Config(ctx context.Context) domain.TelegramConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// SetToken replaces the bot token
func (s *TelegramService) SetToken(ctx context.Context, token string) (domain.TelegramConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.load(ctx)
	cfg.BotToken = strings.TrimSpace(token)
	return cfg, s.save(ctx, cfg)
}

// ToggleRecipient flips whether a member receives broadcasts and returns the new state.
func (s *TelegramService) ToggleRecipient(ctx context.Context, userID string) (bool, error) {
	u, err := s.members.Get(ctx, userID)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.load(ctx)
	if !cfg.IsSelected(userID) && !u.HasTelegram() {
		return false, validationError("%s has no Telegram chat id", u.Name)
	}
	selected := cfg.Toggle(userID)
	return selected, s.save(ctx, cfg)
}

// RemoveRecipient drops a member from the recipients, if selected
func (s *TelegramService) RemoveRecipient(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.load(ctx)
	if !cfg.Remove(userID) {
		return nil
	}
	return s.save(ctx, cfg)
}

// Recipients returns members that can be selected: those with a chat id
func (s *TelegramService) Recipients(ctx context.Context) []domain.User {
	return s.members.ListWithTelegram(ctx)
}

// Selected returns selected members that have a chat id
func (s *TelegramService) Selected(ctx context.Context) []domain.User {
	cfg := s.Config(ctx)
	var result []domain.User
	for _, u := range s.members.ListWithTelegram(ctx) {
		if cfg.IsSelected(u.ID) {
			result = append(result, u)
		}
	}
	return result
}

// TestConnection checks the configured token with the sender
func (s *TelegramService) TestConnection(ctx context.Context) (string, error) {
	cfg := s.Config(ctx)
	if !cfg.HasToken() {
		return "", validationError("bot token is not set")
	}
	name, err := s.sender.Ping(ctx, cfg.BotToken)
	if err != nil {
		return "", fmt.Errorf("test connection: %w", err)
	}
	return name, nil
}

// Broadcast sends text to every selected member that has a chat id.
func (s *TelegramService) Broadcast(ctx context.Context, text string) (*BroadcastResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationError("message is empty")
	}

	cfg := s.Config(ctx)
	if len(cfg.SelectedRecipientIDs) == 0 {
		return nil, validationError("select at least one recipient")
	}

	return s.deliver(ctx, cfg.BotToken, s.Selected(ctx), text), nil
}

func (s *TelegramService) deliver(ctx context.Context, token string, users []domain.User, text string) *BroadcastResult {
	res := &BroadcastResult{}
	for _, u := range users {
		chatID, ok := u.ChatID()
		if !ok {
			res.Failed = append(res.Failed, u.Name)
			continue
		}
		if err := s.sender.Send(ctx, token, chatID, text); err != nil {
			if errors.Is(err, context.Canceled) {
				return res
			}
			s.log.Error("Failed to send broadcast", zap.String("user", u.ID), zap.Error(err))
			res.Failed = append(res.Failed, u.Name)
			continue
		}
		res.Delivered++
	}
	return res
}

// Notify sends an automatic notice to the selected members. Failures are only logged.
func (s *TelegramService) Notify(ctx context.Context, text string) {
	users := s.Selected(ctx)
	if len(users) == 0 {
		s.log.Debug("No recipients selected, notice skipped")
		return
	}
	res := s.deliver(ctx, s.Config(ctx).BotToken, users, text)
	s.log.Info("Notice sent", zap.Int("delivered", res.Delivered), zap.Int("failed", len(res.Failed)))
}

// SendTo sends text to a single chat
func (s *TelegramService) SendTo(ctx context.Context, chatID int64, text string) error {
	return s.sender.Send(ctx, s.Config(ctx).BotToken, chatID, text)
}
