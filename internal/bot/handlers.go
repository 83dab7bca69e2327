package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/internal/domain"
)

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// member looks up the roster entry registered with chatID
func (b *Bot) member(ctx context.Context, chatID int64) (*domain.User, bool) {
	return b.svc.Members.FindByChatID(ctx, chatID)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, ok := b.member(ctx, chatID)
	if !ok {
		b.log.Info("Message from unknown chat", zap.Int64("chat_id", chatID))
		b.reply(ctx, chatID, fmt.Sprintf("⛔ 등록되지 않은 사용자입니다.\n관리자에게 Chat ID <code>%d</code> 등록을 요청하세요.", chatID))
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	b.replyWithKeyboard(ctx, chatID, "무엇을 확인할까요?", mainMenuKeyboard())
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	user, ok := b.member(ctx, chatID)
	if !ok {
		b.answerCallback(callback.ID, "⛔ 등록되지 않은 사용자")
		return
	}
	b.answerCallback(callback.ID, "")

	switch callback.Data {
	case cbOperating:
		b.cmdOperating(ctx, chatID)
	case cbToday:
		b.cmdToday(ctx, chatID, user)
	case cbMyLogs:
		b.cmdMyLogs(ctx, chatID, user)
	default:
		b.log.Debug("Unknown callback", zap.String("data", callback.Data))
	}
}

func (b *Bot) answerCallback(id, text string) {
	if b.api == nil {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Warn("Failed to answer callback", zap.Error(err))
	}
}
