package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/config"
	"github.com/namiferry/ferrybot/internal/service"
)

// Services bundles everything the console surfaces call into
type Services struct {
	Members   *service.MemberService
	Ships     *service.ShipService
	Logs      *service.LogService
	Dashboard *service.DashboardService
	Telegram  *service.TelegramService
	Session   *service.Session
	Calendar  *service.CalendarService
}

type Bot struct {
	api    *tgbotapi.BotAPI // nil unless TELEGRAM_MODE=live
	cfg    *config.Config
	svc    Services
	log    *zap.Logger
	server *http.Server
}

// New wires the HTTP console and, in live mode, the Telegram webhook.
// live may be nil in simulate mode.
func New(cfg *config.Config, svc Services, live *LiveSender, log *zap.Logger) (*Bot, error) {
	b := &Bot{cfg: cfg, svc: svc, log: log}

	if !cfg.APIEnabled() {
		log.Warn("API_USERNAME/API_PASSWORD not set, /api is served without authentication")
	}

	if cfg.IsLive() {
		if live == nil {
			return nil, fmt.Errorf("live mode needs a live sender")
		}
		api, err := live.Client(cfg.TelegramToken)
		if err != nil {
			return nil, err
		}
		b.api = api
		b.setCommands()
	}

	return b, nil
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "⛴ 시작"},
		{Command: "operating", Description: "🚢 운항중인 선박"},
		{Command: "today", Description: "📅 오늘 운항일지"},
		{Command: "mylogs", Description: "📋 내 운항일지"},
		{Command: "crew", Description: "👥 직원 명단"},
		{Command: "help", Description: "❓ 도움말"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		b.log.Warn("Failed to set commands", zap.Error(err))
	}
}

func (b *Bot) SetupWebhook() error {
	if b.api == nil || b.cfg.WebhookURL == "" {
		return nil
	}
	webhookURL := b.cfg.WebhookURL + "/bot"

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}

	if info.LastErrorDate != 0 {
		b.log.Warn("Webhook last error", zap.String("message", info.LastErrorMessage))
	}

	b.log.Info("Webhook set", zap.String("url", webhookURL))
	return nil
}

// webhook receives Telegram updates pushed to /bot
func (b *Bot) webhook(c *gin.Context) {
	update, err := b.api.HandleUpdate(c.Request)
	if err != nil {
		b.log.Warn("Bad webhook update", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}
	c.Status(http.StatusOK)

	go b.handleUpdate(context.WithoutCancel(c.Request.Context()), *update)
}

// Start serves HTTP until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.server = &http.Server{
		Addr:              ":" + b.cfg.ServerPort,
		Handler:           b.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.log.Info("Starting HTTP server", zap.String("port", b.cfg.ServerPort), zap.String("telegram_mode", b.cfg.TelegramMode))
		if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func (b *Bot) Stop(ctx context.Context) error {
	if b.server != nil {
		return b.server.Shutdown(ctx)
	}
	return nil
}

// reply sends text to a chat through the configured sender
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.svc.Telegram.SendTo(ctx, chatID, text); err != nil {
		b.log.Error("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// replyWithKeyboard attaches an inline keyboard in live mode; in simulate mode it sends plain text.
func (b *Bot) replyWithKeyboard(ctx context.Context, chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if b.api == nil {
		b.reply(ctx, chatID, text)
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
