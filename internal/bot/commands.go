package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/service"
)

const myLogsLimit = 10

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *domain.User) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.cmdStart(ctx, chatID, user)
	case "help":
		b.cmdHelp(ctx, chatID)
	case "operating":
		b.cmdOperating(ctx, chatID)
	case "today":
		b.cmdToday(ctx, chatID, user)
	case "mylogs":
		b.cmdMyLogs(ctx, chatID, user)
	case "crew":
		b.cmdCrew(ctx, chatID, user)
	default:
		b.reply(ctx, chatID, "알 수 없는 명령입니다. /help 를 입력하세요")
	}
}

func (b *Bot) cmdStart(ctx context.Context, chatID int64, user *domain.User) {
	text := fmt.Sprintf("👋 안녕하세요, %s %s님!\n\n운항 현황과 운항일지를 확인할 수 있습니다.\n/help — 명령 목록",
		user.Role.Label(), user.Name)
	b.replyWithKeyboard(ctx, chatID, text, mainMenuKeyboard())
}

func (b *Bot) cmdHelp(ctx context.Context, chatID int64) {
	text := `<b>명령:</b>

/operating — 현재 운항중인 선박
/today — 오늘 운항일지
/mylogs — 내가 탑승한 최근 운항일지
/crew — 직원 명단 (부문장)
/help — 도움말`
	b.reply(ctx, chatID, text)
}

func (b *Bot) cmdOperating(ctx context.Context, chatID int64) {
	logs := b.svc.Logs.Operating(ctx)
	if len(logs) == 0 {
		b.reply(ctx, chatID, "⚓ 현재 운항중인 선박이 없습니다")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("🚢 <b>운항중 %d척</b>\n\n%s", len(logs), b.svc.Logs.FormatLogList(logs)))
}

// cmdToday shows today's voyages: the whole fleet for admin, own voyages for everyone else.
func (b *Bot) cmdToday(ctx context.Context, chatID int64, user *domain.User) {
	logs, err := b.svc.Logs.Today(ctx)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		b.reply(ctx, chatID, "❌ 오류: "+err.Error())
		return
	}

	if !user.Role.SeesAllLogs() {
		logs = involving(logs, user.ID)
	}
	if len(logs) == 0 {
		b.reply(ctx, chatID, "📅 오늘 운항일지가 없습니다")
		return
	}
	b.reply(ctx, chatID, "📅 <b>오늘 운항일지</b>\n\n"+b.svc.Logs.FormatLogList(logs))
}

func (b *Bot) cmdMyLogs(ctx context.Context, chatID int64, user *domain.User) {
	logs := involving(b.svc.Logs.List(ctx), user.ID)
	if len(logs) == 0 {
		b.reply(ctx, chatID, "📋 탑승 기록이 없습니다")
		return
	}
	if len(logs) > myLogsLimit {
		logs = logs[:myLogsLimit]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 <b>%s님의 최근 운항일지</b>\n\n", user.Name))
	sb.WriteString(b.svc.Logs.FormatLogList(logs))
	b.reply(ctx, chatID, sb.String())
}

// cmdCrew lists the roster. Only those who may open the members view get it.
func (b *Bot) cmdCrew(ctx context.Context, chatID int64, user *domain.User) {
	if !user.Role.CanView(domain.ViewMembers) {
		b.reply(ctx, chatID, "⛔ 직원 명단은 부문장만 볼 수 있습니다")
		return
	}
	users := b.svc.Members.SortedByName(ctx)
	b.reply(ctx, chatID, fmt.Sprintf("👥 <b>직원 %d명</b>\n\n%s", len(users), service.FormatMemberList(users)))
}

func involving(logs []domain.OperationLog, userID string) []domain.OperationLog {
	var result []domain.OperationLog
	for _, l := range logs {
		if l.Involves(userID) {
			result = append(result, l)
		}
	}
	return result
}
