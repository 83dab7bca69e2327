package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namiferry/ferrybot/internal/domain"
)

func commandUpdate(chatID int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
	}}
}

func lastText(t *testing.T, tb *testBot) string {
	t.Helper()
	sent := tb.sender.Sent()
	require.NotEmpty(t, sent)
	return sent[len(sent)-1].Text
}

func TestHandle_UnknownChat(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.handleUpdate(context.Background(), commandUpdate(42, "/start"))

	sent := tb.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(42), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "등록되지 않은 사용자")
	assert.Contains(t, sent[0].Text, "<code>42</code>")
}

func TestHandle_StartAndHelp(t *testing.T) {
	tb := newTestBot(t, nil)
	ctx := context.Background()

	tb.handleUpdate(ctx, commandUpdate(87654321, "/start"))
	assert.Contains(t, lastText(t, tb), "선장 정현준님")

	tb.handleUpdate(ctx, commandUpdate(87654321, "/help"))
	assert.Contains(t, lastText(t, tb), "/operating")

	tb.handleUpdate(ctx, commandUpdate(87654321, "/launch"))
	assert.Contains(t, lastText(t, tb), "알 수 없는 명령")
}

func TestHandle_VoyageCommands(t *testing.T) {
	tb := newTestBot(t, nil)
	ctx := context.Background()
	dep := testNow.Add(-30 * time.Minute)
	arr := testNow.Add(-10 * time.Minute)

	logs := []domain.OperationLog{
		{ID: "a", ShipName: "탐나라호", CaptainID: "u2", CaptainName: "정현준", DepartureTime: &dep},
		{ID: "b", ShipName: "가우디호", CaptainID: "u5", CaptainName: "신교철", EngineerID: "u3", EngineerName: "김영창",
			DepartureTime: &dep, ArrivalTime: &arr, Status: domain.StatusComplete},
	}
	seedLogsVia(t, tb, logs)

	tb.handleUpdate(ctx, commandUpdate(12345678, "/operating"))
	assert.Contains(t, lastText(t, tb), "운항중 1척")
	assert.Contains(t, lastText(t, tb), "탐나라호")

	// Admin sees the whole fleet today
	tb.handleUpdate(ctx, commandUpdate(12345678, "/today"))
	assert.Contains(t, lastText(t, tb), "탐나라호")
	assert.Contains(t, lastText(t, tb), "가우디호")

	// The engineer only sees the voyage they were on
	tb.handleUpdate(ctx, commandUpdate(11223344, "/mylogs"))
	text := lastText(t, tb)
	assert.Contains(t, text, "김영창님")
	assert.Contains(t, text, "가우디호")
	assert.NotContains(t, text, "탐나라호")

	// Crew member without voyages
	tb.handleUpdate(ctx, commandUpdate(44332211, "/today"))
	assert.Contains(t, lastText(t, tb), "오늘 운항일지가 없습니다")
}

func TestHandle_Crew(t *testing.T) {
	tb := newTestBot(t, nil)
	ctx := context.Background()

	tb.handleUpdate(ctx, commandUpdate(12345678, "/crew"))
	text := lastText(t, tb)
	assert.Contains(t, text, "직원 6명")
	assert.Contains(t, text, "<b>정현준</b> (선장)")

	tb.handleUpdate(ctx, commandUpdate(87654321, "/crew"))
	assert.Contains(t, lastText(t, tb), "부문장만")
}

func TestHandle_Callback(t *testing.T) {
	tb := newTestBot(t, nil)
	ctx := context.Background()

	tb.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    cbOperating,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 87654321}},
	}})
	assert.Contains(t, lastText(t, tb), "운항중인 선박이 없습니다")
}

func TestHandle_PlainTextShowsMenu(t *testing.T) {
	tb := newTestBot(t, nil)
	tb.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 87654321},
		Text: "안녕",
	}})
	assert.Equal(t, "무엇을 확인할까요?", lastText(t, tb))
}
