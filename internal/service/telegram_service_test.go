package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namiferry/ferrybot/internal/domain"
)

func TestTelegramService_TokenAndConnection(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.telegram.TestConnection(env.ctx)
	assert.ErrorIs(t, err, ErrValidation, "no token")

	_, err = env.telegram.SetToken(env.ctx, " 712345678:AAF-abc ")
	require.NoError(t, err)
	assert.Equal(t, "712345678:AAF-abc", env.telegram.Config(env.ctx).BotToken)

	name, err := env.telegram.TestConnection(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, "nami_ferry_bot", name)

	_, err = env.telegram.SetToken(env.ctx, "bad")
	require.NoError(t, err)
	_, err = env.telegram.TestConnection(env.ctx)
	assert.Error(t, err)
}

func TestTelegramService_DefaultTokenFromConfig(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTelegramService(env.sn, env.members, env.sender, "999:env", nil)
	assert.Equal(t, "999:env", svc.Config(env.ctx).BotToken)
	assert.NotNil(t, svc.Config(env.ctx).SelectedRecipientIDs)
}

func TestTelegramService_ToggleRecipient(t *testing.T) {
	env := newTestEnv(t)

	on, err := env.telegram.ToggleRecipient(env.ctx, "u2")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = env.telegram.ToggleRecipient(env.ctx, "u2")
	require.NoError(t, err)
	assert.False(t, on)

	_, err = env.telegram.ToggleRecipient(env.ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	u := env.user(t, "u4")
	u.TelegramChatID = ""
	_, err = env.members.Save(env.ctx, u)
	require.NoError(t, err)
	_, err = env.telegram.ToggleRecipient(env.ctx, "u4")
	assert.ErrorIs(t, err, ErrValidation, "no chat id")
}

func TestTelegramService_Broadcast(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.telegram.Broadcast(env.ctx, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.telegram.Broadcast(env.ctx, Templates[0])
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "select at least one recipient")

	for _, id := range []string{"u2", "u3", "u4"} {
		_, err := env.telegram.ToggleRecipient(env.ctx, id)
		require.NoError(t, err)
	}
	env.sender.failFor = map[int64]bool{11223344: true}

	res, err := env.telegram.Broadcast(env.ctx, Templates[0])
	require.NoError(t, err)
	assert.Equal(t, 2, res.Delivered)
	assert.Equal(t, []string{"김영창"}, res.Failed)

	sent := env.sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(87654321), sent[0].ChatID)
	assert.Equal(t, "운항 주의 바랍니다.", sent[0].Text)
}

func TestTelegramService_SelectedSkipsMembersWithoutChat(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.telegram.ToggleRecipient(env.ctx, "u5")
	require.NoError(t, err)

	u := env.user(t, "u5")
	u.TelegramChatID = ""
	_, err = env.members.Save(env.ctx, u)
	require.NoError(t, err)

	assert.Empty(t, env.telegram.Selected(env.ctx))
	assert.Len(t, env.telegram.Recipients(env.ctx), 5)
}

func TestTelegramService_NotifyOnCompletedLog(t *testing.T) {
	env := newTestEnv(t)
	env.logs.OnComplete(func(ctx context.Context, l domain.OperationLog) {
		env.telegram.Notify(ctx, env.logs.FormatCompleted(l))
	})

	captain := env.user(t, "u2")
	fillComplete(t, env, captain, "탐나라호", fixedNow)

	// Nobody selected: nothing sent, no error.
	_, err := env.logs.Submit(env.ctx, captain, domain.StatusComplete)
	require.NoError(t, err)
	assert.Empty(t, env.sender.messages())

	_, err = env.telegram.ToggleRecipient(env.ctx, "u1")
	require.NoError(t, err)
	fillComplete(t, env, captain, "가우디호", fixedNow)
	_, err = env.logs.Submit(env.ctx, captain, domain.StatusComplete)
	require.NoError(t, err)

	sent := env.sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(12345678), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "가우디호 운항 완료")
}
