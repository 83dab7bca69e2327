package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/storage"
)

func names(users []domain.User) []string {
	var out []string
	for _, u := range users {
		out = append(out, u.Name)
	}
	return out
}

func TestMemberService_DefaultsUntilSaved(t *testing.T) {
	env := newTestEnv(t)

	users := env.members.List(env.ctx)
	require.Len(t, users, 6)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, domain.RoleAdmin, users[0].Role)

	_, err := env.sn.Store().Get(env.ctx, storage.KeyUsers)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound, "reading does not persist")
}

func TestMemberService_CorruptSnapshotFallsBack(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.sn.Store().Set(env.ctx, storage.KeyUsers, []byte(`[{"id":`)))

	assert.Len(t, env.members.List(env.ctx), 6)
}

func TestMemberService_Create(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.members.Save(env.ctx, domain.User{Name: " 박선원 ", Role: domain.RoleCrew, TelegramChatID: "55-12 34"})
	require.NoError(t, err)
	assert.Regexp(t, `^u-[0-9a-f-]{36}$`, u.ID)
	assert.Equal(t, "박선원", u.Name)
	assert.Equal(t, "2026-03-01", u.JoinedDate)
	assert.Equal(t, "551234", u.TelegramChatID)

	users := env.members.List(env.ctx)
	require.Len(t, users, 7)
	assert.Equal(t, u.ID, users[6].ID, "appended in roster order")
}

func TestMemberService_SaveValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.members.Save(env.ctx, domain.User{Role: domain.RoleCrew})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "name and role are required")

	_, err = env.members.Save(env.ctx, domain.User{Name: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.members.Save(env.ctx, domain.User{ID: "nope", Name: "x", Role: domain.RoleCrew})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemberService_Update(t *testing.T) {
	env := newTestEnv(t)

	u := env.user(t, "u4")
	u.Name = "표진수2"
	u.JoinedDate = ""
	_, err := env.members.Save(env.ctx, u)
	require.NoError(t, err)

	got := env.user(t, "u4")
	assert.Equal(t, "표진수2", got.Name)
	assert.Equal(t, "2025-04-05", got.JoinedDate, "joined date kept")
	assert.Len(t, env.members.List(env.ctx), 6)
}

func TestMemberService_DeleteRemovesRecipient(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.telegram.ToggleRecipient(env.ctx, "u4")
	require.NoError(t, err)

	require.NoError(t, env.members.Delete(env.ctx, "u4"))
	assert.Len(t, env.members.List(env.ctx), 5)
	assert.NotContains(t, env.telegram.Config(env.ctx).SelectedRecipientIDs, "u4")

	assert.ErrorIs(t, env.members.Delete(env.ctx, "u4"), ErrNotFound)
}

func TestMemberService_Queries(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, []string{"정현준", "신교철"}, names(env.members.Search(env.ctx, "선장")))
	assert.Equal(t, []string{"김영창", "이준길"}, names(env.members.Search(env.ctx, "ENGINEER")))
	assert.Equal(t, []string{"정현준"}, names(env.members.Search(env.ctx, "현준")))
	assert.Len(t, env.members.Search(env.ctx, ""), 6)

	assert.Equal(t, []string{"표진수"}, names(env.members.ListByRole(env.ctx, domain.RoleCrew)))
	assert.Len(t, env.members.ListWithTelegram(env.ctx), 6)

	u, ok := env.members.FindByChatID(env.ctx, 87654321)
	require.True(t, ok)
	assert.Equal(t, "u2", u.ID)
}

func TestMemberService_SortedByName(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t,
		[]string{"김영창", "부분장", "신교철", "이준길", "정현준", "표진수"},
		names(env.members.SortedByName(env.ctx)))
}
