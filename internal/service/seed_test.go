package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/storage"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadSeedFile(t *testing.T) {
	p := writeFile(t, `
users:
  - name: 홍길동
    role: 부문장
    telegram_chat_id: "010-99"
  - id: c1
    name: 김선장
    role: captain
`)

	seed, err := LoadSeedFile(p)
	require.NoError(t, err)
	require.Len(t, seed.Users, 2)
	assert.Equal(t, domain.User{ID: "u1", Name: "홍길동", Role: domain.RoleAdmin, TelegramChatID: "01099"}, seed.Users[0])
	assert.Equal(t, "c1", seed.Users[1].ID)
	assert.Equal(t, DefaultShips(), seed.Ships, "ships section missing keeps defaults")
}

func TestLoadSeedFile_Errors(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadSeedFile(writeFile(t, "users:\n  - name: x\n    role: 갑판장\n"))
	assert.ErrorContains(t, err, "unknown role")

	_, err = LoadSeedFile(writeFile(t, "ships:\n  - name: x\n"))
	assert.ErrorContains(t, err, "capacity")
}

func TestWriteSeed(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.sn.Save(env.ctx, storage.KeyShips, []domain.Ship{{ID: "s", Name: "x", Capacity: 1}}))

	written, err := WriteSeed(env.ctx, env.sn, DefaultSeed(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{storage.KeyUsers}, written)
	assert.Len(t, env.ships.List(env.ctx), 1, "existing fleet kept")

	written, err = WriteSeed(env.ctx, env.sn, DefaultSeed(), true)
	require.NoError(t, err)
	assert.Len(t, written, 2)
	assert.Len(t, env.ships.List(env.ctx), 4)
}
