package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namiferry/ferrybot/internal/domain"
)

func TestShipService_CRUD(t *testing.T) {
	env := newTestEnv(t)
	require.Len(t, env.ships.List(env.ctx), 4)

	sh, err := env.ships.Save(env.ctx, domain.Ship{Name: "새누리호", Capacity: 150})
	require.NoError(t, err)
	assert.Regexp(t, `^ship-`, sh.ID)

	sh.Capacity = 180
	_, err = env.ships.Save(env.ctx, *sh)
	require.NoError(t, err)

	got, err := env.ships.Get(env.ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 180, got.Capacity)

	found, ok := env.ships.ByName(env.ctx, "새누리호")
	require.True(t, ok)
	assert.Equal(t, sh.ID, found.ID)

	require.NoError(t, env.ships.Delete(env.ctx, sh.ID))
	assert.Len(t, env.ships.List(env.ctx), 4)
	assert.ErrorIs(t, env.ships.Delete(env.ctx, sh.ID), ErrNotFound)
}

func TestShipService_Validation(t *testing.T) {
	env := newTestEnv(t)

	for _, sh := range []domain.Ship{
		{Name: "", Capacity: 10},
		{Name: "x", Capacity: 0},
		{Name: "x", Capacity: -5},
	} {
		_, err := env.ships.Save(env.ctx, sh)
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err := env.ships.Save(env.ctx, domain.Ship{ID: "ship-99", Name: "x", Capacity: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}
