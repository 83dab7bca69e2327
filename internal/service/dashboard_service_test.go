package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/namiferry/ferrybot/internal/domain"
)

func TestDashboardService_Stats(t *testing.T) {
	env := newTestEnv(t)
	today := time.Date(2026, 3, 1, 8, 0, 0, 0, kst)
	yesterday := today.AddDate(0, 0, -1)

	seedLogs(t, env, []domain.OperationLog{
		{ID: "a", DepartureTime: ptr(today)},
		{ID: "b", DepartureTime: ptr(today), ArrivalTime: ptr(today.Add(time.Hour)), PassengerCount: 120},
		{ID: "c", DepartureTime: ptr(yesterday), ArrivalTime: ptr(yesterday.Add(time.Hour)), PassengerCount: 80},
		{ID: "d"},
	})

	assert.Equal(t, Stats{
		TotalShips:      4,
		Operating:       1,
		TodayVoyages:    2,
		TotalPassengers: 200,
	}, env.dashboard.Stats(env.ctx))

	op := env.dashboard.OperatingLogs(env.ctx)
	if assert.Len(t, op, 1) {
		assert.Equal(t, "a", op[0].ID)
	}
}

func TestDashboardService_EmptyFleet(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, Stats{TotalShips: 4}, env.dashboard.Stats(env.ctx))
	assert.Empty(t, env.dashboard.OperatingLogs(env.ctx))
}
