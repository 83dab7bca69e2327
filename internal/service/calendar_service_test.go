package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namiferry/ferrybot/internal/clients/caldav"
	"github.com/namiferry/ferrybot/internal/domain"
)

func TestCalendarService_LogToEvent(t *testing.T) {
	svc := NewCalendarService(nil, kst, nil)
	dep := time.Date(2026, 3, 1, 9, 0, 0, 0, kst)

	assert.Nil(t, svc.LogToEvent(domain.OperationLog{ID: "log-x"}))

	e := svc.LogToEvent(domain.OperationLog{
		ID: "log-1", ShipName: "탐나라호", CaptainName: "정현준", EngineerName: "김영창",
		CrewNames: []string{"표진수"}, DepartureTime: ptr(dep), ArrivalTime: ptr(dep.Add(time.Hour)),
		PassengerCount: 50, FuelStatus: 90, Notes: "정상",
	})
	require.NotNil(t, e)
	assert.Equal(t, "log-1@ferrybot", e.UID)
	assert.Equal(t, "⛴ 탐나라호", e.Summary)
	assert.Equal(t, "선장: 정현준\n기관장: 김영창\n승무원: 표진수\n승객: 50명\n연료: 90%\n비고: 정상", e.Description)
	assert.True(t, e.EndTime.Equal(dep.Add(time.Hour)))

	open := svc.LogToEvent(domain.OperationLog{ID: "log-2", CaptainName: "x", DepartureTime: ptr(dep)})
	assert.True(t, open.EndTime.IsZero())
	assert.Contains(t, open.Description, "운항중")
}

func TestCalendarService_Feed(t *testing.T) {
	svc := NewCalendarService(nil, kst, nil)
	dep := time.Date(2026, 3, 1, 9, 0, 0, 0, kst)

	data, err := svc.Feed([]domain.OperationLog{
		{ID: "log-1", ShipName: "탐나라호", DepartureTime: ptr(dep)},
		{ID: "log-2", ShipName: "초안"},
	})
	require.NoError(t, err)

	ics := string(data)
	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR"))
	assert.Equal(t, 1, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "UID:log-1@ferrybot")
	assert.Contains(t, ics, "DTSTART:20260301T000000Z")
}

func TestCalendarService_PublishDisabled(t *testing.T) {
	svc := NewCalendarService(caldav.NewClient("", "", "", ""), kst, nil)
	assert.False(t, svc.IsConfigured())
	assert.NoError(t, svc.Publish(context.Background(), domain.OperationLog{ID: "log-1"}))

	_, err := svc.DiscoverCalendars(context.Background())
	assert.Error(t, err)
}
