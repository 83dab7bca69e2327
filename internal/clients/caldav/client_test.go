package caldav

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCalendar(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	events := []*Event{
		{UID: "log-1@ferrybot", Summary: "탐나라호", StartTime: start, EndTime: start.Add(50 * time.Minute)},
		{UID: "log-2@ferrybot", Summary: "가우디호", Description: "운항중", StartTime: start.Add(time.Hour)},
	}

	data, err := EncodeCalendar("운항일지", events)
	require.NoError(t, err)

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)
	assert.Equal(t, "운항일지", cal.Props.Get("X-WR-CALNAME").Value)

	evs := cal.Events()
	require.Len(t, evs, 2)

	uid, err := evs[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "log-1@ferrybot", uid)

	end, err := evs[0].DateTimeEnd(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, start.Add(50*time.Minute), end)

	assert.Nil(t, evs[1].Props.Get(ical.PropDateTimeEnd), "open voyage has no end")
}

func TestClient_IsConfigured(t *testing.T) {
	var nilClient *Client
	assert.False(t, nilClient.IsConfigured())
	assert.False(t, NewClient("", "u", "p", "/cal/").IsConfigured())
	assert.True(t, NewClient("https://dav.example.com", "u", "p", "/cal/").IsConfigured())
}

func TestClient_EventPathNeedsCalendar(t *testing.T) {
	c := NewClient("https://dav.example.com", "u", "p", "")
	_, err := c.eventPath("x")
	assert.Error(t, err)

	c = NewClient("https://dav.example.com", "u", "p", "/cal/ferry")
	p, err := c.eventPath("log-1@ferrybot")
	require.NoError(t, err)
	assert.Equal(t, "/cal/ferry/log-1@ferrybot.ics", p)
}

func TestEncodeCalendar_Empty(t *testing.T) {
	data, err := EncodeCalendar("운항일지", nil)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:"+ProductID+"\r\nEND:VCALENDAR\r\n", string(data))
}
