package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/internal/clients/caldav"
	"github.com/namiferry/ferrybot/internal/domain"
)

// CalendarService exposes voyages as calendar events: an ICS feed and,
// when configured, a CalDAV calendar that completed voyages are pushed to.
type CalendarService struct {
	client *caldav.Client
	tz     *time.Location
	log    *zap.Logger
}

func NewCalendarService(client *caldav.Client, tz *time.Location, log *zap.Logger) *CalendarService {
	if tz == nil {
		tz = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CalendarService{client: client, tz: tz, log: log}
}

// IsConfigured returns true if CalDAV publishing is enabled
func (s *CalendarService) IsConfigured() bool {
	return s.client.IsConfigured()
}

// DiscoverCalendars lists calendars available to the configured account
func (s *CalendarService) DiscoverCalendars(ctx context.Context) ([]caldav.Calendar, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("CalDAV not configured")
	}
	return s.client.DiscoverCalendars(ctx)
}

// EventUID is the stable calendar id of a voyage
func EventUID(l domain.OperationLog) string {
	return l.ID + "@ferrybot"
}

// LogToEvent converts a voyage to a calendar event. Returns nil when it never departed.
func (s *CalendarService) LogToEvent(l domain.OperationLog) *caldav.Event {
	if l.DepartureTime == nil {
		return nil
	}

	desc := []string{"선장: " + l.CaptainName}
	if l.EngineerName != "" {
		desc = append(desc, "기관장: "+l.EngineerName)
	}
	if len(l.CrewNames) > 0 {
		desc = append(desc, "승무원: "+strings.Join(l.CrewNames, ", "))
	}
	if l.InProgress() {
		desc = append(desc, "상태: 운항중")
	} else {
		desc = append(desc, fmt.Sprintf("승객: %d명", l.PassengerCount), fmt.Sprintf("연료: %d%%", l.FuelStatus))
	}
	if l.Notes != "" {
		desc = append(desc, "비고: "+l.Notes)
	}

	e := &caldav.Event{
		UID:         EventUID(l),
		Summary:     "⛴ " + l.ShipName,
		Description: strings.Join(desc, "\n"),
		StartTime:   l.DepartureTime.In(s.tz),
	}
	if l.ArrivalTime != nil {
		e.EndTime = l.ArrivalTime.In(s.tz)
	}
	return e
}

// Feed renders logs as an ICS calendar
func (s *CalendarService) Feed(logs []domain.OperationLog) ([]byte, error) {
	var events []*caldav.Event
	for _, l := range logs {
		if e := s.LogToEvent(l); e != nil {
			events = append(events, e)
		}
	}
	return caldav.EncodeCalendar("운항일지", events)
}

// Publish pushes a voyage to the CalDAV calendar. A no-op when CalDAV is off.
func (s *CalendarService) Publish(ctx context.Context, l domain.OperationLog) error {
	if !s.IsConfigured() {
		return nil
	}
	e := s.LogToEvent(l)
	if e == nil {
		return nil
	}
	if err := s.client.PutEvent(ctx, e); err != nil {
		return fmt.Errorf("publish voyage %s: %w", l.ID, err)
	}
	s.log.Info("Voyage published to calendar", zap.String("id", l.ID))
	return nil
}
