package caldav

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

const ProductID = "-//FerryBot//Voyage Log//KO"

// Client publishes voyage events to a CalDAV calendar
type Client struct {
	baseURL    string
	username   string
	password   string
	calendarID string // Collection path events are written to

	mu     sync.Mutex
	client *caldav.Client
}

// NewClient creates a new CalDAV client
func NewClient(baseURL, username, password, calendarID string) *Client {
	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		calendarID: calendarID,
	}
}

// IsConfigured returns true if the client has an endpoint and credentials
func (c *Client) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.username != "" && c.password != ""
}

// connect establishes connection to CalDAV server
func (c *Client) connect() (*caldav.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{Timeout: 30 * time.Second}, c.username, c.password)
	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// DiscoverCalendars returns all calendars for the user
func (c *Client) DiscoverCalendars(ctx context.Context) ([]Calendar, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var result []Calendar
	for _, cal := range cals {
		result = append(result, Calendar{
			ID:          cal.Path,
			DisplayName: cal.Name,
			URL:         cal.Path,
		})
	}

	return result, nil
}

func (c *Client) eventPath(uid string) (string, error) {
	if c.calendarID == "" {
		return "", fmt.Errorf("calendar path not specified")
	}
	p := c.calendarID
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p + uid + ".ics", nil
}

// PutEvent creates or replaces the event with event.UID
func (c *Client) PutEvent(ctx context.Context, event *Event) error {
	path, err := c.eventPath(event.UID)
	if err != nil {
		return err
	}

	client, err := c.connect()
	if err != nil {
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Children = append(cal.Children, EventComponent(event))

	if _, err := client.PutCalendarObject(ctx, path, cal); err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// EventComponent converts an Event to a VEVENT. Times are written in UTC.
func EventComponent(event *Event) *ical.Component {
	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, event.UID)
	vevent.Props.SetText(ical.PropSummary, event.Summary)

	if event.Description != "" {
		vevent.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		vevent.Props.SetText(ical.PropLocation, event.Location)
	}

	vevent.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime.UTC())
	if !event.EndTime.IsZero() {
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime.UTC())
	}
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	return vevent.Component
}

// EncodeCalendar builds a VCALENDAR holding every event and serialises it.
func EncodeCalendar(name string, events []*Event) ([]byte, error) {
	if len(events) == 0 {
		// go-ical will not encode a calendar with no components
		return []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ProductID + "\r\nEND:VCALENDAR\r\n"), nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}
	for _, e := range events {
		cal.Children = append(cal.Children, EventComponent(e))
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
