package caldav

import "time"

// Calendar is a collection found on the CalDAV server
type Calendar struct {
	ID          string // Calendar path/URL
	DisplayName string
	URL         string
}

// Event is a single VEVENT pushed to the server
type Event struct {
	UID         string // Unique ID in CalDAV
	Summary     string // Title
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
}
