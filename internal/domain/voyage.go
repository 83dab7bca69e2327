package domain

import (
	"encoding/json"
	"time"
)

type LogStatus string

const (
	StatusDraft    LogStatus = "draft"    // 임시저장
	StatusComplete LogStatus = "complete" // 완료
)

// ParseLogStatus parses an English status code or a Korean label.
func ParseLogStatus(s string) (LogStatus, bool) {
	switch s {
	case "draft", "임시저장":
		return StatusDraft, true
	case "complete", "완료":
		return StatusComplete, true
	}
	return "", false
}

// Label returns the Korean name for the status
func (s LogStatus) Label() string {
	switch s {
	case StatusDraft:
		return "임시저장"
	case StatusComplete:
		return "완료"
	default:
		return string(s)
	}
}

func (s *LogStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if parsed, ok := ParseLogStatus(raw); ok {
		*s = parsed
		return nil
	}
	*s = LogStatus(raw)
	return nil
}

// OperationLog is a single voyage record. Crew are denormalised by id and name
// so the log reads the same after the roster changes.
type OperationLog struct {
	ID             string     `json:"id"`
	ShipName       string     `json:"shipName"`
	CaptainID      string     `json:"captainId"`
	CaptainName    string     `json:"captainName"`
	EngineerID     string     `json:"engineerId"`
	EngineerName   string     `json:"engineerName"`
	CrewIDs        []string   `json:"crewIds"`
	CrewNames      []string   `json:"crewNames"`
	DepartureTime  *time.Time `json:"departureTime,omitempty"`
	ArrivalTime    *time.Time `json:"arrivalTime,omitempty"` // nil while the ferry is still out
	PassengerCount int        `json:"passengerCount"`
	FuelStatus     int        `json:"fuelStatus"` // percent
	Notes          string     `json:"notes"`
	Status         LogStatus  `json:"status"`
}

// InProgress reports whether the ferry has departed and not yet arrived.
func (l *OperationLog) InProgress() bool {
	return l.DepartureTime != nil && l.ArrivalTime == nil
}

// IsComplete returns true if the log was finalised
func (l *OperationLog) IsComplete() bool {
	return l.Status == StatusComplete
}

// DepartedOn reports whether departure falls on the same calendar day as day in loc.
func (l *OperationLog) DepartedOn(day time.Time, loc *time.Location) bool {
	if l.DepartureTime == nil {
		return false
	}
	return SameDay(*l.DepartureTime, day, loc)
}

// Duration returns the crossing time, zero while in progress.
func (l *OperationLog) Duration() time.Duration {
	if l.DepartureTime == nil || l.ArrivalTime == nil {
		return 0
	}
	return l.ArrivalTime.Sub(*l.DepartureTime)
}

// TimeRange returns "09:00 ~ 09:52" or "09:00 ~ 운항중"
func (l *OperationLog) TimeRange(loc *time.Location) string {
	if l.DepartureTime == nil {
		return "-"
	}
	start := l.DepartureTime.In(loc).Format("15:04")
	if l.ArrivalTime == nil {
		return start + " ~ 운항중"
	}
	return start + " ~ " + l.ArrivalTime.In(loc).Format("15:04")
}

// StatusEmoji returns emoji for the log state
func (l *OperationLog) StatusEmoji() string {
	switch {
	case l.InProgress():
		return "⛴"
	case l.IsComplete():
		return "✅"
	default:
		return "📝"
	}
}

// LogDraft is the voyage entry form as it is being filled in. Counters are
// pointers so an untouched field differs from an explicit zero.
type LogDraft struct {
	ShipName       string     `json:"shipName,omitempty"`
	CaptainID      string     `json:"captainId"`
	CaptainName    string     `json:"captainName"`
	EngineerID     string     `json:"engineerId,omitempty"`
	CrewIDs        []string   `json:"crewIds"`
	CrewNames      []string   `json:"crewNames"`
	DepartureTime  *time.Time `json:"departureTime,omitempty"`
	ArrivalTime    *time.Time `json:"arrivalTime,omitempty"`
	PassengerCount *int       `json:"passengerCount,omitempty"`
	FuelStatus     *int       `json:"fuelStatus,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	Status         LogStatus  `json:"status"`
}

// NewLogDraft returns an empty form owned by the given captain.
func NewLogDraft(captain User) LogDraft {
	return LogDraft{
		CaptainID:   captain.ID,
		CaptainName: captain.Name,
		CrewIDs:     []string{},
		CrewNames:   []string{},
		Status:      StatusDraft,
	}
}

// CanSaveDraft reports whether the form may be stored as a draft.
func (d *LogDraft) CanSaveDraft() bool {
	return d.ShipName != ""
}

// CanSubmit reports whether every field needed for a completed log is present.
func (d *LogDraft) CanSubmit() bool {
	return d.ShipName != "" &&
		d.DepartureTime != nil &&
		d.ArrivalTime != nil &&
		d.EngineerID != "" &&
		d.PassengerCount != nil &&
		d.FuelStatus != nil
}

// SameDay compares calendar dates of a and b in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// Involves reports whether the user sailed on this voyage in any position.
func (l *OperationLog) Involves(userID string) bool {
	if l.CaptainID == userID || l.EngineerID == userID {
		return true
	}
	for _, id := range l.CrewIDs {
		if id == userID {
			return true
		}
	}
	return false
}
