package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/storage"
)

// UnassignedName is shown when a log references an engineer no longer on the roster.
const UnassignedName = "미지정"

// DraftPatch carries the entry form fields a client changed. Nil means untouched.
type DraftPatch struct {
	ShipName       *string    `json:"shipName,omitempty"`
	EngineerID     *string    `json:"engineerId,omitempty"`
	CrewIDs        *[]string  `json:"crewIds,omitempty"`
	DepartureTime  *time.Time `json:"departureTime,omitempty"`
	ArrivalTime    *time.Time `json:"arrivalTime,omitempty"`
	ClearDeparture bool       `json:"clearDeparture,omitempty"`
	ClearArrival   bool       `json:"clearArrival,omitempty"`
	PassengerCount *int       `json:"passengerCount,omitempty"`
	FuelStatus     *int       `json:"fuelStatus,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// LogFilter narrows the log management list. Empty fields match everything.
type LogFilter struct {
	Search string // captain or ship name substring
	Ship   string // exact ship name
	Date   string // YYYY-MM-DD of departure
}

// LogService owns voyage logs and the per-user entry drafts.
type LogService struct {
	sn      *storage.Snapshots
	members *MemberService
	ships   *ShipService
	clock   Clock
	tz      *time.Location
	log     *zap.Logger

	mu         sync.Mutex
	onComplete []func(ctx context.Context, l domain.OperationLog)
}

func NewLogService(sn *storage.Snapshots, members *MemberService, ships *ShipService, clock Clock, tz *time.Location, log *zap.Logger) *LogService {
	if tz == nil {
		tz = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LogService{sn: sn, members: members, ships: ships, clock: clock, tz: tz, log: log}
}

// OnComplete registers fn to run after a completed log is stored
func (s *LogService) OnComplete(fn func(ctx context.Context, l domain.OperationLog)) {
	s.mu.Lock()
	s.onComplete = append(s.onComplete, fn)
	s.mu.Unlock()
}

func (s *LogService) loadLogs(ctx context.Context) []domain.OperationLog {
	return storage.Load(ctx, s.sn, storage.KeyLogs, []domain.OperationLog{})
}

func (s *LogService) loadDrafts(ctx context.Context) map[string]domain.LogDraft {
	drafts := storage.Load(ctx, s.sn, storage.KeyLogDraft, map[string]domain.LogDraft{})
	if drafts == nil {
		drafts = map[string]domain.LogDraft{}
	}
	return drafts
}

// List returns every log, newest first
func (s *LogService) List(ctx context.Context) []domain.OperationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLogs(ctx)
}

// Get returns a log by id
func (s *LogService) Get(ctx context.Context, id string) (*domain.OperationLog, error) {
	for _, l := range s.List(ctx) {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, fmt.Errorf("log %s: %w", id, ErrNotFound)
}

// Draft returns the user's saved entry form or a fresh one
func (s *LogService) Draft(ctx context.Context, user domain.User) domain.LogDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftLocked(ctx, user)
}

func (s *LogService) draftLocked(ctx context.Context, user domain.User) domain.LogDraft {
	if d, ok := s.loadDrafts(ctx)[user.ID]; ok {
		d.CaptainID = user.ID
		d.CaptainName = user.Name
		return d
	}
	return domain.NewLogDraft(user)
}

func (s *LogService) saveDraftLocked(ctx context.Context, user domain.User, d *domain.LogDraft) error {
	drafts := s.loadDrafts(ctx)
	if d == nil {
		delete(drafts, user.ID)
	} else {
		drafts[user.ID] = *d
	}
	if err := s.sn.Save(ctx, storage.KeyLogDraft, drafts); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// UpdateDraft merges patch into the user's entry form and persists it.
func (s *LogService) UpdateDraft(ctx context.Context, user domain.User, p DraftPatch) (domain.LogDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draftLocked(ctx, user)

	if p.ShipName != nil {
		name := strings.TrimSpace(*p.ShipName)
		if name != "" {
			if _, ok := s.ships.ByName(ctx, name); !ok {
				return d, validationError("unknown ship %q", name)
			}
		}
		d.ShipName = name
	}

	if p.EngineerID != nil {
		if *p.EngineerID != "" {
			if u, err := s.members.Get(ctx, *p.EngineerID); err == nil && u.Role != domain.RoleEngineer {
				return d, validationError("%s is not an engineer", u.Name)
			}
		}
		d.EngineerID = *p.EngineerID
	}

	if p.CrewIDs != nil {
		ids := []string{}
		names := []string{}
		for _, id := range *p.CrewIDs {
			if slices.Contains(ids, id) {
				continue
			}
			u, err := s.members.Get(ctx, id)
			if err != nil {
				return d, validationError("unknown crew member %q", id)
			}
			if u.Role != domain.RoleCrew {
				return d, validationError("%s is not crew", u.Name)
			}
			ids = append(ids, u.ID)
			names = append(names, u.Name)
		}
		d.CrewIDs, d.CrewNames = ids, names
	}

	if p.ClearDeparture {
		d.DepartureTime = nil
	}
	if p.DepartureTime != nil {
		t := *p.DepartureTime
		d.DepartureTime = &t
	}
	if p.ClearArrival {
		d.ArrivalTime = nil
	}
	if p.ArrivalTime != nil {
		t := *p.ArrivalTime
		d.ArrivalTime = &t
	}

	if p.PassengerCount != nil {
		if *p.PassengerCount < 0 {
			return d, validationError("passenger count cannot be negative")
		}
		n := *p.PassengerCount
		d.PassengerCount = &n
	}
	if p.FuelStatus != nil {
		if *p.FuelStatus < 0 || *p.FuelStatus > 100 {
			return d, validationError("fuel status must be between 0 and 100")
		}
		n := *p.FuelStatus
		d.FuelStatus = &n
	}
	if p.Notes != nil {
		d.Notes = *p.Notes
	}

	if err := s.saveDraftLocked(ctx, user, &d); err != nil {
		return d, err
	}
	return d, nil
}

// SetNow stamps departure or arrival on the user's form with the current time.
func (s *LogService) SetNow(ctx context.Context, user domain.User, field string) (domain.LogDraft, error) {
	now := s.clock.now().Truncate(time.Minute)
	switch field {
	case "departure", "departureTime":
		return s.UpdateDraft(ctx, user, DraftPatch{DepartureTime: &now})
	case "arrival", "arrivalTime":
		return s.UpdateDraft(ctx, user, DraftPatch{ArrivalTime: &now})
	default:
		return domain.LogDraft{}, validationError("unknown time field %q", field)
	}
}

// ResetDraft discards the user's entry form
func (s *LogService) ResetDraft(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveDraftLocked(ctx, user, nil)
}

// CanSubmit reports whether the draft may be stored as complete
func (s *LogService) CanSubmit(d domain.LogDraft) bool {
	return d.CanSubmit()
}

// Submit turns the user's entry form into a stored log with the given status.
// A completed log resets the form; a draft log keeps it for further editing.
func (s *LogService) Submit(ctx context.Context, user domain.User, status domain.LogStatus) (*domain.OperationLog, error) {
	if !user.Role.CanView(domain.ViewLogEntry) {
		return nil, fmt.Errorf("submit log: %w", ErrForbidden)
	}

	s.mu.Lock()
	d := s.draftLocked(ctx, user)

	switch status {
	case domain.StatusDraft:
		if !d.CanSaveDraft() {
			s.mu.Unlock()
			return nil, validationError("ship name is required")
		}
	case domain.StatusComplete:
		if !d.CanSubmit() {
			s.mu.Unlock()
			return nil, validationError("ship, departure, arrival, engineer, passengers and fuel are required")
		}
	default:
		s.mu.Unlock()
		return nil, validationError("unknown status %q", status)
	}

	if d.ArrivalTime != nil {
		if d.DepartureTime == nil {
			s.mu.Unlock()
			return nil, validationError("arrival requires a departure time")
		}
		if d.ArrivalTime.Before(*d.DepartureTime) {
			s.mu.Unlock()
			return nil, validationError("arrival cannot be before departure")
		}
	}

	entry := domain.OperationLog{
		ID:            newID("log"),
		ShipName:      d.ShipName,
		CaptainID:     user.ID,
		CaptainName:   user.Name,
		EngineerID:    d.EngineerID,
		CrewIDs:       slices.Clone(d.CrewIDs),
		CrewNames:     slices.Clone(d.CrewNames),
		DepartureTime: d.DepartureTime,
		ArrivalTime:   d.ArrivalTime,
		Notes:         d.Notes,
		Status:        status,
	}
	if entry.CrewIDs == nil {
		entry.CrewIDs, entry.CrewNames = []string{}, []string{}
	}
	if d.EngineerID != "" {
		entry.EngineerName = UnassignedName
		if u, err := s.members.Get(ctx, d.EngineerID); err == nil {
			entry.EngineerName = u.Name
		}
	}
	if d.PassengerCount != nil {
		entry.PassengerCount = *d.PassengerCount
	}
	if d.FuelStatus != nil {
		entry.FuelStatus = *d.FuelStatus
	}

	logs := append([]domain.OperationLog{entry}, s.loadLogs(ctx)...)
	if err := s.sn.Save(ctx, storage.KeyLogs, logs); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("save log: %w", err)
	}

	if status == domain.StatusComplete {
		if err := s.saveDraftLocked(ctx, user, nil); err != nil {
			s.log.Warn("Failed to reset draft", zap.String("user", user.ID), zap.Error(err))
		}
	}
	listeners := slices.Clone(s.onComplete)
	s.mu.Unlock()

	s.log.Info("Voyage log stored",
		zap.String("id", entry.ID),
		zap.String("ship", entry.ShipName),
		zap.String("status", string(entry.Status)))

	if status == domain.StatusComplete {
		for _, fn := range listeners {
			fn(ctx, entry)
		}
	}
	return &entry, nil
}

// Visible returns the logs user may read: all for admin, own logs for everyone else.
func (s *LogService) Visible(ctx context.Context, user domain.User) []domain.OperationLog {
	logs := s.List(ctx)
	if user.Role.SeesAllLogs() {
		return logs
	}
	var result []domain.OperationLog
	for _, l := range logs {
		if l.CaptainID == user.ID {
			result = append(result, l)
		}
	}
	return result
}

// Filter applies f to logs, keeping their order
func (s *LogService) Filter(logs []domain.OperationLog, f LogFilter) []domain.OperationLog {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var result []domain.OperationLog
	for _, l := range logs {
		if search != "" &&
			!strings.Contains(strings.ToLower(l.CaptainName), search) &&
			!strings.Contains(strings.ToLower(l.ShipName), search) {
			continue
		}
		if f.Ship != "" && l.ShipName != f.Ship {
			continue
		}
		if f.Date != "" {
			if l.DepartureTime == nil || l.DepartureTime.In(s.tz).Format(time.DateOnly) != f.Date {
				continue
			}
		}
		result = append(result, l)
	}
	return result
}

// ForDate returns the logs departing on day. Errors when there are none.
func (s *LogService) ForDate(ctx context.Context, day time.Time) ([]domain.OperationLog, error) {
	var result []domain.OperationLog
	for _, l := range s.List(ctx) {
		if l.DepartedOn(day, s.tz) {
			result = append(result, l)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no logs for %s: %w", day.In(s.tz).Format(time.DateOnly), ErrNotFound)
	}
	return result, nil
}

// Today returns the logs departing on the current day
func (s *LogService) Today(ctx context.Context) ([]domain.OperationLog, error) {
	return s.ForDate(ctx, s.clock.now())
}

// Operating returns the voyages currently under way
func (s *LogService) Operating(ctx context.Context) []domain.OperationLog {
	var result []domain.OperationLog
	for _, l := range s.List(ctx) {
		if l.InProgress() {
			result = append(result, l)
		}
	}
	return result
}

// Now returns the service clock in the configured timezone
func (s *LogService) Now() time.Time {
	return s.clock.now().In(s.tz)
}

// Location returns the timezone used for calendar-day comparisons
func (s *LogService) Location() *time.Location {
	return s.tz
}

// FormatLogList formats logs for a Telegram message
func (s *LogService) FormatLogList(logs []domain.OperationLog) string {
	if len(logs) == 0 {
		return "운항일지가 없습니다"
	}

	var sb strings.Builder
	for _, l := range logs {
		sb.WriteString(fmt.Sprintf("%s <b>%s</b> %s\n", l.StatusEmoji(), l.ShipName, l.TimeRange(s.tz)))
		sb.WriteString(fmt.Sprintf("   선장 %s", l.CaptainName))
		if l.EngineerName != "" {
			sb.WriteString(fmt.Sprintf(" · 기관장 %s", l.EngineerName))
		}
		if l.IsComplete() {
			sb.WriteString(fmt.Sprintf(" · 승객 %d명 · 연료 %d%%", l.PassengerCount, l.FuelStatus))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatCompleted is the notice sent to recipients when a voyage is closed
func (s *LogService) FormatCompleted(l domain.OperationLog) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ <b>%s 운항 완료</b>\n\n", l.ShipName))
	sb.WriteString(fmt.Sprintf("⏱ %s", l.TimeRange(s.tz)))
	if d := l.Duration(); d > 0 {
		sb.WriteString(fmt.Sprintf(" (%d분)", int(d.Minutes())))
	}
	sb.WriteString(fmt.Sprintf("\n⚓ 선장 %s\n🔧 기관장 %s\n", l.CaptainName, l.EngineerName))
	if len(l.CrewNames) > 0 {
		sb.WriteString(fmt.Sprintf("👥 승무원 %s\n", strings.Join(l.CrewNames, ", ")))
	}
	sb.WriteString(fmt.Sprintf("🧍 승객 %d명 · ⛽ 연료 %d%%", l.PassengerCount, l.FuelStatus))
	if l.Notes != "" {
		sb.WriteString("\n📝 " + l.Notes)
	}
	return sb.String()
}
