package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/storage"
)

// MemberService manages the crew roster stored under the users key.
type MemberService struct {
	sn       *storage.Snapshots
	defaults []domain.User
	clock    Clock
	tz       *time.Location
	log      *zap.Logger

	mu       sync.Mutex
	onDelete []func(ctx context.Context, userID string)
}

func NewMemberService(sn *storage.Snapshots, defaults []domain.User, clock Clock, tz *time.Location, log *zap.Logger) *MemberService {
	if tz == nil {
		tz = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MemberService{sn: sn, defaults: defaults, clock: clock, tz: tz, log: log}
}

// OnDelete registers fn to run after a member is removed
func (s *MemberService) OnDelete(fn func(ctx context.Context, userID string)) {
	s.mu.Lock()
	s.onDelete = append(s.onDelete, fn)
	s.mu.Unlock()
}

func (s *MemberService) load(ctx context.Context) []domain.User {
	return storage.Load(ctx, s.sn, storage.KeyUsers, slices.Clone(s.defaults))
}

// List returns all members in roster order
func (s *MemberService) List(ctx context.Context) []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns a member by id
func (s *MemberService) Get(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range s.List(ctx) {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("member %s: %w", id, ErrNotFound)
}

// Search returns members whose name or role contains term
func (s *MemberService) Search(ctx context.Context, term string) []domain.User {
	term = strings.ToLower(strings.TrimSpace(term))
	users := s.List(ctx)
	if term == "" {
		return users
	}

	var result []domain.User
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), term) ||
			strings.Contains(u.Role.Label(), term) ||
			strings.Contains(string(u.Role), term) {
			result = append(result, u)
		}
	}
	return result
}

// ListByRole returns members holding role
func (s *MemberService) ListByRole(ctx context.Context, role domain.Role) []domain.User {
	var result []domain.User
	for _, u := range s.List(ctx) {
		if u.Role == role {
			result = append(result, u)
		}
	}
	return result
}

// ListWithTelegram returns members that registered a chat id
func (s *MemberService) ListWithTelegram(ctx context.Context) []domain.User {
	var result []domain.User
	for _, u := range s.List(ctx) {
		if u.HasTelegram() {
			result = append(result, u)
		}
	}
	return result
}

// FindByChatID returns the member registered with a Telegram chat id
func (s *MemberService) FindByChatID(ctx context.Context, chatID int64) (*domain.User, bool) {
	for _, u := range s.List(ctx) {
		if id, ok := u.ChatID(); ok && id == chatID {
			return &u, true
		}
	}
	return nil, false
}

// SortedByName returns the roster in Korean dictionary order
func (s *MemberService) SortedByName(ctx context.Context) []domain.User {
	users := s.List(ctx)
	c := collate.New(language.Korean)
	slices.SortStableFunc(users, func(a, b domain.User) int {
		return c.CompareString(a.Name, b.Name)
	})
	return users
}

// Save creates a member when ID is empty, otherwise replaces the member with that ID.
func (s *MemberService) Save(ctx context.Context, u domain.User) (*domain.User, error) {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" || !u.Role.Valid() {
		return nil, validationError("name and role are required")
	}
	u.TelegramChatID = domain.DigitsOnly(u.TelegramChatID)

	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.load(ctx)
	if u.ID == "" {
		u.ID = newID("u")
		u.JoinedDate = s.clock.now().In(s.tz).Format(time.DateOnly)
		users = append(users, u)
	} else {
		i := slices.IndexFunc(users, func(x domain.User) bool { return x.ID == u.ID })
		if i < 0 {
			return nil, fmt.Errorf("member %s: %w", u.ID, ErrNotFound)
		}
		if u.JoinedDate == "" {
			u.JoinedDate = users[i].JoinedDate
		}
		users[i] = u
	}

	if err := s.sn.Save(ctx, storage.KeyUsers, users); err != nil {
		return nil, fmt.Errorf("save member: %w", err)
	}
	return &u, nil
}

// Delete removes exactly the member with id
func (s *MemberService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	users := s.load(ctx)
	i := slices.IndexFunc(users, func(x domain.User) bool { return x.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	users = slices.Delete(users, i, i+1)
	err := s.sn.Save(ctx, storage.KeyUsers, users)
	listeners := slices.Clone(s.onDelete)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}

	for _, fn := range listeners {
		fn(ctx, id)
	}
	s.log.Info("Member deleted", zap.String("id", id))
	return nil
}

// FormatMemberList formats members for a Telegram message
func FormatMemberList(users []domain.User) string {
	if len(users) == 0 {
		return "등록된 회원이 없습니다"
	}

	var sb strings.Builder
	for _, u := range users {
		sb.WriteString(fmt.Sprintf("%s <b>%s</b> (%s)", u.Role.Emoji(), u.Name, u.Role.Label()))
		if u.HasTelegram() {
			sb.WriteString(" 📨")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
