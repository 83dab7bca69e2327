package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/namiferry/ferrybot/internal/domain"
)

// Session tracks which roster member is using the console. There is no login:
// switching simply moves to the next member.
type Session struct {
	members *MemberService

	mu     sync.Mutex
	userID string
}

func NewSession(members *MemberService) *Session {
	return &Session{members: members}
}

// Current returns the active user, falling back to the first member
func (s *Session) Current(ctx context.Context) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(ctx)
}

func (s *Session) currentLocked(ctx context.Context) (domain.User, error) {
	users := s.members.List(ctx)
	if len(users) == 0 {
		return domain.User{}, fmt.Errorf("no members on the roster: %w", ErrNotFound)
	}
	for _, u := range users {
		if u.ID == s.userID {
			return u, nil
		}
	}
	s.userID = users[0].ID
	return users[0], nil
}

// Switch moves to the next member in roster order, wrapping around. If the
// active user has left the roster the first member is next.
// The returned view is where the new user lands; ok is false when they have none.
func (s *Session) Switch(ctx context.Context) (u domain.User, landing domain.View, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.members.List(ctx)
	if len(users) == 0 {
		return domain.User{}, "", false, fmt.Errorf("no members on the roster: %w", ErrNotFound)
	}

	// No one picked yet means the first member is active
	i := 0
	if s.userID != "" {
		i = slices.IndexFunc(users, func(x domain.User) bool { return x.ID == s.userID })
	}
	next := users[(i+1)%len(users)]
	s.userID = next.ID

	landing, ok = domain.LandingView(next.Role)
	return next, landing, ok, nil
}

// SwitchTo makes userID the active user
func (s *Session) SwitchTo(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.members.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	s.mu.Lock()
	s.userID = u.ID
	s.mu.Unlock()
	return *u, nil
}

// Views lists the views the active user may open
func (s *Session) Views(ctx context.Context) []domain.View {
	u, err := s.Current(ctx)
	if err != nil {
		return nil
	}
	return domain.ViewsFor(u.Role)
}

// CanOpen reports whether the active user may open v
func (s *Session) CanOpen(ctx context.Context, v domain.View) bool {
	u, err := s.Current(ctx)
	return err == nil && u.Role.CanView(v)
}

// Authorize returns the active user if they may open v, ErrForbidden otherwise.
func (s *Session) Authorize(ctx context.Context, v domain.View) (domain.User, error) {
	u, err := s.Current(ctx)
	if err != nil {
		return u, err
	}
	if !u.Role.CanView(v) {
		return u, fmt.Errorf("%s cannot open %s: %w", u.Name, v, ErrForbidden)
	}
	return u, nil
}
