package service

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/storage"
)

// DefaultUsers is the roster a fresh installation starts with
func DefaultUsers() []domain.User {
	return []domain.User{
		{ID: "u1", Name: "부분장", Role: domain.RoleAdmin, Phone: "010-1234-5678", TelegramChatID: "12345678", JoinedDate: "2026-01-01"},
		{ID: "u2", Name: "정현준", Role: domain.RoleCaptain, Phone: "010-2222-3333", TelegramChatID: "87654321", JoinedDate: "2026-02-15"},
		{ID: "u3", Name: "김영창", Role: domain.RoleEngineer, Phone: "010-4444-5555", TelegramChatID: "11223344", JoinedDate: "2025-03-10"},
		{ID: "u4", Name: "표진수", Role: domain.RoleCrew, Phone: "010-6666-7777", TelegramChatID: "44332211", JoinedDate: "2025-04-05"},
		{ID: "u5", Name: "신교철", Role: domain.RoleCaptain, Phone: "010-8888-9999", TelegramChatID: "99887766", JoinedDate: "2025-05-20"},
		{ID: "u6", Name: "이준길", Role: domain.RoleEngineer, Phone: "010-1111-2222", TelegramChatID: "55667788", JoinedDate: "2025-06-15"},
	}
}

// DefaultShips is the fleet a fresh installation starts with
func DefaultShips() []domain.Ship {
	return []domain.Ship{
		{ID: "ship-1", Name: "탐나라호", Capacity: 300},
		{ID: "ship-2", Name: "아일래나호", Capacity: 200},
		{ID: "ship-3", Name: "가우디호", Capacity: 100},
		{ID: "ship-4", Name: "인어공주호", Capacity: 100},
	}
}

// SeedData is the roster and fleet to start from
type SeedData struct {
	Users []domain.User
	Ships []domain.Ship
}

// DefaultSeed returns the built-in roster and fleet
func DefaultSeed() SeedData {
	return SeedData{Users: DefaultUsers(), Ships: DefaultShips()}
}

type seedFile struct {
	Users []struct {
		ID             string `yaml:"id"`
		Name           string `yaml:"name"`
		Role           string `yaml:"role"`
		Phone          string `yaml:"phone"`
		TelegramChatID string `yaml:"telegram_chat_id"`
		JoinedDate     string `yaml:"joined_date"`
	} `yaml:"users"`
	Ships []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Capacity int    `yaml:"capacity"`
	} `yaml:"ships"`
}

// LoadSeedFile reads a YAML seed. Sections missing from the file keep the built-in defaults.
func LoadSeedFile(path string) (SeedData, error) {
	seed := DefaultSeed()

	data, err := os.ReadFile(path)
	if err != nil {
		return seed, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return seed, fmt.Errorf("parse seed file: %w", err)
	}

	if len(f.Users) > 0 {
		seed.Users = nil
		for i, u := range f.Users {
			role, ok := domain.ParseRole(u.Role)
			if !ok {
				return seed, fmt.Errorf("seed user %d (%s): unknown role %q", i+1, u.Name, u.Role)
			}
			id := u.ID
			if id == "" {
				id = fmt.Sprintf("u%d", i+1)
			}
			seed.Users = append(seed.Users, domain.User{
				ID:             id,
				Name:           u.Name,
				Role:           role,
				Phone:          u.Phone,
				TelegramChatID: domain.DigitsOnly(u.TelegramChatID),
				JoinedDate:     u.JoinedDate,
			})
		}
	}

	if len(f.Ships) > 0 {
		seed.Ships = nil
		for i, sh := range f.Ships {
			if sh.Name == "" || sh.Capacity <= 0 {
				return seed, fmt.Errorf("seed ship %d: name and capacity are required", i+1)
			}
			id := sh.ID
			if id == "" {
				id = fmt.Sprintf("ship-%d", i+1)
			}
			seed.Ships = append(seed.Ships, domain.Ship{ID: id, Name: sh.Name, Capacity: sh.Capacity})
		}
	}

	return seed, nil
}

// WriteSeed stores the seed roster and fleet. Existing snapshots are kept unless force is set.
// Returns the keys that were written.
func WriteSeed(ctx context.Context, sn *storage.Snapshots, seed SeedData, force bool) ([]string, error) {
	var written []string
	for _, item := range []struct {
		key   string
		value any
	}{
		{storage.KeyUsers, seed.Users},
		{storage.KeyShips, seed.Ships},
	} {
		if !force {
			if _, err := sn.Store().Get(ctx, item.key); err == nil {
				continue
			}
		}
		if err := sn.Save(ctx, item.key, item.value); err != nil {
			return written, err
		}
		written = append(written, item.key)
	}
	return written, nil
}
