package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Role is a staff position on the ferry. It decides which console views a user may open.
type Role string

const (
	RoleAdmin    Role = "admin"    // 부문장
	RoleCaptain  Role = "captain"  // 선장
	RoleEngineer Role = "engineer" // 기관장
	RoleCrew     Role = "crew"     // 승무원
)

// Roles lists every role in the order the member form offers them.
var Roles = []Role{RoleCaptain, RoleEngineer, RoleAdmin, RoleCrew}

// ParseRole parses an English role code or a Korean label.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "부문장", "부분장", "관리자":
		return RoleAdmin, true
	case "captain", "선장":
		return RoleCaptain, true
	case "engineer", "기관장":
		return RoleEngineer, true
	case "crew", "승무원":
		return RoleCrew, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCaptain, RoleEngineer, RoleCrew:
		return true
	}
	return false
}

// Label returns the Korean name for the role
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "부문장"
	case RoleCaptain:
		return "선장"
	case RoleEngineer:
		return "기관장"
	case RoleCrew:
		return "승무원"
	default:
		return string(r)
	}
}

// Emoji returns emoji for the role
func (r Role) Emoji() string {
	switch r {
	case RoleAdmin:
		return "🛡"
	case RoleCaptain:
		return "⚓"
	case RoleEngineer:
		return "🔧"
	case RoleCrew:
		return "👤"
	default:
		return "❔"
	}
}

// UnmarshalJSON accepts Korean labels written by older snapshots.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, ok := ParseRole(s); ok {
		*r = parsed
		return nil
	}
	*r = Role(s)
	return nil
}

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Role           Role   `json:"role"`
	Phone          string `json:"phone"`
	TelegramChatID string `json:"telegramChatId"`
	JoinedDate     string `json:"joinedDate"` // YYYY-MM-DD
}

// HasTelegram returns true if the user registered a Telegram chat id
func (u *User) HasTelegram() bool {
	return u.TelegramChatID != ""
}

// ChatID returns the numeric Telegram chat id.
func (u *User) ChatID() (int64, bool) {
	if !u.HasTelegram() {
		return 0, false
	}
	id, err := strconv.ParseInt(u.TelegramChatID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// DigitsOnly strips everything except ASCII digits.
func DigitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
