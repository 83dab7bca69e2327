package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	TelegramSimulate = "simulate"
	TelegramLive     = "live"
)

type Config struct {
	StorageDriver string
	DatabasePath  string
	DataDir       string
	Timezone      *time.Location
	ServerPort    string
	APIUsername   string
	APIPassword   string

	TelegramMode  string
	TelegramToken string
	WebhookURL    string
	MorningTime   string
	EveningTime   string

	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
	CalDAVCalendar string

	LogLevel  string
	LogFormat string
	SeedFile  string
}

var defaults = map[string]any{
	"STORAGE_DRIVER": "sqlite",
	"DATABASE_PATH":  "./data/ferrybot.db",
	"DATA_DIR":       "./data/snapshots",
	"TIMEZONE":       "Asia/Seoul",
	"SERVER_PORT":    "8080",
	"TELEGRAM_MODE":  TelegramSimulate,
	"MORNING_TIME":   "07:30",
	"EVENING_TIME":   "19:00",
	"LOG_LEVEL":      "info",
	"LOG_FORMAT":     "console",
}

var keys = []string{
	"API_USERNAME", "API_PASSWORD", "TELEGRAM_BOT_TOKEN", "WEBHOOK_URL",
	"CALDAV_URL", "CALDAV_USERNAME", "CALDAV_PASSWORD", "CALDAV_CALENDAR", "SEED_FILE",
}

// loadEnvFiles loads .env then .env.local. Variables already set in the
// environment win over both.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

func Load() (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	tz, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg := &Config{
		StorageDriver:  strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabasePath:   v.GetString("DATABASE_PATH"),
		DataDir:        v.GetString("DATA_DIR"),
		Timezone:       tz,
		ServerPort:     v.GetString("SERVER_PORT"),
		APIUsername:    v.GetString("API_USERNAME"),
		APIPassword:    v.GetString("API_PASSWORD"),
		TelegramMode:   strings.ToLower(v.GetString("TELEGRAM_MODE")),
		TelegramToken:  v.GetString("TELEGRAM_BOT_TOKEN"),
		WebhookURL:     strings.TrimSuffix(v.GetString("WEBHOOK_URL"), "/"),
		MorningTime:    v.GetString("MORNING_TIME"),
		EveningTime:    v.GetString("EVENING_TIME"),
		CalDAVURL:      v.GetString("CALDAV_URL"),
		CalDAVUsername: v.GetString("CALDAV_USERNAME"),
		CalDAVPassword: v.GetString("CALDAV_PASSWORD"),
		CalDAVCalendar: v.GetString("CALDAV_CALENDAR"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		SeedFile:       v.GetString("SEED_FILE"),
	}

	switch cfg.StorageDriver {
	case "sqlite", "file", "memory":
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be sqlite, file or memory, got %q", cfg.StorageDriver)
	}

	switch cfg.TelegramMode {
	case TelegramSimulate:
	case TelegramLive:
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required when TELEGRAM_MODE=live")
		}
	default:
		return nil, fmt.Errorf("TELEGRAM_MODE must be simulate or live, got %q", cfg.TelegramMode)
	}

	for name, val := range map[string]string{"MORNING_TIME": cfg.MorningTime, "EVENING_TIME": cfg.EveningTime} {
		if _, _, err := ParseClock(val); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return cfg, nil
}

// IsLive reports whether messages go to the real Telegram Bot API
func (c *Config) IsLive() bool {
	return c.TelegramMode == TelegramLive
}

// APIEnabled reports whether the REST API requires basic auth
func (c *Config) APIEnabled() bool {
	return c.APIUsername != "" && c.APIPassword != ""
}

func (c *Config) CalDAVEnabled() bool {
	return c.CalDAVURL != "" && c.CalDAVUsername != "" && c.CalDAVPassword != ""
}

// ParseClock parses "HH:MM" into hour and minute
func ParseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour in %q", s)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute in %q", s)
	}
	return hour, minute, nil
}
