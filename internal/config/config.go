package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/shift-planner/pkg/core/calendar"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Defaults applied to omitted settings
const (
	DefaultBackend        = BackendSQLite
	DefaultSQLitePath     = "shift_planner.db"
	DefaultDebounceMillis = 500
	DefaultCurrency       = "Ft"
	DefaultOvertimeHours  = 40
	DefaultServerAddr     = ":8080"
)

// StorageConfig selects where snapshots are persisted
type StorageConfig struct {
	Backend        string `yaml:"backend" validate:"omitempty,oneof=memory sqlite postgres"`
	SQLitePath     string `yaml:"sqlitePath,omitempty"`
	PostgresURL    string `yaml:"postgresURL,omitempty"`
	DebounceMillis *int   `yaml:"debounceMillis,omitempty" validate:"omitempty,gte=0"`
}

// SchedulingConfig holds the booking policy and reporting thresholds
type SchedulingConfig struct {
	OneRegularShiftPerDay  *bool   `yaml:"oneRegularShiftPerDay,omitempty"`
	RevalidateOnMove       *bool   `yaml:"revalidateOnMove,omitempty"`
	OvertimeThresholdHours float64 `yaml:"overtimeThresholdHours,omitempty" validate:"gte=0"`
}

// SheetsConfig configures roster publishing to Google Sheets.
// CredentialsFile is a service account key; without it the OAuth client flow is used.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheetID,omitempty"`
	CredentialsFile string `yaml:"credentialsFile,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Config represents the application configuration
type Config struct {
	OwnerID            string           `yaml:"ownerID" validate:"required"`
	Currency           string           `yaml:"currency,omitempty" validate:"omitempty,max=8"`
	Storage            StorageConfig    `yaml:"storage"`
	Scheduling         SchedulingConfig `yaml:"scheduling"`
	Holidays           []calendar.Rule  `yaml:"holidays,omitempty" validate:"dive"`
	MandatoryVacations []calendar.Rule  `yaml:"mandatoryVacations,omitempty" validate:"dive"`
	Sheets             SheetsConfig     `yaml:"sheets"`
	Server             ServerConfig     `yaml:"server"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// FileName returns the config file name for env: rota_config.yaml, or rota_config.<env>.yaml
func FileName(env string) string {
	if env == "" {
		return "rota_config.yaml"
	}
	return "rota_config." + env + ".yaml"
}

// Load finds, reads and validates the configuration for env.
// It looks in the current directory first, then in the user's home directory.
func Load(env string) (*Config, error) {
	configPath, err := findConfigFile(FileName(env))
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadEnvFiles loads .env and .env.<env> when present. Variables already set win.
func LoadEnvFiles(env string) error {
	files := []string{".env"}
	if env != "" {
		files = append([]string{".env." + env}, files...)
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Storage.PostgresURL = url
	}
}

func (c *Config) applyDefaults() {
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = DefaultSQLitePath
	}
	if c.Scheduling.OvertimeThresholdHours == 0 {
		c.Scheduling.OvertimeThresholdHours = DefaultOvertimeHours
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Storage.Backend == BackendPostgres && cfg.Storage.PostgresURL == "" {
		return fmt.Errorf("config validation failed: storage.postgresURL (or DATABASE_URL) is required for the postgres backend")
	}

	if err := validateRules("holidays", cfg.Holidays); err != nil {
		return err
	}
	return validateRules("mandatoryVacations", cfg.MandatoryVacations)
}

func validateRules(section string, rules []calendar.Rule) error {
	for i, r := range rules {
		switch {
		case r.RRule != "" && r.EasterOffset != nil:
			return fmt.Errorf("%s[%d]: set either rrule or easterOffset, not both", section, i)
		case r.RRule == "" && r.EasterOffset == nil:
			return fmt.Errorf("%s[%d]: rrule or easterOffset is required", section, i)
		case r.RRule != "":
			if _, err := rrule.StrToRRule(r.RRule); err != nil {
				return fmt.Errorf("invalid rrule in %s[%d]: %w", section, i, err)
			}
		}
	}
	return nil
}

// Debounce is the persistence quiet period
func (c *Config) Debounce() time.Duration {
	if c.Storage.DebounceMillis == nil {
		return DefaultDebounceMillis * time.Millisecond
	}
	return time.Duration(*c.Storage.DebounceMillis) * time.Millisecond
}

// OneShiftPerDay reports the one-regular-shift-per-day policy, true unless disabled
func (s SchedulingConfig) OneShiftPerDay() bool {
	return s.OneRegularShiftPerDay == nil || *s.OneRegularShiftPerDay
}

// RevalidateMoves reports whether moves are re-checked, true unless disabled
func (s SchedulingConfig) RevalidateMoves() bool {
	return s.RevalidateOnMove == nil || *s.RevalidateOnMove
}

// Calendar builds the holiday calendar. Without configured holiday rules the
// built-in Hungarian set is used.
func (c *Config) Calendar() (*calendar.Calendar, error) {
	holidays := calendar.HungarianHolidays()
	if len(c.Holidays) > 0 {
		holidays = c.Holidays
	}
	return calendar.New(holidays, c.MandatoryVacations)
}

// findConfigFile searches for name in the current directory and home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
