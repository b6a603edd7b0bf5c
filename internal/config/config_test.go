package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shift-planner/pkg/core/calendar"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rota_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, `
ownerID: shop-1
currency: EUR
storage:
  backend: postgres
  postgresURL: postgres://localhost/planner
  debounceMillis: 250
scheduling:
  oneRegularShiftPerDay: false
  overtimeThresholdHours: 38
holidays:
  - name: New Year's Day
    rrule: FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1
  - name: Easter Monday
    easterOffset: 1
mandatoryVacations:
  - name: Bridge day
    rrule: FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=27
sheets:
  spreadsheetID: sheet-123
server:
  addr: ":9090"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "shop-1", cfg.OwnerID)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce())
	assert.False(t, cfg.Scheduling.OneShiftPerDay())
	assert.True(t, cfg.Scheduling.RevalidateMoves())
	assert.Equal(t, 38.0, cfg.Scheduling.OvertimeThresholdHours)
	require.Len(t, cfg.Holidays, 2)
	require.NotNil(t, cfg.Holidays[1].EasterOffset)
	assert.Equal(t, 1, *cfg.Holidays[1].EasterOffset)
	assert.Equal(t, "sheet-123", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, ":9090", cfg.Server.Addr)

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	holidays := cal.Holidays(2024)
	require.Len(t, holidays, 2)
	assert.Equal(t, "2024-04-01", holidays[1].Date)
	mandatory := cal.MandatoryVacations(2024)
	require.Len(t, mandatory, 1)
	assert.Equal(t, "2024-12-27", mandatory[0].Date)
}

func TestLoadFromPath_MinimalConfigGetsDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cfg, err := LoadFromPath(writeConfig(t, "ownerID: shop-1\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultCurrency, cfg.Currency)
	assert.Equal(t, DefaultBackend, cfg.Storage.Backend)
	assert.Equal(t, DefaultSQLitePath, cfg.Storage.SQLitePath)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.True(t, cfg.Scheduling.OneShiftPerDay())
	assert.Equal(t, float64(DefaultOvertimeHours), cfg.Scheduling.OvertimeThresholdHours)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)

	// no holiday rules configured: the built-in calendar
	cal, err := cfg.Calendar()
	require.NoError(t, err)
	assert.Len(t, cal.Holidays(2024), len(calendar.HungarianHolidays()))
}

func TestLoadFromPath_ZeroDebounce(t *testing.T) {
	cfg, err := LoadFromPath(writeConfig(t, "ownerID: shop-1\nstorage:\n  debounceMillis: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.Debounce())
}

func TestLoadFromPath_DatabaseURLOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/planner")
	cfg, err := LoadFromPath(writeConfig(t, "ownerID: shop-1\nstorage:\n  backend: postgres\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/planner", cfg.Storage.PostgresURL)
}

func TestLoadFromPath_PostgresNeedsURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := LoadFromPath(writeConfig(t, "ownerID: shop-1\nstorage:\n  backend: postgres\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgresURL")
}

func TestLoadFromPath_MissingRequiredField(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "currency: Ft\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_UnknownBackend(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "ownerID: shop-1\nstorage:\n  backend: redis\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "ownerID: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := &Config{
		OwnerID:  "shop-1",
		Holidays: []calendar.Rule{{Name: "Broken", RRule: "INVALID_RRULE_SYNTAX"}},
	}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule in holidays[0]")
}

func TestValidate_RuleNeedsExactlyOneRecurrence(t *testing.T) {
	offset := -2
	cfg := &Config{
		OwnerID:            "shop-1",
		MandatoryVacations: []calendar.Rule{{Name: "Both", RRule: "FREQ=YEARLY", EasterOffset: &offset}},
	}
	assert.ErrorContains(t, Validate(cfg), "not both")

	cfg.MandatoryVacations = []calendar.Rule{{Name: "Neither"}}
	assert.ErrorContains(t, Validate(cfg), "mandatoryVacations[0]")

	cfg.MandatoryVacations = []calendar.Rule{{RRule: "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=2"}}
	assert.ErrorContains(t, Validate(cfg), "validation failed")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "rota_config.yaml", FileName(""))
	assert.Equal(t, "rota_config.test.yaml", FileName("test"))
	assert.Equal(t, "oauth_client.prod.json", OAuthFileName("prod"))
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	require.NoError(t, os.WriteFile(".env.test", []byte("PLANNER_TEST_VALUE=from-env-file\n"), 0644))
	t.Setenv("PLANNER_TEST_VALUE", "")
	os.Unsetenv("PLANNER_TEST_VALUE")

	require.NoError(t, LoadEnvFiles("test"))
	assert.Equal(t, "from-env-file", os.Getenv("PLANNER_TEST_VALUE"))

	// missing files are not an error
	require.NoError(t, LoadEnvFiles("prod"))
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauth_client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed":{
		"client_id":"id.apps.googleusercontent.com","project_id":"planner",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",
		"auth_provider_x509_cert_url":"https://www.googleapis.com/oauth2/v1/certs",
		"client_secret":"secret","redirect_uris":["http://localhost"]}}`), 0600))

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "planner", cfg.Installed.ProjectID)

	require.NoError(t, os.WriteFile(path, []byte(`{"installed":{"client_id":"id"}}`), 0600))
	_, err = LoadOAuthClientFromPath(path)
	assert.ErrorContains(t, err, "oauth client validation failed")
}
