package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func TestRead_Defaults(t *testing.T) {
	cfg := Read(newTestViper())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendSheets, cfg.App.Backend)
	assert.Equal(t, DefaultWorksheetName, cfg.Sheets.WorksheetName)
	assert.Equal(t, 60, cfg.Cache.EventsTTLSeconds)
	assert.Equal(t, 7, cfg.Forecast.WarnDays)
	assert.Equal(t, 3, cfg.Forecast.UrgentDays)
	assert.InDelta(t, 0.2, cfg.Forecast.PercentLowThreshold, 1e-9)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestRead_Environment(t *testing.T) {
	t.Setenv("INVENTORY_BACKEND", " Postgres ")
	t.Setenv("FORECAST_WARN_DAYS", "10")
	t.Setenv("FORECAST_PERCENT_LOW_THRESHOLD", "0.35")
	t.Setenv("CACHE_ENABLED", "true")

	cfg := Read(newTestViper())

	assert.Equal(t, BackendPostgres, cfg.App.Backend)
	assert.Equal(t, 10, cfg.Forecast.WarnDays)
	assert.InDelta(t, 0.35, cfg.Forecast.PercentLowThreshold, 1e-9)
	assert.True(t, cfg.Cache.Enabled)
}

func TestForecastConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ForecastConfig
		wantErr bool
	}{
		{"defaults", ForecastConfig{WarnDays: 7, UrgentDays: 3, PercentLowThreshold: 0.2}, false},
		{"equal thresholds", ForecastConfig{WarnDays: 3, UrgentDays: 3, PercentLowThreshold: 0.2}, false},
		{"urgent above warn", ForecastConfig{WarnDays: 3, UrgentDays: 5, PercentLowThreshold: 0.2}, true},
		{"warn out of range", ForecastConfig{WarnDays: 61, UrgentDays: 3, PercentLowThreshold: 0.2}, true},
		{"zero urgent", ForecastConfig{WarnDays: 7, UrgentDays: 0, PercentLowThreshold: 0.2}, true},
		{"percent one", ForecastConfig{WarnDays: 7, UrgentDays: 3, PercentLowThreshold: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateBackend(t *testing.T) {
	cfg := Read(newTestViper())
	cfg.App.Backend = "excel"
	cfg.Sheets.SpreadsheetID = "abc"
	assert.ErrorContains(t, cfg.Validate(), "unknown INVENTORY_BACKEND")

	cfg.App.Backend = BackendSheets
	cfg.Sheets.SpreadsheetID = ""
	cfg.Sheets.SpreadsheetURL = ""
	assert.ErrorContains(t, cfg.Validate(), "INVENTORY_SHEET_URL")

	cfg.Sheets.SpreadsheetURL = "https://docs.google.com/spreadsheets/d/1AbC-_x9/edit#gid=0"
	assert.NoError(t, cfg.Validate())
}

func TestSpreadsheetIDFromURL(t *testing.T) {
	assert.Equal(t, "1AbC-_x9", SpreadsheetIDFromURL("https://docs.google.com/spreadsheets/d/1AbC-_x9/edit#gid=0"))
	assert.Equal(t, "", SpreadsheetIDFromURL("https://example.com/nothing"))
	assert.Equal(t, "", SpreadsheetIDFromURL(""))

	s := SheetsConfig{SpreadsheetID: "explicit", SpreadsheetURL: "https://docs.google.com/spreadsheets/d/other/edit"}
	assert.Equal(t, "explicit", s.ResolveSpreadsheetID())
}

func TestSheetsConfig_Credentials(t *testing.T) {
	inline := SheetsConfig{CredentialsJSON: `{"type":"service_account"}`}
	data, err := inline.Credentials()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(data))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0o600))
	data, err = SheetsConfig{CredentialsFile: path}.Credentials()
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"file"}`, string(data))

	_, err = SheetsConfig{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}.Credentials()
	assert.Error(t, err)
}
