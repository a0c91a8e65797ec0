// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Sheets   SheetsConfig
	Storage  StorageConfig
	Forecast ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the libpq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type AppConfig struct {
	// Backend selects where events are read from and appended to:
	// "sheets", "postgres" or "file".
	Backend     string
	File        string
	CatalogFile string
	UploadDir   string
	DataDir     string
	LogLevel    string
	LogJSON     bool
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	EventsTTLSeconds int
}

type SheetsConfig struct {
	SpreadsheetURL  string
	SpreadsheetID   string
	WorksheetName   string
	CredentialsJSON string
	CredentialsFile string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type ForecastConfig struct {
	WarnDays            int
	UrgentDays          int
	PercentLowThreshold float64
	Workers             int
}

const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendFile     = "file"

	DefaultWorksheetName = "购入/剩余"
)

var (
	once     sync.Once
	instance *Config
)

// Load reads the process configuration once from .env and the environment.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.AutomaticEnv()
		SetDefaults(viper.GetViper())

		instance = Read(viper.GetViper())

		// Ensure upload and data directories exist
		ensureDir(instance.App.UploadDir)
		ensureDir(instance.App.DataDir)
	})

	return instance
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "inventory")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("INVENTORY_BACKEND", BackendSheets)
	v.SetDefault("INVENTORY_FILE", "./data/inventory.csv")
	v.SetDefault("CATALOG_FILE", "")
	v.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	v.SetDefault("APP_DATA_DIR", "./data/output")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_EVENTS_TTL_SECONDS", 60)
	v.SetDefault("INVENTORY_SHEET_URL", "")
	v.SetDefault("INVENTORY_SHEET_ID", "")
	v.SetDefault("INVENTORY_WORKSHEET_NAME", DefaultWorksheetName)
	v.SetDefault("GOOGLE_CREDENTIALS_JSON", "")
	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "service_account.json")
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_REGION", "")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PREFIX", "exports")
	v.SetDefault("FORECAST_WARN_DAYS", 7)
	v.SetDefault("FORECAST_URGENT_DAYS", 3)
	v.SetDefault("FORECAST_PERCENT_LOW_THRESHOLD", 0.20)
	v.SetDefault("FORECAST_WORKERS", 4)
}

// Read builds a Config from v without touching the singleton.
func Read(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			Backend:     strings.ToLower(strings.TrimSpace(v.GetString("INVENTORY_BACKEND"))),
			File:        v.GetString("INVENTORY_FILE"),
			CatalogFile: v.GetString("CATALOG_FILE"),
			UploadDir:   v.GetString("APP_UPLOAD_DIR"),
			DataDir:     v.GetString("APP_DATA_DIR"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			LogJSON:     v.GetBool("LOG_JSON"),
		},
		Cache: CacheConfig{
			Enabled:          v.GetBool("CACHE_ENABLED"),
			RedisURL:         v.GetString("REDIS_URL"),
			RedisHost:        v.GetString("REDIS_HOST"),
			RedisPort:        v.GetString("REDIS_PORT"),
			RedisPassword:    v.GetString("REDIS_PASSWORD"),
			RedisDB:          v.GetInt("REDIS_DB"),
			EventsTTLSeconds: v.GetInt("CACHE_EVENTS_TTL_SECONDS"),
		},
		Sheets: SheetsConfig{
			SpreadsheetURL:  v.GetString("INVENTORY_SHEET_URL"),
			SpreadsheetID:   v.GetString("INVENTORY_SHEET_ID"),
			WorksheetName:   v.GetString("INVENTORY_WORKSHEET_NAME"),
			CredentialsJSON: v.GetString("GOOGLE_CREDENTIALS_JSON"),
			CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
		},
		Forecast: ForecastConfig{
			WarnDays:            v.GetInt("FORECAST_WARN_DAYS"),
			UrgentDays:          v.GetInt("FORECAST_URGENT_DAYS"),
			PercentLowThreshold: v.GetFloat64("FORECAST_PERCENT_LOW_THRESHOLD"),
			Workers:             v.GetInt("FORECAST_WORKERS"),
		},
	}
}

// Validate reports configuration values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.App.Backend {
	case BackendSheets, BackendPostgres, BackendFile:
	default:
		errs = append(errs, fmt.Errorf("unknown INVENTORY_BACKEND %q", c.App.Backend))
	}

	if err := c.Forecast.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.App.Backend == BackendSheets && c.Sheets.ResolveSpreadsheetID() == "" {
		errs = append(errs, errors.New("INVENTORY_SHEET_URL or INVENTORY_SHEET_ID is required for the sheets backend"))
	}

	return errors.Join(errs...)
}

// Validate checks the thresholds: both day counts within 1..60, urgent not
// above warn, and a percent threshold strictly between 0 and 1.
func (f ForecastConfig) Validate() error {
	var errs []error
	if f.WarnDays < 1 || f.WarnDays > 60 {
		errs = append(errs, fmt.Errorf("warn days must be within 1..60, got %d", f.WarnDays))
	}
	if f.UrgentDays < 1 || f.UrgentDays > 60 {
		errs = append(errs, fmt.Errorf("urgent days must be within 1..60, got %d", f.UrgentDays))
	}
	if f.UrgentDays > f.WarnDays {
		errs = append(errs, fmt.Errorf("urgent days (%d) must not exceed warn days (%d)", f.UrgentDays, f.WarnDays))
	}
	if f.PercentLowThreshold <= 0 || f.PercentLowThreshold >= 1 {
		errs = append(errs, fmt.Errorf("percent low threshold must be within (0, 1), got %v", f.PercentLowThreshold))
	}
	return errors.Join(errs...)
}

var spreadsheetPathPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// ResolveSpreadsheetID returns the explicit id, or the id embedded in the
// spreadsheet URL.
func (s SheetsConfig) ResolveSpreadsheetID() string {
	if id := strings.TrimSpace(s.SpreadsheetID); id != "" {
		return id
	}
	return SpreadsheetIDFromURL(s.SpreadsheetURL)
}

// SpreadsheetIDFromURL extracts the document id from a Google Sheets URL.
func SpreadsheetIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	m := spreadsheetPathPattern.FindStringSubmatch(u.Path)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Credentials returns the service account JSON, read from the file when no
// inline value is set.
func (s SheetsConfig) Credentials() ([]byte, error) {
	if strings.TrimSpace(s.CredentialsJSON) != "" {
		return []byte(s.CredentialsJSON), nil
	}
	if s.CredentialsFile == "" {
		return nil, errors.New("no google credentials configured")
	}
	data, err := os.ReadFile(s.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return data, nil
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
