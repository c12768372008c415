// Package config provides configuration loading and validation for the Kredible service.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Defaults used when neither the config file nor the environment sets a value.
const (
	DefaultPort         = 8080
	DefaultBaseURL      = "http://localhost:3000"
	DefaultFromEmail    = "dev.craft12@gmail.com"
	DefaultFromName     = "Kredible Platform"
	DefaultStorageFile  = ".kredible-temp-storage.json"
	DefaultSQLitePath   = "kredible.db"
	DefaultEmailTimeout = 30 * time.Second
)

// MirrorDisabled as StorageFile turns off the memory driver's JSON mirror.
const MirrorDisabled = "-"

// Config is the runtime configuration of the service.
type Config struct {
	Port    int    `yaml:"port,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"` // Public URL used to build candidate links

	// Email
	SendGridAPIKey string        `yaml:"sendgrid_api_key,omitempty"`
	FromEmail      string        `yaml:"from_email,omitempty"`
	FromName       string        `yaml:"from_name,omitempty"`
	EmailTimeout   time.Duration `yaml:"email_timeout,omitempty"`

	// Storage
	StorageDriver string `yaml:"storage_driver,omitempty"` // memory | sqlite | postgres
	StorageFile   string `yaml:"storage_file,omitempty"`   // JSON mirror for the memory driver; "-" disables it
	SQLitePath    string `yaml:"sqlite_path,omitempty"`
	DatabaseURL   string `yaml:"database_url,omitempty"`

	// HTTP
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins,omitempty"`
	DebugEndpoints     bool     `yaml:"debug_endpoints,omitempty"`

	// Dashboard login (only used when JWT_SECRET is set)
	DashboardEmail        string `yaml:"dashboard_email,omitempty"`
	DashboardPasswordHash string `yaml:"dashboard_password_hash,omitempty"`
}

// Defaults returns a Config populated with the built-in fallbacks.
func Defaults() Config {
	return Config{
		Port:               DefaultPort,
		BaseURL:            DefaultBaseURL,
		FromEmail:          DefaultFromEmail,
		FromName:           DefaultFromName,
		EmailTimeout:       DefaultEmailTimeout,
		StorageDriver:      DriverMemory,
		StorageFile:        DefaultStorageFile,
		SQLitePath:         DefaultSQLitePath,
		CORSAllowedOrigins: []string{"*"},
	}
}

// LoadConfig loads configuration from a YAML or JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// YAML is a superset of JSON, so one decoder serves both formats.
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the optional
// config file, then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.SendGridAPIKey == "" {
		if key, err := SendGridAPIKeyFromKeyring(); err == nil {
			cfg.SendGridAPIKey = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides fields with any environment variables that are set.
func (c *Config) applyEnv() error {
	c.Port = getEnvInt("PORT", c.Port)
	c.BaseURL = getEnvString("BASE_URL", getEnvString("NEXT_PUBLIC_BASE_URL", c.BaseURL))
	c.SendGridAPIKey = getEnvString("SENDGRID_API_KEY", c.SendGridAPIKey)
	c.FromEmail = getEnvString("FROM_EMAIL", c.FromEmail)
	c.FromName = getEnvString("FROM_NAME", c.FromName)
	c.StorageDriver = getEnvString("STORAGE_DRIVER", c.StorageDriver)
	c.StorageFile = getEnvString("STORAGE_FILE", c.StorageFile)
	c.SQLitePath = getEnvString("SQLITE_PATH", c.SQLitePath)
	c.DatabaseURL = getEnvString("DATABASE_URL", c.DatabaseURL)
	c.DebugEndpoints = getEnvBool("DEBUG_ENDPOINTS", c.DebugEndpoints)
	c.DashboardEmail = getEnvString("DASHBOARD_EMAIL", c.DashboardEmail)
	c.DashboardPasswordHash = getEnvString("DASHBOARD_PASSWORD_HASH", c.DashboardPasswordHash)

	if origins := getEnvString("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		c.CORSAllowedOrigins = splitList(origins)
	}

	if raw := os.Getenv("EMAIL_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid EMAIL_TIMEOUT: %v", err)
		}
		c.EmailTimeout = d
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be 1..65535, got %d", c.Port)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config error: 'base_url' must be an absolute http(s) URL, got %q", c.BaseURL)
	}

	if c.FromEmail == "" {
		return fmt.Errorf("config error: 'from_email' is required")
	}

	if c.EmailTimeout <= 0 {
		return fmt.Errorf("config error: 'email_timeout' must be positive")
	}

	switch c.StorageDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config error: 'sqlite_path' is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config error: unknown storage driver %q", c.StorageDriver)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.SendGridAPIKey == "" {
		result.SendGridAPIKey = defaults.SendGridAPIKey
	}
	if result.FromEmail == "" {
		result.FromEmail = defaults.FromEmail
	}
	if result.FromName == "" {
		result.FromName = defaults.FromName
	}
	if result.EmailTimeout == 0 {
		result.EmailTimeout = defaults.EmailTimeout
	}
	if result.StorageDriver == "" {
		result.StorageDriver = defaults.StorageDriver
	}
	if result.StorageFile == "" {
		result.StorageFile = defaults.StorageFile
	}
	if result.SQLitePath == "" {
		result.SQLitePath = defaults.SQLitePath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if len(result.CORSAllowedOrigins) == 0 {
		result.CORSAllowedOrigins = defaults.CORSAllowedOrigins
	}
	if result.DashboardEmail == "" {
		result.DashboardEmail = defaults.DashboardEmail
	}
	if result.DashboardPasswordHash == "" {
		result.DashboardPasswordHash = defaults.DashboardPasswordHash
	}

	// Bool fields: cannot distinguish unset from false, so the file value wins
	// and the environment can still override it.

	return result
}

// MirrorPath returns the JSON mirror path, or "" when mirroring is disabled.
func (c *Config) MirrorPath() string {
	if c.StorageFile == MirrorDisabled {
		return ""
	}
	return c.StorageFile
}

// CandidateLink builds the capability URL sent to the candidate.
func (c *Config) CandidateLink(token string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/candidate-form/" + url.PathEscape(token)
}

// DashboardLink is the recruiter dashboard URL used in emails.
func (c *Config) DashboardLink() string {
	return strings.TrimRight(c.BaseURL, "/") + "/dashboard"
}

// SupportLink is the support page linked from candidate emails.
func (c *Config) SupportLink() string {
	return strings.TrimRight(c.BaseURL, "/") + "/support"
}
