package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Airtable  AirtableConfig  `yaml:"airtable"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Client    ClientConfig    `yaml:"client"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// AirtableConfig names the base, tables and fields the proxy talks to.
type AirtableConfig struct {
	Token         string   `yaml:"-"` // env-only, never in YAML
	BaseID        string   `yaml:"base_id"`
	APIURL        string   `yaml:"api_url"`
	ActivityTable string   `yaml:"activity_table"`
	PlayersTable  string   `yaml:"players_table"`
	PlayersView   string   `yaml:"players_view"`
	NameField     string   `yaml:"name_field"`
	StatusField   string   `yaml:"status_field"`
	PasswordField string   `yaml:"password_field"`
	Timeout       Duration `yaml:"timeout"`
}

// Configured reports whether the credentials needed to reach Airtable are set.
func (a AirtableConfig) Configured() bool {
	return a.Token != "" && a.BaseID != ""
}

// RateLimitConfig configures the players-update limiter.
type RateLimitConfig struct {
	Window        Duration `yaml:"window"`
	MaxRequests   int      `yaml:"max_requests"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// ClientConfig configures the board CLI.
type ClientConfig struct {
	BackendURL string   `yaml:"backend_url"`
	StatePath  string   `yaml:"state_path"`
	Timeout    Duration `yaml:"timeout"`
	QueueSize  int      `yaml:"queue_size"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("QUESTBOARD_CONFIG_PATH", "config/questboard.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	cfg.trim()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.trim()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Airtable: AirtableConfig{
			APIURL:        "https://api.airtable.com/v0",
			ActivityTable: "Auxiliar Tasks",
			PlayersTable:  "Players",
			NameField:     "Name",
			StatusField:   "Status",
			PasswordField: "PasswordHash",
			Timeout:       Duration(10 * time.Second),
		},
		RateLimit: RateLimitConfig{
			Window:        Duration(5 * time.Minute),
			MaxRequests:   5,
			SweepInterval: Duration(1 * time.Minute),
		},
		Client: ClientConfig{
			BackendURL: "http://localhost:8080",
			StatePath:  "data/questboard.db",
			Timeout:    Duration(10 * time.Second),
			QueueSize:  32,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	setInt(&cfg.Server.Port, "QUESTBOARD_PORT")
	setDuration(&cfg.Server.ReadTimeout, "QUESTBOARD_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "QUESTBOARD_WRITE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "QUESTBOARD_SHUTDOWN_TIMEOUT")

	// Airtable. AIRTABLE_TOKEN wins over the legacy AIRTABLE_API_KEY.
	if v := strings.TrimSpace(os.Getenv("AIRTABLE_TOKEN")); v != "" {
		cfg.Airtable.Token = v
	} else if v := strings.TrimSpace(os.Getenv("AIRTABLE_API_KEY")); v != "" {
		cfg.Airtable.Token = v
	}
	setString(&cfg.Airtable.BaseID, "AIRTABLE_BASE_ID")
	setString(&cfg.Airtable.APIURL, "AIRTABLE_API_URL")
	setString(&cfg.Airtable.ActivityTable, "AIRTABLE_TABLE_NAME")
	setString(&cfg.Airtable.PlayersTable, "AIRTABLE_PLAYERS_TABLE")
	setString(&cfg.Airtable.PlayersView, "AIRTABLE_PLAYERS_VIEW")
	setString(&cfg.Airtable.NameField, "AIRTABLE_PLAYERS_NAME_FIELD")
	setString(&cfg.Airtable.StatusField, "AIRTABLE_PLAYERS_STATUS_FIELD")
	setString(&cfg.Airtable.PasswordField, "AIRTABLE_PLAYERS_PASSWORD_FIELD")
	setDuration(&cfg.Airtable.Timeout, "AIRTABLE_TIMEOUT")

	// Rate limit
	setDuration(&cfg.RateLimit.Window, "QUESTBOARD_RATE_WINDOW")
	setInt(&cfg.RateLimit.MaxRequests, "QUESTBOARD_RATE_MAX")
	setDuration(&cfg.RateLimit.SweepInterval, "QUESTBOARD_RATE_SWEEP_INTERVAL")

	// Client
	setString(&cfg.Client.BackendURL, "QUESTBOARD_BACKEND_URL")
	setString(&cfg.Client.StatePath, "QUESTBOARD_STATE_PATH")
	setDuration(&cfg.Client.Timeout, "QUESTBOARD_CLIENT_TIMEOUT")
	setInt(&cfg.Client.QueueSize, "QUESTBOARD_QUEUE_SIZE")

	// Log
	setString(&cfg.Log.Level, "QUESTBOARD_LOG_LEVEL")
	setString(&cfg.Log.Format, "QUESTBOARD_LOG_FORMAT")
}

// trim strips surrounding whitespace from every string setting; values
// pasted into deployment consoles often carry a trailing newline.
func (c *Config) trim() {
	for _, s := range []*string{
		&c.Airtable.Token,
		&c.Airtable.BaseID,
		&c.Airtable.APIURL,
		&c.Airtable.ActivityTable,
		&c.Airtable.PlayersTable,
		&c.Airtable.PlayersView,
		&c.Airtable.NameField,
		&c.Airtable.StatusField,
		&c.Airtable.PasswordField,
		&c.Client.BackendURL,
		&c.Client.StatePath,
		&c.Log.Level,
		&c.Log.Format,
	} {
		*s = strings.TrimSpace(*s)
	}
}

// validate checks value ranges. Missing Airtable credentials are allowed:
// the proxy answers 500 on the affected endpoints instead of refusing to
// start.
func (c *Config) validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate limit max requests must be positive"))
	}
	if c.RateLimit.SweepInterval <= 0 {
		errs = append(errs, errors.New("rate limit sweep interval must be positive"))
	}
	if c.Client.QueueSize <= 0 {
		errs = append(errs, errors.New("client queue size must be positive"))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			*dst = Duration(d)
		}
	}
}
