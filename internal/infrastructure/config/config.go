package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Lumen Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Channels []string       `yaml:"channels"`
	Schedule ScheduleConfig `yaml:"schedule"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Database DatabaseConfig `yaml:"database"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	Name     string         `yaml:"name"`
	Timezone string         `yaml:"timezone"`
	Location LocationConfig `yaml:"location"`
}

// LocationConfig contains geographic coordinates for solar lookups.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// ScheduleConfig contains the seed rules and scheduling-related settings.
type ScheduleConfig struct {
	// Rules is the initial set of recurring rules registered at startup.
	Rules []RuleConfig `yaml:"rules"`

	// SolarRefreshHours are the local hours (minute 0) at which the sunset
	// one-shot is re-fetched and re-registered. Default: 2, 8, 14, 20.
	SolarRefreshHours []int `yaml:"solar_refresh_hours"`

	// SolarBaseURL overrides the sunrise/sunset service endpoint.
	// Empty means the public service.
	SolarBaseURL string `yaml:"solar_base_url"`

	// RandomWindow is the local-time window within which the
	// lights.random action is allowed to run.
	RandomWindow WindowConfig `yaml:"random_window"`
}

// WindowConfig is a local-time window bounded by whole hours.
// A window whose start is after its end spans midnight.
type WindowConfig struct {
	StartHour int `yaml:"start_hour"`
	EndHour   int `yaml:"end_hour"`
}

// RuleConfig is one recurring rule as written in config.yaml.
//
// Each of the five pattern fields accepts "*" (or may be omitted) for the
// wildcard, a single integer, or a list of integers.
type RuleConfig struct {
	Name     string    `yaml:"name"`
	Action   string    `yaml:"action"`
	Channels []string  `yaml:"channels"`
	Minute   FieldSpec `yaml:"minute"`
	Hour     FieldSpec `yaml:"hour"`
	Day      FieldSpec `yaml:"day"`
	Month    FieldSpec `yaml:"month"`
	Weekday  FieldSpec `yaml:"weekday"`
}

// FieldSpec is one recurrence field as written in YAML.
//
// It unmarshals from "*", a bare integer, or a sequence of integers.
// The zero value (field omitted) means the wildcard.
type FieldSpec struct {
	Star   bool
	Values []int
}

// IsWildcard reports whether the spec matches every value.
func (f FieldSpec) IsWildcard() bool {
	return f.Star || len(f.Values) == 0
}

// UnmarshalYAML implements yaml.Unmarshaler for the three accepted shapes.
func (f *FieldSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Value == "*" || value.Value == "" {
			f.Star = true
			return nil
		}
		var v int
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("field spec must be \"*\", an integer, or a list of integers: %w", err)
		}
		f.Values = []int{v}
		return nil
	case yaml.SequenceNode:
		var vs []int
		if err := value.Decode(&vs); err != nil {
			return fmt.Errorf("field spec list must contain only integers: %w", err)
		}
		f.Values = vs
		return nil
	default:
		return fmt.Errorf("field spec must be \"*\", an integer, or a list of integers")
	}
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains diagnostics HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Secret   string           `yaml:"secret"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LUMEN_SECTION_KEY
// For example: LUMEN_DATABASE_PATH, LUMEN_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Name:     "Lumen",
			Timezone: "UTC",
		},
		Schedule: ScheduleConfig{
			SolarRefreshHours: []int{2, 8, 14, 20},
			RandomWindow: WindowConfig{
				StartHour: 18,
				EndHour:   23,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "lumen-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/lumen.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LUMEN_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LUMEN_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("LUMEN_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LUMEN_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LUMEN_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("LUMEN_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("LUMEN_API_SECRET"); v != "" {
		cfg.API.Secret = v
	}
}

// Location resolves the configured IANA timezone.
// It is resolved once at startup; the rest of the system receives the
// resolved *time.Location and never touches the timezone database again.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return nil, fmt.Errorf("resolving timezone %q: %w", c.Site.Timezone, err)
	}
	return loc, nil
}

// fieldBounds drives per-field range validation of rules.
// Weekday uses the 0=Monday convention.
var fieldBounds = []struct {
	name     string
	min, max int
	get      func(r RuleConfig) FieldSpec
}{
	{"minute", 0, 59, func(r RuleConfig) FieldSpec { return r.Minute }},
	{"hour", 0, 23, func(r RuleConfig) FieldSpec { return r.Hour }},
	{"day", 1, 31, func(r RuleConfig) FieldSpec { return r.Day }},
	{"month", 1, 12, func(r RuleConfig) FieldSpec { return r.Month }},
	{"weekday", 0, 6, func(r RuleConfig) FieldSpec { return r.Weekday }},
}

// Validate checks the configuration for errors.
//
// A validation failure here is fatal: the engine never starts on a
// missing or out-of-range scheduling input.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("site.timezone %q is not a valid IANA zone", c.Site.Timezone))
	}
	if c.Site.Location.Latitude < -90 || c.Site.Location.Latitude > 90 {
		errs = append(errs, "site.location.latitude must be between -90 and 90")
	}
	if c.Site.Location.Longitude < -180 || c.Site.Location.Longitude > 180 {
		errs = append(errs, "site.location.longitude must be between -180 and 180")
	}

	if len(c.Channels) == 0 {
		errs = append(errs, "channels is required (at least one output channel)")
	}

	for i, rule := range c.Schedule.Rules {
		if rule.Action == "" {
			errs = append(errs, fmt.Sprintf("schedule.rules[%d].action is required", i))
		}
		for _, b := range fieldBounds {
			spec := b.get(rule)
			if spec.IsWildcard() {
				continue
			}
			for _, v := range spec.Values {
				if v < b.min || v > b.max {
					errs = append(errs, fmt.Sprintf("schedule.rules[%d].%s value %d out of range [%d, %d]", i, b.name, v, b.min, b.max))
				}
			}
		}
	}
	for _, h := range c.Schedule.SolarRefreshHours {
		if h < 0 || h > 23 {
			errs = append(errs, fmt.Sprintf("schedule.solar_refresh_hours value %d out of range [0, 23]", h))
		}
	}
	if w := c.Schedule.RandomWindow; w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 {
		errs = append(errs, "schedule.random_window hours must be between 0 and 23")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		// The API exposes channel commands, so a weak secret means an
		// attacker can drive physical outputs.
		const minSecretLength = 32
		if c.API.Secret == "" {
			errs = append(errs, "api.secret is required when the API is enabled (set LUMEN_API_SECRET)")
		} else if len(c.API.Secret) < minSecretLength {
			errs = append(errs, "api.secret must be at least 32 characters")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
