package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig writes a config file to a temp dir and returns its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

const validConfig = `
site:
  name: "garden"
  timezone: "Europe/London"
  location:
    latitude: 51.5
    longitude: -0.12
channels:
  - "garden-1"
  - "garden-2"
schedule:
  rules:
    - name: "late off"
      action: "lights.off"
      minute: 35
      hour: 22
    - name: "midnight off"
      action: "lights.off"
      minute: 0
      hour: 0
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
database:
  path: "/tmp/test.db"
api:
  enabled: true
  host: "0.0.0.0"
  port: 8080
  secret: "test-secret-key-at-least-32-chars!"
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.Timezone != "Europe/London" {
		t.Errorf("Site.Timezone = %q, want %q", cfg.Site.Timezone, "Europe/London")
	}
	if len(cfg.Channels) != 2 {
		t.Errorf("Channels length = %d, want 2", len(cfg.Channels))
	}
	if len(cfg.Schedule.Rules) != 2 {
		t.Fatalf("Schedule.Rules length = %d, want 2", len(cfg.Schedule.Rules))
	}

	rule := cfg.Schedule.Rules[0]
	if rule.Action != "lights.off" {
		t.Errorf("rule action = %q, want %q", rule.Action, "lights.off")
	}
	if rule.Minute.IsWildcard() || len(rule.Minute.Values) != 1 || rule.Minute.Values[0] != 35 {
		t.Errorf("rule minute = %+v, want single value 35", rule.Minute)
	}
	if !rule.Day.IsWildcard() {
		t.Errorf("rule day = %+v, want wildcard (omitted field)", rule.Day)
	}

	// Defaults survive partial config.
	if got := cfg.Schedule.SolarRefreshHours; len(got) != 4 || got[0] != 2 {
		t.Errorf("SolarRefreshHours = %v, want default [2 8 14 20]", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTestConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestFieldSpec_Shapes(t *testing.T) {
	content := `
channels: ["c1"]
api:
  enabled: false
schedule:
  rules:
    - name: "star"
      action: "lights.on"
      minute: "*"
      hour: [2, 8, 14, 20]
`
	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	rule := cfg.Schedule.Rules[0]
	if !rule.Minute.IsWildcard() {
		t.Errorf("minute = %+v, want wildcard", rule.Minute)
	}
	if len(rule.Hour.Values) != 4 {
		t.Errorf("hour values = %v, want 4 entries", rule.Hour.Values)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantMsg string
	}{
		{
			name:    "no channels",
			mutate:  func(cfg *Config) { cfg.Channels = nil },
			wantMsg: "channels is required",
		},
		{
			name:    "bad timezone",
			mutate:  func(cfg *Config) { cfg.Site.Timezone = "Mars/Olympus" },
			wantMsg: "site.timezone",
		},
		{
			name:    "latitude out of range",
			mutate:  func(cfg *Config) { cfg.Site.Location.Latitude = 91 },
			wantMsg: "latitude",
		},
		{
			name: "rule minute out of range",
			mutate: func(cfg *Config) {
				cfg.Schedule.Rules = []RuleConfig{{
					Action: "lights.on",
					Minute: FieldSpec{Values: []int{60}},
				}}
			},
			wantMsg: "minute value 60 out of range",
		},
		{
			name: "rule missing action",
			mutate: func(cfg *Config) {
				cfg.Schedule.Rules = []RuleConfig{{Name: "anonymous"}}
			},
			wantMsg: "action is required",
		},
		{
			name:    "weak api secret",
			mutate:  func(cfg *Config) { cfg.API.Secret = "short" },
			wantMsg: "at least 32 characters",
		},
		{
			name:    "bad qos",
			mutate:  func(cfg *Config) { cfg.MQTT.QoS = 3 },
			wantMsg: "mqtt.qos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Channels = []string{"c1"}
			cfg.API.Secret = "test-secret-key-at-least-32-chars!"
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LUMEN_MQTT_HOST", "broker.example")
	t.Setenv("LUMEN_API_SECRET", "env-secret-key-at-least-32-chars!!")

	cfg, err := Load(writeTestConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MQTT.Broker.Host != "broker.example" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
	if cfg.API.Secret != "env-secret-key-at-least-32-chars!!" {
		t.Errorf("API.Secret not overridden from environment")
	}
}

func TestLocation(t *testing.T) {
	cfg := defaultConfig()
	cfg.Site.Timezone = "Europe/London"
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Europe/London" {
		t.Errorf("Location() = %s, want Europe/London", loc)
	}
}
