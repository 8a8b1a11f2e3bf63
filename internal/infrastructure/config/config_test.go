package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig writes YAML into a temp dir and returns the file path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vigil.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
service:
  id: "test-vigil"
stream:
  target_fps: 30
  handler_budget_ms: 40
source:
  type: "synthetic"
  width: 640
  height: 480
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// File values land where they should.
	if cfg.Service.ID != "test-vigil" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-vigil")
	}
	if cfg.Stream.TargetFPS != 30 {
		t.Errorf("Stream.TargetFPS = %d, want 30", cfg.Stream.TargetFPS)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	// Keys absent from the file keep their defaults.
	if cfg.Source.Probe.Interval != defaultConfig().Source.Probe.Interval {
		t.Errorf("Source.Probe.Interval = %d, want default %d",
			cfg.Source.Probe.Interval, defaultConfig().Source.Probe.Interval)
	}
}

func TestLoad_Failures(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return "/nonexistent/path/vigil.yaml" },
		},
		{
			name: "invalid yaml",
			path: func(t *testing.T) string { return writeConfig(t, "invalid: [yaml: content") },
		},
		{
			name: "fails validation",
			path: func(t *testing.T) string { return writeConfig(t, "service:\n  id: \"\"\n") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path(t)); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing service ID",
			mutate:  func(c *Config) { c.Service.ID = "" },
			wantErr: true,
		},
		{
			name:    "fps too low",
			mutate:  func(c *Config) { c.Stream.TargetFPS = 0 },
			wantErr: true,
		},
		{
			name:    "fps too high",
			mutate:  func(c *Config) { c.Stream.TargetFPS = 500 },
			wantErr: true,
		},
		{
			name:    "zero handler budget",
			mutate:  func(c *Config) { c.Stream.HandlerBudgetMS = 0 },
			wantErr: true,
		},
		{
			name:    "zero capture attempts",
			mutate:  func(c *Config) { c.Stream.Capture.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name: "debug enabled without interval",
			mutate: func(c *Config) {
				c.Stream.Debug.Enabled = true
				c.Stream.Debug.Interval = 0
			},
			wantErr: true,
		},
		{
			name:    "unknown source type",
			mutate:  func(c *Config) { c.Source.Type = "camera" },
			wantErr: true,
		},
		{
			name: "replay without directory",
			mutate: func(c *Config) {
				c.Source.Type = "replay"
				c.Source.ReplayDir = ""
			},
			wantErr: true,
		},
		{
			name:    "match threshold out of range",
			mutate:  func(c *Config) { c.Vision.MatchThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "negative input delay",
			mutate:  func(c *Config) { c.Input.MinActionDelayMS = -1 },
			wantErr: true,
		},
		{
			name: "database enabled without path",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.Path = ""
			},
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name: "influxdb enabled without token",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Org = "vigil"
				c.InfluxDB.Bucket = "metrics"
				c.InfluxDB.Token = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// Validation failures must be collected, not returned one at a time.
func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Service.ID = ""
	cfg.Stream.TargetFPS = 0
	cfg.MQTT.QoS = 9

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}

	// Fixing one problem must still fail on the others.
	cfg.Service.ID = "vigil-001"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() passed with remaining invalid fields")
	}
}

func TestConfig_DurationAccessors(t *testing.T) {
	cfg := &Config{
		Stream: StreamConfig{
			HandlerBudgetMS: 40,
			Capture: CaptureConfig{
				InitialDelayMS: 50,
				MaxDelayMS:     500,
			},
		},
		Source: SourceConfig{
			Probe: ProbeConfig{Interval: 2, Timeout: 30},
		},
		Engine: EngineConfig{ShutdownTimeout: 10},
		Input:  InputConfig{MinActionDelayMS: 75},
	}

	if got := cfg.GetHandlerBudget().Milliseconds(); got != 40 {
		t.Errorf("GetHandlerBudget() = %vms, want 40", got)
	}
	if got := cfg.GetCaptureInitialDelay().Milliseconds(); got != 50 {
		t.Errorf("GetCaptureInitialDelay() = %vms, want 50", got)
	}
	if got := cfg.GetCaptureMaxDelay().Milliseconds(); got != 500 {
		t.Errorf("GetCaptureMaxDelay() = %vms, want 500", got)
	}
	if got := cfg.GetProbeInterval().Seconds(); got != 2 {
		t.Errorf("GetProbeInterval() = %vs, want 2", got)
	}
	if got := cfg.GetProbeTimeout().Seconds(); got != 30 {
		t.Errorf("GetProbeTimeout() = %vs, want 30", got)
	}
	if got := cfg.GetShutdownTimeout().Seconds(); got != 10 {
		t.Errorf("GetShutdownTimeout() = %vs, want 10", got)
	}
	if got := cfg.Input.GetMinActionDelay().Milliseconds(); got != 75 {
		t.Errorf("GetMinActionDelay() = %vms, want 75", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("VIGIL_STREAM_FPS", "60")
	t.Setenv("VIGIL_SOURCE_TYPE", "replay")
	t.Setenv("VIGIL_TEMPLATES_DIR", "/custom/templates")
	t.Setenv("VIGIL_DATABASE_PATH", "/custom/path.db")
	t.Setenv("VIGIL_MQTT_HOST", "mqtt.example.com")
	t.Setenv("VIGIL_MQTT_USERNAME", "testuser")
	t.Setenv("VIGIL_MQTT_PASSWORD", "testpass")
	t.Setenv("VIGIL_INFLUXDB_TOKEN", "secret-token")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	checks := []struct {
		name string
		got  string
		want string
	}{
		{"Source.Type", cfg.Source.Type, "replay"},
		{"Templates.Dir", cfg.Templates.Dir, "/custom/templates"},
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}

	if cfg.Stream.TargetFPS != 60 {
		t.Errorf("Stream.TargetFPS = %d, want 60", cfg.Stream.TargetFPS)
	}
}

func TestApplyEnvOverrides_IgnoresBadFPS(t *testing.T) {
	cfg := defaultConfig()
	want := cfg.Stream.TargetFPS

	t.Setenv("VIGIL_STREAM_FPS", "not-a-number")
	applyEnvOverrides(cfg)

	if cfg.Stream.TargetFPS != want {
		t.Errorf("Stream.TargetFPS = %d, want %d (unparseable override ignored)", cfg.Stream.TargetFPS, want)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Service.ID == "" {
		t.Error("defaultConfig should have non-empty Service.ID")
	}
	if cfg.Stream.TargetFPS < 1 {
		t.Error("defaultConfig should have a positive Stream.TargetFPS")
	}
	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	// The shipped defaults must themselves validate.
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate, got %v", err)
	}
}
