package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Vigil Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Stream    StreamConfig    `yaml:"stream"`
	Source    SourceConfig    `yaml:"source"`
	Engine    EngineConfig    `yaml:"engine"`
	Vision    VisionConfig    `yaml:"vision"`
	Input     InputConfig     `yaml:"input"`
	Templates TemplatesConfig `yaml:"templates"`
	Modules   ModulesConfig   `yaml:"modules"`
	Workflows WorkflowsConfig `yaml:"workflows"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig contains instance-specific information.
type ServiceConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// StreamConfig contains capture loop settings.
type StreamConfig struct {
	TargetFPS       int           `yaml:"target_fps"`
	HandlerBudgetMS int           `yaml:"handler_budget_ms"`
	MemoryAlertMB   int           `yaml:"memory_alert_mb"`
	Capture         CaptureConfig `yaml:"capture"`
	Debug           DebugConfig   `yaml:"debug"`
}

// CaptureConfig contains capture retry settings.
type CaptureConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMS int `yaml:"initial_delay_ms"`
	MaxDelayMS     int `yaml:"max_delay_ms"`
}

// DebugConfig contains debug frame dump settings.
type DebugConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval int    `yaml:"interval"` // Dump every Nth frame
	Dir      string `yaml:"dir"`
}

// SourceConfig contains frame source settings.
type SourceConfig struct {
	Type      string      `yaml:"type"` // "synthetic" or "replay"
	Width     int         `yaml:"width"`
	Height    int         `yaml:"height"`
	ReplayDir string      `yaml:"replay_dir"`
	Probe     ProbeConfig `yaml:"probe"`
}

// ProbeConfig contains source readiness probe settings.
type ProbeConfig struct {
	Interval int `yaml:"interval"` // Seconds between probe attempts
	Timeout  int `yaml:"timeout"`  // Seconds before the probe gives up
}

// EngineConfig contains engine lifecycle settings.
type EngineConfig struct {
	ShutdownTimeout int `yaml:"shutdown_timeout"` // Seconds; 0 disables the deadline
}

// VisionConfig contains template matching settings.
type VisionConfig struct {
	MatchThreshold float64 `yaml:"match_threshold"`
}

// InputConfig contains input safety settings.
type InputConfig struct {
	MinActionDelayMS int          `yaml:"min_action_delay_ms"`
	Bounds           RegionConfig `yaml:"bounds"`
}

// RegionConfig describes a rectangular screen region.
// A zero-size region means "unset" and callers fall back to the full frame.
type RegionConfig struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TemplatesConfig contains template store settings.
type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

// ModulesConfig contains per-module settings.
type ModulesConfig struct {
	Tracker TrackerConfig `yaml:"tracker"`
}

// TrackerConfig contains tracker module settings.
type TrackerConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Categories []string     `yaml:"categories"`
	Region     RegionConfig `yaml:"region"`
}

// WorkflowsConfig contains per-workflow settings.
type WorkflowsConfig struct {
	Sweep SweepConfig `yaml:"sweep"`
}

// SweepConfig contains sweep workflow settings.
type SweepConfig struct {
	PollIntervalMS int  `yaml:"poll_interval_ms"`
	MoveInput      bool `yaml:"move_input"`
	Timeout        int  `yaml:"timeout"` // Seconds; 0 disables the workflow deadline
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
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

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled        bool   `yaml:"enabled"`
	URL            string `yaml:"url"`
	Token          string `yaml:"token"`
	Org            string `yaml:"org"`
	Bucket         string `yaml:"bucket"`
	BatchSize      int    `yaml:"batch_size"`
	FlushInterval  int    `yaml:"flush_interval"`
	SampleInterval int    `yaml:"sample_interval"` // Seconds between metric samples
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
// Environment variables follow the pattern: VIGIL_SECTION_KEY
// For example: VIGIL_DATABASE_PATH, VIGIL_STREAM_FPS
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			ID:   "vigil-001",
			Name: "Vigil",
		},
		Stream: StreamConfig{
			TargetFPS:       10,
			HandlerBudgetMS: 50,
			MemoryAlertMB:   256,
			Capture: CaptureConfig{
				MaxAttempts:    3,
				InitialDelayMS: 50,
				MaxDelayMS:     500,
			},
			Debug: DebugConfig{
				Interval: 300,
				Dir:      "./data/debug",
			},
		},
		Source: SourceConfig{
			Type:   "synthetic",
			Width:  1280,
			Height: 720,
			Probe: ProbeConfig{
				Interval: 2,
				Timeout:  30,
			},
		},
		Engine: EngineConfig{
			ShutdownTimeout: 10,
		},
		Vision: VisionConfig{
			MatchThreshold: 0.8,
		},
		Input: InputConfig{
			MinActionDelayMS: 50,
		},
		Templates: TemplatesConfig{
			Dir: "./data/templates",
		},
		Workflows: WorkflowsConfig{
			Sweep: SweepConfig{
				PollIntervalMS: 250,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/vigil.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "vigil-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:      100,
			FlushInterval:  10,
			SampleInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: VIGIL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Stream
	if v := os.Getenv("VIGIL_STREAM_FPS"); v != "" {
		if fps, err := strconv.Atoi(v); err == nil {
			cfg.Stream.TargetFPS = fps
		}
	}

	// Source
	if v := os.Getenv("VIGIL_SOURCE_TYPE"); v != "" {
		cfg.Source.Type = v
	}

	// Templates
	if v := os.Getenv("VIGIL_TEMPLATES_DIR"); v != "" {
		cfg.Templates.Dir = v
	}

	// Database
	if v := os.Getenv("VIGIL_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("VIGIL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("VIGIL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("VIGIL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("VIGIL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Service validation
	if c.Service.ID == "" {
		errs = append(errs, "service.id is required")
	}

	// Stream validation
	if c.Stream.TargetFPS < 1 || c.Stream.TargetFPS > 240 {
		errs = append(errs, "stream.target_fps must be between 1 and 240")
	}
	if c.Stream.HandlerBudgetMS < 1 {
		errs = append(errs, "stream.handler_budget_ms must be positive")
	}
	if c.Stream.Capture.MaxAttempts < 1 {
		errs = append(errs, "stream.capture.max_attempts must be at least 1")
	}
	if c.Stream.Debug.Enabled && c.Stream.Debug.Interval < 1 {
		errs = append(errs, "stream.debug.interval must be at least 1 when debug is enabled")
	}

	// Source validation
	switch c.Source.Type {
	case "synthetic", "replay":
	default:
		errs = append(errs, "source.type must be \"synthetic\" or \"replay\"")
	}
	if c.Source.Type == "replay" && c.Source.ReplayDir == "" {
		errs = append(errs, "source.replay_dir is required when source.type is \"replay\"")
	}

	// Vision validation
	if c.Vision.MatchThreshold <= 0 || c.Vision.MatchThreshold > 1 {
		errs = append(errs, "vision.match_threshold must be in (0, 1]")
	}

	// Input validation
	if c.Input.MinActionDelayMS < 0 {
		errs = append(errs, "input.min_action_delay_ms must not be negative")
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set VIGIL_INFLUXDB_TOKEN environment variable)")
		}
		if c.InfluxDB.Org == "" {
			errs = append(errs, "influxdb.org is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetHandlerBudget returns the per-subscriber delivery budget as a Duration.
func (c *Config) GetHandlerBudget() time.Duration {
	return time.Duration(c.Stream.HandlerBudgetMS) * time.Millisecond
}

// GetCaptureInitialDelay returns the first capture retry delay as a Duration.
func (c *Config) GetCaptureInitialDelay() time.Duration {
	return time.Duration(c.Stream.Capture.InitialDelayMS) * time.Millisecond
}

// GetCaptureMaxDelay returns the capture retry delay ceiling as a Duration.
func (c *Config) GetCaptureMaxDelay() time.Duration {
	return time.Duration(c.Stream.Capture.MaxDelayMS) * time.Millisecond
}

// GetProbeInterval returns the source probe interval as a Duration.
func (c *Config) GetProbeInterval() time.Duration {
	return time.Duration(c.Source.Probe.Interval) * time.Second
}

// GetProbeTimeout returns the source probe timeout as a Duration.
func (c *Config) GetProbeTimeout() time.Duration {
	return time.Duration(c.Source.Probe.Timeout) * time.Second
}

// GetShutdownTimeout returns the engine shutdown deadline as a Duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return time.Duration(c.Engine.ShutdownTimeout) * time.Second
}

// GetMinActionDelay returns the minimum delay between input actions as a
// Duration. Defined on InputConfig because the input package receives only
// its own section.
func (c InputConfig) GetMinActionDelay() time.Duration {
	return time.Duration(c.MinActionDelayMS) * time.Millisecond
}

// GetSweepPollInterval returns the sweep workflow poll interval as a Duration.
func (c *Config) GetSweepPollInterval() time.Duration {
	return time.Duration(c.Workflows.Sweep.PollIntervalMS) * time.Millisecond
}

// GetSweepTimeout returns the sweep workflow deadline as a Duration.
func (c *Config) GetSweepTimeout() time.Duration {
	return time.Duration(c.Workflows.Sweep.Timeout) * time.Second
}

// GetSampleInterval returns the metrics sample interval as a Duration.
func (c *Config) GetSampleInterval() time.Duration {
	return time.Duration(c.InfluxDB.SampleInterval) * time.Second
}
