// Package config loads and validates Vigil Core configuration.
//
// # Purpose
//
// One YAML file (configs/vigil.yaml) drives the whole service. Load
// merges it over built-in defaults, applies VIGIL_* environment
// overrides, and validates the result, so every other package receives
// a config that is already known good.
//
// # Usage
//
//	cfg, err := config.Load("configs/vigil.yaml")
//	if err != nil {
//	    return err
//	}
//	interval := cfg.GetProbeInterval()
//
// Durations are stored as plain integers in YAML (seconds or
// milliseconds, named by suffix) and exposed as time.Duration through
// the Get* accessors.
//
// # Environment Overrides
//
// Secrets never belong in the YAML file. VIGIL_MQTT_PASSWORD and
// VIGIL_INFLUXDB_TOKEN are the supported channels for credentials;
// deployment-specific overrides (VIGIL_DATABASE_PATH, VIGIL_SOURCE_TYPE,
// VIGIL_STREAM_FPS and friends) follow the same pattern. Overrides are
// applied after the file is parsed and before validation.
//
// Validation collects every problem into a single error rather than
// stopping at the first, so one startup failure shows the full list.
package config
