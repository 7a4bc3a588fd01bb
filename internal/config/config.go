// Package config loads the optional swdbridge.yaml configuration file.
//
// Following the teacher's tocalls.yaml loading convention (see
// deviceid.go in the source this module was adapted from), a missing
// config file is not an error: built-in defaults apply and CLI flags
// (parsed separately, in cmd/swdbridge) override whatever the file sets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the decoded shape of swdbridge.yaml.
type Config struct {
	// GDBPort is the first TCP port the GDB listener tries; spec.md §6
	// says it falls back to the next four ports if busy.
	GDBPort int `yaml:"gdb_port"`

	// SerialDevice pins a specific device path, bypassing discovery.
	SerialDevice string `yaml:"serial_device"`

	// SerialNumber is an optional partial-match filter passed to
	// discovery when SerialDevice is empty.
	SerialNumber string `yaml:"serial_number"`

	// FrequencyHz is the default SWD/JTAG comms frequency requested at
	// attach, via the remote protocol's GF request (spec.md §4.3.3).
	FrequencyHz uint32 `yaml:"frequency_hz"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	// SessionLogPattern is an optional strftime pattern for a daily
	// session log file (see internal/logging).
	SessionLogPattern string `yaml:"session_log_pattern"`
}

// Default returns the built-in configuration used when no file is present.
func Default() Config {
	return Config{
		GDBPort:     2000,
		FrequencyHz: 0, // 0 means "leave the probe's default alone"
		LogLevel:    "info",
	}
}

// Load reads and decodes path, returning Default() unmodified if path does
// not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	return cfg, nil
}
