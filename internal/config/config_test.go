package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swdbridge.yaml")
	yaml := `
gdb_port: 3000
serial_device: /dev/ttyACM0
frequency_hz: 4000000
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.GDBPort)
	assert.Equal(t, "/dev/ttyACM0", cfg.SerialDevice)
	assert.Equal(t, uint32(4000000), cfg.FrequencyHz)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MalformedYAMLIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swdbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gdb_port: [this is not valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
