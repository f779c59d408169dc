package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a temp dir and returns the user config dir.
func setupTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "posturefix")
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func writeConfig(t *testing.T, dir, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	require.NoError(t, os.Chmod(path, perm))
	return path
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, `bootloader:
  tool: /usr/sbin/grubby
  timeout: 45s
logging:
  level: debug
  format: json
metrics:
  textfile_path: /var/lib/node_exporter/posturefix.prom
`, 0600)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/sbin/grubby", cfg.Bootloader.Tool)
	assert.Equal(t, "DEFAULT", cfg.Bootloader.Kernel, "unset keys keep defaults")
	assert.Equal(t, 45*time.Second, cfg.Bootloader.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/lib/node_exporter/posturefix.prom", cfg.Metrics.TextfilePath)
}

func TestLoadWithFile_MissingFileUsesDefaults(t *testing.T) {
	dir := setupTestHome(t)

	cfg, err := LoadWithFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithFile_EnvOverridesFile(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "bootloader:\n  timeout: 45s\n", 0600)

	t.Setenv("POSTUREFIX_BOOTLOADER_TIMEOUT", "5s")
	t.Setenv("POSTUREFIX_LOGGING_LEVEL", "warn")
	t.Setenv("POSTUREFIX_METRICS_TEXTFILE_PATH", "/tmp/posturefix.prom")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Bootloader.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/tmp/posturefix.prom", cfg.Metrics.TextfilePath)
}

func TestLoadWithFile_RejectsInsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "bootloader:\n  tool: grubby\n", 0644)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadWithFile_RejectsPathOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)
	other := t.TempDir()
	path := writeConfig(t, other, "bootloader:\n  tool: grubby\n", 0600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file must be in")
}

func TestLoadWithFile_RejectsOversizedFile(t *testing.T) {
	dir := setupTestHome(t)
	big := "# " + strings.Repeat("x", maxConfigFileSize) + "\n"
	path := writeConfig(t, dir, big, 0600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file too large")
}

func TestLoadWithFile_InvalidValues(t *testing.T) {
	dir := setupTestHome(t)
	path := writeConfig(t, dir, "logging:\n  format: xml\n", 0600)

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"POSTUREFIX_BOOTLOADER_TOOL":       "bootloader.tool",
		"POSTUREFIX_METRICS_TEXTFILE_PATH": "metrics.textfile_path",
		"POSTUREFIX_TELEMETRY_SERVICE_NAME": "telemetry.service_name",
		"POSTUREFIX_DEBUG":                 "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}
