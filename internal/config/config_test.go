package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 255, cfg.ReportMaxColumns)
	assert.Equal(t, "timetree.db", filepath.Base(cfg.DBPath))
	assert.False(t, cfg.LogUseCases)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
db_path: /tmp/tt.db
log_use_cases: true
cors_origins: [http://localhost:3000]
report_max_columns: 60
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tt.db", cfg.DBPath)
	assert.True(t, cfg.LogUseCases)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 60, cfg.ReportMaxColumns)
	assert.Equal(t, ":8080", cfg.HTTPAddr, "unset keys keep their default")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "http_addr: ':9000'\nreport_max_columns: 60\n")
	t.Setenv("TIMETREE_DB", "/data/other.db")
	t.Setenv("TIMETREE_HTTP_ADDR", "127.0.0.1:7000")
	t.Setenv("TIMETREE_LOG_USE_CASES", "1")
	t.Setenv("TIMETREE_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TIMETREE_REPORT_MAX_COLUMNS", "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/other.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:7000", cfg.HTTPAddr)
	assert.True(t, cfg.LogUseCases)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 12, cfg.ReportMaxColumns)
}

func TestLoad_InvalidEnvValuesIgnored(t *testing.T) {
	t.Setenv("TIMETREE_LOG_USE_CASES", "maybe")
	t.Setenv("TIMETREE_REPORT_MAX_COLUMNS", "-3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.LogUseCases)
	assert.Equal(t, 255, cfg.ReportMaxColumns)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeConfig(t, "report_max_columns: [1, 2]\n"))
	assert.ErrorContains(t, err, "parsing config file")

	_, err = Load(writeConfig(t, "report_max_columns: 0\n"))
	assert.ErrorContains(t, err, "report_max_columns must be positive")
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("TIMETREE_CONFIG", "/etc/timetree.yaml")
	assert.Equal(t, "/etc/timetree.yaml", DefaultPath())
}
