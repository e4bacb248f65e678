package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of the CLI and the HTTP server.
type Config struct {
	DBPath           string   `yaml:"db_path"`
	LogUseCases      bool     `yaml:"log_use_cases"`
	HTTPAddr         string   `yaml:"http_addr"`
	CORSOrigins      []string `yaml:"cors_origins"`
	ReportMaxColumns int      `yaml:"report_max_columns"`
}

// Dir is the per-user directory holding the database and the config file.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".timetree"), nil
}

// Default returns the built-in settings. The database lives in Dir().
func Default() Config {
	cfg := Config{
		DBPath:           "timetree.db",
		HTTPAddr:         ":8080",
		CORSOrigins:      []string{"*"},
		ReportMaxColumns: 255,
	}
	if dir, err := Dir(); err == nil {
		cfg.DBPath = filepath.Join(dir, "timetree.db")
	}
	return cfg
}

// DefaultPath is TIMETREE_CONFIG when set, otherwise config.yaml in Dir().
func DefaultPath() string {
	if v := os.Getenv("TIMETREE_CONFIG"); v != "" {
		return v
	}
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load layers the YAML file at path over Default(), then applies the
// TIMETREE_* environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.ReportMaxColumns <= 0 {
		return cfg, fmt.Errorf("report_max_columns must be positive, got %d", cfg.ReportMaxColumns)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TIMETREE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TIMETREE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("TIMETREE_LOG_USE_CASES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogUseCases = b
		}
	}
	if v := os.Getenv("TIMETREE_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("TIMETREE_REPORT_MAX_COLUMNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReportMaxColumns = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
