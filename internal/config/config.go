// Package config loads runtime settings from an optional YAML file and
// EFFORT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/effort/internal/domain"
)

type IsolationConfig struct {
	Mode string `yaml:"mode"`
}

type ReconcileConfig struct {
	PreferredFundCode string `yaml:"preferred_fund_code"`
	Tolerance         string `yaml:"tolerance"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	PathStyle bool   `yaml:"path_style"`
}

// ArchiveConfig selects where merge artifacts are copied. Driver is one of
// none, fs or s3.
type ArchiveConfig struct {
	Driver string   `yaml:"driver"`
	Dir    string   `yaml:"dir"`
	S3     S3Config `yaml:"s3"`
}

type BackupConfig struct {
	Keep int `yaml:"keep"`
}

type Config struct {
	DB        string          `yaml:"db"`
	Isolation IsolationConfig `yaml:"isolation"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Backup    BackupConfig    `yaml:"backup"`
}

// Default returns the built-in settings. The store lives in the working
// directory and edits use change sets.
func Default() Config {
	return Config{
		DB:        "effort.db",
		Isolation: IsolationConfig{Mode: "changeset"},
		Reconcile: ReconcileConfig{Tolerance: "0.01"},
		Log:       LogConfig{Level: "info", Format: "text"},
		HTTP:      HTTPConfig{Addr: "127.0.0.1:8080"},
		Archive:   ArchiveConfig{Driver: "none"},
		Backup:    BackupConfig{Keep: 5},
	}
}

// Load applies the YAML file at path over the defaults, if it exists, then
// environment overrides, and validates the result. An empty path skips the
// file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.DB, "EFFORT_DB")
	setString(&cfg.Isolation.Mode, "EFFORT_ISOLATION_MODE")
	setString(&cfg.Reconcile.PreferredFundCode, "EFFORT_PREFERRED_FUND_CODE")
	setString(&cfg.Reconcile.Tolerance, "EFFORT_TOLERANCE")
	setString(&cfg.HTTP.Addr, "EFFORT_HTTP_ADDR")
	if v := os.Getenv("EFFORT_HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	setString(&cfg.Log.Level, "EFFORT_LOG_LEVEL")
	setString(&cfg.Log.Format, "EFFORT_LOG_FORMAT")
	setString(&cfg.Archive.Driver, "EFFORT_ARCHIVE_DRIVER")
	setString(&cfg.Archive.Dir, "EFFORT_ARCHIVE_DIR")
	setString(&cfg.Archive.S3.Bucket, "EFFORT_ARCHIVE_S3_BUCKET")
	setString(&cfg.Archive.S3.Region, "EFFORT_ARCHIVE_S3_REGION")
	setString(&cfg.Archive.S3.Endpoint, "EFFORT_ARCHIVE_S3_ENDPOINT")
	setString(&cfg.Archive.S3.Prefix, "EFFORT_ARCHIVE_S3_PREFIX")
	if v := os.Getenv("EFFORT_ARCHIVE_S3_PATH_STYLE"); v != "" {
		cfg.Archive.S3.PathStyle, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("EFFORT_BACKUP_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Backup.Keep = n
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate rejects settings the rest of the program cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DB) == "" {
		return domain.NewValidationError("db", "database path is required")
	}
	switch c.Isolation.Mode {
	case "", "changeset", "branch":
	default:
		return domain.NewValidationError("isolation.mode", "unknown isolation mode %q (want changeset or branch)", c.Isolation.Mode)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return domain.NewValidationError("log.level", "unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return domain.NewValidationError("log.format", "unknown log format %q (want text or json)", c.Log.Format)
	}
	switch c.Archive.Driver {
	case "", "none":
	case "fs":
		if c.Archive.Dir == "" {
			return domain.NewValidationError("archive.dir", "the fs archive needs a directory")
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return domain.NewValidationError("archive.s3.bucket", "the s3 archive needs a bucket")
		}
	default:
		return domain.NewValidationError("archive.driver", "unknown archive driver %q (want none, fs or s3)", c.Archive.Driver)
	}
	if c.Backup.Keep < 0 {
		return domain.NewValidationError("backup.keep", "must not be negative")
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
