package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/contact-dedupe/internal/models"
)

// Config holds all configuration values.
type Config struct {
	// Output files; empty means derived from the contact file path
	AuditFile    string
	FallbackFile string
	BackupSuffix string

	// Resolution workflow
	AskKeep       bool
	ProgressEvery int
	Columns       models.ColumnAliases

	// SurrealDB audit mirror, disabled when URL is empty
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Logging
	LogFile         string
	LogLevel        slog.Level
	ConsoleLogLevel slog.Level
}

// MirrorEnabled reports whether removals are mirrored to SurrealDB.
func (c Config) MirrorEnabled() bool {
	return c.SurrealDBURL != ""
}

// LoadDotEnv loads a .env file from the working directory if there is one.
// Variables already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		AuditFile:    getEnv("DEDUPE_AUDIT_FILE", ""),
		FallbackFile: getEnv("DEDUPE_FALLBACK_FILE", ""),
		BackupSuffix: getEnv("DEDUPE_BACKUP_SUFFIX", ".bak"),

		AskKeep:       parseBool(getEnv("DEDUPE_ASK_KEEP", "true"), true),
		ProgressEvery: parseInt(getEnv("DEDUPE_PROGRESS_EVERY", "100"), 100),
		Columns:       models.DefaultColumnAliases(),

		SurrealDBURL:       getEnv("DEDUPE_SURREALDB_URL", ""),
		SurrealDBNamespace: getEnv("DEDUPE_SURREALDB_NAMESPACE", "dedupe"),
		SurrealDBDatabase:  getEnv("DEDUPE_SURREALDB_DATABASE", "audit"),
		SurrealDBUser:      getEnv("DEDUPE_SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("DEDUPE_SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("DEDUPE_SURREALDB_AUTH_LEVEL", "root"),

		LogFile:         getEnv("DEDUPE_LOG_FILE", filepath.Join(os.TempDir(), "dedupe.log")),
		LogLevel:        parseLogLevel(getEnv("DEDUPE_LOG_LEVEL", "INFO")),
		ConsoleLogLevel: parseLogLevel(getEnv("DEDUPE_CONSOLE_LOG_LEVEL", "WARN")),
	}
}

// fileConfig is the on-disk shape. Unset keys leave the loaded value alone.
type fileConfig struct {
	AuditFile     *string `yaml:"audit_file" toml:"audit_file"`
	FallbackFile  *string `yaml:"fallback_file" toml:"fallback_file"`
	BackupSuffix  *string `yaml:"backup_suffix" toml:"backup_suffix"`
	AskKeep       *bool   `yaml:"ask_keep" toml:"ask_keep"`
	ProgressEvery *int    `yaml:"progress_every" toml:"progress_every"`
	LogFile       *string `yaml:"log_file" toml:"log_file"`
	LogLevel      *string `yaml:"log_level" toml:"log_level"`

	Columns *models.ColumnAliases `yaml:"columns" toml:"columns"`

	SurrealDB *struct {
		URL       *string `yaml:"url" toml:"url"`
		Namespace *string `yaml:"namespace" toml:"namespace"`
		Database  *string `yaml:"database" toml:"database"`
		User      *string `yaml:"user" toml:"user"`
		Pass      *string `yaml:"pass" toml:"pass"`
		AuthLevel *string `yaml:"auth_level" toml:"auth_level"`
	} `yaml:"surrealdb" toml:"surrealdb"`
}

// LoadFile overlays the YAML (.yaml, .yml) or TOML (.toml) file at path onto cfg.
// Column alias lists given in the file replace the defaults role by role.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parse YAML %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parse TOML %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config file %s: unsupported extension %q", path, filepath.Ext(path))
	}

	fc.apply(cfg)
	return nil
}

func (fc fileConfig) apply(cfg *Config) {
	setString(&cfg.AuditFile, fc.AuditFile)
	setString(&cfg.FallbackFile, fc.FallbackFile)
	setString(&cfg.BackupSuffix, fc.BackupSuffix)
	setString(&cfg.LogFile, fc.LogFile)
	if fc.AskKeep != nil {
		cfg.AskKeep = *fc.AskKeep
	}
	if fc.ProgressEvery != nil && *fc.ProgressEvery > 0 {
		cfg.ProgressEvery = *fc.ProgressEvery
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = parseLogLevel(*fc.LogLevel)
	}

	if c := fc.Columns; c != nil {
		if len(c.FamilyName) > 0 {
			cfg.Columns.FamilyName = c.FamilyName
		}
		if len(c.GivenName) > 0 {
			cfg.Columns.GivenName = c.GivenName
		}
		if len(c.Email) > 0 {
			cfg.Columns.Email = c.Email
		}
		if len(c.Phone) > 0 {
			cfg.Columns.Phone = c.Phone
		}
	}

	if db := fc.SurrealDB; db != nil {
		setString(&cfg.SurrealDBURL, db.URL)
		setString(&cfg.SurrealDBNamespace, db.Namespace)
		setString(&cfg.SurrealDBDatabase, db.Database)
		setString(&cfg.SurrealDBUser, db.User)
		setString(&cfg.SurrealDBPass, db.Pass)
		setString(&cfg.SurrealDBAuthLevel, db.AuthLevel)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseBool(s string, defaultVal bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return b
}

func parseInt(s string, defaultVal int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
