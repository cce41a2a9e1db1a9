// Package config loads service settings from the environment, an optional
// .env file, and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/Skufu/medsafe/internal/kb"
)

const (
	SinkCSV      = "csv"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
	SinkNone     = "none"
)

type Config struct {
	Port           string
	GinMode        string
	KBDir          string
	KBFiles        []string
	SeverityPolicy string
	AuditSink      string
	AuditPath      string
	DatabaseURL    string
	EnableDB       bool
	LogLevel       string
	LogFormat      string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:           v.GetString("port"),
		GinMode:        v.GetString("gin_mode"),
		KBDir:          v.GetString("kb_dir"),
		KBFiles:        splitList(v.GetString("kb_files")),
		SeverityPolicy: v.GetString("severity_policy"),
		AuditSink:      strings.ToLower(v.GetString("audit_sink")),
		AuditPath:      v.GetString("audit_path"),
		DatabaseURL:    v.GetString("database_url"),
		EnableDB:       v.GetBool("enable_db"),
		LogLevel:       strings.ToLower(v.GetString("log_level")),
		LogFormat:      strings.ToLower(v.GetString("log_format")),
	}
	if len(cfg.KBFiles) == 0 {
		cfg.KBFiles = append([]string(nil), kb.DefaultFiles...)
	}
	if cfg.AuditPath == "" {
		cfg.AuditPath = defaultAuditPath(cfg.AuditSink)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("kb_dir", "kb")
	v.SetDefault("kb_files", "")
	v.SetDefault("severity_policy", "")
	v.SetDefault("audit_sink", SinkCSV)
	v.SetDefault("audit_path", "")
	v.SetDefault("database_url", "")
	v.SetDefault("enable_db", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

func defaultAuditPath(sink string) string {
	switch sink {
	case SinkSQLite:
		return filepath.Join("logs", "audit.db")
	case SinkCSV:
		return filepath.Join("logs", "sessions.csv")
	}
	return ""
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.AuditSink {
	case SinkCSV, SinkSQLite, SinkPostgres, SinkNone:
	default:
		return fmt.Errorf("invalid AUDIT_SINK %q", c.AuditSink)
	}

	if (c.EnableDB || c.AuditSink == SinkPostgres) && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when ENABLE_DB=true or AUDIT_SINK=postgres")
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}
	return nil
}

// UsesDatabase reports whether a Postgres pool must be opened.
func (c *Config) UsesDatabase() bool {
	return c.EnableDB || c.AuditSink == SinkPostgres
}

// NewLogger builds the process logger from the logging settings.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if c.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
