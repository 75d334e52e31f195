package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
)

// Settings sources.
const (
	SourceNone  = "none"
	SourceFile  = "file"
	SourceStore = "store"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	DatabaseURL     string
	DatabaseName    string
	SettingsSource  string
	SettingsFile    string
	StoreURL        string
	EncryptionKey   string
	AuditStatements bool
	NameMatching    domain.NameMatching
	ReadOnly        bool
	MaxRows         int
	QueryTimeout    time.Duration
	LogLevel        slog.Level
	LogFormat       string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DatabaseName:  "default",
		SettingsFile:  os.Getenv("SETTINGS_FILE"),
		StoreURL:      os.Getenv("STORE_URL"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		ReadOnly:      true,
		MaxRows:       100,
		QueryTimeout:  10 * time.Second,
		LogFormat:     FormatText,
	}

	if v := strings.TrimSpace(os.Getenv("DATABASE_NAME")); v != "" {
		cfg.DatabaseName = v
	}

	cfg.SettingsSource = SourceNone
	if cfg.SettingsFile != "" {
		cfg.SettingsSource = SourceFile
	}
	if v := os.Getenv("SETTINGS_SOURCE"); v != "" {
		switch s := strings.ToLower(strings.TrimSpace(v)); s {
		case SourceNone, SourceFile, SourceStore:
			cfg.SettingsSource = s
		default:
			return nil, fmt.Errorf("invalid SETTINGS_SOURCE value %q: must be none, file, or store", v)
		}
	}

	switch cfg.SettingsSource {
	case SourceFile:
		if cfg.SettingsFile == "" {
			return nil, fmt.Errorf("SETTINGS_FILE environment variable is required when SETTINGS_SOURCE is file")
		}
	case SourceStore:
		if cfg.StoreURL == "" {
			cfg.StoreURL = cfg.DatabaseURL
		}
		if cfg.StoreURL == "" {
			return nil, fmt.Errorf("STORE_URL or DATABASE_URL environment variable is required when SETTINGS_SOURCE is store")
		}
		if cfg.EncryptionKey == "" {
			return nil, fmt.Errorf("ENCRYPTION_KEY environment variable is required when SETTINGS_SOURCE is store")
		}
	}

	// With a store, the connection string may come from the store instead.
	if cfg.DatabaseURL == "" && cfg.SettingsSource != SourceStore {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if v := os.Getenv("AUDIT_STATEMENTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUDIT_STATEMENTS value %q: %w", v, err)
		}
		if b && cfg.SettingsSource != SourceStore {
			return nil, fmt.Errorf("AUDIT_STATEMENTS requires SETTINGS_SOURCE=store")
		}
		cfg.AuditStatements = b
	}

	if v := os.Getenv("COLUMN_NAME_MATCHING"); v != "" {
		m, err := domain.ParseNameMatching(v)
		if err != nil {
			return nil, fmt.Errorf("invalid COLUMN_NAME_MATCHING value %q: %w", v, err)
		}
		cfg.NameMatching = m
	}

	if v := os.Getenv("READ_ONLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid READ_ONLY value %q: %w", v, err)
		}
		cfg.ReadOnly = b
	}

	if v := os.Getenv("MAX_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_ROWS value %q: must be a positive integer", v)
		}
		cfg.MaxRows = n
	}

	if v := os.Getenv("QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid QUERY_TIMEOUT value %q: %w", v, err)
		}
		cfg.QueryTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := ParseLogLevel(v)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch f := strings.ToLower(strings.TrimSpace(v)); f {
		case FormatText, FormatJSON:
			cfg.LogFormat = f
		default:
			return nil, fmt.Errorf("invalid LOG_FORMAT value %q: must be text or json", v)
		}
	}

	return cfg, nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
