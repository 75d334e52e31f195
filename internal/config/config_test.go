package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
)

const testURL = "postgres://u:p@localhost:5432/app"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", testURL)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testURL, cfg.DatabaseURL)
	assert.Equal(t, "default", cfg.DatabaseName)
	assert.Equal(t, SourceNone, cfg.SettingsSource)
	assert.Equal(t, domain.MatchExactThenFold, cfg.NameMatching)
	assert.True(t, cfg.ReadOnly)
	assert.Equal(t, 100, cfg.MaxRows)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, FormatText, cfg.LogFormat)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_SettingsFileImpliesFileSource(t *testing.T) {
	t.Setenv("DATABASE_URL", testURL)
	t.Setenv("SETTINGS_FILE", "/etc/pgreader/settings.yaml")
	t.Setenv("DATABASE_NAME", " sales ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceFile, cfg.SettingsSource)
	assert.Equal(t, "/etc/pgreader/settings.yaml", cfg.SettingsFile)
	assert.Equal(t, "sales", cfg.DatabaseName)
}

func TestLoad_FileSourceNeedsFile(t *testing.T) {
	t.Setenv("DATABASE_URL", testURL)
	t.Setenv("SETTINGS_SOURCE", "file")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SETTINGS_FILE")
}

func TestLoad_StoreSource(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SETTINGS_SOURCE", "store")
	t.Setenv("STORE_URL", "postgres://store/meta")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPTION_KEY")

	t.Setenv("ENCRYPTION_KEY", "00")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SourceStore, cfg.SettingsSource)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "postgres://store/meta", cfg.StoreURL)
}

func TestLoad_StoreURLDefaultsToDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", testURL)
	t.Setenv("SETTINGS_SOURCE", "STORE")
	t.Setenv("ENCRYPTION_KEY", "00")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, testURL, cfg.StoreURL)
}

func TestLoad_AuditStatements(t *testing.T) {
	t.Setenv("DATABASE_URL", testURL)
	t.Setenv("SETTINGS_SOURCE", "store")
	t.Setenv("ENCRYPTION_KEY", "00")
	t.Setenv("AUDIT_STATEMENTS", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AuditStatements)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", testURL)
	t.Setenv("COLUMN_NAME_MATCHING", "exact")
	t.Setenv("READ_ONLY", "false")
	t.Setenv("MAX_ROWS", "5")
	t.Setenv("QUERY_TIMEOUT", "2s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.MatchExact, cfg.NameMatching)
	assert.False(t, cfg.ReadOnly)
	assert.Equal(t, 5, cfg.MaxRows)
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, FormatJSON, cfg.LogFormat)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		env, value string
	}{
		{"SETTINGS_SOURCE", "etcd"},
		{"COLUMN_NAME_MATCHING", "fuzzy"},
		{"READ_ONLY", "maybe"},
		{"MAX_ROWS", "0"},
		{"MAX_ROWS", "many"},
		{"QUERY_TIMEOUT", "soon"},
		{"LOG_LEVEL", "bogus"},
		{"LOG_FORMAT", "xml"},
		{"AUDIT_STATEMENTS", "maybe"},
		{"AUDIT_STATEMENTS", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv("DATABASE_URL", testURL)
			t.Setenv(tt.env, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}
