package settings_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermoBallester/pgreader/internal/adapter/settings"
	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

const validYAML = `
connections:
  - name: sales
    packages:
      - name: billing
        prefix: inv_
      - name: common
        prefix: "*"
  - name: reporting
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse_YAML(t *testing.T) {
	s, err := settings.Parse([]byte(validYAML))
	require.NoError(t, err)
	require.Len(t, s.Entries, 2)

	e, ok := s.Lookup("sales")
	require.True(t, ok)
	assert.Equal(t, []domain.Package{
		{Name: "billing", Prefix: "inv_"},
		{Name: "common", Prefix: "*"},
	}, e.Packages)

	e, ok = s.Lookup("reporting")
	require.True(t, ok)
	assert.Empty(t, e.Packages)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)
}

func TestParse_JSON(t *testing.T) {
	s, err := settings.Parse([]byte(`{"connections": [{"name": "sales", "packages": [{"name": "billing", "prefix": "inv_"}]}]}`))
	require.NoError(t, err)

	e, ok := s.Lookup("sales")
	require.True(t, ok)
	assert.Equal(t, "billing", e.Packages[0].Name)
}

func TestParse_NoSettings(t *testing.T) {
	for _, doc := range []string{"", "   \n", "# comment only\n"} {
		s, err := settings.Parse([]byte(doc))
		require.NoError(t, err)
		assert.Nil(t, s)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "connections: [\n"},
		{"unknown field", "connections:\n  - name: a\n    pkgs: []\n"},
		{"package without prefix", "connections:\n  - name: a\n    packages:\n      - name: billing\n"},
		{"package without name", "connections:\n  - name: a\n    packages:\n      - prefix: x_\n"},
		{"entry without name", "connections:\n  - packages: []\n"},
		{"duplicate entry", "connections:\n  - name: a\n  - name: a\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := settings.Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, domain.ErrMalformedConfig)
		})
	}
}

func TestFileSource(t *testing.T) {
	ctx := context.Background()

	t.Run("reads file", func(t *testing.T) {
		src := settings.NewFileSource(writeFile(t, validYAML))
		s, err := src.Settings(ctx)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Len(t, s.Entries, 2)
	})

	t.Run("missing file means no settings", func(t *testing.T) {
		src := settings.NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"))
		s, err := src.Settings(ctx)
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("empty path means no settings", func(t *testing.T) {
		s, err := settings.NewFileSource("").Settings(ctx)
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("malformed file", func(t *testing.T) {
		src := settings.NewFileSource(writeFile(t, "connections:\n  - name: a\n    packages:\n      - name: x\n"))
		_, err := src.Settings(ctx)
		assert.ErrorIs(t, err, domain.ErrMalformedConfig)
	})
}

func TestStatic(t *testing.T) {
	snapshot := &port.ConnectionSettings{Entries: []port.ConnectionEntry{{Name: "a"}}}
	s, err := settings.NewStatic(snapshot).Settings(context.Background())
	require.NoError(t, err)
	assert.Same(t, snapshot, s)

	s, err = settings.NewStatic(nil).Settings(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}
