// Package settings reads per-connection package settings from YAML or JSON
// documents.
package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
	"github.com/guillermoBallester/pgreader/internal/core/port"
)

// FileSource reads settings from a file on every call, so edits are picked
// up without a restart. A missing file means no settings.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Settings(_ context.Context) (*port.ConnectionSettings, error) {
	if s.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	settings, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("settings file %s: %w", s.path, err)
	}
	return settings, nil
}

type document struct {
	Connections *[]port.ConnectionEntry `yaml:"connections"`
}

// Parse decodes a settings document. A document without a connections
// section yields (nil, nil); anything that does not decode or validate wraps
// domain.ErrMalformedConfig.
func Parse(data []byte) (*port.ConnectionSettings, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedConfig, err)
	}
	if doc.Connections == nil {
		return nil, nil
	}

	settings := &port.ConnectionSettings{Entries: *doc.Connections}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Static serves a fixed snapshot. A nil snapshot means no settings.
type Static struct {
	settings *port.ConnectionSettings
}

func NewStatic(settings *port.ConnectionSettings) *Static {
	return &Static{settings: settings}
}

func (s *Static) Settings(_ context.Context) (*port.ConnectionSettings, error) {
	return s.settings, nil
}
