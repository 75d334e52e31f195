package port

import (
	"context"
	"fmt"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
)

// ConnectionEntry binds a logical database name to its packages.
type ConnectionEntry struct {
	Name     string           `json:"name" yaml:"name"`
	Packages []domain.Package `json:"packages" yaml:"packages"`
}

// Validate reports a structurally invalid entry.
func (e ConnectionEntry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: connection entry has no name", domain.ErrMalformedConfig)
	}
	for i, p := range e.Packages {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("connection %q package %d: %w", e.Name, i, err)
		}
	}
	return nil
}

// ConnectionSettings is an immutable snapshot of per-connection settings.
type ConnectionSettings struct {
	Entries []ConnectionEntry `json:"connections" yaml:"connections"`
}

// Lookup returns the entry named name.
func (s *ConnectionSettings) Lookup(name string) (*ConnectionEntry, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Entries {
		if s.Entries[i].Name == name {
			return &s.Entries[i], true
		}
	}
	return nil, false
}

// Validate checks every entry and rejects duplicate names.
func (s *ConnectionSettings) Validate() error {
	seen := make(map[string]struct{}, len(s.Entries))
	for _, e := range s.Entries {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("%w: duplicate connection entry %q", domain.ErrMalformedConfig, e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return nil
}

// ConfigurationSource provides connection settings.
type ConfigurationSource interface {
	// Settings returns (nil, nil) when the source has no connection settings.
	// Settings that exist but cannot be read wrap domain.ErrMalformedConfig.
	Settings(ctx context.Context) (*ConnectionSettings, error)
}

// ConnectionRepository stores encrypted connection strings by logical name.
type ConnectionRepository interface {
	// GetConnection returns (nil, nil) when name is unknown.
	GetConnection(ctx context.Context, name string) (*ConnectionRecord, error)
	SaveConnection(ctx context.Context, name string, encrypted []byte) error
}

// ConnectionRecord is a stored connection string.
type ConnectionRecord struct {
	Name                   string
	EncryptedConnectionURL []byte
}
