package domain

import (
	"fmt"
	"strings"
)

// AllProcedures is the package prefix that routes every procedure.
const AllProcedures = "*"

// Package is a named group of server-side procedures. Procedures whose name
// starts with Prefix are called through the package (a PostgreSQL schema).
type Package struct {
	Name   string `json:"name" yaml:"name"`
	Prefix string `json:"prefix" yaml:"prefix"`
}

// Validate reports a malformed descriptor.
func (p Package) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: package name is empty", ErrMalformedConfig)
	}
	if p.Prefix == "" {
		return fmt.Errorf("%w: package %q has no prefix", ErrMalformedConfig, p.Name)
	}
	return nil
}

// Matches reports whether the procedure routes through this package.
func (p Package) Matches(procedure string) bool {
	return p.Prefix == AllProcedures || strings.HasPrefix(procedure, p.Prefix)
}

// Packages is an ordered package list. Order decides which prefix wins.
type Packages []Package

// Lookup returns the first package routing procedure.
func (ps Packages) Lookup(procedure string) (Package, bool) {
	if procedure == "" {
		return Package{}, false
	}
	for _, p := range ps {
		if p.Matches(procedure) {
			return p, true
		}
	}
	return Package{}, false
}

// Translate qualifies procedure with the name of the first matching package.
// Unmatched procedures are returned unchanged.
func (ps Packages) Translate(procedure string) string {
	p, ok := ps.Lookup(procedure)
	if !ok {
		return procedure
	}
	return p.Name + "." + procedure
}
