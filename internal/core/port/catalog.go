package port

import (
	"context"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
)

type SchemaInfo struct {
	Name string `json:"name"`
}

// ProcedureInfo describes a server-side function reachable through a package.
type ProcedureInfo struct {
	Package   string `json:"package"`
	Schema    string `json:"schema"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Arguments string `json:"arguments"`
	Result    string `json:"result,omitempty"`
}

// Catalog reads procedure metadata from the server.
type Catalog interface {
	ListSchemas(ctx context.Context) ([]SchemaInfo, error)
	// PackageProcedures lists the procedures each package routes, in package
	// order. A procedure appears under the first package whose prefix matches.
	PackageProcedures(ctx context.Context, packages domain.Packages) ([]ProcedureInfo, error)
}
