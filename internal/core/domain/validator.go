package domain

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

var (
	ErrEmptyQuery     = errors.New("empty query")
	ErrNotAllowed     = errors.New("only SELECT queries are allowed on a read-only database")
	ErrMultiStatement = errors.New("multiple statements are not allowed")
	ErrSyntax         = errors.New("invalid SQL")
)

// IsValidationError reports whether err is a rejection by StatementValidator.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrNotAllowed) ||
		errors.Is(err, ErrMultiStatement) ||
		errors.Is(err, ErrSyntax)
}

// StatementValidator checks SQL with PostgreSQL's own parser before it reaches
// a connection. Read-only validators accept SELECT and EXPLAIN only.
type StatementValidator struct {
	readOnly bool
}

func NewStatementValidator(readOnly bool) *StatementValidator {
	return &StatementValidator{readOnly: readOnly}
}

// ReadOnly reports whether write statements are rejected.
func (v *StatementValidator) ReadOnly() bool {
	return v.readOnly
}

// Validate accepts exactly one statement.
func (v *StatementValidator) Validate(sql string) error {
	n, err := v.validate(sql)
	if err != nil {
		return err
	}
	if n > 1 {
		return ErrMultiStatement
	}
	return nil
}

// ValidateBatch accepts one or more statements and returns how many there are.
func (v *StatementValidator) ValidateBatch(sql string) (int, error) {
	return v.validate(sql)
}

func (v *StatementValidator) validate(sql string) (int, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return 0, ErrEmptyQuery
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if len(tree.Stmts) == 0 {
		return 0, ErrEmptyQuery
	}

	for _, raw := range tree.Stmts {
		if raw.Stmt == nil {
			return 0, ErrEmptyQuery
		}
		if v.readOnly && !isReadStatement(raw.Stmt) {
			return 0, ErrNotAllowed
		}
	}
	return len(tree.Stmts), nil
}

func isReadStatement(node *pg_query.Node) bool {
	switch node.Node.(type) {
	case *pg_query.Node_SelectStmt, *pg_query.Node_ExplainStmt:
		return true
	default:
		return false
	}
}
