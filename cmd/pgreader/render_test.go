package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillermoBallester/pgreader/internal/core/domain"
)

func TestFormatValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var num pgtype.Numeric
	require.NoError(t, num.Scan("12.50"))

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"string", "alpha", "alpha"},
		{"bytes", []byte{0x01, 0xab}, `\x01ab`},
		{"uuid", id, id.String()},
		{"time", ts, "2024-03-01T12:00:00Z"},
		{"decimal", decimal.RequireFromString("9.99"), "9.99"},
		{"numeric", num, "12.50"},
		{"null numeric", pgtype.Numeric{}, "NULL"},
		{"int", int64(42), "42"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func TestParsePackages(t *testing.T) {
	pkgs, err := parsePackages([]string{"billing:inv_", "common:*", "billing:inv_"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Package{
		{Name: "billing", Prefix: "inv_"},
		{Name: "common", Prefix: "*"},
		{Name: "billing", Prefix: "inv_"},
	}, pkgs)

	_, err = parsePackages([]string{"billing"})
	assert.ErrorIs(t, err, domain.ErrMalformedConfig)
}

func TestRender(t *testing.T) {
	sets := []resultSet{{
		Columns:      []string{"id", "name"},
		Rows:         []map[string]any{{"id": int64(1), "name": nil}},
		Truncated:    true,
		RowsAffected: -1,
	}}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, outputJSON, sets))
	assert.JSONEq(t, `{"columns":["id","name"],"rows":[{"id":1,"name":null}],"truncated":true,"rows_affected":-1}`, buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, outputTable, sets))
	assert.Contains(t, buf.String(), "NULL")
	assert.Contains(t, buf.String(), "more available")

	assert.Error(t, render(&buf, "xml", sets))
}
