package main

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/guillermoBallester/pgreader/internal/core/port"
	"github.com/guillermoBallester/pgreader/internal/core/reader"
	"github.com/guillermoBallester/pgreader/internal/core/service"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

var (
	colorHeader = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"}

	styleHeader = lipgloss.NewStyle().Foreground(colorHeader).Bold(true).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleNull   = lipgloss.NewStyle().Foreground(colorDim).Italic(true).Padding(0, 1)
	styleBorder = lipgloss.NewStyle().Foreground(colorDim)
	styleMeta   = lipgloss.NewStyle().Foreground(colorDim)
)

type resultSet struct {
	Columns      []string         `json:"columns"`
	Rows         []map[string]any `json:"rows"`
	Truncated    bool             `json:"truncated,omitempty"`
	RowsAffected int64            `json:"rows_affected"`
}

// collect reads the current result set, or every result set when all is set.
func collect(r *reader.Reader, maxRows int, all bool) ([]resultSet, error) {
	var sets []resultSet
	for {
		st, err := r.SchemaTable()
		if err != nil {
			return nil, err
		}
		rows, truncated, err := service.CollectRows(r, maxRows)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			for k, v := range row {
				if id, ok := v.([16]byte); ok {
					row[k] = uuid.UUID(id)
				}
			}
		}
		sets = append(sets, resultSet{
			Columns:      st.Names(),
			Rows:         rows,
			Truncated:    truncated,
			RowsAffected: r.RowsAffected(),
		})
		if !all || !r.NextResultSet() {
			break
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

func render(w io.Writer, format string, sets []resultSet) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(sets) == 1 {
			return enc.Encode(sets[0])
		}
		return enc.Encode(sets)
	case outputTable:
		for i, set := range sets {
			if i > 0 {
				fmt.Fprintln(w)
			}
			renderSet(w, set)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderSet(w io.Writer, set resultSet) {
	if len(set.Columns) == 0 {
		fmt.Fprintln(w, styleMeta.Render(fmt.Sprintf("%d rows affected", set.RowsAffected)))
		return
	}

	nulls := make(map[[2]int]bool)
	rows := make([][]string, len(set.Rows))
	for i, row := range set.Rows {
		cells := make([]string, len(set.Columns))
		for j, name := range set.Columns {
			v := row[name]
			if v == nil {
				nulls[[2]int{i, j}] = true
			}
			cells[j] = formatValue(v)
		}
		rows[i] = cells
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(set.Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case nulls[[2]int{row, col}]:
				return styleNull
			default:
				return styleCell
			}
		})
	fmt.Fprintln(w, t.Render())

	footer := fmt.Sprintf("(%d rows)", len(set.Rows))
	if set.Truncated {
		footer = fmt.Sprintf("(first %d rows, more available)", len(set.Rows))
	}
	fmt.Fprintln(w, styleMeta.Render(footer))
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return fmt.Sprintf("\\x%x", v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return v.String()
	case fmt.Stringer:
		return v.String()
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		return formatValue(dv)
	default:
		return fmt.Sprint(v)
	}
}

func renderColumns(w io.Writer, format string, st port.SchemaTable) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	rows := make([][]string, len(st))
	for i, c := range st {
		rows[i] = []string{
			strconv.Itoa(c.Ordinal),
			c.Name,
			c.DataTypeName,
			strconv.FormatUint(uint64(c.ProviderType), 10),
			c.FieldType.String(),
			c.Nullable.String(),
			optional(c.Length),
			optional(c.Precision),
			optional(c.Scale),
		}
	}
	t := newTable("#", "name", "type", "oid", "go type", "nullable", "length", "precision", "scale").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
	return nil
}

func optional(n int64) string {
	if n < 0 {
		return "-"
	}
	return strconv.FormatInt(n, 10)
}
