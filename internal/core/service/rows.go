package service

import (
	"fmt"

	"github.com/guillermoBallester/pgreader/internal/core/reader"
)

// CollectRows reads at most maxRows rows of the current result set into
// column-name keyed maps. truncated reports that rows were left unread.
// maxRows <= 0 reads everything.
func CollectRows(r *reader.Reader, maxRows int) (rows []map[string]any, truncated bool, err error) {
	st, err := r.SchemaTable()
	if err != nil {
		return nil, false, err
	}
	names := st.Names()
	values := make([]any, len(names))

	for r.Next() {
		if maxRows > 0 && len(rows) == maxRows {
			truncated = true
			break
		}
		if _, err := r.Values(values); err != nil {
			return nil, false, fmt.Errorf("reading row values: %w", err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = values[i]
		}
		rows = append(rows, row)
	}

	if err := r.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating rows: %w", err)
	}
	return rows, truncated, nil
}
