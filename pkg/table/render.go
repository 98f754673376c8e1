package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WriteCSV writes the table as CSV with a header row. Nil cells become
// empty fields.
func (t *Table) WriteCSV(w io.Writer) error {
	if len(t.columns) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	record := make([]string, len(t.columns))

	for _, row := range t.rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteMarkdown writes the table as a markdown pipe table.
func (t *Table) WriteMarkdown(w io.Writer) error {
	if len(t.columns) == 0 {
		return nil
	}

	var sb strings.Builder

	sb.Grow(4096)

	for _, col := range t.columns {
		fmt.Fprintf(&sb, "| %s ", escapeMarkdownCell(col))
	}

	sb.WriteString("|\n")

	for range t.columns {
		sb.WriteString("|---")
	}

	sb.WriteString("|\n")

	for _, row := range t.rows {
		for _, v := range row {
			fmt.Fprintf(&sb, "| %s ", escapeMarkdownCell(formatCell(v)))
		}

		sb.WriteString("|\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing markdown table: %w", err)
	}

	return nil
}

// WriteJSON writes the table as a JSON array of row objects. Nil cells
// are omitted from their row object.
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(t.rowMaps()); err != nil {
		return fmt.Errorf("encoding json rows: %w", err)
	}

	return nil
}

// WriteYAML writes the table as a YAML sequence of row mappings. Nil
// cells are omitted from their row mapping.
func (t *Table) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	if err := enc.Encode(t.rowMaps()); err != nil {
		return fmt.Errorf("encoding yaml rows: %w", err)
	}

	return nil
}

// rowMaps converts rows into sparse column-to-value maps.
func (t *Table) rowMaps() []map[string]any {
	out := make([]map[string]any, len(t.rows))

	for i, row := range t.rows {
		m := make(map[string]any, len(row))

		for j, v := range row {
			if v != nil {
				m[t.columns[j]] = v
			}
		}

		out[i] = m
	}

	return out
}

// formatCell renders a single cell value as text. Nil is the null marker
// and renders empty.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// escapeMarkdownCell keeps pipe characters inside cells from breaking
// the table layout.
func escapeMarkdownCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
