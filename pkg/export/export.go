// Package export renders tables and writes them to a storage backend
// (local filesystem or S3).
package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/stepframe/stepframe/pkg/table"
)

// Writer persists a rendered table under a name and returns the
// location it was written to.
type Writer interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// Render serializes a table in the given format: csv, markdown, json or
// yaml.
func Render(t *table.Table, format string) ([]byte, error) {
	var buf bytes.Buffer

	var err error

	switch format {
	case "csv":
		err = t.WriteCSV(&buf)
	case "markdown":
		err = t.WriteMarkdown(&buf)
	case "json":
		err = t.WriteJSON(&buf)
	case "yaml":
		err = t.WriteYAML(&buf)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}

	if err != nil {
		return nil, fmt.Errorf("rendering table as %s: %w", format, err)
	}

	return buf.Bytes(), nil
}

// Extension returns the file extension for a rendering format, without
// the leading dot.
func Extension(format string) string {
	if format == "markdown" {
		return "md"
	}

	return format
}
