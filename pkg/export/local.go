package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stepframe/stepframe/pkg/config"
)

// Compile-time interface check.
var _ Writer = (*localWriter)(nil)

type localWriter struct {
	dir string
}

// NewLocalWriter creates a Writer that stores files under the configured
// directory.
func NewLocalWriter(cfg *config.LocalExportConfig) Writer {
	return &localWriter{dir: cfg.Dir}
}

// Write stores data under {dir}/{name}, creating the directory when
// needed, and returns the written path.
func (w *localWriter) Write(
	_ context.Context, name string, data []byte,
) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	p := filepath.Join(w.dir, name)

	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", p, err)
	}

	return p, nil
}
