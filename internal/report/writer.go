package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// Writer persists rendered reports under a base directory, one
// subdirectory per run. Writes are atomic so a crash never leaves a
// half-written report behind.
type Writer struct {
	baseDir string
}

// NewWriter creates a writer rooted at baseDir.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Write stores the markdown and JSON forms of the report and returns
// the path of the markdown file.
func (w *Writer) Write(r *core.TerminalReport) (string, error) {
	dir := filepath.Join(w.baseDir, string(r.RunID))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	mdPath := filepath.Join(dir, "report.md")
	if err := atomicWriteFile(mdPath, []byte(RenderMarkdown(r)), 0o644); err != nil {
		return "", fmt.Errorf("writing markdown report: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	if err := atomicWriteFile(filepath.Join(dir, "report.json"), data, 0o644); err != nil {
		return "", fmt.Errorf("writing json report: %w", err)
	}

	return mdPath, nil
}
