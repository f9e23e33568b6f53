// Package export writes chat sessions to files in several formats.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"hookchat/storage"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(session *storage.Session, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml, md)", format)
	}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename suggests a file name for a session export.
func Filename(session *storage.Session, exp Exporter) string {
	title := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(session.Title), "-"), "-")
	if title == "" {
		title = "session"
	}
	id := session.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s.%s", title, id, exp.Extension())
}

// ToFile writes the export to path, creating parent directories.
func ToFile(session *storage.Session, exp Exporter, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := exp.Export(session, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to export session: %w", err)
	}
	return f.Close()
}
