package export

import (
	"encoding/json"
	"io"

	"hookchat/storage"
)

// JSONExporter writes the session in its on-disk JSON shape.
type JSONExporter struct{}

func (e *JSONExporter) Export(session *storage.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(session)
}

func (e *JSONExporter) Extension() string {
	return "json"
}
