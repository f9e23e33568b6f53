package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"hookchat/storage"
)

// YAMLExporter exports sessions in YAML format. Audio payloads are omitted.
type YAMLExporter struct{}

func (e *YAMLExporter) Export(session *storage.Session, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(session)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
