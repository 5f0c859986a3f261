package loader

import (
	"bytes"
	"errors"
	"io"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// decodeYAML parses a YAML graph document. Unknown fields are rejected so
// typos like "input:" fail loudly.
func decodeYAML(data []byte) (*documentSpec, error) {
	var spec documentSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newError(ErrCodeSchema, token.NoPos, "empty document")
		}
		return nil, newError(ErrCodeParseFailed, token.NoPos, "failed to parse YAML: %v", err)
	}
	return &spec, nil
}
