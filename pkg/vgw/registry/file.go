package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses the registry document at path. YAML and JSON
// are both accepted: the file is first decoded generically with yaml.v3
// (a superset parser of JSON), then re-marshaled through encoding/json so
// Document's "json" struct tags (camelCase field names, matching the
// registry document shape in spec) apply regardless of source format.
func LoadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry document %q: %w", path, err)
	}

	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse registry document %q: %w", path, err)
	}

	normalized, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("normalize registry document %q: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("decode registry document %q: %w", path, err)
	}
	return &doc, nil
}
