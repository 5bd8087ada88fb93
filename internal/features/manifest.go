package features

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Manifest describes the restock model inputs: the ordered numerical columns
// (indicator columns included), the raw categorical columns, the name of the
// category id column and the fitted level vocabulary.
type Manifest struct {
	Numerical     []string            `json:"numerical"`
	Categorical   []string            `json:"categorical"`
	CategoryIDCol string              `json:"category_id_col"`
	Vocabulary    map[string][]string `json:"vocabulary,omitempty"`
}

// Schema returns the encoding schema the manifest defines.
func (m Manifest) Schema() *Schema {
	return NewSchema(m.Numerical, m.Categorical, m.Vocabulary)
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if err := readJSON(path, &m); err != nil {
		return nil, err
	}
	if len(m.Numerical) == 0 {
		return nil, fmt.Errorf("manifest %s: no numerical columns", path)
	}
	return &m, nil
}

// LoadColumns reads a plain JSON array of feature names.
func LoadColumns(path string) ([]string, error) {
	var cols []string
	if err := readJSON(path, &cols); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("feature list %s is empty", path)
	}
	return cols, nil
}

// WriteManifest stores m as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
