package rates

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTables reads a YAML rate table file. The file replaces the built-in
// tables entirely, so it must describe every province.
func LoadTables(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate tables: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return LoadTablesFromReader(f)
}

// LoadTablesFromReader decodes and validates YAML rate tables.
func LoadTablesFromReader(r io.Reader) (*Tables, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate tables: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("rate tables are empty")
	}

	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse rate tables: %w", err)
	}
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &tables, nil
}

// EncodeYAML serializes the tables for export.
func (t *Tables) EncodeYAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("failed to encode rate tables: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode rate tables: %w", err)
	}
	return buf.Bytes(), nil
}

// Resolve returns the tables at path, or the built-in tables when path is
// empty.
func Resolve(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadTables(path)
}
