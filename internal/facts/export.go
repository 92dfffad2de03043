// internal/facts/export.go
package facts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholder returns the template macro the report renderer substitutes
// for key, e.g. "hpcc-hpl" -> "@@HPCC-HPL@@".
func Placeholder(key string) string {
	return "@@" + strings.ToUpper(key) + "@@"
}

// WriteYAML encodes the facts as a flat YAML mapping with sorted keys.
func (s *Store) WriteYAML(w io.Writer) error {
	var node yaml.Node
	node.Kind = yaml.MappingNode
	for _, k := range s.Keys() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.m[k]},
		)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("could not encode facts: %w", err)
	}
	return enc.Close()
}

// WriteJSON encodes the facts as an indented JSON object.
func (s *Store) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.m)
}

// SaveFile writes the facts to path, choosing JSON for a .json extension
// and YAML otherwise.
func (s *Store) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create facts file: %w", err)
	}
	defer f.Close()
	if strings.HasSuffix(path, ".json") {
		err = s.WriteJSON(f)
	} else {
		err = s.WriteYAML(f)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// LoadFile reads a facts file written by SaveFile. YAML is a superset of
// JSON, so a single decoder handles both.
func LoadFile(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read facts file: %w", err)
	}
	m := map[string]string{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("could not parse facts file %s: %w", path, err)
	}
	return FromMap(m), nil
}
