package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"
)

//go:embed labels.yaml
var embeddedLabels []byte

// CategoryLabelMap maps a raw code of a closed-vocabulary column to its
// human-readable label.
type CategoryLabelMap map[string]string

// Label returns the label for code.
func (m CategoryLabelMap) Label(code string) (string, bool) {
	label, ok := m[code]
	return label, ok
}

// Labels returns the distinct labels in sorted order.
func (m CategoryLabelMap) Labels() []string {
	seen := make(map[string]bool, len(m))
	labels := make([]string, 0, len(m))
	for _, l := range m {
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	sort.Strings(labels)
	return labels
}

// LabelTable is the static code-definitions reference: named dictionaries
// plus the binding of feed columns to dictionaries.
type LabelTable struct {
	Dictionaries map[string]CategoryLabelMap `yaml:"dictionaries"`
	Columns      map[string]string           `yaml:"columns"`
}

// ForColumn returns the label map bound to a feed column.
func (t *LabelTable) ForColumn(column string) (CategoryLabelMap, bool) {
	name, ok := t.Columns[column]
	if !ok {
		return nil, false
	}
	m, ok := t.Dictionaries[name]
	return m, ok
}

// ParseLabels decodes a YAML label table and checks that every column is
// bound to a non-empty dictionary.
func ParseLabels(data []byte) (*LabelTable, error) {
	var table LabelTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse label table: %w", err)
	}
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("label table binds no columns")
	}
	for column, dict := range table.Columns {
		m, ok := table.Dictionaries[dict]
		if !ok {
			return nil, fmt.Errorf("column %s references unknown dictionary %q", column, dict)
		}
		if len(m) == 0 {
			return nil, fmt.Errorf("dictionary %q for column %s is empty", dict, column)
		}
	}
	return &table, nil
}

var defaultLabels = sync.OnceValues(func() (*LabelTable, error) {
	return ParseLabels(embeddedLabels)
})

// DefaultLabels returns the embedded label table. It is parsed once per
// process and must be treated as read-only.
func DefaultLabels() (*LabelTable, error) {
	return defaultLabels()
}

// LoadLabels reads a label table from path, or returns the embedded table
// when path is empty.
func LoadLabels(path string) (*LabelTable, error) {
	if path == "" {
		return DefaultLabels()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label table %s: %w", path, err)
	}
	return ParseLabels(data)
}
