package mapping

import (
	"fmt"
	"os"
	"sort"

	"github.com/hazyhaar/healthdash/pkg/schema"
	"gopkg.in/yaml.v3"
)

// FileVersion is the mapping file layout written by WriteFile.
const FileVersion = 1

// File is a reviewed mapping saved as YAML so it can be reused on the next
// export of the same device.
type File struct {
	Version      int     `yaml:"version"`
	SourceFormat string  `yaml:"source_format,omitempty"`
	Fields       Mapping `yaml:"fields"`
}

// MarshalYAML writes canonical paths in schema order, unset ones as NotMapped
// so a reviewer sees every gap, followed by extra keys sorted.
func (m Mapping) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(k, v string) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: v})
	}
	for _, p := range schema.RequiredPaths() {
		src, ok := m.Source(p)
		if !ok {
			src = NotMapped
		}
		add(p, src)
	}
	var extra []string
	for k := range m {
		if !schema.IsRequired(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		add(k, m[k])
	}
	return node, nil
}

// LoadFile reads and parses a mapping file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	if f.Version == 0 {
		f.Version = FileVersion
	}
	if f.Version != FileVersion {
		return nil, fmt.Errorf("mapping %s: unsupported version %d", path, f.Version)
	}
	if f.Fields == nil {
		f.Fields = Mapping{}
	}
	return &f, nil
}

// WriteFile saves f as YAML at path.
func WriteFile(path string, f *File) error {
	out := *f
	if out.Version == 0 {
		out.Version = FileVersion
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
