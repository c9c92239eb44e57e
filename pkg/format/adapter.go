// CLAUDE:SUMMARY Format adapter registry: dispatches an uploaded file to the CSV, JSON, script, YAML or XLSX parser by extension.
package format

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hazyhaar/healthdash/pkg/record"
)

// Adapter turns the bytes of one file format into generic records.
type Adapter interface {
	// ID returns the unique identifier of this format (e.g. "csv").
	ID() string
	// Extensions lists the lowercase file extensions handled, dot included.
	Extensions() []string
	// Description returns a human-readable description.
	Description() string
	// Parse decodes a whole file. It never evaluates code contained in the input.
	Parse(data []byte) (*Result, error)
}

// Result is the output of a successful parse. Zero records is not an error.
type Result struct {
	Format    string         `json:"format"`
	Records   []record.Value `json:"records"`
	Anomalies []Anomaly      `json:"anomalies,omitempty"`
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// ForFile picks the adapter for a file name by its extension, ignoring case.
func ForFile(name string) (Adapter, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		for _, a := range All() {
			for _, e := range a.Extensions() {
				if e == ext {
					return a, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Parse decodes data according to the extension of name. Every failure is a
// *ParseError.
func Parse(name string, data []byte) (*Result, error) {
	a, err := ForFile(name)
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	res, err := a.Parse(data)
	if err != nil {
		return nil, &ParseError{Format: a.ID(), File: name, Err: err}
	}
	res.Format = a.ID()
	return res, nil
}
