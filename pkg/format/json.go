package format

import (
	"fmt"

	"github.com/hazyhaar/healthdash/pkg/record"
)

func init() {
	Register(&jsonAdapter{})
}

type jsonAdapter struct{}

func (a *jsonAdapter) ID() string           { return "json" }
func (a *jsonAdapter) Extensions() []string { return []string{".json"} }
func (a *jsonAdapter) Description() string  { return "JSON array of records, or an object holding one" }

func (a *jsonAdapter) Parse(data []byte) (*Result, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	v, err := record.DecodeJSON(text)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	items, err := arrayData(v)
	if err != nil {
		return nil, err
	}
	return &Result{Records: items}, nil
}

// arrayData returns the records of a decoded document: a top-level array as is,
// or the first array-valued key of a top-level object in document order.
func arrayData(v record.Value) ([]record.Value, error) {
	if items, ok := v.AsArray(); ok {
		return items, nil
	}
	var found []record.Value
	if obj, ok := v.AsObject(); ok {
		obj.Each(func(_ string, item record.Value) bool {
			items, ok := item.AsArray()
			if ok {
				found = items
			}
			return !ok
		})
		if found != nil {
			return found, nil
		}
	}
	return nil, ErrNoArrayData
}
