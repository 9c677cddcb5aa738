// Package fragment persists class records as YAML fragment files and merges
// fragment trees back into one document per class.
package fragment

import (
	"fmt"
	"sort"
)

// Field names every fragment document may carry at the top level.
const (
	FieldName      = "Name"
	FieldNamespace = "Namespace"
	FieldType      = "Type"
)

// Document is a decoded fragment: a plain tree of maps, slices and scalars.
type Document map[string]any

// Name returns the declared class name, or "".
func (d Document) Name() string { return d.str(FieldName) }

// Namespace returns the declared namespace, or "".
func (d Document) Namespace() string { return d.str(FieldNamespace) }

// Type returns the declared record type, or "".
func (d Document) Type() string { return d.str(FieldType) }

func (d Document) str(key string) string {
	s, _ := d[key].(string)
	return s
}

// Keys returns the top-level keys in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalize converts maps with non-string keys, as yaml.v3 produces for
// mappings keyed by numbers or booleans, into string-keyed maps at every
// depth.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = normalize(child)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[fmt.Sprint(k)] = normalize(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = normalize(child)
		}
		return out
	default:
		return v
	}
}
