package fragment

import (
	"fmt"
	"strings"
)

// maxMergeDepth bounds recursion. Below it, incoming values replace existing
// ones instead of being merged.
const maxMergeDepth = 64

// Identity selects the key fragments are grouped by.
type Identity string

const (
	// IdentityName groups fragments by Name alone. Classes that share a name
	// in different namespaces collapse into one record.
	IdentityName Identity = "name"

	// IdentityQualified groups fragments by Namespace and Name.
	IdentityQualified Identity = "qualified"
)

// ParseIdentity converts a config value into an Identity. Empty means
// IdentityName.
func ParseIdentity(s string) (Identity, error) {
	switch Identity(strings.ToLower(strings.TrimSpace(s))) {
	case "", IdentityName:
		return IdentityName, nil
	case IdentityQualified:
		return IdentityQualified, nil
	default:
		return "", fmt.Errorf("unknown merge identity %q (want %q or %q)", s, IdentityName, IdentityQualified)
	}
}

// Key returns the grouping key of doc under this identity.
func (id Identity) Key(doc Document) string {
	if id == IdentityQualified && doc.Namespace() != "" {
		return doc.Namespace() + "." + doc.Name()
	}
	return doc.Name()
}

// Merge deep-merges incoming into base and returns the result. Neither input
// is modified. Where both sides hold a map the maps merge key by key; any
// other incoming value, slices included, replaces the existing one. Keys only
// present in base are kept.
func Merge(base, incoming Document) Document {
	merged := mergeMaps(base, incoming, 0)
	return Document(merged)
}

func mergeMaps(base, incoming map[string]any, depth int) map[string]any {
	out := make(map[string]any, len(base)+len(incoming))
	for k, v := range base {
		out[k] = clone(v)
	}
	for k, in := range incoming {
		existing, ok := out[k].(map[string]any)
		incomingMap, isMap := in.(map[string]any)
		if ok && isMap && depth < maxMergeDepth {
			out[k] = mergeMaps(existing, incomingMap, depth+1)
			continue
		}
		out[k] = clone(in)
	}
	return out
}

func clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = clone(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = clone(child)
		}
		return out
	default:
		return v
	}
}
