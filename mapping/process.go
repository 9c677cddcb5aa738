package mapping

import (
	"log/slog"
)

// Apply rewrites one value: an exact literal match is replaced first, then
// every pattern runs in table order, each repeated on its own output until
// the value stops changing.
func (r *FieldRules) Apply(value string) string {
	if r == nil {
		return value
	}
	if replaced, ok := r.literals[value]; ok {
		value = replaced
	}
	for _, rule := range r.patterns {
		value = rule.fixedPoint(value)
	}
	return value
}

func (p patternRule) fixedPoint(value string) string {
	for i := 0; i < maxRegexPasses; i++ {
		next := p.replaceFirst(value)
		if next == value {
			return value
		}
		value = next
	}
	slog.Warn("Mapping pattern did not converge", "pattern", p.source, "passes", maxRegexPasses, "value", value)
	return value
}

// replaceFirst substitutes the leftmost match only, expanding group
// references in the replacement.
func (p patternRule) replaceFirst(value string) string {
	loc := p.pattern.FindStringSubmatchIndex(value)
	if loc == nil {
		return value
	}
	var out []byte
	out = append(out, value[:loc[0]]...)
	out = p.pattern.ExpandString(out, p.replacement, value, loc)
	out = append(out, value[loc[1]:]...)
	return string(out)
}

// ProcessData returns a localized copy of a plain document tree. Map values
// are rewritten with the rules of their own key; scalar sequence elements use
// the rules of the key holding the sequence. Map elements of sequences are
// walked recursively. Non-string scalars and unmapped keys pass through. The
// input is not modified.
func ProcessData(node any, table *Table) any {
	return process(node, "", table)
}

func process(node any, key string, table *Table) any {
	switch val := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = process(child, k, table)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = process(child, key, table)
		}
		return out
	case string:
		return table.Rules(key).Apply(val)
	default:
		return val
	}
}
