// Package mapping localizes record field values for a target language
// through ordered substitution tables.
package mapping

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// RegexPrefix marks a table key as a regular expression rather than a
// literal value.
const RegexPrefix = "REGEX:"

// maxRegexPasses caps how often one pattern is re-applied to its own output.
const maxRegexPasses = 100

// patternRule is one REGEX: entry.
type patternRule struct {
	source      string
	pattern     *regexp.Regexp
	replacement string
}

// FieldRules holds the substitutions for one field key. Literal entries are
// exact-match lookups; pattern entries keep their table order.
type FieldRules struct {
	literals map[string]string
	patterns []patternRule
}

// Table maps field keys to their rules.
type Table struct {
	fields map[string]*FieldRules
	order  []string
}

// NewTable creates an empty table. Applying an empty table changes nothing.
func NewTable() *Table {
	return &Table{fields: make(map[string]*FieldRules)}
}

// ParseTable reads a mapping table from a YAML mapping of field key to
// substitution entries. Entry order is preserved.
func ParseTable(node *yaml.Node) (*Table, error) {
	t := NewTable()
	if err := t.UnmarshalYAML(node); err != nil {
		return nil, err
	}
	return t, nil
}

// UnmarshalYAML implements yaml.Unmarshaler so tables can be embedded in
// config documents.
func (t *Table) UnmarshalYAML(node *yaml.Node) error {
	if t.fields == nil {
		t.fields = make(map[string]*FieldRules)
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind == 0 || node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: mappings must be a mapping of field keys", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: mapping for %q must be a mapping", value.Line, key.Value)
		}
		for j := 0; j+1 < len(value.Content); j += 2 {
			from, to := value.Content[j], value.Content[j+1]
			if to.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: replacement for %q must be a scalar", to.Line, from.Value)
			}
			if err := t.Add(key.Value, from.Value, to.Value); err != nil {
				return fmt.Errorf("line %d: %w", from.Line, err)
			}
		}
	}
	return nil
}

// Add appends one entry for field. A from value starting with RegexPrefix is
// compiled as a pattern.
func (t *Table) Add(field, from, to string) error {
	rules, ok := t.fields[field]
	if !ok {
		rules = &FieldRules{literals: make(map[string]string)}
		t.fields[field] = rules
		t.order = append(t.order, field)
	}

	if source, ok := strings.CutPrefix(from, RegexPrefix); ok {
		re, err := regexp.Compile(source)
		if err != nil {
			return fmt.Errorf("invalid pattern for %s: %w", field, err)
		}
		rules.patterns = append(rules.patterns, patternRule{
			source:      source,
			pattern:     re,
			replacement: expandTemplate(to, re),
		})
		return nil
	}

	rules.literals[from] = to
	return nil
}

// expandTemplate rewrites a replacement written with $1, $&, $<name> and $$
// into the ${1} form regexp.Expand reads. A group number is taken with two
// digits when that group exists and one digit otherwise, so $1x is group 1
// followed by x. References to groups the pattern lacks stay literal.
func expandTemplate(replacement string, re *regexp.Regexp) string {
	groups := re.NumSubexp()

	var b strings.Builder
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		if c != '$' || i+1 == len(replacement) {
			if c == '$' {
				b.WriteString("$$")
			} else {
				b.WriteByte(c)
			}
			continue
		}

		next := replacement[i+1]
		switch {
		case next == '$':
			b.WriteString("$$")
			i++
		case next == '&':
			b.WriteString("${0}")
			i++
		case next >= '0' && next <= '9':
			n, width := int(next-'0'), 1
			if i+2 < len(replacement) && isDigit(replacement[i+2]) {
				if two := n*10 + int(replacement[i+2]-'0'); two >= 1 && two <= groups {
					n, width = two, 2
				}
			}
			if n < 1 || n > groups {
				b.WriteString("$$")
				continue
			}
			fmt.Fprintf(&b, "${%d}", n)
			i += width
		case next == '<':
			end := strings.IndexByte(replacement[i+2:], '>')
			name := ""
			if end >= 0 {
				name = replacement[i+2 : i+2+end]
			}
			if name == "" || re.SubexpIndex(name) < 0 {
				b.WriteString("$$")
				continue
			}
			b.WriteString("${" + name + "}")
			i += end + 2
		default:
			b.WriteString("$$")
		}
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Fields returns the mapped field keys in table order.
func (t *Table) Fields() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// Rules returns the rules for a field key, or nil.
func (t *Table) Rules(field string) *FieldRules {
	if t == nil {
		return nil
	}
	return t.fields[field]
}

// Len returns the number of mapped field keys.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}
