package catalog

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/aymerick/raymond"
)

// Helpers returns the helpers registered on every template, on top of the
// Handlebars builtins (if, unless, each, with, lookup, log, equal).
func Helpers() map[string]any {
	return map[string]any{
		"isEq":              isEq,
		"eq":                isEq,
		"ne":                ne,
		"lt":                lt,
		"gt":                gt,
		"lte":               lte,
		"gte":               gte,
		"and":               and,
		"or":                or,
		"toLowerCase":       lower,
		"lower":             lower,
		"isArray":           isArray,
		"isDictionary":      isDictionary,
		"dictionaryKeyType": dictionaryKeyType,
		"lastSegment":       lastSegment,
		"eachSorted":        eachSorted,
	}
}

func isEq(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func ne(a, b any) bool {
	return !reflect.DeepEqual(a, b)
}

func lt(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c < 0
}

func gt(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c > 0
}

func lte(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c <= 0
}

func gte(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c >= 0
}

// compare orders two numbers or two strings. ok is false for any other pair.
func compare(a, b any) (int, bool) {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			switch {
			case x < y:
				return -1, true
			case x > y:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	x, okA := a.(string)
	y, okB := b.(string)
	if okA && okB {
		return strings.Compare(x, y), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// and and or take two operands; nest them for more, e.g.
// (and a (and b c)).
func and(a, b any) bool {
	return raymond.IsTrue(a) && raymond.IsTrue(b)
}

func or(a, b any) bool {
	return raymond.IsTrue(a) || raymond.IsTrue(b)
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func lower(v any) string {
	return strings.ToLower(str(v))
}

// isArray reports whether a multiplicity kind is the ARRAY marker.
func isArray(v any) bool {
	return strings.EqualFold(strings.TrimSpace(str(v)), "array")
}

// isDictionary reports whether a multiplicity kind is a DICTIONARY(key)
// marker.
func isDictionary(v any) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(str(v))), "DICTIONARY")
}

// dictionaryKeyType extracts the key type from DICTIONARY(key).
func dictionaryKeyType(v any) string {
	_, rest, ok := strings.Cut(str(v), "(")
	if !ok {
		return ""
	}
	key, _, _ := strings.Cut(rest, ")")
	return strings.TrimSpace(key)
}

// lastSegment returns the part of a dotted name after the last dot.
func lastSegment(v any) string {
	s := str(v)
	return s[strings.LastIndex(s, ".")+1:]
}

// eachSorted is each with map keys visited in sorted order, so generated
// files do not change between runs. Sequences are walked in order. The
// block sees @key, @index, @first and @last; an empty or missing value
// renders the else block.
func eachSorted(context any, options *raymond.Options) string {
	rv := reflect.ValueOf(context)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return options.Inverse()
	}

	type entry struct {
		key   any
		value any
	}
	var entries []entry

	switch rv.Kind() {
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			entries = append(entries, entry{key: k.Interface(), value: rv.MapIndex(k).Interface()})
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			entries = append(entries, entry{key: i, value: rv.Index(i).Interface()})
		}
	default:
		return options.Inverse()
	}

	if len(entries) == 0 {
		return options.Inverse()
	}

	var b strings.Builder
	for i, e := range entries {
		frame := options.NewDataFrame()
		frame.Set("key", e.key)
		frame.Set("index", i)
		frame.Set("first", i == 0)
		frame.Set("last", i == len(entries)-1)
		b.WriteString(options.FnCtxData(e.value, frame))
	}
	return b.String()
}
