package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareHelpers(t *testing.T) {
	assert.True(t, lte(1, 2.5))
	assert.True(t, gte("b", "a"))
	assert.True(t, gte(3, 3))
	assert.True(t, lt(2, 3))
	assert.False(t, gt(2, 3))

	// mixed kinds never compare
	assert.False(t, lte("a", 1))
	assert.False(t, gte("a", 1))

	_, ok := compare("a", 1)
	assert.False(t, ok)
}

func TestIsEq(t *testing.T) {
	assert.True(t, isEq("static", "static"))
	assert.False(t, isEq(nil, "static"))
	assert.True(t, isEq(map[string]any{"a": 1}, map[string]any{"a": 1}))
	assert.True(t, ne("static", "abstract"))
}

func TestAndOr(t *testing.T) {
	assert.True(t, and(true, "x"))
	assert.True(t, and(1, []any{1}))
	assert.False(t, and(true, ""))
	assert.False(t, and(nil, true))
	assert.True(t, or(false, "y"))
	assert.False(t, or(nil, ""))
	assert.False(t, or(false, []any{}))
}

func TestHelpers(t *testing.T) {
	helpers := Helpers()
	for _, name := range []string{"isEq", "toLowerCase", "and", "or", "isArray", "isDictionary", "dictionaryKeyType", "eachSorted"} {
		assert.Contains(t, helpers, name)
	}
}

func TestTypeMarkers(t *testing.T) {
	tests := []struct {
		in          any
		array, dict bool
		dictKeyType string
	}{
		{"Array", true, false, ""},
		{" ARRAY ", true, false, ""},
		{"Dictionary(string)", false, true, "string"},
		{"DICTIONARY( int )", false, true, "int"},
		{"List", false, false, ""},
		{nil, false, false, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.array, isArray(tt.in), "isArray(%v)", tt.in)
		assert.Equal(t, tt.dict, isDictionary(tt.in), "isDictionary(%v)", tt.in)
		assert.Equal(t, tt.dictKeyType, dictionaryKeyType(tt.in), "dictionaryKeyType(%v)", tt.in)
	}
}

func TestStringHelpers(t *testing.T) {
	assert.Equal(t, "vehicle", lower("Vehicle"))
	assert.Equal(t, "", lower(nil))
	assert.Equal(t, "Models", lastSegment("Company.Models"))
	assert.Equal(t, "Models", lastSegment("Models"))
}
