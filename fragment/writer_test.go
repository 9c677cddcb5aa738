package fragment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/diagen/diagram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEncode_OmitsEmptyButKeepsIdentity(t *testing.T) {
	b := diagram.NewBuilder()
	b.AddClass(diagram.GlobalScope(), "Empty")

	data, err := Encode(b.Model().Class(diagram.DefaultNamespace, "Empty"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, map[string]any{
		"Name":      "Empty",
		"Namespace": diagram.DefaultNamespace,
		"Type":      diagram.DefaultClassType,
	}, doc)
}

func TestEncode_RoundTripsThroughDecode(t *testing.T) {
	b := diagram.NewBuilder()
	b.AddClass(diagram.GlobalScope(), "Vehicle")
	b.AddMembers(diagram.GlobalScope(), "Vehicle", []string{"+String Make", "-int year"})

	data, err := Encode(b.Model().Class(diagram.DefaultNamespace, "Vehicle"))
	require.NoError(t, err)

	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Vehicle", doc.Name())
	assert.Equal(t, map[string]any{
		"Type":         "int",
		"IsSystemType": false,
		"Scope":        "Private",
	}, doc["Attributes"].(map[string]any)["year"])
}

func TestDir(t *testing.T) {
	tests := []struct {
		namespace, skip, want string
	}{
		{"Company.Models", "", filepath.Join("out", "Company", "Models")},
		{"Company.Models", "Company", filepath.Join("out", "Models")},
		{"Company.Models", "Company.Models", "out"},
		{"global", "", filepath.Join("out", "global")},
		{"", "", "out"},
	}
	for _, tt := range tests {
		t.Run(tt.namespace+"/"+tt.skip, func(t *testing.T) {
			assert.Equal(t, tt.want, Dir("out", tt.namespace, tt.skip))
		})
	}
}

func TestWriter_Write(t *testing.T) {
	b := diagram.NewBuilder()
	b.AddClass(b.BeginNamespace("Company.Models"), "Vehicle")
	b.AddClass(b.BeginNamespace("Company.Models"), "Garage")
	b.AddClass(diagram.GlobalScope(), "Loose")

	out := t.TempDir()
	written, err := NewWriter("Company", nil).Write(b.Model(), out)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(out, "Models", "Garage.Generated.yml"),
		filepath.Join(out, "Models", "Vehicle.Generated.yml"),
		filepath.Join(out, "global", "Loose.Generated.yml"),
	}, written)

	data, err := os.ReadFile(written[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Namespace: Company.Models")
}

func TestWriter_WriteThenLoad(t *testing.T) {
	b := diagram.NewBuilder()
	b.AddClass(diagram.GlobalScope(), "A")
	b.AddMembers(diagram.GlobalScope(), "A", []string{"+int X"})

	out := t.TempDir()
	_, err := NewWriter("", nil).Write(b.Model(), out)
	require.NoError(t, err)

	set, err := NewLoader(IdentityName, nil).Load(out)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Contains(t, set.Documents()[0]["Attributes"], "X")
}

func TestWriter_WriteFailurePropagates(t *testing.T) {
	out := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(out, []byte("x"), 0644))

	b := diagram.NewBuilder()
	b.AddClass(diagram.GlobalScope(), "A")

	_, err := NewWriter("", nil).Write(b.Model(), out)
	assert.Error(t, err)
}
