package fragment

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoader_MergesByName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Company/Models/Vehicle.Generated.yml"), `
Name: Vehicle
Namespace: Company.Models
Type: Entity
Attributes:
  Make:
    Type: String
    IsSystemType: true
`)
	writeFile(t, filepath.Join(root, "overrides/Vehicle.yaml"), `
Name: Vehicle
Attributes:
  Make:
    Comment: Manufacturer
Options:
  - Name: Table
    Value: vehicles
`)
	writeFile(t, filepath.Join(root, "Company/Models/Garage.Generated.yml"), `
Name: Garage
Namespace: Company.Models
Type: Class
`)
	writeFile(t, filepath.Join(root, "README.md"), "not a fragment")

	set, err := NewLoader(IdentityName, nil).Load(root)
	require.NoError(t, err)

	assert.Equal(t, 3, set.Files())
	require.Equal(t, 2, set.Len())

	docs := set.Documents()
	assert.Equal(t, "Garage", docs[0].Name())
	assert.Equal(t, "Vehicle", docs[1].Name())

	vehicle, ok := set.Get("Vehicle")
	require.True(t, ok)
	assert.Equal(t, "Entity", vehicle.Type())
	assert.Equal(t, map[string]any{
		"Type":         "String",
		"IsSystemType": true,
		"Comment":      "Manufacturer",
	}, vehicle["Attributes"].(map[string]any)["Make"])
	assert.Equal(t, []any{map[string]any{"Name": "Table", "Value": "vehicles"}}, vehicle["Options"])
}

func TestLoader_QualifiedIdentityKeepsNamespacesApart(t *testing.T) {
	fsys := fstest.MapFS{
		"a/Item.yml": {Data: []byte("Name: Item\nNamespace: Shop\nType: Class\n")},
		"b/Item.yml": {Data: []byte("Name: Item\nNamespace: Stock\nType: Class\n")},
	}

	set, err := NewLoader(IdentityQualified, nil).LoadFS(fsys)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	set, err = NewLoader(IdentityName, nil).LoadFS(fsys)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, "Stock", set.Documents()[0].Namespace())
}

func TestLoader_MissingNameIsFatal(t *testing.T) {
	fsys := fstest.MapFS{
		"ok.yml":  {Data: []byte("Name: A\n")},
		"bad.yml": {Data: []byte("Type: Class\n")},
	}

	set, err := NewLoader(IdentityName, nil).LoadFS(fsys)
	assert.ErrorIs(t, err, ErrInvalidFragment)
	assert.Contains(t, err.Error(), "bad.yml")
	assert.Nil(t, set)
}

func TestLoader_InvalidYAMLIsFatal(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.yaml": {Data: []byte("Name: [unclosed\n")},
	}

	_, err := NewLoader(IdentityName, nil).LoadFS(fsys)
	assert.ErrorIs(t, err, ErrInvalidFragment)
}

func TestLoader_MissingRoot(t *testing.T) {
	_, err := NewLoader(IdentityName, nil).Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDecode_NonStringKeys(t *testing.T) {
	doc, err := Decode([]byte("Name: A\nCodes:\n  1: one\n  true: yes\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "one", "true": "yes"}, doc["Codes"])
}

func TestDecode_NotMapping(t *testing.T) {
	_, err := Decode([]byte("- a\n- b\n"))
	assert.ErrorIs(t, err, ErrInvalidFragment)
}
