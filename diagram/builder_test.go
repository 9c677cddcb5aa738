package diagram

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddClass_DefaultsToGlobal(t *testing.T) {
	b := NewBuilder()
	b.AddClass(GlobalScope(), "Vehicle")

	record := b.Model().Class(DefaultNamespace, "Vehicle")
	require.NotNil(t, record)
	assert.Equal(t, "Vehicle", record.Name)
	assert.Equal(t, "global", record.Namespace)
	assert.Equal(t, "Class", record.Type)
	assert.Empty(t, record.Attributes)
	assert.Empty(t, record.Methods)
	assert.Empty(t, record.Options)
}

func TestAddClass_NamespaceScope(t *testing.T) {
	b := NewBuilder()
	scope := b.BeginNamespace("A.B")
	b.AddClass(scope, "X")

	model := b.Model()
	require.Contains(t, model, "A.B")
	record := model["A.B"]["X"]
	require.NotNil(t, record)
	assert.Equal(t, "A.B", record.Namespace)
	assert.NotContains(t, model, DefaultNamespace)
}

func TestAddClass_ScopesAreIndependent(t *testing.T) {
	b := NewBuilder()
	models := b.BeginNamespace("Models")
	controllers := b.BeginNamespace("Controllers")

	b.AddClass(models, "Vehicle")
	b.AddClass(controllers, "VehiclesController")
	b.AddClass(GlobalScope(), "Loose")

	assert.NotNil(t, b.Model().Class("Models", "Vehicle"))
	assert.NotNil(t, b.Model().Class("Controllers", "VehiclesController"))
	assert.NotNil(t, b.Model().Class(DefaultNamespace, "Loose"))
	assert.Equal(t, 3, b.Model().Len())
}

func TestAddClass_ReAddIsNoop(t *testing.T) {
	b := NewBuilder()
	b.AddClass(GlobalScope(), "Vehicle")
	b.AddMembers(GlobalScope(), "Vehicle", []string{"+String Make"})
	b.AddClass(GlobalScope(), "Vehicle")

	record := b.Model().Class(DefaultNamespace, "Vehicle")
	require.NotNil(t, record)
	assert.Contains(t, record.Attributes, "Make")
	assert.Equal(t, 1, b.Model().Len())
}

func TestBeginNamespace_EmptyIsGlobal(t *testing.T) {
	b := NewBuilder()
	assert.Equal(t, DefaultNamespace, b.BeginNamespace("  ").Namespace())
	assert.Equal(t, DefaultNamespace, Scope{}.Namespace())
}

func TestAddMembers_UnknownClassWarns(t *testing.T) {
	b := NewBuilder()
	b.AddMembers(GlobalScope(), "Ghost", []string{"+String Name"})

	assert.Equal(t, 0, b.Model().Len())
	require.Len(t, b.Warnings(), 1)
	assert.Equal(t, WarnUnknownClass, b.Warnings()[0].Kind)
	assert.Equal(t, "Ghost", b.Warnings()[0].Subject)
}

func TestBuild_MembersResolveInCurrentNamespace(t *testing.T) {
	b := Build([]Event{
		NamespaceEvent{Name: "A"},
		ClassEvent{Name: "X"},
		MembersEvent{Class: "X", Lines: []string{"+int a"}},
		NamespaceEvent{},
		NamespaceEvent{Name: "B"},
		ClassEvent{Name: "X"},
		MembersEvent{Class: "X", Lines: []string{"+int b"}},
		MembersEvent{Class: "X", Lines: []string{"<<Interface>>"}},
		NamespaceEvent{},
	})

	a := b.Model().Class("A", "X")
	require.NotNil(t, a)
	assert.Equal(t, []string{"a"}, attributeNames(a))
	assert.Equal(t, DefaultClassType, a.Type)

	bx := b.Model().Class("B", "X")
	require.NotNil(t, bx)
	assert.Equal(t, []string{"b"}, attributeNames(bx))
	assert.Equal(t, "Interface", bx.Type)
	assert.Empty(t, b.Warnings())
}

func TestAddMembers_FallsBackToAnyNamespace(t *testing.T) {
	b := NewBuilder()
	b.AddClass(b.BeginNamespace("Models"), "Vehicle")
	b.AddMembers(GlobalScope(), "Vehicle", []string{"+String Make"})

	record := b.Model().Class("Models", "Vehicle")
	require.NotNil(t, record)
	assert.Contains(t, record.Attributes, "Make")
	assert.Empty(t, b.Warnings())
}

func attributeNames(record *ClassRecord) []string {
	names := make([]string, 0, len(record.Attributes))
	for name := range record.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestBuild_FoldsEvents(t *testing.T) {
	b := Build([]Event{
		NamespaceEvent{Name: "Company.VTC.Models"},
		ClassEvent{Name: "Vehicle", Comment: "representation of a vehicle"},
		MembersEvent{Class: "Vehicle", Lines: []string{"<<class>>", "+String Make"}},
		NamespaceEvent{},
		ClassEvent{Name: "Garage"},
		RelationEvent{Relation: Relation{ID1: "Garage", ID2: "Vehicle", Kind: KindAggregation}},
	})

	vehicle := b.Model().Class("Company.VTC.Models", "Vehicle")
	require.NotNil(t, vehicle)
	assert.Equal(t, "class", vehicle.Type)
	assert.Equal(t, "representation of a vehicle", vehicle.Comment)

	garage := b.Model().Class(DefaultNamespace, "Garage")
	require.NotNil(t, garage)
	assert.Empty(t, garage.Aggregations)

	// Vehicle was registered first, so it is the source of the edge.
	require.Contains(t, vehicle.Aggregations, "Garage")
	assert.Equal(t, "Garage", vehicle.Aggregations["Garage"].Target)
}

func TestWithSystemTypeFunc(t *testing.T) {
	b := NewBuilder(WithSystemTypeFunc(func(token string) bool { return token == "int" }))
	b.AddClass(GlobalScope(), "Counter")
	b.AddMembers(GlobalScope(), "Counter", []string{"+int Value", "+String Label"})

	record := b.Model().Class(DefaultNamespace, "Counter")
	require.NotNil(t, record)
	assert.True(t, record.Attributes["Value"].IsSystemType)
	assert.False(t, record.Attributes["Label"].IsSystemType)
}

func TestLeadingUppercase(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"String", true},
		{"string", false},
		{"List~int~", true},
		{"", false},
		{"_Private", false},
		{"Ärger", true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, LeadingUppercase(tt.token))
		})
	}
}
