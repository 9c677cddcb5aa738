// Package diagram builds a namespace/class model from class diagram
// construction events.
package diagram

// DefaultNamespace is the namespace classes land in when no namespace block
// encloses them.
const DefaultNamespace = "global"

// DefaultClassType is the Type given to every class until a type annotation
// overrides it.
const DefaultClassType = "Class"

// Scope names as they appear in records.
const (
	ScopePublic    = "Public"
	ScopePrivate   = "Private"
	ScopeProtected = "Protected"
	ScopePackage   = "Package"
)

// ClassRecord is everything known about one class. The yaml tags define the
// fragment document layout: empty collections and strings are left out,
// except for Name, Namespace and Type.
type ClassRecord struct {
	Name      string `yaml:"Name"`
	Namespace string `yaml:"Namespace"`
	Type      string `yaml:"Type"`
	Comment   string `yaml:"Comment,omitempty"`

	Attributes map[string]AttributeRecord `yaml:"Attributes,omitempty"`
	Methods    map[string]MethodRecord    `yaml:"Methods,omitempty"`

	Dependencies    map[string]RelationRecord `yaml:"Dependencies,omitempty"`
	Compositions    map[string]RelationRecord `yaml:"Compositions,omitempty"`
	Aggregations    map[string]RelationRecord `yaml:"Aggregations,omitempty"`
	Associations    map[string]RelationRecord `yaml:"Associations,omitempty"`
	Realizations    map[string]RelationRecord `yaml:"Realizations,omitempty"`
	Implementations map[string]RelationRecord `yaml:"Implementations,omitempty"`
	Inheritance     map[string]RelationRecord `yaml:"Inheritance,omitempty"`
	Lines           map[string]RelationRecord `yaml:"Lines,omitempty"`
	DashedLinks     map[string]RelationRecord `yaml:"DashedLinks,omitempty"`

	Options []OptionRecord `yaml:"Options,omitempty"`
}

// AttributeRecord describes a class attribute.
type AttributeRecord struct {
	Type         string `yaml:"Type,omitempty"`
	IsSystemType bool   `yaml:"IsSystemType"`
	Scope        string `yaml:"Scope,omitempty"`
	DefaultValue string `yaml:"DefaultValue,omitempty"`
	Comment      string `yaml:"Comment,omitempty"`
}

// MethodRecord describes a class method. Type is the return type.
type MethodRecord struct {
	Type        string           `yaml:"Type,omitempty"`
	Scope       string           `yaml:"Scope,omitempty"`
	Classifiers string           `yaml:"Classifiers,omitempty"`
	Arguments   []ArgumentRecord `yaml:"Arguments,omitempty"`
	Comment     string           `yaml:"Comment,omitempty"`
}

// ArgumentRecord is one method argument.
type ArgumentRecord struct {
	Type string `yaml:"Type,omitempty"`
	Name string `yaml:"Name,omitempty"`
}

// RelationRecord is one edge stored on its source class.
type RelationRecord struct {
	Multiplicity     string `yaml:"Multiplicity,omitempty"`
	MultiplicityKind string `yaml:"MultiplicityKind,omitempty"`
	Description      string `yaml:"Description,omitempty"`
	LineKind         string `yaml:"LineKind,omitempty"`
	Target           string `yaml:"Target,omitempty"`
}

// OptionRecord is a bare `name[=value]` member line.
type OptionRecord struct {
	Name  string `yaml:"Name"`
	Value string `yaml:"Value,omitempty"`
}

// NamespaceTable maps namespace name to class name to record. Namespace names
// are flat dot-delimited strings.
type NamespaceTable map[string]map[string]*ClassRecord

// Class returns the record for name in namespace, or nil.
func (t NamespaceTable) Class(namespace, name string) *ClassRecord {
	classes, ok := t[namespace]
	if !ok {
		return nil
	}
	return classes[name]
}

// Len returns the number of classes across all namespaces.
func (t NamespaceTable) Len() int {
	n := 0
	for _, classes := range t {
		n += len(classes)
	}
	return n
}

func newClassRecord(namespace, name string) *ClassRecord {
	return &ClassRecord{
		Name:            name,
		Namespace:       namespace,
		Type:            DefaultClassType,
		Attributes:      make(map[string]AttributeRecord),
		Methods:         make(map[string]MethodRecord),
		Dependencies:    make(map[string]RelationRecord),
		Compositions:    make(map[string]RelationRecord),
		Aggregations:    make(map[string]RelationRecord),
		Associations:    make(map[string]RelationRecord),
		Realizations:    make(map[string]RelationRecord),
		Implementations: make(map[string]RelationRecord),
		Inheritance:     make(map[string]RelationRecord),
		Lines:           make(map[string]RelationRecord),
		DashedLinks:     make(map[string]RelationRecord),
		Options:         []OptionRecord{},
	}
}
