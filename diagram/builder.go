package diagram

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SystemTypeFunc reports whether an attribute type token names a system
// type.
type SystemTypeFunc func(typeToken string) bool

// LeadingUppercase is the default SystemTypeFunc: a type token starting with
// an uppercase letter is a system type.
func LeadingUppercase(typeToken string) bool {
	r, _ := utf8.DecodeRuneInString(typeToken)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// WarningKind classifies a recoverable builder condition.
type WarningKind string

// Recoverable conditions. Neither aborts a build.
const (
	WarnUnknownClass       WarningKind = "unknown_class"
	WarnUnresolvedRelation WarningKind = "unresolved_relation"
)

// Warning records a condition the builder recovered from.
type Warning struct {
	Kind    WarningKind
	Subject string
	Message string
}

// Scope is the namespace context a class is declared in. It is a value:
// opening a namespace returns a new Scope and never changes an existing one.
type Scope struct {
	namespace string
}

// GlobalScope returns the scope of classes outside any namespace block.
func GlobalScope() Scope {
	return Scope{namespace: DefaultNamespace}
}

// Namespace returns the namespace name of the scope.
func (s Scope) Namespace() string {
	if s.namespace == "" {
		return DefaultNamespace
	}
	return s.namespace
}

// classRef locates a registered class. Refs order by the namespace's
// first-seen position, then by declaration order within the namespace.
type classRef struct {
	namespace string
	nsSeq     int
	classSeq  int
}

func (r classRef) before(o classRef) bool {
	if r.nsSeq != o.nsSeq {
		return r.nsSeq < o.nsSeq
	}
	return r.classSeq < o.classSeq
}

// Builder accumulates a NamespaceTable from construction events.
// It never fails on diagram content; problems are logged and kept as
// warnings.
type Builder struct {
	logger     *slog.Logger
	systemType SystemTypeFunc

	table    NamespaceTable
	index    map[string]classRef // class name -> earliest registration
	nsOrder  map[string]int      // namespace -> first-seen position
	warnings []Warning
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSystemTypeFunc replaces the IsSystemType predicate.
func WithSystemTypeFunc(fn SystemTypeFunc) Option {
	return func(b *Builder) {
		if fn != nil {
			b.systemType = fn
		}
	}
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:     slog.Default(),
		systemType: LeadingUppercase,
		table:      make(NamespaceTable),
		index:      make(map[string]classRef),
		nsOrder:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BeginNamespace returns the scope for the named namespace. An empty name
// yields the global scope.
func (b *Builder) BeginNamespace(name string) Scope {
	name = strings.TrimSpace(name)
	if name == "" {
		return GlobalScope()
	}
	b.namespaceSeq(name)
	return Scope{namespace: name}
}

// namespaceSeq returns the first-seen position of ns, assigning the next one
// on first sight.
func (b *Builder) namespaceSeq(ns string) int {
	if seq, ok := b.nsOrder[ns]; ok {
		return seq
	}
	seq := len(b.nsOrder)
	b.nsOrder[ns] = seq
	return seq
}

// AddClass registers a class in scope. Adding a name that already exists in
// the same namespace is a no-op.
func (b *Builder) AddClass(scope Scope, name string) {
	b.addClass(scope, name, "")
}

func (b *Builder) addClass(scope Scope, name, comment string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	ns := scope.Namespace()

	classes, ok := b.table[ns]
	if !ok {
		classes = make(map[string]*ClassRecord)
		b.table[ns] = classes
	}

	record, exists := classes[name]
	if !exists {
		ref := classRef{namespace: ns, nsSeq: b.namespaceSeq(ns), classSeq: len(classes)}
		record = newClassRecord(ns, name)
		classes[name] = record

		if indexed, ok := b.index[name]; !ok || ref.before(indexed) {
			b.index[name] = ref
		}
	}
	if comment != "" && record.Comment == "" {
		record.Comment = comment
	}
}

// AddMembers classifies raw member lines of a class body and applies them to
// the class. The class is resolved in scope's namespace first and by name
// across namespaces otherwise. Unknown classes are reported and ignored.
func (b *Builder) AddMembers(scope Scope, className string, lines []string) {
	name := strings.TrimSpace(className)
	record := b.table.Class(scope.Namespace(), name)
	if record == nil {
		record = b.lookup(name)
	}
	if record == nil {
		b.warn(WarnUnknownClass, className, "members for unknown class ignored")
		return
	}
	b.applyMembers(record, lines)
}

// Model returns the namespace table built so far.
func (b *Builder) Model() NamespaceTable {
	return b.table
}

// Warnings returns the recoverable conditions seen so far.
func (b *Builder) Warnings() []Warning {
	return b.warnings
}

// lookup returns the class with the given name that a scan of namespaces in
// first-seen order would find first.
func (b *Builder) lookup(name string) *ClassRecord {
	ref, ok := b.index[name]
	if !ok {
		return nil
	}
	return b.table.Class(ref.namespace, name)
}

func (b *Builder) warn(kind WarningKind, subject, message string) {
	b.warnings = append(b.warnings, Warning{Kind: kind, Subject: subject, Message: message})
	b.logger.Warn(message, "kind", string(kind), "subject", subject)
}
