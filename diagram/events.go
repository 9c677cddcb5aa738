package diagram

// Event is one construction event emitted by a diagram reader.
type Event interface {
	isEvent()
}

// NamespaceEvent opens a namespace. An empty Name returns to the global
// namespace.
type NamespaceEvent struct {
	Name string
}

// ClassEvent declares a class in the current namespace.
type ClassEvent struct {
	Name    string
	Comment string
}

// MembersEvent carries raw member lines for a class.
type MembersEvent struct {
	Class string
	Lines []string
}

// RelationEvent carries an edge.
type RelationEvent struct {
	Relation Relation
}

func (NamespaceEvent) isEvent() {}
func (ClassEvent) isEvent()     {}
func (MembersEvent) isEvent()   {}
func (RelationEvent) isEvent()  {}

// Apply folds one event into the builder and returns the scope that applies
// to the next event.
func (b *Builder) Apply(scope Scope, ev Event) Scope {
	switch e := ev.(type) {
	case NamespaceEvent:
		return b.BeginNamespace(e.Name)
	case ClassEvent:
		b.addClass(scope, e.Name, e.Comment)
	case MembersEvent:
		b.AddMembers(scope, e.Class, e.Lines)
	case RelationEvent:
		b.AddRelation(e.Relation)
	}
	return scope
}

// ApplyAll folds a full event stream, starting in the global scope.
func (b *Builder) ApplyAll(events []Event) {
	scope := GlobalScope()
	for _, ev := range events {
		scope = b.Apply(scope, ev)
	}
}

// Build folds events into a fresh builder.
func Build(events []Event, opts ...Option) *Builder {
	b := NewBuilder(opts...)
	b.ApplyAll(events)
	return b
}
