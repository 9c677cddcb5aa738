package diagram

import "strings"

// RelationKind is the arrow-head category of an edge.
type RelationKind int

// Relation kinds recognized on edges.
const (
	KindNone RelationKind = iota
	KindComposition
	KindAggregation
	KindDependency
	KindExtension
	KindRealization
	KindImplementation
)

func (k RelationKind) String() string {
	switch k {
	case KindComposition:
		return "composition"
	case KindAggregation:
		return "aggregation"
	case KindDependency:
		return "dependency"
	case KindExtension:
		return "extension"
	case KindRealization:
		return "realization"
	case KindImplementation:
		return "implementation"
	default:
		return "none"
	}
}

// LineKind is the stroke of an edge.
type LineKind int

// Line kinds.
const (
	LineSolid LineKind = iota
	LineDotted
)

func (l LineKind) String() string {
	if l == LineDotted {
		return "Dotted"
	}
	return "Solid"
}

// Relation is an edge between two class identifiers as reported by the
// diagram reader.
type Relation struct {
	ID1               string
	ID2               string
	Kind              RelationKind
	Line              LineKind
	MultiplicityLabel string
	Title             string
}

// Bucket names the relation map of a ClassRecord an edge is stored in.
type Bucket string

// Relation buckets.
const (
	BucketCompositions    Bucket = "Compositions"
	BucketAggregations    Bucket = "Aggregations"
	BucketAssociations    Bucket = "Associations"
	BucketRealizations    Bucket = "Realizations"
	BucketInheritance     Bucket = "Inheritance"
	BucketImplementations Bucket = "Implementations"
	BucketLines           Bucket = "Lines"
	BucketDependencies    Bucket = "Dependencies"
	BucketDashedLinks     Bucket = "DashedLinks"
)

// BucketFor selects the bucket for a relation kind and line kind.
func BucketFor(kind RelationKind, line LineKind) Bucket {
	switch kind {
	case KindComposition:
		return BucketCompositions
	case KindAggregation:
		return BucketAggregations
	case KindRealization:
		return BucketRealizations
	case KindExtension:
		return BucketInheritance
	case KindImplementation:
		return BucketImplementations
	case KindDependency:
		if line == LineDotted {
			return BucketDependencies
		}
		return BucketAssociations
	default:
		if line == LineDotted {
			return BucketDashedLinks
		}
		return BucketLines
	}
}

// Relations returns the map of the record backing bucket b.
func (c *ClassRecord) Relations(b Bucket) map[string]RelationRecord {
	var m *map[string]RelationRecord
	switch b {
	case BucketCompositions:
		m = &c.Compositions
	case BucketAggregations:
		m = &c.Aggregations
	case BucketAssociations:
		m = &c.Associations
	case BucketRealizations:
		m = &c.Realizations
	case BucketInheritance:
		m = &c.Inheritance
	case BucketImplementations:
		m = &c.Implementations
	case BucketDependencies:
		m = &c.Dependencies
	case BucketDashedLinks:
		m = &c.DashedLinks
	default:
		m = &c.Lines
	}
	if *m == nil {
		*m = make(map[string]RelationRecord)
	}
	return *m
}

// AddRelation stores an edge on its source class. The source is the endpoint
// found first when namespaces are scanned in first-seen order and classes in
// declaration order; when only one endpoint is known, that one is the source.
// Edges with no known endpoint are reported and ignored.
func (b *Builder) AddRelation(rel Relation) {
	id1 := strings.TrimSpace(rel.ID1)
	id2 := strings.TrimSpace(rel.ID2)

	ref1, ok1 := b.index[id1]
	ref2, ok2 := b.index[id2]

	var sourceID, targetID string
	switch {
	case ok1 && ok2:
		sourceID, targetID = id1, id2
		if ref2.before(ref1) {
			sourceID, targetID = id2, id1
		}
	case ok1:
		sourceID, targetID = id1, id2
	case ok2:
		sourceID, targetID = id2, id1
	default:
		b.warn(WarnUnresolvedRelation, id1+" -> "+id2, "relation endpoints not found")
		return
	}

	source := b.lookup(sourceID)
	title := strings.TrimSpace(rel.Title)

	name := targetID
	if _, after, found := strings.Cut(title, ":"); found {
		if trimmed := strings.TrimSpace(after); trimmed != "" {
			name = trimmed
		}
	}

	multiplicity, multiplicityKind := splitMultiplicity(rel.MultiplicityLabel)

	source.Relations(BucketFor(rel.Kind, rel.Line))[name] = RelationRecord{
		Multiplicity:     multiplicity,
		MultiplicityKind: multiplicityKind,
		Description:      title,
		LineKind:         rel.Line.String(),
		Target:           targetID,
	}
}

// splitMultiplicity splits a label such as `0..* [List]` into the
// multiplicity and its kind.
func splitMultiplicity(label string) (string, string) {
	label = strings.TrimSpace(strings.Trim(strings.TrimSpace(label), `"`))
	multiplicity, kind, found := strings.Cut(label, " ")
	if !found {
		return label, ""
	}
	kind = strings.TrimSpace(kind)
	for _, pair := range []string{"[]", "()", "{}"} {
		if len(kind) >= 2 && kind[0] == pair[0] && kind[len(kind)-1] == pair[1] {
			kind = kind[1 : len(kind)-1]
			break
		}
	}
	return multiplicity, strings.TrimSpace(kind)
}
