package fragment

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Pattern matches fragment files anywhere below the root.
const Pattern = "**/*.{yml,yaml}"

// Set is the result of loading a fragment tree: one merged document per
// identity, in first-discovery order.
type Set struct {
	identity Identity
	order    []string
	docs     map[string]Document
	files    int
}

// NewSet creates an empty set grouping by identity.
func NewSet(identity Identity) *Set {
	if identity == "" {
		identity = IdentityName
	}
	return &Set{
		identity: identity,
		docs:     make(map[string]Document),
	}
}

// Add merges doc into the document sharing its identity.
func (s *Set) Add(doc Document) {
	key := s.identity.Key(doc)
	existing, ok := s.docs[key]
	if !ok {
		s.order = append(s.order, key)
		existing = Document{}
	}
	s.docs[key] = Merge(existing, doc)
}

// Documents returns the merged documents in first-discovery order.
func (s *Set) Documents() []Document {
	out := make([]Document, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.docs[key])
	}
	return out
}

// Get returns the merged document for an identity key.
func (s *Set) Get(key string) (Document, bool) {
	doc, ok := s.docs[key]
	return doc, ok
}

// Len returns the number of merged documents.
func (s *Set) Len() int { return len(s.order) }

// Files returns how many fragment files went into the set.
func (s *Set) Files() int { return s.files }

// Loader discovers and merges fragment files.
type Loader struct {
	identity Identity
	logger   *slog.Logger
}

// NewLoader creates a loader grouping fragments by identity.
func NewLoader(identity Identity, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{identity: identity, logger: logger}
}

// Load reads every fragment below root.
func (l *Loader) Load(root string) (*Set, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("read fragment directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("read fragment directory: %s is not a directory", root)
	}
	return l.LoadFS(os.DirFS(root))
}

// LoadFS reads every fragment in fsys. Any unreadable or invalid fragment
// aborts the load; no partial set is returned.
func (l *Loader) LoadFS(fsys fs.FS) (*Set, error) {
	paths, err := doublestar.Glob(fsys, Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("discover fragments: %w", err)
	}
	sort.Strings(paths)

	set := NewSet(l.identity)
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read fragment %s: %w", path, err)
		}
		doc, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("fragment %s: %w", path, err)
		}
		set.Add(doc)
		set.files++
		l.logger.Debug("Loaded fragment", "path", path, "name", doc.Name())
	}

	l.logger.Debug("Fragments merged", "files", set.files, "classes", set.Len())
	return set, nil
}

// Decode parses one fragment file. The document must be a mapping with a
// non-empty string Name.
func Decode(data []byte) (Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFragment, err)
	}
	m, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not a mapping", ErrInvalidFragment)
	}
	doc := Document(m)
	if doc.Name() == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidFragment, FieldName)
	}
	return doc, nil
}
