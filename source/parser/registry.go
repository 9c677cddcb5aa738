package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/diagen/source"
)

// Parser defines the interface for diagram source parsers.
type Parser interface {
	// Parse reads a file and returns the class diagram blocks it holds.
	Parse(filename string, content []byte) (*source.Document, error)

	// Extensions returns the file extensions this parser handles.
	Extensions() []string
}

// Registry maps file extensions to parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser // keyed by lower-case extension
}

// DefaultRegistry is the global parser registry with default parsers.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new parser registry with default parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}

	r.Register(NewMarkdownParser())
	r.Register(NewDiagramParser())
	r.Register(NewASCIIDocParser())
	r.Register(NewRSTParser())

	return r
}

// Register adds a parser for each of its extensions. Later registrations
// replace earlier ones.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.Extensions() {
		r.parsers[strings.ToLower(ext)] = p
	}
}

// GetByExtension returns the parser for a filename, or nil.
func (r *Registry) GetByExtension(filename string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parsers[strings.ToLower(filepath.Ext(filename))]
}

// Parse parses a file using the parser registered for its extension.
func (r *Registry) Parse(filename string, content []byte) (*source.Document, error) {
	p := r.GetByExtension(filename)
	if p == nil {
		return nil, fmt.Errorf("no parser for file type: %s", filepath.Ext(filename))
	}
	return p.Parse(filename, content)
}

// ListExtensions returns all registered extensions, sorted.
func (r *Registry) ListExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
