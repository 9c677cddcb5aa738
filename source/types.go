// Package source provides types and parsers for diagram ingestion.
package source

// Document is a diagram source file after block extraction.
type Document struct {
	// ID is a stable identifier derived from the filename and content hash.
	ID string `json:"id"`

	// Filename is the base name of the source file.
	Filename string `json:"filename"`

	// Path is the path the document was read from.
	Path string `json:"path,omitempty"`

	// Hash is the SHA256 content hash, used for change detection.
	Hash string `json:"hash"`

	// Blocks holds the raw class diagram sources found in the file, in file
	// order.
	Blocks []string `json:"blocks,omitempty"`
}

// HasDiagrams returns true if at least one class diagram block was found.
func (d *Document) HasDiagrams() bool {
	return len(d.Blocks) > 0
}
