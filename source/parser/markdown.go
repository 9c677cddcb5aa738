// Package parser extracts class diagrams from source files and turns diagram
// text into model construction events.
package parser

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/c360studio/diagen/source"
)

// fencePattern matches fenced mermaid blocks. Each match stops at the first
// closing fence so one block never swallows the next.
var fencePattern = regexp.MustCompile("(?s)```[ \t]*mermaid[^\n]*\n(.*?)```")

// MarkdownParser extracts mermaid class diagram blocks from markdown.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse extracts every fenced mermaid block that holds a class diagram.
func (p *MarkdownParser) Parse(filename string, content []byte) (*source.Document, error) {
	doc := newDocument(filename, content)
	doc.Blocks = ExtractBlocks(string(content))
	return doc, nil
}

// Extensions returns the file extensions handled by this parser.
func (p *MarkdownParser) Extensions() []string {
	return []string{".md", ".markdown"}
}

// ExtractBlocks returns the bodies of fenced mermaid blocks that contain a
// classDiagram declaration. Other diagram kinds are ignored.
func ExtractBlocks(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var blocks []string
	for _, match := range fencePattern.FindAllStringSubmatch(content, -1) {
		body := match[1]
		if !strings.Contains(strings.ToLower(body), "classdiagram") {
			continue
		}
		blocks = append(blocks, body)
	}
	return blocks
}

// DiagramParser reads a bare diagram file (.mmd) as a single block.
type DiagramParser struct{}

// NewDiagramParser creates a parser for bare diagram files.
func NewDiagramParser() *DiagramParser {
	return &DiagramParser{}
}

// Parse returns the whole file as one block when it is a class diagram.
func (p *DiagramParser) Parse(filename string, content []byte) (*source.Document, error) {
	doc := newDocument(filename, content)
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	if strings.Contains(strings.ToLower(text), "classdiagram") {
		doc.Blocks = []string{text}
	}
	return doc, nil
}

// Extensions returns the file extensions handled by this parser.
func (p *DiagramParser) Extensions() []string {
	return []string{".mmd", ".mermaid"}
}

func newDocument(filename string, content []byte) *source.Document {
	return &source.Document{
		ID:       generateID(filename, content),
		Filename: filepath.Base(filename),
		Path:     filename,
		Hash:     ContentHash(content),
	}
}

// generateID creates a stable document ID from filename and content hash.
func generateID(filename string, content []byte) string {
	base := filepath.Base(filename)
	name := sanitizeID(strings.TrimSuffix(base, filepath.Ext(base)))

	hash := sha256.Sum256(content)
	shortHash := hex.EncodeToString(hash[:])[:12]

	return fmt.Sprintf("diagram.%s.%s", name, shortHash)
}

// sanitizeID makes a string safe for use as an ID.
func sanitizeID(s string) string {
	var buf bytes.Buffer
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z':
			buf.WriteRune(r)
		case r >= '0' && r <= '9':
			buf.WriteRune(r)
		case r == '-' || r == '_' || r == ' ':
			buf.WriteRune('-')
		}
	}
	return buf.String()
}

// ContentHash computes a SHA256 hash of the content.
func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
