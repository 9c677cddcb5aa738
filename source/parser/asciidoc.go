package parser

import (
	"regexp"
	"strings"

	"github.com/c360studio/diagen/source"
)

var (
	// [mermaid] or [source,mermaid] style attribute lines
	adocMermaidBlock = regexp.MustCompile(`^\[(?:source,\s*)?mermaid(?:,[^\]]*)?\]$`)

	// Listing (----) and literal (....) delimiters
	adocDelimiter = regexp.MustCompile(`^(-{4,}|\.{4,})$`)
)

// ASCIIDocParser extracts mermaid class diagrams from AsciiDoc documents.
type ASCIIDocParser struct{}

// NewASCIIDocParser creates a new AsciiDoc parser.
func NewASCIIDocParser() *ASCIIDocParser {
	return &ASCIIDocParser{}
}

// Parse collects the bodies of delimited blocks marked as mermaid.
func (p *ASCIIDocParser) Parse(filename string, content []byte) (*source.Document, error) {
	doc := newDocument(filename, content)
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")

	for i := 0; i < len(lines); i++ {
		if !adocMermaidBlock.MatchString(strings.TrimSpace(lines[i])) {
			continue
		}
		if i+1 >= len(lines) {
			break
		}
		delim := strings.TrimSpace(lines[i+1])
		if !adocDelimiter.MatchString(delim) {
			continue
		}

		var body []string
		j := i + 2
		for ; j < len(lines) && strings.TrimSpace(lines[j]) != delim; j++ {
			body = append(body, lines[j])
		}
		i = j

		block := strings.Join(body, "\n") + "\n"
		if strings.Contains(strings.ToLower(block), "classdiagram") {
			doc.Blocks = append(doc.Blocks, block)
		}
	}

	return doc, nil
}

// Extensions returns the file extensions handled by this parser.
func (p *ASCIIDocParser) Extensions() []string {
	return []string{".adoc", ".asciidoc", ".asc"}
}
