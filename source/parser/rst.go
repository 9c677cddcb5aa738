package parser

import (
	"regexp"
	"strings"

	"github.com/c360studio/diagen/source"
)

var (
	// .. mermaid:: directive as used by sphinxcontrib-mermaid
	rstMermaidDirective = regexp.MustCompile(`^\.\. mermaid::\s*(\S*)\s*$`)

	// Directive options: :name: value
	rstOption = regexp.MustCompile(`^:[^:]+:`)
)

// RSTParser extracts mermaid class diagrams from reStructuredText documents.
type RSTParser struct{}

// NewRSTParser creates a new RST parser.
func NewRSTParser() *RSTParser {
	return &RSTParser{}
}

// Parse collects the indented bodies of mermaid directives. Directives that
// point at an external file are skipped.
func (p *RSTParser) Parse(filename string, content []byte) (*source.Document, error) {
	doc := newDocument(filename, content)
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")

	for i := 0; i < len(lines); i++ {
		match := rstMermaidDirective.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if match == nil || match[1] != "" {
			continue
		}

		var body []string
		j := i + 1
		for ; j < len(lines); j++ {
			line := lines[j]
			if strings.TrimSpace(line) == "" {
				body = append(body, "")
				continue
			}
			if !isIndented(line) {
				break
			}
			trimmed := strings.TrimSpace(line)
			if len(body) == 0 && rstOption.MatchString(trimmed) {
				continue
			}
			body = append(body, trimmed)
		}
		i = j - 1

		block := strings.TrimSpace(strings.Join(body, "\n")) + "\n"
		if strings.Contains(strings.ToLower(block), "classdiagram") {
			doc.Blocks = append(doc.Blocks, block)
		}
	}

	return doc, nil
}

// Extensions returns the file extensions handled by this parser.
func (p *RSTParser) Extensions() []string {
	return []string{".rst"}
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
