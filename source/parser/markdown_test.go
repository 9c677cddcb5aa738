package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBlocks(t *testing.T) {
	content := "# Models\n\n" +
		"```mermaid\nclassDiagram\n  class Vehicle\n```\n\n" +
		"Some prose.\n\n" +
		"```mermaid\nsequenceDiagram\n  A->>B: hi\n```\n\n" +
		"```mermaid\nclassDiagram\n  class Garage\n```\n"

	blocks := ExtractBlocks(content)
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "class Vehicle")
	assert.Contains(t, blocks[1], "class Garage")
}

func TestExtractBlocks_CRLF(t *testing.T) {
	content := "```mermaid\r\nclassDiagram\r\n  class A\r\n```\r\n"

	blocks := ExtractBlocks(content)
	require.Len(t, blocks, 1)
	assert.NotContains(t, blocks[0], "\r")
}

func TestExtractBlocks_None(t *testing.T) {
	assert.Empty(t, ExtractBlocks("no diagrams here\n```go\nfunc main() {}\n```\n"))
}

func TestMarkdownParser_Parse(t *testing.T) {
	content := []byte("```mermaid\nclassDiagram\n  class A\n```\n")

	doc, err := NewMarkdownParser().Parse("docs/Domain Model.md", content)
	require.NoError(t, err)

	assert.Equal(t, "Domain Model.md", doc.Filename)
	assert.Equal(t, "docs/Domain Model.md", doc.Path)
	assert.Equal(t, ContentHash(content), doc.Hash)
	assert.Regexp(t, `^diagram\.domain-model\.[0-9a-f]{12}$`, doc.ID)
	assert.True(t, doc.HasDiagrams())
}

func TestDiagramParser_Parse(t *testing.T) {
	p := NewDiagramParser()

	doc, err := p.Parse("model.mmd", []byte("classDiagram\n  class A\n"))
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)

	doc, err = p.Parse("flow.mmd", []byte("flowchart LR\n  A --> B\n"))
	require.NoError(t, err)
	assert.False(t, doc.HasDiagrams())
}

func TestASCIIDocParser_Parse(t *testing.T) {
	content := []byte(`= Design

[source,mermaid]
----
classDiagram
  class Vehicle
----

[mermaid]
....
flowchart LR
  A --> B
....

[source,go]
----
classDiagram but not mermaid
----
`)

	doc, err := NewASCIIDocParser().Parse("design.adoc", content)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Contains(t, doc.Blocks[0], "class Vehicle")
}

func TestRSTParser_Parse(t *testing.T) {
	content := []byte(`Design
======

.. mermaid::
   :caption: Vehicles

   classDiagram
     class Vehicle

.. mermaid:: diagrams/other.mmd

Trailing paragraph.
`)

	doc, err := NewRSTParser().Parse("design.rst", content)
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 1)
	assert.Contains(t, doc.Blocks[0], "classDiagram")
	assert.Contains(t, doc.Blocks[0], "class Vehicle")
	assert.NotContains(t, doc.Blocks[0], "caption")
	assert.NotContains(t, doc.Blocks[0], "Trailing")
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Domain Model", "domain-model"},
		{"v2_models", "v2-models"},
		{"Ünïcode!", "ncode"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeID(tt.input))
		})
	}
}
