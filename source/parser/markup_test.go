package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASCIIDocParser_DelimiterVariants(t *testing.T) {
	content := `= Fleet

[mermaid]
----
classDiagram
class Car
----

[source,mermaid]
....
flowchart LR
  A --> B
....

[source, mermaid, width=400]
----
classDiagram
class Truck
----

[source,go]
----
classDiagram is not mermaid here
----
`

	doc, err := NewASCIIDocParser().Parse("fleet.adoc", []byte(content))
	require.NoError(t, err)

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "classDiagram\nclass Car\n", doc.Blocks[0])
	assert.Equal(t, "classDiagram\nclass Truck\n", doc.Blocks[1])
	assert.Equal(t, "fleet.adoc", doc.Filename)
}

func TestASCIIDocParser_UnterminatedBlock(t *testing.T) {
	doc, err := NewASCIIDocParser().Parse("x.adoc", []byte("[mermaid]\n----\nclassDiagram\nclass A\n"))
	require.NoError(t, err)

	require.Len(t, doc.Blocks, 1)
	assert.Contains(t, doc.Blocks[0], "class A")
}

func TestRSTParser_DirectiveOptionsAndIndent(t *testing.T) {
	content := `Fleet
=====

.. mermaid::
   :caption: Vehicles

   classDiagram
   class Car {
       +String Make
   }

Some text.

.. mermaid:: diagrams/other.mmd

.. mermaid::

   flowchart LR
     A --> B
`

	doc, err := NewRSTParser().Parse("fleet.rst", []byte(content))
	require.NoError(t, err)

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "classDiagram\nclass Car {\n+String Make\n}\n", doc.Blocks[0])
}

func TestRSTParser_BlockAtEndOfFile(t *testing.T) {
	doc, err := NewRSTParser().Parse("x.rst", []byte(".. mermaid::\n\n\tclassDiagram\n\tclass A"))
	require.NoError(t, err)

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "classDiagram\nclass A\n", doc.Blocks[0])
}

func TestMarkupParsersFeedClassDiagram(t *testing.T) {
	doc, err := DefaultRegistry.Parse("model.adoc", []byte("[mermaid]\n----\nclassDiagram\nclass Car\n----\n"))
	require.NoError(t, err)
	require.True(t, doc.HasDiagrams())

	events, err := ParseClassDiagram(doc.Blocks[0])
	require.NoError(t, err)
	assert.NotEmpty(t, events)
}
