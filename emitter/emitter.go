// Package emitter renders merged class documents through a template catalog
// into files routed by namespace.
package emitter

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/diagen/catalog"
	"github.com/c360studio/diagen/fragment"
	"github.com/c360studio/diagen/mapping"
	"gopkg.in/yaml.v3"
)

// ErrMissingRequiredField is returned when a document has no Name or Type.
var ErrMissingRequiredField = errors.New("missing required field")

// GeneratedMarker sits between the class name and the extension of every
// output file.
const GeneratedMarker = ".Generated."

// Output is one written file.
type Output struct {
	Path     string
	Language string
	Template string
}

// Emitter writes generated files below a root directory.
type Emitter struct {
	root   string
	logger *slog.Logger
}

// New creates an emitter writing below root.
func New(root string, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{root: root, logger: logger}
}

// Generate renders doc with every language in c that has a config and
// templates. Languages are visited in sorted order, templates in catalog
// order. Templates are selected by the document's own Type, before any
// mapping is applied. A missing Name or Type fails before anything is
// written; a render or write failure aborts the call.
func (e *Emitter) Generate(doc fragment.Document, c *catalog.Catalog) ([]Output, error) {
	if doc.Name() == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequiredField, fragment.FieldName)
	}
	if doc.Type() == "" {
		return nil, fmt.Errorf("%w: %s (class %s)", ErrMissingRequiredField, fragment.FieldType, doc.Name())
	}

	var outputs []Output
	for _, name := range c.Languages() {
		lang := c.Language(name)
		if lang.Config == nil {
			e.logger.Info("Skipping language without config", "language", name)
			continue
		}
		if len(lang.Templates) == 0 {
			continue
		}

		templates := lang.TemplatesFor(doc.Type())
		if len(templates) == 0 {
			e.logger.Debug("No templates for type", "language", name, "type", doc.Type(), "class", doc.Name())
			continue
		}

		data, err := localize(doc, lang.Config.Mappings)
		if err != nil {
			return outputs, fmt.Errorf("localize %s for %s: %w", doc.Name(), name, err)
		}

		namespace, _ := data[fragment.FieldNamespace].(string)
		dir := OutputDir(e.root, namespace, lang.Config.Namespace)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return outputs, fmt.Errorf("create output directory: %w", err)
		}

		for _, t := range templates {
			var buf bytes.Buffer
			if err := t.Execute(&buf, data); err != nil {
				return outputs, fmt.Errorf("render %s with %s: %w", doc.Name(), t.FileName, err)
			}

			path := filepath.Join(dir, FileName(doc.Name(), t.SubType, lang.Config.Extension))
			if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
				return outputs, fmt.Errorf("write output: %w", err)
			}

			e.logger.Debug("Wrote file", "path", path, "language", name, "template", t.FileName)
			outputs = append(outputs, Output{Path: path, Language: name, Template: t.FileName})
		}
	}
	return outputs, nil
}

// localize applies the mapping table and round-trips the result through
// YAML so templates only ever see plain maps, slices and scalars.
func localize(doc fragment.Document, table *mapping.Table) (map[string]any, error) {
	mapped := mapping.ProcessData(map[string]any(doc), table)

	data, err := yaml.Marshal(mapped)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OutputDir resolves the directory for a namespace. An explicit folder map
// entry wins; otherwise the configured prefix is stripped and the remaining
// dot-delimited segments become nested directories. An empty namespace maps
// to root.
func OutputDir(root, namespace string, cfg catalog.NamespaceConfig) string {
	if namespace == "" {
		return root
	}
	if folder, ok := cfg.FolderMap[namespace]; ok && folder != "" {
		return filepath.Join(root, folder)
	}

	trimmed := namespace
	if cfg.PrefixToIgnore != "" && strings.HasPrefix(trimmed, cfg.PrefixToIgnore) {
		trimmed = strings.TrimPrefix(trimmed[len(cfg.PrefixToIgnore):], ".")
	}

	parts := []string{root}
	for _, segment := range strings.Split(trimmed, ".") {
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return filepath.Join(parts...)
}

// FileName returns <subType.>?<name>.Generated.<ext>.
func FileName(name, subType, ext string) string {
	file := name + GeneratedMarker + ext
	if subType != "" {
		file = subType + "." + file
	}
	return file
}
