package fragment

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/c360studio/diagen/diagram"
	"gopkg.in/yaml.v3"
)

// FileSuffix is appended to the class name of every written fragment.
const FileSuffix = ".Generated.yml"

// Encode renders a class record as a fragment document. Empty collections
// and strings are left out, except for Name, Namespace and Type.
func Encode(record *diagram.ClassRecord) ([]byte, error) {
	data, err := yaml.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", record.Name, err)
	}
	return data, nil
}

// Dir returns the directory a namespace's fragments are written to. The first
// occurrence of skipNamespace is removed from the namespace, then each
// dot-delimited segment becomes a directory.
func Dir(outputDir, namespace, skipNamespace string) string {
	if skipNamespace != "" {
		namespace = strings.Replace(namespace, skipNamespace, "", 1)
	}
	parts := []string{outputDir}
	for _, segment := range strings.Split(namespace, ".") {
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return filepath.Join(parts...)
}

// Writer persists a model as fragment files.
type Writer struct {
	skipNamespace string
	logger        *slog.Logger
}

// NewWriter creates a fragment writer. skipNamespace is stripped from
// namespaces before they are turned into directories.
func NewWriter(skipNamespace string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{skipNamespace: skipNamespace, logger: logger}
}

// Write writes one <Class>.Generated.yml per class below outputDir and
// returns the written paths. Namespaces and classes are visited in sorted
// order. The first write failure aborts.
func (w *Writer) Write(model diagram.NamespaceTable, outputDir string) ([]string, error) {
	namespaces := make([]string, 0, len(model))
	for ns := range model {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	var written []string
	for _, ns := range namespaces {
		classes := model[ns]
		names := make([]string, 0, len(classes))
		for name := range classes {
			names = append(names, name)
		}
		sort.Strings(names)

		dir := Dir(outputDir, ns, w.skipNamespace)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return written, fmt.Errorf("create fragment directory: %w", err)
		}

		for _, name := range names {
			data, err := Encode(classes[name])
			if err != nil {
				return written, err
			}
			path := filepath.Join(dir, name+FileSuffix)
			if err := os.WriteFile(path, data, 0644); err != nil {
				return written, fmt.Errorf("write fragment: %w", err)
			}
			w.logger.Debug("Wrote fragment", "path", path, "namespace", ns, "class", name)
			written = append(written, path)
		}
	}
	return written, nil
}
