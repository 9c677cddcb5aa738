package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed builtin
var builtinFS embed.FS

const builtinRoot = "builtin"

// Builtin returns the languages that ship with the binary, sorted.
func Builtin() []string {
	entries, err := fs.ReadDir(builtinFS, builtinRoot)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// BuiltinFS returns the files of a built-in language catalog.
func BuiltinFS(language string) (fs.FS, error) {
	language = strings.ToLower(language)
	sub, err := fs.Sub(builtinFS, builtinRoot+"/"+language)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}
	if _, err := fs.Stat(sub, "."); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}
	return sub, nil
}

// LoadBuiltin loads the built-in catalog for one language.
func LoadBuiltin(language string) (*Catalog, error) {
	sub, err := BuiltinFS(language)
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// CopyBuiltin copies a built-in language catalog into dir, creating dir when
// missing, and returns the written paths. Existing files are overwritten.
func CopyBuiltin(language, dir string) ([]string, error) {
	sub, err := BuiltinFS(language)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create template directory: %w", err)
	}

	entries, err := fs.ReadDir(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}

	var written []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := fs.ReadFile(sub, e.Name())
		if err != nil {
			return written, err
		}
		dest := filepath.Join(dir, e.Name())
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", dest, err)
		}
		written = append(written, dest)
	}
	return written, nil
}
