// Package catalog loads per-language generation configs and templates.
//
// A catalog directory is flat. Config documents (*.json, *.yaml, *.yml)
// declare a language, its file extension, namespace routing and mapping
// tables. Template files are named [subType.]<type>.<language>.hbs and are
// Handlebars templates with the helpers from Helpers.
package catalog

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/c360studio/diagen/mapping"
	"gopkg.in/yaml.v3"
)

// TemplateExt is the extension of template files.
const TemplateExt = ".hbs"

const (
	configPattern   = "*.{json,yaml,yml}"
	templatePattern = "*" + TemplateExt
)

// NamespaceConfig controls where a namespace's output lands.
type NamespaceConfig struct {
	// FolderMap maps a full namespace to a directory below the output root.
	FolderMap map[string]string `yaml:"namespaceFolderMap,omitempty"`

	// PrefixToIgnore is stripped from the front of a namespace before the
	// remaining segments become directories.
	PrefixToIgnore string `yaml:"prefixToIgnore,omitempty"`
}

// Config is one language's generation config.
type Config struct {
	Language  string          `yaml:"language"`
	Extension string          `yaml:"extension"`
	Namespace NamespaceConfig `yaml:"namespace,omitempty"`
	Mappings  *mapping.Table  `yaml:"mappings,omitempty"`
}

// Template is one parsed template file.
type Template struct {
	FileName string
	Type     string
	SubType  string
	Language string

	tmpl *raymond.Template
}

// Execute renders the template against data.
func (t *Template) Execute(w io.Writer, data any) error {
	out, err := t.tmpl.Exec(data)
	if err != nil {
		return fmt.Errorf("render %s: %w", t.FileName, err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Language groups a config with its templates. Config is nil when only
// templates were found.
type Language struct {
	Name      string
	Config    *Config
	Templates []*Template
}

// TemplatesFor returns the templates whose type equals typ, ignoring case.
func (l *Language) TemplatesFor(typ string) []*Template {
	var out []*Template
	for _, t := range l.Templates {
		if strings.EqualFold(t.Type, typ) {
			out = append(out, t)
		}
	}
	return out
}

// Catalog is the set of languages loaded from one directory.
type Catalog struct {
	languages map[string]*Language
}

// Languages returns the language keys in sorted order.
func (c *Catalog) Languages() []string {
	names := make([]string, 0, len(c.languages))
	for name := range c.languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Language returns a language by key, ignoring case, or nil.
func (c *Catalog) Language(name string) *Language {
	return c.languages[strings.ToLower(name)]
}

func (c *Catalog) language(name string) *Language {
	key := strings.ToLower(name)
	lang, ok := c.languages[key]
	if !ok {
		lang = &Language{Name: key}
		c.languages[key] = lang
	}
	return lang
}

// LoadDir loads the catalog in a directory.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogRead, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrCatalogRead, dir)
	}
	return Load(os.DirFS(dir))
}

// Load reads configs and templates from the top level of fsys. A config
// without a language, an undecodable config or a template that does not
// parse aborts the load.
func Load(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{languages: make(map[string]*Language)}

	configs, err := doublestar.Glob(fsys, configPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogRead, err)
	}
	sort.Strings(configs)
	for _, name := range configs {
		cfg, err := readConfig(fsys, name)
		if err != nil {
			return nil, err
		}
		c.language(cfg.Language).Config = cfg
	}

	templates, err := doublestar.Glob(fsys, templatePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogRead, err)
	}
	sort.Strings(templates)
	for _, name := range templates {
		t, err := readTemplate(fsys, name)
		if err != nil {
			return nil, err
		}
		lang := c.language(t.Language)
		lang.Templates = append(lang.Templates, t)
	}

	return c, nil
}

func readConfig(fsys fs.FS, name string) (*Config, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogRead, name, err)
	}

	// JSON configs decode through yaml.v3 as well, which keeps mapping
	// entries in file order.
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogRead, name, err)
	}
	if strings.TrimSpace(cfg.Language) == "" {
		return nil, fmt.Errorf("%w: %s: language is required", ErrCatalogRead, name)
	}
	if cfg.Mappings == nil {
		cfg.Mappings = mapping.NewTable()
	}
	cfg.Extension = strings.TrimPrefix(cfg.Extension, ".")
	return &cfg, nil
}

// readTemplate parses [subType.]<type>.<language>.hbs.
func readTemplate(fsys fs.FS, name string) (*Template, error) {
	base := strings.TrimSuffix(path.Base(name), TemplateExt)
	parts := strings.Split(base, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %s: want [subType.]<type>.<language>%s", ErrCatalogRead, name, TemplateExt)
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogRead, name, err)
	}

	tmpl, err := raymond.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogRead, name, err)
	}
	tmpl.RegisterHelpers(Helpers())

	n := len(parts)
	return &Template{
		FileName: name,
		Language: strings.ToLower(parts[n-1]),
		Type:     parts[n-2],
		SubType:  strings.Join(parts[:n-2], "."),
		tmpl:     tmpl,
	}, nil
}
