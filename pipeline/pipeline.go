// Package pipeline runs the two stages of a generation: transform (diagram
// sources to fragment files) and generate (fragment tree to source files).
// Each run is synchronous and rebuilds everything from disk, so a run can be
// repeated at any time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c360studio/diagen/catalog"
	"github.com/c360studio/diagen/diagram"
	"github.com/c360studio/diagen/emitter"
	"github.com/c360studio/diagen/fragment"
	"github.com/c360studio/diagen/metrics"
	"github.com/c360studio/diagen/source/parser"
	"github.com/google/uuid"
)

// fragmentLanguage labels fragment files in the files-written metric.
const fragmentLanguage = "yaml"

// Pipeline wires parsing, building, merging and emission together.
type Pipeline struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	parsers    *parser.Registry
	systemType diagram.SystemTypeFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithParsers replaces the source parser registry.
func WithParsers(r *parser.Registry) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.parsers = r
		}
	}
}

// WithSystemTypeFunc replaces the builder's IsSystemType predicate.
func WithSystemTypeFunc(fn diagram.SystemTypeFunc) Option {
	return func(p *Pipeline) {
		p.systemType = fn
	}
}

// New creates a pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:  slog.Default(),
		parsers: parser.DefaultRegistry,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}
	return p
}

// Metrics returns the collectors the pipeline records into.
func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}

// Report summarizes one run.
type Report struct {
	RunID    string
	Stage    string
	Sources  int
	Blocks   int
	Classes  int
	Files    []string
	Warnings []diagram.Warning
	Duration time.Duration
}

// TransformOptions configures a transform run.
type TransformOptions struct {
	// Input is a diagram source file or a directory searched recursively.
	Input string

	// Output is the fragment root.
	Output string

	// SkipNamespace is removed from namespaces before they become
	// directories.
	SkipNamespace string
}

// GenerateOptions configures a generate run.
type GenerateOptions struct {
	// Input is the fragment root.
	Input string

	// Output is the root generated files are routed below.
	Output string

	// Templates is a catalog directory. Ignored when Builtin is set.
	Templates string

	// Builtin names a catalog compiled into the binary.
	Builtin string

	// Identity selects how fragments are grouped.
	Identity fragment.Identity
}

func (p *Pipeline) begin(stage string) (*Report, *slog.Logger) {
	r := &Report{RunID: uuid.NewString(), Stage: stage}
	return r, p.logger.With("run_id", r.RunID, "stage", stage)
}

func (p *Pipeline) finish(r *Report, start time.Time) {
	r.Duration = time.Since(start)
	p.metrics.ObserveRun(r.Stage, r.Duration)
}

// Transform parses every class diagram under opts.Input into one model and
// writes it as fragment files. Blocks that are not class diagrams are logged
// and skipped. Write failures abort the run.
func (p *Pipeline) Transform(ctx context.Context, opts TransformOptions) (*Report, error) {
	start := time.Now()
	report, logger := p.begin(metrics.StageTransform)
	defer p.finish(report, start)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if opts.Output == "" {
		return report, errors.New("transform: output directory is required")
	}

	sources, err := p.discoverSources(opts.Input)
	if err != nil {
		return report, fmt.Errorf("transform: %w", err)
	}
	report.Sources = len(sources)
	logger.Info("Transform started", "input", opts.Input, "sources", len(sources))

	builder := diagram.NewBuilder(diagram.WithLogger(logger), diagram.WithSystemTypeFunc(p.systemType))
	for _, path := range sources {
		content, err := os.ReadFile(path)
		if err != nil {
			return report, fmt.Errorf("transform: read %s: %w", path, err)
		}
		doc, err := p.parsers.Parse(path, content)
		if err != nil {
			return report, fmt.Errorf("transform: %w", err)
		}
		for i, block := range doc.Blocks {
			events, err := parser.ParseClassDiagram(block)
			if err != nil {
				logger.Warn("Skipping diagram block", "path", path, "block", i, "error", err)
				continue
			}
			builder.ApplyAll(events)
			report.Blocks++
		}
	}

	model := builder.Model()
	report.Classes = model.Len()
	report.Warnings = builder.Warnings()
	p.metrics.ClassesBuilt.Add(float64(report.Classes))
	for _, w := range report.Warnings {
		p.metrics.Warnings.WithLabelValues(string(w.Kind)).Inc()
	}

	written, err := fragment.NewWriter(opts.SkipNamespace, logger).Write(model, opts.Output)
	report.Files = written
	p.metrics.FilesWritten.WithLabelValues(fragmentLanguage).Add(float64(len(written)))
	if err != nil {
		return report, fmt.Errorf("transform: %w", err)
	}

	logger.Info("Transform finished",
		"blocks", report.Blocks,
		"classes", report.Classes,
		"files", len(written),
		"warnings", len(report.Warnings))
	return report, nil
}

// discoverSources returns input itself when it is a file, or every file
// below it with a registered extension, sorted.
func (p *Pipeline) discoverSources(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	pattern := "**/*{" + strings.Join(p.parsers.ListExtensions(), ",") + "}"
	matches, err := doublestar.Glob(os.DirFS(input), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(input, filepath.FromSlash(m))
	}
	return paths, nil
}

// Generate merges the fragment tree and renders every merged class with the
// catalog. Input, output and templates must exist. The first missing field,
// render error or write failure aborts the run.
func (p *Pipeline) Generate(ctx context.Context, opts GenerateOptions) (*Report, error) {
	start := time.Now()
	report, logger := p.begin(metrics.StageGenerate)
	defer p.finish(report, start)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := requireDir("input", opts.Input); err != nil {
		return report, err
	}
	if err := requireDir("output", opts.Output); err != nil {
		return report, err
	}

	cat, err := p.loadCatalog(opts)
	if err != nil {
		return report, err
	}

	set, err := fragment.NewLoader(opts.Identity, logger).Load(opts.Input)
	if err != nil {
		return report, fmt.Errorf("generate: %w", err)
	}
	report.Sources = set.Files()
	report.Classes = set.Len()
	p.metrics.FragmentsLoaded.Add(float64(set.Files()))
	logger.Info("Generate started",
		"fragments", set.Files(),
		"classes", set.Len(),
		"languages", cat.Languages())

	emit := emitter.New(opts.Output, logger)
	for _, doc := range set.Documents() {
		outputs, err := emit.Generate(doc, cat)
		for _, out := range outputs {
			report.Files = append(report.Files, out.Path)
			p.metrics.FilesWritten.WithLabelValues(out.Language).Inc()
		}
		if err != nil {
			return report, fmt.Errorf("generate: %w", err)
		}
	}

	logger.Info("Generate finished", "classes", report.Classes, "files", len(report.Files))
	return report, nil
}

func (p *Pipeline) loadCatalog(opts GenerateOptions) (*catalog.Catalog, error) {
	if opts.Builtin != "" {
		cat, err := catalog.LoadBuiltin(opts.Builtin)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		return cat, nil
	}
	if err := requireDir("templates", opts.Templates); err != nil {
		return nil, err
	}
	cat, err := catalog.LoadDir(opts.Templates)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return cat, nil
}

func requireDir(what, path string) error {
	if path == "" {
		return fmt.Errorf("%s directory is required", what)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s directory does not exist: %w", what, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %s", what, path)
	}
	return nil
}
