package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/diagen/metrics"
	"github.com/c360studio/diagen/pipeline"
	"github.com/c360studio/diagen/source/parser"
	"github.com/cenkalti/backoff/v4"
)

// FragmentExtensions are the file extensions reported by the fragment
// watcher.
var FragmentExtensions = []string{".yml", ".yaml"}

// Options configures a Runner.
type Options struct {
	// Transform is used for every transform run. Its Input is watched for
	// diagram changes.
	Transform pipeline.TransformOptions

	// Generate is used for every generate run. Its Input is watched for
	// fragment changes.
	Generate pipeline.GenerateOptions

	// Extensions lists the diagram source extensions. Defaults to every
	// extension of the default parser registry.
	Extensions []string

	// Debounce is how long changes settle before a run starts.
	Debounce time.Duration

	// Retries is how often a failed run is retried.
	Retries int

	// RetryDelay is the delay before the first retry. Later delays grow
	// exponentially.
	RetryDelay time.Duration

	// OnRun is called after every finished run, failed or not.
	OnRun func(report *pipeline.Report, err error)
}

// Runner watches the diagram and fragment trees. A diagram change runs
// transform and then generate; a fragment change runs generate. Deletions
// do not start a run.
type Runner struct {
	pipeline *pipeline.Pipeline
	opts     Options
	logger   *slog.Logger
}

// NewRunner creates a runner for p.
func NewRunner(p *pipeline.Pipeline, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = parser.DefaultRegistry.ListExtensions()
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	return &Runner{pipeline: p, opts: opts, logger: logger}
}

// Run watches until ctx is cancelled. Failed runs are logged and do not stop
// the runner.
func (r *Runner) Run(ctx context.Context) error {
	if r.opts.Transform.Input == "" || r.opts.Generate.Input == "" {
		return errors.New("watch: diagram and fragment inputs are required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	diagrams, err := NewWatcher(Config{
		Debounce:   r.opts.Debounce,
		Extensions: r.opts.Extensions,
	}, r.opts.Transform.Input, r.logger.With("watch", "diagrams"))
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer diagrams.Stop()

	fragments, err := NewWatcher(Config{
		Debounce:   r.opts.Debounce,
		Extensions: FragmentExtensions,
	}, r.opts.Generate.Input, r.logger.With("watch", "fragments"))
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fragments.Stop()

	if err := diagrams.Start(ctx); err != nil {
		return fmt.Errorf("watch diagrams: %w", err)
	}
	if err := fragments.Start(ctx); err != nil {
		return fmt.Errorf("watch fragments: %w", err)
	}

	r.logger.Info("Watching for changes",
		"diagrams", r.opts.Transform.Input,
		"fragments", r.opts.Generate.Input)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-diagrams.Events():
			if !ok {
				return nil
			}
			if !pending(ev, diagrams.Events()) {
				continue
			}
			// generate follows, so queued fragment changes are covered
			drain(fragments.Events())
			r.logger.Info("Detected diagram change", "path", ev.Path)
			r.transformAndGenerate(ctx, fragments)

		case ev, ok := <-fragments.Events():
			if !ok {
				return nil
			}
			if !pending(ev, fragments.Events()) {
				continue
			}
			r.logger.Info("Detected fragment change", "path", ev.Path)
			_ = r.generate(ctx)
		}
	}
}

func (r *Runner) transformAndGenerate(ctx context.Context, fragments *Watcher) {
	var report *pipeline.Report
	err := r.attempt(ctx, metrics.StageTransform, func() error {
		var err error
		report, err = r.pipeline.Transform(ctx, r.opts.Transform)
		return err
	})
	r.notify(report, err)
	if err != nil {
		return
	}

	// the fragments were just written by us
	for _, path := range report.Files {
		fragments.Prime(path)
	}

	_ = r.generate(ctx)
}

func (r *Runner) generate(ctx context.Context) error {
	var report *pipeline.Report
	err := r.attempt(ctx, metrics.StageGenerate, func() error {
		var err error
		report, err = r.pipeline.Generate(ctx, r.opts.Generate)
		return err
	})
	r.notify(report, err)
	return err
}

func (r *Runner) notify(report *pipeline.Report, err error) {
	if err != nil {
		r.logger.Error("Run failed", "error", err)
	}
	if r.opts.OnRun != nil {
		r.opts.OnRun(report, err)
	}
}

// attempt calls fn once and then up to Retries more times while it fails.
func (r *Runner) attempt(ctx context.Context, stage string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.opts.RetryDelay
	policy.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.opts.Retries)), ctx)
	return backoff.RetryNotify(fn, b, func(err error, next time.Duration) {
		r.logger.Warn("Run failed, retrying",
			"stage", stage,
			"error", err,
			"retry_in", next)
	})
}

// pending reports whether ev, or any event already queued behind it, asks
// for a run. Queued events are consumed.
func pending(ev Event, events <-chan Event) bool {
	run := ev.Operation != OpDelete
	for {
		select {
		case next, ok := <-events:
			if !ok {
				return run
			}
			if next.Operation != OpDelete {
				run = true
			}
		default:
			return run
		}
	}
}

func drain(events <-chan Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
