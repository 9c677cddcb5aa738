// Package watch reruns the pipeline when diagram sources or fragment files
// change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/diagen/source/parser"
	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the watch event channel.
	eventChannelBuffer = 500

	// DefaultDebounce is used when a Config leaves Debounce unset.
	DefaultDebounce = 500 * time.Millisecond
)

// Config configures a Watcher.
type Config struct {
	// Debounce is how long changes are collected before events are sent.
	Debounce time.Duration

	// Extensions lists the file extensions to report (e.g. ".md").
	Extensions []string

	// ExcludeDirs lists directory names that are never watched.
	ExcludeDirs []string
}

func (c Config) debounce() time.Duration {
	if c.Debounce <= 0 {
		return DefaultDebounce
	}
	return c.Debounce
}

// Operation is the kind of change an Event reports.
type Operation string

// OpCreate, OpModify, and OpDelete enumerate the file change kinds.
const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event is a debounced file change.
type Event struct {
	// Path is the file path relative to the watched directory.
	Path string

	// AbsPath is the file path as reported by the file system.
	AbsPath string

	// Operation is the type of change.
	Operation Operation
}

// Watcher watches a directory tree, or a single file, and emits one event
// per changed file after the debounce delay. Writes that leave a file's
// content unchanged are not reported.
type Watcher struct {
	config   Config
	root     string
	dir      string
	onlyFile string

	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	extensions map[string]bool
	excludes   map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.RWMutex
	hashes map[string]string

	events        chan Event
	droppedEvents atomic.Int64
}

// NewWatcher creates a watcher for root. When root is a file only that file
// is reported.
func NewWatcher(config Config, root string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	extensions := make(map[string]bool, len(config.Extensions))
	for _, ext := range config.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[strings.ToLower(ext)] = true
	}

	excludes := make(map[string]bool)
	if len(config.ExcludeDirs) == 0 {
		excludes[".git"] = true
		excludes["node_modules"] = true
		excludes["vendor"] = true
	} else {
		for _, dir := range config.ExcludeDirs {
			excludes[dir] = true
		}
	}

	w := &Watcher{
		config:     config,
		root:       root,
		dir:        root,
		watcher:    fsw,
		logger:     logger,
		extensions: extensions,
		excludes:   excludes,
		pending:    make(map[string]fsnotify.Op),
		hashes:     make(map[string]string),
		events:     make(chan Event, eventChannelBuffer),
	}

	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		w.dir = filepath.Dir(root)
		w.onlyFile = filepath.Clean(root)
	}
	return w, nil
}

// Events returns the channel of watch events. It is closed when the watcher
// stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start records the hashes of existing files and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	if w.onlyFile != "" {
		if err := w.watcher.Add(w.dir); err != nil {
			return fmt.Errorf("watch %s: %w", w.dir, err)
		}
		w.Prime(w.onlyFile)
	} else {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			return err
		}
		if err := w.addWatchesRecursive(w.dir); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Watcher started",
		"root", w.root,
		"debounce", w.config.debounce(),
		"extensions", w.config.Extensions)

	return nil
}

// Stop stops the watcher.
// The events channel is closed by processEvents when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// SetHash records the hash for a path relative to the watched directory.
func (w *Watcher) SetHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

// GetHash returns the recorded hash for a path.
func (w *Watcher) GetHash(path string) (string, bool) {
	w.hashMu.RLock()
	defer w.hashMu.RUnlock()
	hash, ok := w.hashes[path]
	return hash, ok
}

// Prime records the current content hash of a file so that an identical
// write is not reported. Files that cannot be read are ignored.
func (w *Watcher) Prime(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	w.SetHash(w.rel(path), parser.ContentHash(content))
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return path
	}
	return rel
}

// addWatchesRecursive watches every directory below root and records the
// hashes of files that are already there.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			if w.matches(path) {
				w.Prime(path)
			}
			return nil
		}

		base := filepath.Base(path)
		if path != root && (w.excludes[base] || strings.HasPrefix(base, ".")) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	if w.onlyFile != "" {
		return filepath.Clean(path) == w.onlyFile
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.config.debounce())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !w.matches(path) {
		if w.onlyFile == "" && event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	relPath := w.rel(path)
	for excludeDir := range w.excludes {
		if strings.Contains(relPath, excludeDir+string(filepath.Separator)) {
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Change detected",
		"path", relPath,
		"op", event.Op.String())
}

// handleNewDirectory watches a new directory and reports the files already
// created in it.
func (w *Watcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if w.excludes[base] || strings.HasPrefix(base, ".") {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
		return
	}
	w.logger.Debug("Added watch for new directory", "path", path)

	entries, err := os.ReadDir(path)
	if err != nil {
		return
	}
	for _, entry := range entries {
		child := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			w.handleNewDirectory(child)
			continue
		}
		if w.matches(child) {
			w.pendingMu.Lock()
			w.pending[child] |= fsnotify.Create
			w.pendingMu.Unlock()
		}
	}
}

// flushPending turns accumulated changes into events.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		relPath := w.rel(path)
		event := Event{Path: relPath, AbsPath: path}

		content, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				w.logger.Warn("Failed to read file for hash check",
					"path", relPath,
					"error", err)
				continue
			}
			w.hashMu.Lock()
			_, known := w.hashes[relPath]
			delete(w.hashes, relPath)
			w.hashMu.Unlock()
			if known || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
				event.Operation = OpDelete
				w.sendEvent(event)
			}
			continue
		}

		newHash := parser.ContentHash(content)
		oldHash, hadHash := w.GetHash(relPath)
		if hadHash && oldHash == newHash {
			continue
		}
		w.SetHash(relPath, newHash)

		if hadHash {
			event.Operation = OpModify
		} else {
			event.Operation = OpCreate
		}
		w.sendEvent(event)
	}
}

func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"op", event.Operation)
	default:
		dropped := w.droppedEvents.Add(1)
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path,
			"total_dropped", dropped)
	}
}

// DroppedEvents returns the number of events dropped due to channel overflow.
func (w *Watcher) DroppedEvents() int64 {
	return w.droppedEvents.Load()
}
