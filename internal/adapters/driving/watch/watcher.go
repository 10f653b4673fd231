// Package watch ingests .eml files dropped into a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
	"github.com/custodia-labs/mailrag/internal/logger"
	"github.com/custodia-labs/mailrag/internal/normalisers/eml"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
// Mail clients often write a message in several chunks.
const DefaultDebounce = 500 * time.Millisecond

// Result reports the outcome of ingesting one file.
type Result struct {
	Path  string
	Email *domain.Email
	Err   error
}

// Watcher ingests new and rewritten .eml files in a single directory.
type Watcher struct {
	dir      string
	emails   driving.EmailService
	parser   *eml.Normaliser
	debounce time.Duration
	results  func(Result)

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]time.Time
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithResults registers a callback invoked after every ingest attempt.
func WithResults(fn func(Result)) Option {
	return func(w *Watcher) { w.results = fn }
}

// New creates a watcher for dir.
func New(dir string, emails driving.EmailService, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		emails:   emails,
		parser:   eml.New(),
		debounce: DefaultDebounce,
		results:  func(Result) {},
		pending:  make(map[string]*time.Timer),
		seen:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// IngestExisting ingests every .eml file already in the directory, in name
// order, and returns how many succeeded.
func (w *Watcher) IngestExisting(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", w.dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	count := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		path := filepath.Join(w.dir, entry.Name())
		if entry.IsDir() || !isMessage(path) {
			continue
		}
		if w.ingest(ctx, path).Err == nil {
			count++
		}
	}
	return count, nil
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch dir: %s is not a directory", w.dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("watching %s for .eml files", w.dir)

	defer w.drain()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// relevant reports whether an event should trigger an ingest.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if !isMessage(event.Name) {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.Mode().IsRegular()
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		if ctx.Err() == nil {
			w.ingest(ctx, path)
		}
	})
	w.pending[path] = t
}

// drain cancels timers that have not fired and waits for running ingests.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// ingest parses and ingests one file, skipping files whose modification
// time has not changed since the last successful ingest.
func (w *Watcher) ingest(ctx context.Context, path string) Result {
	res := Result{Path: path}
	defer func() { w.results(res) }()

	info, err := os.Stat(path)
	if err != nil {
		res.Err = err
		return res
	}

	w.mu.Lock()
	last, done := w.seen[path]
	w.mu.Unlock()
	if done && last.Equal(info.ModTime()) {
		res.Err = ErrUnchanged
		return res
	}

	req, err := w.parser.NormaliseFile(path)
	if err != nil {
		res.Err = err
		logger.Warn("skipping %s: %v", filepath.Base(path), err)
		return res
	}

	email, err := w.emails.Ingest(ctx, req)
	if err != nil {
		res.Err = err
		logger.Error(err, "ingesting %s", filepath.Base(path))
		return res
	}

	w.mu.Lock()
	w.seen[path] = info.ModTime()
	w.mu.Unlock()

	res.Email = email
	logger.Info("ingested %s as #%d [%s]", filepath.Base(path), email.ID, email.Category)
	return res
}

// ErrUnchanged is reported for files already ingested at their current modification time.
var ErrUnchanged = errors.New("file unchanged since last ingest")

func isMessage(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), eml.Extension)
}
