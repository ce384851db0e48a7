// Package watcher monitors a docs directory for article changes so an
// open document can be re-rendered without restarting. It prefers
// fsnotify and falls back to mtime polling on filesystems where inotify
// is unreliable or unavailable.
package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bluerabbit/kcore/pkg/debug"
)

// DefaultPollInterval is how often the polling fallback rescans the tree.
const DefaultPollInterval = 2 * time.Second

// EnvForcePolling forces polling mode regardless of fsnotify support.
const EnvForcePolling = "KC_FORCE_POLLING"

var ErrAlreadyStarted = errors.New("watcher already started")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce window for change bursts.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDuration = d }
}

// WithPollInterval sets the rescan interval for polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnChange sets the callback invoked with the slash-separated
// article name relative to the watched directory.
func WithOnChange(fn func(name string)) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked on watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

type fileState struct {
	mtime time.Time
	size  int64
}

// Watcher watches every Markdown file under a directory.
type Watcher struct {
	dir              string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func(string)
	onError          func(error)
	forcePoll        bool

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	states    map[string]fileState

	pendingMu sync.Mutex
	pending   map[string]bool

	done     chan struct{}
	started  bool
	mu       sync.RWMutex
	changeCh chan string
}

// New creates a watcher for the Markdown files under dir.
func New(dir string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		dir:              abs,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func(string) {},
		onError:          func(error) {},
		pending:          map[string]bool{},
		changeCh:         make(chan string, 8),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounceDuration)

	return w, nil
}

// Start begins watching. It fails if the directory does not exist.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	info, err := os.Stat(w.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("watch target is not a directory")
	}

	w.done = make(chan struct{})
	w.states = scanTree(w.dir)
	w.polling = w.forcePoll || envBool(EnvForcePolling)

	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			w.polling = true
		} else if err := addTree(fsw, w.dir); err != nil {
			fsw.Close()
			w.polling = true
		} else {
			w.fsWatcher = fsw
			go w.watchFsnotify()
		}
	}
	if w.polling {
		debug.Log("watcher: polling %s every %v", w.dir, w.pollInterval)
		go w.watchPolling()
	}

	w.started = true
	return nil
}

// Stop stops watching. The change channel stays open so a reader
// blocked on it at program exit is cleaned up by process termination
// rather than a racy close.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	close(w.done)
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling reports whether the polling fallback is active.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives the names of changed articles.
func (w *Watcher) Changed() <-chan string {
	return w.changeCh
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

// scanTree records mtime and size for every Markdown file under dir.
func scanTree(dir string) map[string]fileState {
	states := map[string]fileState{}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isMarkdown(path) {
			return nil
		}
		if info, err := d.Info(); err == nil {
			states[path] = fileState{mtime: info.ModTime(), size: info.Size()}
		}
		return nil
	})
	return states
}

// addTree registers dir and every subdirectory with the fsnotify watcher.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) watchFsnotify() {
	w.mu.RLock()
	fsw := w.fsWatcher
	w.mu.RUnlock()
	if fsw == nil {
		return
	}

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			// New subdirectories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						w.onError(err)
					}
					continue
				}
			}
			if !isMarkdown(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.markChanged(event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case <-ticker.C:
			current := scanTree(w.dir)

			w.mu.Lock()
			previous := w.states
			w.states = current
			w.mu.Unlock()

			for path, state := range current {
				prev, ok := previous[path]
				if !ok || state.mtime.After(prev.mtime) || state.size != prev.size {
					w.markChanged(path)
				}
			}
			for path := range previous {
				if _, ok := current[path]; !ok {
					w.markChanged(path)
				}
			}
		}
	}
}

// markChanged queues a path and schedules the debounced flush.
func (w *Watcher) markChanged(path string) {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return
	}
	name := filepath.ToSlash(rel)

	w.pendingMu.Lock()
	w.pending[name] = true
	w.pendingMu.Unlock()

	w.debouncer.Trigger(w.flushPending)
}

// flushPending delivers every queued name once the burst settles.
func (w *Watcher) flushPending() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	w.pendingMu.Lock()
	names := make([]string, 0, len(w.pending))
	for name := range w.pending {
		names = append(names, name)
	}
	w.pending = map[string]bool{}
	w.pendingMu.Unlock()

	sort.Strings(names)
	for _, name := range names {
		debug.Log("watcher: changed %s", name)
		w.onChange(name)
		select {
		case w.changeCh <- name:
		default:
		}
	}
}
