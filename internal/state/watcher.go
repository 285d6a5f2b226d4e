package state

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the shared state file for changes and reloads it,
// so external writers (the CLI, another daemon instance) are observed.
type Watcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	logger   *slog.Logger
	done     chan struct{}
	mu       sync.Mutex
	running  bool

	onChange func(*SharedState)
	onError  func(error)
}

// NewWatcher creates a new watcher for the state file at path.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:  fsw,
		filePath: path,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// OnChange sets the callback invoked with the freshly loaded state.
func (w *Watcher) OnChange(fn func(*SharedState)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// OnError sets the callback invoked when a reload fails.
func (w *Watcher) OnError(fn func(error)) {
	w.mu.Lock()
	w.onError = fn
	w.mu.Unlock()
}

// Start begins watching the state file for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory containing the file (more reliable for writes)
	dir := filepath.Dir(w.filePath)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watch()
	return nil
}

func (w *Watcher) watch() {
	filename := filepath.Base(w.filePath)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only care about our file
			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.logger.Debug("state file changed, reloading", "file", w.filePath)
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("state watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	st, err := LoadSharedState(w.filePath)

	w.mu.Lock()
	onChange := w.onChange
	onError := w.onError
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("failed to reload shared state", "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	if onChange != nil {
		onChange(st)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.done)
	return w.watcher.Close()
}
