package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration whenever its file is rewritten.
//
// It watches the file's parent directory (editors often replace the file
// by rename, which would silently drop a watch on the file itself) and
// re-parses on every create/write touching the configured path. Reloads
// that fail to parse are reported on Errors and the previous configuration
// stays in effect.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	configs chan *Config
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a watcher for the config file at path.
// The watcher must be started with Start() before it emits anything.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:    abs,
		watcher: fw,
		configs: make(chan *Config, 1),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the config file for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching and cleans up resources.
// It blocks until the event processing goroutine has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()

	close(w.configs)
	close(w.errors)

	return nil
}

// Configs returns the channel emitting freshly loaded configurations.
// Delivery is coalescing: rapid rewrites may collapse to the final state.
func (w *Watcher) Configs() <-chan *Config {
	return w.configs
}

// Errors returns the channel emitting reload failures.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// processEvents converts fsnotify events for the config file into reloads.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event) {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// matches reports whether the event touches the config file with an
// operation that warrants a reload.
func (w *Watcher) matches(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return abs == w.path
}

// reload parses the file and publishes the result, latest wins.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		select {
		case w.errors <- err:
		case <-w.done:
		default:
		}
		return
	}

	select {
	case w.configs <- cfg:
	default:
		select {
		case <-w.configs:
		default:
		}
		select {
		case w.configs <- cfg:
		default:
		}
	}
}
