package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay is how long Watcher waits for more filesystem
// events before re-loading the config, mirroring the document watcher's
// debounce pattern.
const DefaultDebounceDelay = 500 * time.Millisecond

// Watcher watches a single config file and reloads it on change,
// debouncing bursts of filesystem events (editors often write a file
// several times in quick succession via a temp-file-then-rename).
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	fsw      *fsnotify.Watcher

	mu      sync.RWMutex
	current *Config

	updates chan *Config
}

// NewWatcher creates a Watcher for the config file at path, loading it
// once synchronously before returning.
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		path:     path,
		debounce: DefaultDebounceDelay,
		logger:   logger,
		fsw:      fsw,
		current:  cfg,
		updates:  make(chan *Config, 1),
	}, nil
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Updates returns a channel that receives the new config each time the
// watched file is reloaded successfully.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// Run watches for changes until ctx is canceled. The fsnotify watcher is
// closed and the updates channel closed when Run returns.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.updates)

	var pending bool
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			pending = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFromFile(w.path)
	if err != nil {
		w.logger.Warn("failed to reload config", "path", w.path, "error", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("reloaded config failed validation, keeping previous", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)

	select {
	case w.updates <- cfg:
	default:
	}
}
