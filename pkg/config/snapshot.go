package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Snapshot holds the current configuration behind an atomic pointer.
// Readers always see a complete configuration: reloads swap the whole
// value, never mutate it in place.
type Snapshot struct {
	ptr atomic.Pointer[Config]
}

// NewSnapshot creates a Snapshot holding cfg.
func NewSnapshot(cfg *Config) *Snapshot {
	s := &Snapshot{}
	s.ptr.Store(cfg)
	return s
}

// Get returns the current configuration. The returned value must be
// treated as read-only.
func (s *Snapshot) Get() *Config {
	return s.ptr.Load()
}

// swap atomically replaces the configuration.
func (s *Snapshot) swap(cfg *Config) {
	s.ptr.Store(cfg)
}

// Watcher reloads the configuration file on change and swaps the
// snapshot atomically. A reload that fails to parse or validate is
// logged and discarded; the previous snapshot stays in effect.
type Watcher struct {
	path     string
	snapshot *Snapshot
	logger   *slog.Logger
	debounce time.Duration
	onReload func(*Config)
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Path is the configuration file to watch.
	Path string

	// Snapshot receives validated reloads.
	Snapshot *Snapshot

	// Debounce is the quiet period after a write before reloading.
	// Default: 200ms. Editors and atomic-rename writers produce bursts
	// of events for one save.
	Debounce time.Duration

	// OnReload, when set, is called with each successfully applied
	// configuration.
	OnReload func(*Config)

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewWatcher creates a configuration file watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watcher path is required")
	}
	if cfg.Snapshot == nil {
		return nil, fmt.Errorf("watcher snapshot is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 200 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Watcher{
		path:     cfg.Path,
		snapshot: cfg.Snapshot,
		logger:   cfg.Logger.With("component", "config.watcher"),
		debounce: cfg.Debounce,
		onReload: cfg.OnReload,
	}, nil
}

// Watch blocks, reloading the file on changes, until ctx is cancelled.
// The parent directory is watched rather than the file itself so that
// atomic rename-into-place saves are observed.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.logger.Info("config watcher started", "path", w.path)

	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher error", "error", err)

		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadWithEnvOverrides(w.path)
	if err != nil {
		w.logger.Error("config reload rejected, keeping previous configuration",
			"path", w.path,
			"error", err,
		)
		return
	}

	w.snapshot.swap(cfg)
	w.logger.Info("configuration reloaded", "path", w.path)

	if w.onReload != nil {
		w.onReload(cfg)
	}
}
