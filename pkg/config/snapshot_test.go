package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestSnapshot_SwapIsAtomic(t *testing.T) {
	first, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	snap := NewSnapshot(first)

	if snap.Get() != first {
		t.Fatal("snapshot did not return initial config")
	}

	second, _ := Parse([]byte(`{}`))
	second.Server.ListenAddress = "0.0.0.0:1"
	snap.swap(second)

	got := snap.Get()
	if got != second {
		t.Error("snapshot did not swap to new config")
	}
	if got.Server.ListenAddress != "0.0.0.0:1" {
		t.Error("swapped config is not complete")
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfigFile(t, sampleYAML)

	initial, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("initial load failed: %v", err)
	}
	snap := NewSnapshot(initial)

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(WatcherConfig{
		Path:     path,
		Snapshot: snap,
		Debounce: 20 * time.Millisecond,
		OnReload: func(cfg *Config) { reloaded <- cfg },
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)

	updated := sampleYAML + "\n# touched\n"
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg != snap.Get() {
			t.Error("snapshot does not hold the reloaded config")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not reload within timeout")
	}
}

func TestWatcher_KeepsPreviousConfigOnInvalidReload(t *testing.T) {
	path := writeConfigFile(t, sampleYAML)

	initial, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("initial load failed: %v", err)
	}
	snap := NewSnapshot(initial)

	w, err := NewWatcher(WatcherConfig{
		Path:     path,
		Snapshot: snap,
		Debounce: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()

	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("limits:\n  broken: {}\n"), 0o600); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	// Wait past the debounce window, then confirm the snapshot is intact.
	time.Sleep(300 * time.Millisecond)

	if snap.Get() != initial {
		t.Error("invalid reload replaced the snapshot")
	}
}
