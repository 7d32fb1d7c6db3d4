package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path string, substituteWeight float64) {
	t.Helper()
	content := fmt.Sprintf("ted:\n  weight_substitute: %.1f\n", substituteWeight)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherLoadsInitialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spsm.yaml")
	writeConfig(t, path, 2)

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if got := w.Current().TED.WeightSubstitute; got != 2.0 {
		t.Errorf("expected initial substitute weight 2.0, got %f", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spsm.yaml")
	writeConfig(t, path, 2)

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeConfig(t, path, 3)

	select {
	case cfg := <-w.Updates():
		if cfg.TED.WeightSubstitute != 3.0 {
			t.Errorf("expected reloaded substitute weight 3.0, got %f", cfg.TED.WeightSubstitute)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	if w.Current().TED.WeightSubstitute != 3.0 {
		t.Error("Current() should reflect the reloaded config")
	}
}

func TestWatcherKeepsPreviousOnInvalidReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spsm.yaml")
	writeConfig(t, path, 2)

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// An invalid config must not replace the current one.
	if err := os.WriteFile(path, []byte("ted:\n  path_length_limit: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(3 * DefaultDebounceDelay)
	if w.Current().TED.WeightSubstitute != 2.0 {
		t.Error("invalid reload must keep the previous config")
	}

	select {
	case <-w.Updates():
		t.Error("no update should be published for an invalid config")
	default:
	}
}

func TestNewWatcherMissingFile(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing config file")
	}
}
