package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TED.PathLengthLimit != 512 {
		t.Errorf("expected default path length limit 512, got %d", cfg.TED.PathLengthLimit)
	}
	if cfg.TED.WeightInsert != 1.0 || cfg.TED.WeightDelete != 1.0 || cfg.TED.WeightSubstitute != 1.0 {
		t.Error("expected unit edit weights by default")
	}
	if cfg.Filter.RichRowPruneVariant {
		t.Error("expected simple row-prune variant by default")
	}
	if cfg.NATS.CompletionSubject != "spsm.filter.completed" {
		t.Errorf("unexpected default completion subject %s", cfg.NATS.CompletionSubject)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero path length limit",
			modify:  func(c *Config) { c.TED.PathLengthLimit = 0 },
			wantErr: true,
		},
		{
			name:    "negative weight",
			modify:  func(c *Config) { c.TED.WeightDelete = -1 },
			wantErr: true,
		},
		{
			name:    "metrics enabled without addr",
			modify:  func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" },
			wantErr: true,
		},
		{
			name:    "metrics enabled with addr",
			modify:  func(c *Config) { c.Metrics.Enabled = true },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "spsm.yaml")

	content := `
ted:
  path_length_limit: 128
  weight_delete: 2.0
filter:
  rich_row_prune_variant: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.TED.PathLengthLimit != 128 {
		t.Errorf("expected path length limit 128, got %d", cfg.TED.PathLengthLimit)
	}
	if cfg.TED.WeightDelete != 2.0 {
		t.Errorf("expected delete weight 2.0, got %f", cfg.TED.WeightDelete)
	}
	if !cfg.Filter.RichRowPruneVariant {
		t.Error("expected rich row-prune variant enabled")
	}
	// Unspecified fields keep their defaults.
	if cfg.TED.WeightInsert != 1.0 {
		t.Errorf("expected default insert weight, got %f", cfg.TED.WeightInsert)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("ted: ["), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndReload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TED.WeightSubstitute = 3.5
	cfg.NATS.URL = "nats://localhost:4222"

	path := filepath.Join(t.TempDir(), "nested", "spsm.yaml")
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if loaded.TED.WeightSubstitute != 3.5 {
		t.Errorf("expected substitute weight 3.5, got %f", loaded.TED.WeightSubstitute)
	}
	if loaded.NATS.URL != "nats://localhost:4222" {
		t.Errorf("unexpected NATS URL %s", loaded.NATS.URL)
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	other := &Config{}
	other.TED.PathLengthLimit = 64
	other.NATS.URL = "nats://other:4222"
	other.Metrics.Enabled = true

	base.Merge(other)

	if base.TED.PathLengthLimit != 64 {
		t.Errorf("expected merged path length limit 64, got %d", base.TED.PathLengthLimit)
	}
	if base.NATS.URL != "nats://other:4222" {
		t.Errorf("expected merged NATS URL, got %s", base.NATS.URL)
	}
	if !base.Metrics.Enabled {
		t.Error("expected metrics enabled after merge")
	}
	// Zero values in other do not clobber defaults.
	if base.TED.WeightInsert != 1.0 {
		t.Errorf("expected insert weight preserved, got %f", base.TED.WeightInsert)
	}

	base.Merge(nil)
	if base.TED.PathLengthLimit != 64 {
		t.Error("merging nil must be a no-op")
	}
}
