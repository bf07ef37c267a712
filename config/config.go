// Package config loads the library configuration: the closed category
// table, the partition set, and persistence tuning. The file lives at the
// library root as frvm.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vdd9/frvm/model"
)

// FileName is the configuration file name inside the library root.
const FileName = "frvm.toml"

// Category is one configured category: the symbolic key queries use and a
// human-readable label shown as a tooltip.
type Category struct {
	Key   string `toml:"key"`
	Label string `toml:"label"`
}

// Writer tunes the persistence writer.
type Writer struct {
	// DebounceMS is the per-entity coalescing window in milliseconds.
	DebounceMS int `toml:"debounce_ms"`
	// FlushPerSec caps sidecar writes per second. 0 means unlimited.
	FlushPerSec float64 `toml:"flush_per_sec"`
}

// Snapshot configures the optional binary state snapshot.
type Snapshot struct {
	// Path is relative to the library root. Empty disables snapshots.
	Path string `toml:"path"`
}

// Config is the full library configuration.
type Config struct {
	Title      string     `toml:"title"`
	Partitions []string   `toml:"partitions"`
	Categories []Category `toml:"categories"`
	Writer     Writer     `toml:"writer"`
	Snapshot   Snapshot   `toml:"snapshot"`
}

// Default returns the configuration used when no file exists: the three
// orientation partitions and an empty category table.
func Default() *Config {
	return &Config{
		Title:      "FRVM",
		Partitions: []string{"square", "landscape", "portrait"},
		Writer:     Writer{DebounceMS: 300},
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := Default()
	cfg.Categories = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadRoot loads "<root>/frvm.toml", falling back to Default when the file
// does not exist.
func LoadRoot(root string) (*Config, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks structural constraints.
func (c *Config) Validate() error {
	if len(c.Partitions) == 0 {
		return fmt.Errorf("config: at least one partition is required")
	}
	seenP := make(map[string]bool, len(c.Partitions))
	for _, p := range c.Partitions {
		if p == "" {
			return fmt.Errorf("config: empty partition name")
		}
		if seenP[p] {
			return fmt.Errorf("config: duplicate partition %q", p)
		}
		seenP[p] = true
	}
	seenC := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Key == "" {
			return fmt.Errorf("config: category with empty key")
		}
		if seenC[cat.Key] {
			return fmt.Errorf("config: duplicate category key %q", cat.Key)
		}
		seenC[cat.Key] = true
	}
	if c.Writer.DebounceMS < 0 {
		return fmt.Errorf("config: negative debounce_ms")
	}
	return nil
}

// PartitionList returns the partitions as model types in configuration
// order.
func (c *Config) PartitionList() []model.Partition {
	out := make([]model.Partition, len(c.Partitions))
	for i, p := range c.Partitions {
		out[i] = model.Partition(p)
	}
	return out
}

// Debounce returns the writer debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Writer.DebounceMS) * time.Millisecond
}
