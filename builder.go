// This file implements the fluent builder API for opening a Library.
// The builder is immutable - each method returns a new builder with the
// updated configuration.
package frvm

import (
	"time"

	"github.com/vdd9/frvm/config"
	"github.com/vdd9/frvm/internal/fs"
)

// New creates a Library builder rooted at the given directory.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents
// accidental state sharing.
//
// Example:
//
//	lib, err := frvm.New("./videos").
//	    Debounce(100 * time.Millisecond).
//	    SnapshotPath("state.snap").
//	    Logger(frvm.NewTextLogger(slog.LevelInfo)).
//	    Build()
func New(root string) Builder {
	return Builder{root: root}
}

// Builder is an immutable fluent builder for opening Library instances.
// Each method returns a new builder with the updated configuration.
type Builder struct {
	root         string
	config       *config.Config
	fsys         fs.FileSystem
	logger       *Logger
	metrics      MetricsCollector
	debounce     time.Duration
	flushPerSec  float64
	snapshotPath string
}

// Config supplies configuration directly instead of reading frvm.toml.
func (b Builder) Config(cfg *config.Config) Builder {
	b.config = cfg
	return b
}

// FileSystem sets the filesystem used for sidecar and snapshot I/O.
// Mainly useful for fault injection in tests.
func (b Builder) FileSystem(fsys fs.FileSystem) Builder {
	b.fsys = fsys
	return b
}

// Debounce sets the sidecar writer's per-entity coalescing window.
func (b Builder) Debounce(d time.Duration) Builder {
	b.debounce = d
	return b
}

// FlushRateLimit caps sidecar disk writes per second. 0 means unlimited.
func (b Builder) FlushRateLimit(perSec float64) Builder {
	b.flushPerSec = perSec
	return b
}

// SnapshotPath sets where SaveSnapshot persists the binary state snapshot.
// A relative path is resolved against the library root.
func (b Builder) SnapshotPath(path string) Builder {
	b.snapshotPath = path
	return b
}

// Logger sets the structured logger for operation tracing.
func (b Builder) Logger(l *Logger) Builder {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b Builder) Metrics(mc MetricsCollector) Builder {
	b.metrics = mc
	return b
}

// Build scans the library and returns the ready instance.
func (b Builder) Build() (*Library, error) {
	var optFns []Option
	if b.config != nil {
		optFns = append(optFns, WithConfig(b.config))
	}
	if b.fsys != nil {
		optFns = append(optFns, WithFileSystem(b.fsys))
	}
	if b.debounce > 0 {
		optFns = append(optFns, WithDebounce(b.debounce))
	}
	if b.flushPerSec > 0 {
		optFns = append(optFns, WithFlushRateLimit(b.flushPerSec))
	}
	if b.snapshotPath != "" {
		optFns = append(optFns, WithSnapshotPath(b.snapshotPath))
	}
	if b.logger != nil {
		optFns = append(optFns, WithLogger(b.logger))
	}
	if b.metrics != nil {
		optFns = append(optFns, WithMetricsCollector(b.metrics))
	}
	return Open(b.root, optFns...)
}

// MustBuild opens the Library, panicking on error.
func (b Builder) MustBuild() *Library {
	lib, err := b.Build()
	if err != nil {
		panic(err)
	}
	return lib
}
