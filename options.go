package frvm

import (
	"log/slog"
	"time"

	"github.com/vdd9/frvm/config"
	"github.com/vdd9/frvm/internal/fs"
)

type options struct {
	config           *config.Config
	fsys             fs.FileSystem
	logger           *Logger
	metricsCollector MetricsCollector
	debounce         time.Duration
	flushPerSec      float64
	snapshotPath     string
}

// Option configures Library constructor behavior.
//
// Options override the corresponding values from the library's frvm.toml
// config file, when both are present.
type Option func(*options)

// WithConfig supplies the configuration directly instead of reading
// frvm.toml from the library root.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithFileSystem configures the filesystem used for sidecar and snapshot
// I/O. Pass nil to use the local filesystem. Mainly useful for fault
// injection in tests.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fsys = fsys
	}
}

// WithDebounce configures the sidecar writer's per-entity coalescing
// window. Zero keeps the config file value (or the built-in default).
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithFlushRateLimit caps sidecar disk writes per second.
// Zero means unlimited.
func WithFlushRateLimit(perSec float64) Option {
	return func(o *options) {
		o.flushPerSec = perSec
	}
}

// WithSnapshotPath configures where SaveSnapshot persists the binary
// state snapshot. Overrides the config file's snapshot path.
func WithSnapshotPath(path string) Option {
	return func(o *options) {
		o.snapshotPath = path
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		fsys:             fs.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
