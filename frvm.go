package frvm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vdd9/frvm/category"
	"github.com/vdd9/frvm/config"
	"github.com/vdd9/frvm/corpus"
	"github.com/vdd9/frvm/expr"
	"github.com/vdd9/frvm/internal/fs"
	"github.com/vdd9/frvm/model"
	"github.com/vdd9/frvm/persistence"
	"github.com/vdd9/frvm/state"
	"github.com/vdd9/frvm/writer"
)

// Result is the outcome of one query evaluation.
type Result = state.Result

// EvalOption tunes a single Evaluate call.
type EvalOption func(*state.EvalOptions)

// WithLimit draws a uniform random sample of at most n matches instead of
// materializing the full match set. The reported total is unaffected.
func WithLimit(n int) EvalOption {
	return func(o *state.EvalOptions) {
		o.Limit = n
	}
}

// CountOnly skips id materialization; only the match count is computed.
func WithCountOnly() EvalOption {
	return func(o *state.EvalOptions) {
		o.CountOnly = true
	}
}

// WithSeed makes sampling deterministic for a given seed.
func WithSeed(seed int64) EvalOption {
	return func(o *state.EvalOptions) {
		o.Rand = rand.New(rand.NewSource(seed))
	}
}

// Library is a tri-state video categorization store over a directory tree.
//
// Video files live under "<root>/<partition>/*.mp4"; the tri-state category
// assignments of each file live next to it in a plain-text sidecar. All
// state is held in memory as per-category bitmaps; sidecar files are
// rewritten asynchronously by a debounced coalescing writer.
type Library struct {
	root    string
	cfg     *config.Config
	fsys    fs.FileSystem
	logger  *Logger
	metrics MetricsCollector

	reg   *category.Registry
	store *state.Store
	wr    *writer.Writer

	snapshotPath string

	mu     sync.Mutex // guards Rescan and Close transitions
	closed bool
}

// Open scans the library under root and returns a ready Library.
//
// Configuration is read from "<root>/frvm.toml" unless WithConfig is given;
// a missing config file falls back to built-in defaults.
func Open(root string, optFns ...Option) (*Library, error) {
	o := applyOptions(optFns)

	cfg := o.config
	if cfg == nil {
		var err error
		cfg, err = config.LoadRoot(root)
		if err != nil {
			return nil, err
		}
	}

	reg := category.NewRegistry()
	for _, c := range cfg.Categories {
		if _, err := reg.Register(c.Key, c.Label); err != nil {
			return nil, err
		}
	}
	if err := reg.Finalize(); err != nil {
		return nil, err
	}

	l := &Library{
		root:    root,
		cfg:     cfg,
		fsys:    o.fsys,
		logger:  o.logger,
		metrics: o.metricsCollector,
		reg:     reg,
	}

	store, err := state.NewStore(reg, cfg.PartitionList(), func(id model.EntityID) {
		if l.wr != nil {
			l.wr.Enqueue(id)
		}
	})
	if err != nil {
		return nil, err
	}
	l.store = store

	debounce := cfg.Debounce()
	if o.debounce > 0 {
		debounce = o.debounce
	}
	flushPerSec := o.flushPerSec
	if flushPerSec == 0 {
		flushPerSec = cfg.Writer.FlushPerSec
	}
	l.wr = writer.New(root, store.SerializeEntity, func(wo *writer.Options) {
		wo.Debounce = debounce
		wo.FlushPerSec = flushPerSec
		wo.FS = o.fsys
		wo.Logger = o.logger.Logger
	})

	l.snapshotPath = o.snapshotPath
	if l.snapshotPath == "" && cfg.Snapshot.Path != "" {
		l.snapshotPath = cfg.Snapshot.Path
	}
	if l.snapshotPath != "" && !filepath.IsAbs(l.snapshotPath) {
		l.snapshotPath = filepath.Join(root, l.snapshotPath)
	}

	if _, err := l.scan(); err != nil {
		_ = l.wr.Close()
		return nil, err
	}
	return l, nil
}

// Evaluate runs a boolean category query against one partition.
//
// The expression language: an emoji key matches YES, "!" prefix matches NO,
// "?" prefix matches UNSET; juxtaposition or "." is AND, "+" is OR, and
// parentheses group. An empty expression matches every entity.
func (l *Library) Evaluate(p model.Partition, input string, optFns ...EvalOption) (Result, error) {
	start := time.Now()
	res, err := l.evaluate(p, input, optFns)
	l.metrics.RecordEvaluate(res.Total, time.Since(start), err)
	l.logger.LogEvaluate(context.Background(), p, input, res.Total, err)
	return res, err
}

func (l *Library) evaluate(p model.Partition, input string, optFns []EvalOption) (Result, error) {
	if l.isClosed() {
		return Result{}, ErrClosed
	}
	if !l.validPartition(p) {
		return Result{}, &ErrInvalidPartition{Partition: string(p)}
	}

	node, err := expr.Parse(l.reg, input)
	if err != nil {
		return Result{}, err
	}

	var opts state.EvalOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	return l.store.Evaluate(p, node, opts)
}

// CountByPartition evaluates input once per partition and returns the match
// count of each. The expression is parsed once.
func (l *Library) CountByPartition(input string) (map[model.Partition]int, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}

	node, err := expr.Parse(l.reg, input)
	if err != nil {
		return nil, err
	}

	counts := make(map[model.Partition]int, len(l.store.Partitions()))
	for _, p := range l.store.Partitions() {
		res, err := l.store.Evaluate(p, node, state.EvalOptions{CountOnly: true})
		if err != nil {
			return nil, err
		}
		counts[p] = res.Total
	}
	return counts, nil
}

// ComposeFilter conjoins a base filter with a user expression so the result
// never matches outside the base. Both parts are validated against the
// registry. An empty part passes the other through unchanged.
func (l *Library) ComposeFilter(base, input string) (string, error) {
	if l.isClosed() {
		return "", ErrClosed
	}
	for _, part := range []string{base, input} {
		if _, err := expr.Parse(l.reg, part); err != nil {
			return "", err
		}
	}
	switch {
	case strings.TrimSpace(base) == "":
		return input, nil
	case strings.TrimSpace(input) == "":
		return base, nil
	default:
		return fmt.Sprintf("(%s).(%s)", base, input), nil
	}
}

// GetCategory returns the tri-state value of one category for an entity.
func (l *Library) GetCategory(id model.EntityID, key string) (model.State, error) {
	if l.isClosed() {
		return model.Unset, ErrClosed
	}
	return l.store.Get(id, key)
}

// GetCategories returns the explicit (non-UNSET) assignments of an entity,
// keyed by emoji.
func (l *Library) GetCategories(id model.EntityID) (map[string]model.State, error) {
	if l.isClosed() {
		return nil, ErrClosed
	}
	return l.store.GetAll(id)
}

// SetCategory assigns a tri-state value and returns the previous one. The
// sidecar rewrite happens asynchronously; call Flush to force it.
func (l *Library) SetCategory(id model.EntityID, key string, v model.State) (model.State, error) {
	start := time.Now()
	prev, err := l.setCategory(id, key, v)
	l.metrics.RecordSet(time.Since(start), err)
	l.logger.LogSet(context.Background(), id, key, prev, v, err)
	return prev, err
}

func (l *Library) setCategory(id model.EntityID, key string, v model.State) (model.State, error) {
	if l.isClosed() {
		return model.Unset, ErrClosed
	}
	return l.store.Set(id, key, v)
}

// Categories lists the registered categories in registration order.
func (l *Library) Categories() []category.Info {
	return l.reg.Infos()
}

// Partitions lists the configured partitions.
func (l *Library) Partitions() []model.Partition {
	return l.store.Partitions()
}

// EntityCount returns the number of entities in one partition.
func (l *Library) EntityCount(p model.Partition) (int, error) {
	if l.isClosed() {
		return 0, ErrClosed
	}
	if !l.validPartition(p) {
		return 0, &ErrInvalidPartition{Partition: string(p)}
	}
	return l.store.EntityCount(p)
}

// SidecarPath returns where an entity's sidecar file lives on disk.
func (l *Library) SidecarPath(id model.EntityID) string {
	return corpus.SidecarPath(l.root, id)
}

// Rescan re-enumerates the library tree and loads sidecar state for any
// entities added since the last scan. Existing in-memory assignments are
// not reloaded; unsaved edits are never clobbered by a rescan.
func (l *Library) Rescan() (added int, err error) {
	if l.isClosed() {
		return 0, ErrClosed
	}
	return l.scan()
}

func (l *Library) scan() (added int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	entries, err := corpus.NewScanner(l.fsys, l.root).Scan(l.cfg.PartitionList())
	if err != nil {
		l.metrics.RecordScan(0, time.Since(start), err)
		l.logger.LogScan(context.Background(), 0, 0, err)
		return 0, err
	}

	for _, e := range entries {
		isNew, err := l.store.AddEntity(e.ID)
		if err != nil {
			return added, err
		}
		if !isNew {
			continue
		}
		added++
		skipped, err := l.store.Reload(e.ID, e.Sidecar)
		if err != nil {
			return added, err
		}
		if len(skipped) > 0 {
			l.logger.Warn("sidecar tokens skipped",
				"entity", string(e.ID),
				"skipped", strings.Join(skipped, " "),
			)
		}
	}

	l.metrics.RecordScan(len(entries), time.Since(start), nil)
	l.logger.LogScan(context.Background(), len(entries), added, nil)
	return added, nil
}

// Flush forces all pending sidecar writes to disk before returning.
func (l *Library) Flush(ctx context.Context) error {
	if l.isClosed() {
		return ErrClosed
	}
	return l.wr.Flush(ctx)
}

// PendingWrites reports how many entities have unsaved sidecar edits.
func (l *Library) PendingWrites() int {
	return l.wr.PendingCount()
}

// SaveSnapshot persists the full in-memory state as a binary snapshot for
// fast reopening. Requires a snapshot path from config or WithSnapshotPath.
func (l *Library) SaveSnapshot() error {
	err := l.saveSnapshot()
	l.logger.LogSnapshot(context.Background(), l.snapshotPath, err)
	return err
}

func (l *Library) saveSnapshot() error {
	if l.isClosed() {
		return ErrClosed
	}
	if l.snapshotPath == "" {
		return errors.New("no snapshot path configured")
	}
	snap, err := l.store.Snapshot()
	if err != nil {
		return err
	}
	return persistence.SaveFile(l.fsys, l.snapshotPath, snap)
}

// LoadSnapshot replaces the in-memory state with a previously saved
// snapshot. Sidecar files are not read; the snapshot must come from the
// same category configuration. A missing snapshot file is not an error and
// leaves the current state untouched.
func (l *Library) LoadSnapshot() (loaded bool, err error) {
	if l.isClosed() {
		return false, ErrClosed
	}
	if l.snapshotPath == "" {
		return false, nil
	}
	snap, err := persistence.LoadFile(l.fsys, l.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := l.store.Restore(snap); err != nil {
		return false, err
	}
	return true, nil
}

// Close flushes all pending sidecar writes and shuts down the background
// writer. The Library is unusable afterwards. Close is idempotent.
func (l *Library) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	return l.wr.Close()
}

func (l *Library) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Library) validPartition(p model.Partition) bool {
	for _, have := range l.store.Partitions() {
		if have == p {
			return true
		}
	}
	return false
}
