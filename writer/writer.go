// Package writer implements the debounced sidecar persistence writer: a
// background worker that drains per-entity write-intents and rewrites each
// entity's sidecar file atomically.
//
// Intents are coalesced per entity: a burst of edits to the same entity
// inside the debounce window produces one disk write of the latest
// in-memory state. A failed flush stays pending and is retried on the next
// cycle; persistence failures never surface to the mutation caller, whose
// in-memory edit already succeeded.
package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/vdd9/frvm/corpus"
	"github.com/vdd9/frvm/internal/fs"
	"github.com/vdd9/frvm/model"
)

// DefaultDebounce is the per-entity coalescing window.
const DefaultDebounce = 300 * time.Millisecond

// Serializer renders the full current tri-state mapping of an entity in
// sidecar form. It is called at flush time, so the latest state wins.
type Serializer func(id model.EntityID) (string, error)

// Options configures a Writer.
type Options struct {
	// Debounce is the per-entity coalescing window.
	Debounce time.Duration
	// FlushPerSec caps disk writes per second. 0 means unlimited.
	FlushPerSec float64
	// FS is the target filesystem (fs.Default if nil).
	FS fs.FileSystem
	// Logger receives flush diagnostics (slog.Default if nil).
	Logger *slog.Logger
}

// Writer is the asynchronous sidecar flusher. Create with New, feed with
// Enqueue, stop with Close.
type Writer struct {
	root      string
	serialize Serializer
	fsys      fs.FileSystem
	log       *slog.Logger
	debounce  time.Duration
	limiter   *rate.Limiter

	mu      sync.Mutex
	pending map[model.EntityID]time.Time // entity -> flush deadline

	wake     chan struct{}
	flushReq chan chan error
	stopCh   chan struct{}
	done     chan struct{}
	closed   atomic.Bool

	unflushed atomic.Int64
}

// New creates and starts a Writer flushing sidecars under root.
func New(root string, serialize Serializer, optFns ...func(*Options)) *Writer {
	opts := Options{Debounce: DefaultDebounce}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.FS == nil {
		opts.FS = fs.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := &Writer{
		root:      root,
		serialize: serialize,
		fsys:      opts.FS,
		log:       opts.Logger,
		debounce:  opts.Debounce,
		pending:   make(map[model.EntityID]time.Time),
		wake:      make(chan struct{}, 1),
		flushReq:  make(chan chan error),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	if opts.FlushPerSec > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(opts.FlushPerSec), 1)
	}
	go w.run()
	return w
}

// Enqueue records a write-intent for id and returns immediately. A newer
// intent for an already-pending entity overwrites the pending entry
// instead of appending, so a flush cycle writes an entity at most once.
func (w *Writer) Enqueue(id model.EntityID) {
	if w.closed.Load() {
		w.log.Warn("write-intent after close dropped", "entity", string(id))
		return
	}
	w.mu.Lock()
	w.pending[id] = time.Now().Add(w.debounce)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// PendingCount returns the number of entities awaiting a flush.
func (w *Writer) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Flush synchronously drains every pending intent. Entities that fail stay
// pending for the next cycle; the first error is returned.
func (w *Writer) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case w.flushReq <- reply:
		select {
		case err := <-reply:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	case <-w.done:
		return fmt.Errorf("writer: closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains all pending write-intents and stops the worker. Entities
// that cannot be flushed are logged; Close reports how many were lost.
// There is no cancellation: shutdown waits for the drain to complete.
func (w *Writer) Close() error {
	if w.closed.CompareAndSwap(false, true) {
		close(w.stopCh)
	}
	<-w.done
	if n := w.unflushed.Load(); n > 0 {
		return fmt.Errorf("writer: %d entities left unflushed", n)
	}
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		var timerC <-chan time.Time
		if next, ok := w.earliest(); ok {
			d := time.Until(next)
			if d < 0 {
				d = 0
			}
			timerC = time.After(d)
		}

		select {
		case <-w.stopCh:
			if err := w.drain(true); err != nil {
				w.log.Error("shutdown drain incomplete", "error", err)
			}
			return
		case <-w.wake:
			// New intent arrived; recompute the next deadline.
		case reply := <-w.flushReq:
			reply <- w.drain(false)
		case <-timerC:
			w.flushDue(time.Now())
		}
	}
}

func (w *Writer) earliest() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var next time.Time
	found := false
	for _, deadline := range w.pending {
		if !found || deadline.Before(next) {
			next = deadline
			found = true
		}
	}
	return next, found
}

// take removes and returns the entities due at now; zero now takes
// everything.
func (w *Writer) take(now time.Time) []model.EntityID {
	w.mu.Lock()
	defer w.mu.Unlock()
	var due []model.EntityID
	for id, deadline := range w.pending {
		if now.IsZero() || !deadline.After(now) {
			due = append(due, id)
			delete(w.pending, id)
		}
	}
	return due
}

func (w *Writer) requeue(id model.EntityID) {
	w.mu.Lock()
	w.pending[id] = time.Now().Add(w.debounce)
	w.mu.Unlock()
}

// flushDue flushes every entity whose debounce window has elapsed.
func (w *Writer) flushDue(now time.Time) {
	for _, id := range w.take(now) {
		if err := w.flushOne(context.Background(), id); err != nil {
			w.log.Warn("sidecar flush failed, will retry", "entity", string(id), "error", err)
			w.requeue(id)
		}
	}
}

// drain flushes everything pending regardless of deadlines. In final mode
// failures are counted as unflushed and dropped; otherwise they stay
// pending for the next cycle.
func (w *Writer) drain(final bool) error {
	var firstErr error
	for _, id := range w.take(time.Time{}) {
		err := w.flushOne(context.Background(), id)
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		if final {
			w.unflushed.Add(1)
			w.log.Error("entity left unflushed", "entity", string(id), "error", err)
		} else {
			w.log.Warn("sidecar flush failed, will retry", "entity", string(id), "error", err)
			w.requeue(id)
		}
	}
	return firstErr
}

// flushOne serializes the entity's current mapping and atomically replaces
// its sidecar file.
func (w *Writer) flushOne(ctx context.Context, id model.EntityID) error {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	text, err := w.serialize(id)
	if err != nil {
		// The entity vanished from the store; nothing to persist.
		w.log.Warn("skipping flush for unknown entity", "entity", string(id), "error", err)
		return nil
	}
	path := corpus.SidecarPath(w.root, id)
	if err := fs.WriteAtomic(w.fsys, path, []byte(text), 0o644); err != nil {
		return err
	}
	w.log.Debug("sidecar flushed", "entity", string(id), "bytes", len(text))
	return nil
}
