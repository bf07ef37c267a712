package writer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vdd9/frvm/corpus"
	"github.com/vdd9/frvm/internal/fs"
	"github.com/vdd9/frvm/model"
)

// memSerializer mimics the store: it always renders the latest state.
type memSerializer struct {
	mu    sync.Mutex
	text  map[model.EntityID]string
	calls atomic.Int64
}

func newMemSerializer() *memSerializer {
	return &memSerializer{text: make(map[model.EntityID]string)}
}

func (m *memSerializer) set(id model.EntityID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text[id] = text
}

func (m *memSerializer) serialize(id model.EntityID) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.text[id]; ok {
		return t, nil
	}
	return "", &corpus.UnknownEntityError{ID: id}
}

// renameCountFS counts atomic replaces, i.e. completed sidecar writes.
type renameCountFS struct {
	fs.FileSystem
	renames atomic.Int64
}

func (c *renameCountFS) Rename(oldpath, newpath string) error {
	err := c.FileSystem.Rename(oldpath, newpath)
	if err == nil {
		c.renames.Add(1)
	}
	return err
}

func sidecarContent(t *testing.T, root string, id model.EntityID) string {
	t.Helper()
	data, err := os.ReadFile(corpus.SidecarPath(root, id))
	require.NoError(t, err)
	return string(data)
}

func TestWriter_FlushWritesSidecar(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "landscape"), 0o755))

	ser := newMemSerializer()
	id := model.EntityID("landscape/a.mp4")
	ser.set(id, "+🥗-🍔")

	w := New(root, ser.serialize, func(o *Options) { o.Debounce = time.Hour })
	defer w.Close()

	w.Enqueue(id)
	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, "+🥗-🍔", sidecarContent(t, root, id))
	assert.Equal(t, 0, w.PendingCount())
}

func TestWriter_CoalescesBursts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "landscape"), 0o755))

	cfs := &renameCountFS{FileSystem: fs.Default}
	ser := newMemSerializer()
	id := model.EntityID("landscape/a.mp4")

	w := New(root, ser.serialize, func(o *Options) {
		o.Debounce = time.Hour
		o.FS = cfs
	})
	defer w.Close()

	// An edit burst: every Enqueue overwrites the pending entry.
	for i := 0; i < 50; i++ {
		ser.set(id, "+🥗")
		w.Enqueue(id)
	}
	ser.set(id, "-🥗")
	w.Enqueue(id)

	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, int64(1), cfs.renames.Load(), "one disk write per entity per flush cycle")
	assert.Equal(t, "-🥗", sidecarContent(t, root, id), "flush writes the latest state")
}

func TestWriter_DebouncedAutoFlush(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "square"), 0o755))

	ser := newMemSerializer()
	id := model.EntityID("square/a.mp4")
	ser.set(id, "+🥗")

	w := New(root, ser.serialize, func(o *Options) { o.Debounce = 10 * time.Millisecond })
	defer w.Close()

	w.Enqueue(id)
	require.Eventually(t, func() bool {
		_, err := os.Stat(corpus.SidecarPath(root, id))
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "+🥗", sidecarContent(t, root, id))
}

func TestWriter_RetriesFailedFlush(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "landscape"), 0o755))

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".txt.tmp", fs.Fault{FailOnSync: true})

	ser := newMemSerializer()
	id := model.EntityID("landscape/a.mp4")
	ser.set(id, "+🥗")

	w := New(root, ser.serialize, func(o *Options) {
		o.Debounce = time.Hour
		o.FS = ffs
	})
	defer w.Close()

	w.Enqueue(id)
	require.Error(t, w.Flush(context.Background()))
	assert.Equal(t, 1, w.PendingCount(), "failed entity stays pending")

	ffs.ClearRules()
	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, "+🥗", sidecarContent(t, root, id))
}

func TestWriter_CloseDrainsPending(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "portrait"), 0o755))

	ser := newMemSerializer()
	a := model.EntityID("portrait/a.mp4")
	b := model.EntityID("portrait/b.mp4")
	ser.set(a, "+🥗")
	ser.set(b, "-🥗")

	w := New(root, ser.serialize, func(o *Options) { o.Debounce = time.Hour })
	w.Enqueue(a)
	w.Enqueue(b)

	require.NoError(t, w.Close())
	assert.Equal(t, "+🥗", sidecarContent(t, root, a))
	assert.Equal(t, "-🥗", sidecarContent(t, root, b))

	// Close is idempotent.
	require.NoError(t, w.Close())
}

func TestWriter_CloseReportsUnflushed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "landscape"), 0o755))

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule(".txt.tmp", fs.Fault{FailOnSync: true})

	ser := newMemSerializer()
	id := model.EntityID("landscape/a.mp4")
	ser.set(id, "+🥗")

	w := New(root, ser.serialize, func(o *Options) {
		o.Debounce = time.Hour
		o.FS = ffs
	})
	w.Enqueue(id)

	err := w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unflushed")
}

func TestWriter_EnqueueAfterCloseIsDropped(t *testing.T) {
	root := t.TempDir()
	ser := newMemSerializer()

	w := New(root, ser.serialize)
	require.NoError(t, w.Close())

	w.Enqueue("landscape/a.mp4")
	assert.Equal(t, 0, w.PendingCount())
}

func TestWriter_UnknownEntityIsSkipped(t *testing.T) {
	root := t.TempDir()
	ser := newMemSerializer()

	w := New(root, ser.serialize, func(o *Options) { o.Debounce = time.Hour })
	defer w.Close()

	w.Enqueue("landscape/ghost.mp4")
	require.NoError(t, w.Flush(context.Background()), "serializer failure is not a flush error")
	assert.Equal(t, 0, w.PendingCount())
}
