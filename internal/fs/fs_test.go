package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entity.txt")

	require.NoError(t, WriteAtomic(Default, path, []byte("+a-b"), 0o644))

	data, err := ReadFile(Default, path)
	require.NoError(t, err)
	assert.Equal(t, "+a-b", string(data))

	// Overwrite keeps the file complete.
	require.NoError(t, WriteAtomic(Default, path, []byte("+c"), 0o644))
	data, err = ReadFile(Default, path)
	require.NoError(t, err)
	assert.Equal(t, "+c", string(data))

	// No temp residue.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriteAtomic_FaultLeavesOldContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entity.txt")
	require.NoError(t, WriteAtomic(Default, path, []byte("old"), 0o644))

	ffs := NewFaultyFS(nil)
	ffs.AddRule(".tmp", Fault{FailOnSync: true})

	err := WriteAtomic(ffs, path, []byte("new"), 0o644)
	require.Error(t, err)

	data, err := ReadFile(Default, path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data), "target must keep its prior complete state")
}

func TestWriteAtomic_FaultOnRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entity.txt")
	require.NoError(t, WriteAtomic(Default, path, []byte("old"), 0o644))

	ffs := NewFaultyFS(nil)
	ffs.AddRule("entity.txt", Fault{FailOnRename: true})

	err := WriteAtomic(ffs, path, []byte("new"), 0o644)
	require.Error(t, err)

	data, err := ReadFile(Default, path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestFaultyFS_FailAfterBytes(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("limited", Fault{FailAfterBytes: 4})

	f, err := ffs.OpenFile(filepath.Join(dir, "limited.bin"), os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("1234"))
	require.NoError(t, err)
	_, err = f.Write([]byte("5"))
	require.Error(t, err)
}
