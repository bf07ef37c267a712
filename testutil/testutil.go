package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vdd9/frvm/corpus"
	"github.com/vdd9/frvm/model"
)

// Tree is a throwaway library directory for tests.
type Tree struct {
	Root string
	t    *testing.T
}

// NewTree creates an empty library tree under t.TempDir with the default
// partition folders.
func NewTree(t *testing.T) *Tree {
	t.Helper()
	tree := &Tree{Root: t.TempDir(), t: t}
	for _, p := range model.DefaultPartitions() {
		tree.AddPartition(p)
	}
	return tree
}

// AddPartition creates a partition folder.
func (tr *Tree) AddPartition(p model.Partition) {
	tr.t.Helper()
	if err := os.MkdirAll(filepath.Join(tr.Root, string(p)), 0o755); err != nil {
		tr.t.Fatal(err)
	}
}

// AddVideo creates a placeholder video file and, when sidecar is non-empty,
// its sidecar file. Returns the entity id.
func (tr *Tree) AddVideo(p model.Partition, name string, sidecar string) model.EntityID {
	tr.t.Helper()
	id := model.NewEntityID(p, name)
	if err := os.WriteFile(filepath.Join(tr.Root, string(p), name), nil, 0o644); err != nil {
		tr.t.Fatal(err)
	}
	if sidecar != "" {
		tr.WriteSidecar(id, sidecar)
	}
	return id
}

// WriteSidecar writes an entity's sidecar file directly, bypassing the
// library's own writer.
func (tr *Tree) WriteSidecar(id model.EntityID, text string) {
	tr.t.Helper()
	if err := os.WriteFile(corpus.SidecarPath(tr.Root, id), []byte(text), 0o644); err != nil {
		tr.t.Fatal(err)
	}
}

// ReadSidecar returns the on-disk sidecar content of an entity, or "" if
// the file does not exist.
func (tr *Tree) ReadSidecar(id model.EntityID) string {
	tr.t.Helper()
	data, err := os.ReadFile(corpus.SidecarPath(tr.Root, id))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		tr.t.Fatal(err)
	}
	return strings.TrimSpace(string(data))
}
