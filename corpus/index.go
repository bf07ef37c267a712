// Package corpus tracks the entities of one library: a dense ordinal index
// per partition and the filesystem scanner that enumerates video files and
// their sidecar text.
package corpus

import (
	"errors"
	"fmt"

	"github.com/vdd9/frvm/model"
)

// ErrUnknownEntity is returned when an entity id is not in the index.
var ErrUnknownEntity = errors.New("unknown entity")

// UnknownEntityError carries the offending entity id.
//
// The sentinel can be matched via errors.Is(err, ErrUnknownEntity).
type UnknownEntityError struct {
	ID model.EntityID
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("unknown entity %q", string(e.ID))
}

func (e *UnknownEntityError) Unwrap() error { return ErrUnknownEntity }

// Index assigns each entity of one partition a dense, zero-based,
// contiguous ordinal. Ordinals are monotonic for the process lifetime:
// rescans append, they never reassign.
//
// Index is not safe for concurrent mutation; the owning store serializes
// access.
type Index struct {
	byID map[model.EntityID]uint32
	ids  []model.EntityID
}

// NewIndex creates an empty per-partition index.
func NewIndex() *Index {
	return &Index{byID: make(map[model.EntityID]uint32)}
}

// Append adds id and returns its ordinal. If id is already present the
// existing ordinal is returned and added is false.
func (x *Index) Append(id model.EntityID) (ordinal uint32, added bool) {
	if ord, ok := x.byID[id]; ok {
		return ord, false
	}
	ord := uint32(len(x.ids))
	x.byID[id] = ord
	x.ids = append(x.ids, id)
	return ord, true
}

// OrdinalOf returns the ordinal of id.
func (x *Index) OrdinalOf(id model.EntityID) (uint32, error) {
	ord, ok := x.byID[id]
	if !ok {
		return 0, &UnknownEntityError{ID: id}
	}
	return ord, nil
}

// Contains reports whether id is indexed.
func (x *Index) Contains(id model.EntityID) bool {
	_, ok := x.byID[id]
	return ok
}

// EntityAt returns the entity id at ordinal ord. It panics if ord is out
// of range, mirroring slice indexing: ordinals handed out by the index are
// total over the partition's membership.
func (x *Index) EntityAt(ord uint32) model.EntityID {
	return x.ids[ord]
}

// Len returns the number of indexed entities.
func (x *Index) Len() int { return len(x.ids) }

// IDs returns all entity ids in ordinal order. The returned slice must not
// be mutated.
func (x *Index) IDs() []model.EntityID { return x.ids }
