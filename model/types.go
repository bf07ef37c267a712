package model

import (
	"fmt"
	"strings"
)

// State is the tri-state value of one (entity, category) cell.
type State uint8

const (
	// Unset means the category has not been assigned either way.
	Unset State = iota
	// Yes means the category is explicitly present.
	Yes
	// No means the category is explicitly absent.
	No
)

// String returns the canonical wire name of the state.
func (s State) String() string {
	switch s {
	case Yes:
		return "YES"
	case No:
		return "NO"
	default:
		return "UNSET"
	}
}

// ParseState parses a wire name produced by State.String.
// The empty string parses as Unset.
func ParseState(s string) (State, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES":
		return Yes, nil
	case "NO":
		return No, nil
	case "UNSET", "":
		return Unset, nil
	default:
		return Unset, fmt.Errorf("invalid state %q", s)
	}
}

// Partition identifies a disjoint subset of entities indexed and
// evaluated independently (an orientation subfolder of the library).
type Partition string

// Default partitions, matching the orientation subfolders of a library.
const (
	PartitionSquare    Partition = "square"
	PartitionLandscape Partition = "landscape"
	PartitionPortrait  Partition = "portrait"
)

// DefaultPartitions returns the standard orientation partitions in
// stable order.
func DefaultPartitions() []Partition {
	return []Partition{PartitionSquare, PartitionLandscape, PartitionPortrait}
}

// EntityID identifies a video, stable across restarts. The canonical form
// is "<partition>/<filename>", derived from the storage path.
type EntityID string

// NewEntityID builds the canonical id for a file inside a partition folder.
func NewEntityID(p Partition, name string) EntityID {
	return EntityID(string(p) + "/" + name)
}

// Partition returns the partition prefix of the id, or "" if the id has
// no partition component.
func (id EntityID) Partition() Partition {
	if i := strings.IndexByte(string(id), '/'); i > 0 {
		return Partition(id[:i])
	}
	return ""
}

// Name returns the file name component of the id.
func (id EntityID) Name() string {
	if i := strings.IndexByte(string(id), '/'); i >= 0 {
		return string(id[i+1:])
	}
	return string(id)
}
