package state

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vdd9/frvm/model"
)

// SnapshotData is a point-in-time copy of the whole store in serializable
// form: the category key table, and per partition the entity table plus
// one serialized roaring bitmap per category and polarity.
type SnapshotData struct {
	Keys       []string
	Partitions []PartitionSnapshot
}

// PartitionSnapshot is one partition's share of a snapshot.
type PartitionSnapshot struct {
	Name     model.Partition
	Entities []model.EntityID
	Yes      [][]byte
	No       [][]byte
}

// Snapshot captures the store under a read lock. The result is detached:
// later mutations do not affect it.
func (s *Store) Snapshot() (*SnapshotData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &SnapshotData{
		Keys:       append([]string(nil), s.reg.Keys()...),
		Partitions: make([]PartitionSnapshot, 0, len(s.order)),
	}
	for _, name := range s.order {
		p := s.parts[name]
		ps := PartitionSnapshot{
			Name:     name,
			Entities: append([]model.EntityID(nil), p.index.IDs()...),
			Yes:      make([][]byte, s.reg.Len()),
			No:       make([][]byte, s.reg.Len()),
		}
		for idx := 0; idx < s.reg.Len(); idx++ {
			var err error
			if ps.Yes[idx], err = p.yes[idx].ToBytes(); err != nil {
				return nil, fmt.Errorf("state: serialize yes bitmap %d: %w", idx, err)
			}
			if ps.No[idx], err = p.no[idx].ToBytes(); err != nil {
				return nil, fmt.Errorf("state: serialize no bitmap %d: %w", idx, err)
			}
		}
		snap.Partitions = append(snap.Partitions, ps)
	}
	return snap, nil
}

// Restore replaces the store's entire contents with snap. The snapshot's
// category table must match the registry exactly: index positions are
// meaningless otherwise.
func (s *Store) Restore(snap *SnapshotData) error {
	if len(snap.Keys) != s.reg.Len() {
		return fmt.Errorf("state: snapshot has %d categories, registry has %d", len(snap.Keys), s.reg.Len())
	}
	for i, k := range snap.Keys {
		if s.reg.Key(i) != k {
			return fmt.Errorf("state: snapshot category %d is %q, registry has %q", i, k, s.reg.Key(i))
		}
	}

	parts := make(map[model.Partition]*partition, len(snap.Partitions))
	order := make([]model.Partition, 0, len(snap.Partitions))
	for _, ps := range snap.Partitions {
		p := newPartition(s.reg.Len())
		for _, id := range ps.Entities {
			p.index.Append(id)
		}
		if len(ps.Yes) != s.reg.Len() || len(ps.No) != s.reg.Len() {
			return fmt.Errorf("state: snapshot partition %q has malformed bitmap table", ps.Name)
		}
		for idx := 0; idx < s.reg.Len(); idx++ {
			if err := fromBytes(p.yes[idx], ps.Yes[idx]); err != nil {
				return fmt.Errorf("state: restore yes bitmap %d of %q: %w", idx, ps.Name, err)
			}
			if err := fromBytes(p.no[idx], ps.No[idx]); err != nil {
				return fmt.Errorf("state: restore no bitmap %d of %q: %w", idx, ps.Name, err)
			}
		}
		parts[ps.Name] = p
		order = append(order, ps.Name)
	}

	s.mu.Lock()
	s.parts = parts
	s.order = order
	s.mu.Unlock()
	return nil
}

func fromBytes(rb *roaring.Bitmap, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	// FromBuffer aliases data; copy so the snapshot buffer can be freed.
	if _, err := rb.FromBuffer(append([]byte(nil), data...)); err != nil {
		return err
	}
	return nil
}
