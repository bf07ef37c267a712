// Package state holds the tri-state category assignments of a library as
// column-oriented roaring bitmaps and evaluates boolean expressions
// against them.
//
// For every category the store keeps two bitmaps per partition, indexed by
// entity ordinal: one marking explicit YES, one marking explicit NO. A
// query then evaluates as a handful of whole-bitmap operations instead of
// a per-entity scan.
package state

import (
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vdd9/frvm/category"
	"github.com/vdd9/frvm/corpus"
	"github.com/vdd9/frvm/model"
	"github.com/vdd9/frvm/sidecar"
)

// WriteIntentFunc is notified after every successful mutation with the
// entity whose sidecar needs rewriting. It must not block: the persistence
// writer behind it coalesces intents per entity.
type WriteIntentFunc func(id model.EntityID)

// Store is the multi-reader/rare-writer category state store.
//
// Evaluations proceed concurrently under a read lock; mutations serialize
// against each other and against in-flight evaluations, so a reader can
// never observe a torn yes/no bit pair.
type Store struct {
	reg      *category.Registry
	onIntent WriteIntentFunc

	mu    sync.RWMutex
	parts map[model.Partition]*partition
	order []model.Partition
}

// partition holds the dense ordinal index and one yes/no bitmap pair per
// category. Invariant: for every ordinal, yes and no are never both set.
type partition struct {
	index *corpus.Index
	yes   []*roaring.Bitmap
	no    []*roaring.Bitmap
}

// NewStore creates a store over a finalized registry. onIntent may be nil.
func NewStore(reg *category.Registry, partitions []model.Partition, onIntent WriteIntentFunc) (*Store, error) {
	if !reg.Finalized() {
		return nil, fmt.Errorf("state: registry must be finalized")
	}
	s := &Store{
		reg:      reg,
		onIntent: onIntent,
		parts:    make(map[model.Partition]*partition, len(partitions)),
		order:    append([]model.Partition(nil), partitions...),
	}
	for _, p := range partitions {
		s.parts[p] = newPartition(reg.Len())
	}
	return s, nil
}

func newPartition(ncats int) *partition {
	p := &partition{
		index: corpus.NewIndex(),
		yes:   make([]*roaring.Bitmap, ncats),
		no:    make([]*roaring.Bitmap, ncats),
	}
	for i := 0; i < ncats; i++ {
		p.yes[i] = roaring.New()
		p.no[i] = roaring.New()
	}
	return p
}

// Partitions returns the partitions in configuration order.
func (s *Store) Partitions() []model.Partition { return s.order }

// Registry returns the category registry backing the store.
func (s *Store) Registry() *category.Registry { return s.reg }

// AddEntity indexes id in its partition, assigning the next ordinal. It is
// idempotent; ordinals are never reassigned.
func (s *Store) AddEntity(id model.EntityID) (added bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.partitionOf(id)
	if err != nil {
		return false, err
	}
	_, added = p.index.Append(id)
	return added, nil
}

// EntityCount returns the number of indexed entities in partition pt.
func (s *Store) EntityCount(pt model.Partition) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parts[pt]
	if !ok {
		return 0, fmt.Errorf("state: unknown partition %q", pt)
	}
	return p.index.Len(), nil
}

// Get reads the tri-state value of (id, key).
func (s *Store) Get(id model.EntityID, key string) (model.State, error) {
	idx, err := s.reg.Resolve(key)
	if err != nil {
		return model.Unset, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ord, err := s.locate(id)
	if err != nil {
		return model.Unset, err
	}
	return p.stateAt(idx, ord), nil
}

// GetAll returns every explicit assignment of id (UNSET entries omitted).
func (s *Store) GetAll(id model.EntityID) (map[string]model.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ord, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.State)
	for idx := 0; idx < s.reg.Len(); idx++ {
		if st := p.stateAt(idx, ord); st != model.Unset {
			out[s.reg.Key(idx)] = st
		}
	}
	return out, nil
}

// Set updates (id, key) to v and returns the previous value. Clearing both
// bits before setting the target bit makes the yes/no mutual-exclusion
// invariant unconditional: no mutation path can produce an illegal pair.
//
// Set is the sole mutation entry point; every successful call appends a
// write-intent for id.
func (s *Store) Set(id model.EntityID, key string, v model.State) (model.State, error) {
	idx, err := s.reg.Resolve(key)
	if err != nil {
		return model.Unset, err
	}

	s.mu.Lock()
	p, ord, err := s.locate(id)
	if err != nil {
		s.mu.Unlock()
		return model.Unset, err
	}
	prev := p.stateAt(idx, ord)
	p.assign(idx, ord, v)
	s.mu.Unlock()

	if s.onIntent != nil {
		s.onIntent(id)
	}
	return prev, nil
}

// Reload resets every category of id to UNSET and applies the sidecar
// grammar from raw. Unknown tokens are returned, not fatal. Used both at
// startup and when an external rescan sees a sidecar change on disk; it
// does not enqueue a write-intent, the on-disk file is the source here.
func (s *Store) Reload(id model.EntityID, raw string) (skipped []string, err error) {
	asg, skipped := sidecar.Parse(s.reg, raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ord, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	for idx := 0; idx < s.reg.Len(); idx++ {
		p.assign(idx, ord, asg[idx])
	}
	return skipped, nil
}

// SerializeEntity renders the full current mapping of id in sidecar form.
func (s *Store) SerializeEntity(id model.EntityID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ord, err := s.locate(id)
	if err != nil {
		return "", err
	}
	asg := make(sidecar.Assignments)
	for idx := 0; idx < s.reg.Len(); idx++ {
		if st := p.stateAt(idx, ord); st != model.Unset {
			asg[idx] = st
		}
	}
	return sidecar.Serialize(s.reg, asg), nil
}

// locate must be called with s.mu held.
func (s *Store) locate(id model.EntityID) (*partition, uint32, error) {
	p, err := s.partitionOf(id)
	if err != nil {
		return nil, 0, err
	}
	ord, err := p.index.OrdinalOf(id)
	if err != nil {
		return nil, 0, err
	}
	return p, ord, nil
}

func (s *Store) partitionOf(id model.EntityID) (*partition, error) {
	p, ok := s.parts[id.Partition()]
	if !ok {
		return nil, &corpus.UnknownEntityError{ID: id}
	}
	return p, nil
}

func (p *partition) stateAt(idx int, ord uint32) model.State {
	if p.yes[idx].Contains(ord) {
		return model.Yes
	}
	if p.no[idx].Contains(ord) {
		return model.No
	}
	return model.Unset
}

func (p *partition) assign(idx int, ord uint32, v model.State) {
	p.yes[idx].Remove(ord)
	p.no[idx].Remove(ord)
	switch v {
	case model.Yes:
		p.yes[idx].Add(ord)
	case model.No:
		p.no[idx].Add(ord)
	}
}
