package state

import (
	"fmt"
	"math/rand"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/vdd9/frvm/expr"
	"github.com/vdd9/frvm/model"
)

// Result is the outcome of one expression evaluation.
type Result struct {
	// Total is the population count of the result bitmap, independent of
	// any limit.
	Total int
	// IDs are the matching entity ids. Nil in count-only mode; a bounded
	// uniform random sample when a limit is set.
	IDs []model.EntityID
}

// EvalOptions tunes result extraction.
type EvalOptions struct {
	// Limit > 0 draws a uniform random sample of at most Limit matches
	// instead of materializing all of them.
	Limit int
	// CountOnly skips id materialization entirely; the count is computed
	// from the bitmap population count, not by iterating matches.
	CountOnly bool
	// Rand is the sampling source. Nil uses the shared global source.
	Rand *rand.Rand
}

// Evaluate walks node against partition pt under a single read lock, so
// the whole expression sees one consistent snapshot of the store.
func (s *Store) Evaluate(pt model.Partition, node expr.Node, opts EvalOptions) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parts[pt]
	if !ok {
		return Result{}, fmt.Errorf("state: unknown partition %q", pt)
	}

	bits := p.eval(node)
	total := int(bits.GetCardinality())
	if opts.CountOnly {
		return Result{Total: total}, nil
	}

	if opts.Limit > 0 && opts.Limit < total {
		return Result{Total: total, IDs: p.sample(bits, opts.Limit, opts.Rand)}, nil
	}

	ids := make([]model.EntityID, 0, total)
	for _, ord := range bits.ToArray() {
		ids = append(ids, p.index.EntityAt(ord))
	}
	return Result{Total: total, IDs: ids}, nil
}

// eval maps node to a bitset over the partition's ordinals. Leaves return
// the stored column bitmaps; every combining step allocates a fresh
// bitmap, so stored columns are never mutated.
func (p *partition) eval(node expr.Node) *roaring.Bitmap {
	switch n := node.(type) {
	case expr.Leaf:
		switch n.Mode {
		case expr.ModeYes:
			return p.yes[n.Index]
		case expr.ModeNo:
			return p.no[n.Index]
		default:
			// UNSET = NOR(yes, no): neither bit set, within the universe
			// of assigned ordinals.
			u := roaring.Or(p.yes[n.Index], p.no[n.Index])
			u.Flip(0, uint64(p.index.Len()))
			return u
		}
	case expr.NAry:
		children := make([]*roaring.Bitmap, len(n.Children))
		for i, c := range n.Children {
			children[i] = p.eval(c)
		}
		if n.Op == expr.OpAnd {
			return roaring.FastAnd(children...)
		}
		return roaring.FastOr(children...)
	case expr.MatchAll:
		all := roaring.New()
		all.AddRange(0, uint64(p.index.Len()))
		return all
	default:
		panic(fmt.Sprintf("state: unknown expression node %T", node))
	}
}

// sample draws k distinct matches uniformly over the match set using
// Floyd's algorithm on match ranks, then resolves each rank with a bitmap
// select. Never biased toward lower ordinals.
func (p *partition) sample(bits *roaring.Bitmap, k int, rng *rand.Rand) []model.EntityID {
	c := int(bits.GetCardinality())

	ranks := make(map[uint32]struct{}, k)
	for i := c - k; i < c; i++ {
		j := uint32(intn(rng, i+1))
		if _, taken := ranks[j]; taken {
			ranks[uint32(i)] = struct{}{}
		} else {
			ranks[j] = struct{}{}
		}
	}

	ids := make([]model.EntityID, 0, k)
	for rank := range ranks {
		ord, err := bits.Select(rank)
		if err != nil {
			continue // unreachable: rank < cardinality
		}
		ids = append(ids, p.index.EntityAt(ord))
	}
	return ids
}

func intn(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.Intn(n)
	}
	return rng.Intn(n)
}
