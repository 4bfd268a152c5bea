package orderbook

import (
	"github.com/cockroachdb/errors"
)

// Index keeps a dynamic set of offers in two red-black trees sharing one
// order: the full index and the frontier, the staircase of offers that no
// cheaper-or-equal offer matches or beats in quality.
//
// Insert only touches the full index and marks the frontier stale. Remove keeps
// a fresh frontier fresh by re-admitting the offers the removed one covered.
// Queries rebuild a stale frontier before answering.
type Index struct {
	all      *RBTree
	frontier *RBTree
	stale    bool
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		all:      NewRBTree(),
		frontier: NewRBTree(),
	}
}

// Size returns the number of offers in the index.
func (ix *Index) Size() int { return ix.all.Size() }

// FrontierSize returns the number of offers on the frontier.
func (ix *Index) FrontierSize() int {
	ix.ensureFrontier()
	return ix.frontier.Size()
}

// Contains reports whether o is in the index.
func (ix *Index) Contains(o *Offer) bool { return o.index == ix }

// Insert adds o to the full index. The frontier is left stale.
// It returns false if o is already in an index.
func (ix *Index) Insert(o *Offer) bool {
	if o.index != nil {
		return false
	}
	ix.all.Insert(o)
	o.index = ix
	ix.stale = true
	return true
}

// Remove takes o out of the index. Removing an absent offer is a no-op and
// returns false.
func (ix *Index) Remove(o *Offer) bool {
	if o.index != ix {
		return false
	}
	ix.all.Delete(o)
	o.index = nil

	if ix.stale {
		ix.frontier.Delete(o)
		return true
	}
	if !ix.frontier.Contains(o) {
		return true
	}
	ix.uncover(o)
	return true
}

// uncover removes o from the frontier and re-admits the offers lying between o
// and its frontier successor that o was covering. o must already be gone from
// the full index.
func (ix *Index) uncover(o *Offer) {
	prev := ix.frontier.Lower(o)
	next := ix.frontier.Higher(o)
	ix.frontier.Delete(o)
	if ix.all.Size() == 0 {
		return
	}

	var (
		best int
		from = o
	)
	if prev == nil {
		// the cheapest offer is never covered
		first := ix.all.Min()
		ix.frontier.Insert(first)
		best = first.quality
		from = first
	} else {
		best = prev.quality
	}

	for e := ix.all.Higher(from); e != nil; e = ix.all.Higher(e) {
		if next != nil && compare(e, next) >= 0 {
			break
		}
		if e.quality > best {
			ix.frontier.Insert(e)
			best = e.quality
		}
	}
}

// RebuildFrontier recomputes the frontier from the full index in one scan.
func (ix *Index) RebuildFrontier() {
	ix.frontier.Clear()
	first := true
	best := 0
	ix.all.ForEachAscending(func(o *Offer) bool {
		if first || o.quality > best {
			ix.frontier.Insert(o)
			best = o.quality
			first = false
		}
		return true
	})
	ix.stale = false
}

func (ix *Index) ensureFrontier() {
	if ix.stale {
		ix.RebuildFrontier()
	}
}

// BestAffordable returns the highest-quality offer priced at or below
// ceiling, preferring the cheaper one on equal quality. It returns nil when
// nothing is affordable.
func (ix *Index) BestAffordable(ceiling float64) *Offer {
	ix.ensureFrontier()
	return ix.frontier.Floor(ceiling)
}

// Frontier returns the frontier offers in ascending price order.
func (ix *Index) Frontier() []*Offer {
	ix.ensureFrontier()
	return ix.frontier.Slice()
}

// Offers returns every offer in ascending index order.
func (ix *Index) Offers() []*Offer { return ix.all.Slice() }

// ForEachAscending visits offers in index order until fn returns false.
// fn must not modify the index; use an Iterator for that.
func (ix *Index) ForEachAscending(fn func(*Offer) bool) {
	ix.all.ForEachAscending(fn)
}

// Clear empties the index.
func (ix *Index) Clear() {
	ix.all.ForEachAscending(func(o *Offer) bool {
		o.index = nil
		return true
	})
	ix.all.Clear()
	ix.frontier.Clear()
	ix.stale = false
}

// CheckInvariant verifies both trees and that the frontier equals the
// staircase of the full index. A non-nil result means the index is broken.
func (ix *Index) CheckInvariant() error {
	if ix.all.blackHeight(ix.all.root) < 0 {
		return errors.AssertionFailedf("orderbook: full index is not a valid red-black tree")
	}
	if ix.frontier.blackHeight(ix.frontier.root) < 0 {
		return errors.AssertionFailedf("orderbook: frontier is not a valid red-black tree")
	}
	if ix.stale {
		return nil
	}
	want := make([]*Offer, 0, ix.frontier.Size())
	best := 0
	ix.all.ForEachAscending(func(o *Offer) bool {
		if len(want) == 0 || o.quality > best {
			want = append(want, o)
			best = o.quality
		}
		return true
	})
	got := ix.frontier.Slice()
	if len(got) != len(want) {
		return errors.AssertionFailedf("orderbook: frontier has %d offers, staircase has %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			return errors.AssertionFailedf("orderbook: frontier[%d] is offer %d, want offer %d", i, got[i].id, want[i].id)
		}
	}
	return nil
}

//
// ──────────────────────────────────────────────────────────
// Iteration
// ──────────────────────────────────────────────────────────
//

// Iterator walks the index in ascending order and tolerates removal of the
// current offer, or any other, between steps.
type Iterator struct {
	ix      *Index
	cur     *Offer
	started bool
}

// Iterator returns an iterator positioned before the first offer.
func (ix *Index) Iterator() *Iterator {
	return &Iterator{ix: ix}
}

// Next advances to the next offer and reports whether there is one.
func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		it.cur = it.ix.all.Min()
	} else if it.cur != nil {
		it.cur = it.ix.all.Higher(it.cur)
	}
	return it.cur != nil
}

// Offer returns the current offer.
func (it *Iterator) Offer() *Offer { return it.cur }

// Remove takes the current offer out of the index, maintaining the frontier.
func (it *Iterator) Remove() bool {
	if it.cur == nil {
		return false
	}
	return it.ix.Remove(it.cur)
}
