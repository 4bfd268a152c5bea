package orderbook

import (
	"testing"

	"github.com/cockroachdb/errors"
	"pgregory.net/rapid"
)

// scenarioA lists the offers (100, q5), (120, q3), (90, q1).
func scenarioA(t *testing.T) (*Index, *Offer, *Offer, *Offer) {
	t.Helper()
	ix := NewIndex()
	q5 := mustOffer(t, 1, 100, 5)
	q3 := mustOffer(t, 2, 120, 3)
	q1 := mustOffer(t, 3, 90, 1)
	for _, o := range []*Offer{q5, q3, q1} {
		if !ix.Insert(o) {
			t.Fatalf("Insert(%d) failed", o.ID())
		}
	}
	return ix, q5, q3, q1
}

func TestBestAffordableScenarioA(t *testing.T) {
	ix, q5, _, _ := scenarioA(t)
	if got := ix.BestAffordable(110); got != q5 {
		t.Fatalf("BestAffordable(110) = %v, want the quality 5 offer", got)
	}
}

func TestBestAffordableScenarioB(t *testing.T) {
	ix, q5, _, q1 := scenarioA(t)
	ix.RebuildFrontier()
	if !ix.Remove(q5) {
		t.Fatal("Remove failed")
	}
	if got := ix.BestAffordable(110); got != q1 {
		t.Fatalf("BestAffordable(110) = %v, want the quality 1 offer", got)
	}
	if err := ix.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
}

func TestBestAffordableNone(t *testing.T) {
	ix, _, _, _ := scenarioA(t)
	if got := ix.BestAffordable(89); got != nil {
		t.Errorf("BestAffordable(89) = %v, want nil", got)
	}
	if got := NewIndex().BestAffordable(1e12); got != nil {
		t.Errorf("empty index returned %v", got)
	}
}

func TestFrontierIsStaircase(t *testing.T) {
	ix, q5, _, q1 := scenarioA(t)
	ix.Insert(mustOffer(t, 4, 100, 4))
	ix.Insert(mustOffer(t, 5, 200, 5))

	got := ix.Frontier()
	if len(got) != 2 || got[0] != q1 || got[1] != q5 {
		ids := make([]ID, len(got))
		for i, o := range got {
			ids[i] = o.ID()
		}
		t.Fatalf("frontier = %v, want [3 1]", ids)
	}
	if ix.FrontierSize() != 2 {
		t.Errorf("FrontierSize = %d, want 2", ix.FrontierSize())
	}
}

func TestRemoveCheapestReadmitsNewMinimum(t *testing.T) {
	ix := NewIndex()
	a := mustOffer(t, 1, 50, 9)
	b := mustOffer(t, 2, 60, 1)
	c := mustOffer(t, 3, 70, 2)
	d := mustOffer(t, 4, 80, 10)
	for _, o := range []*Offer{a, b, c, d} {
		ix.Insert(o)
	}
	ix.RebuildFrontier()
	if ix.FrontierSize() != 2 {
		t.Fatalf("FrontierSize = %d, want 2", ix.FrontierSize())
	}

	ix.Remove(a)
	if err := ix.CheckInvariant(); err != nil {
		t.Fatal(err)
	}
	if got := ix.BestAffordable(75); got != c {
		t.Errorf("BestAffordable(75) = %v, want offer 3", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ix, q5, _, _ := scenarioA(t)
	ix.RebuildFrontier()
	ix.Remove(q5)
	before := ix.Frontier()

	if ix.Remove(q5) {
		t.Error("second Remove returned true")
	}
	if ix.Remove(mustOffer(t, 99, 1, 1)) {
		t.Error("Remove of a never-inserted offer returned true")
	}
	after := ix.Frontier()
	if ix.Size() != 2 || len(after) != len(before) {
		t.Fatalf("state changed: size=%d frontier %d -> %d", ix.Size(), len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("frontier[%d] changed", i)
		}
	}
}

func TestInsertRemoveRoundTrip(t *testing.T) {
	ix, _, _, _ := scenarioA(t)
	before := ix.Frontier()
	size := ix.Size()

	x := mustOffer(t, 10, 95, 7)
	ix.Insert(x)
	ix.RebuildFrontier()
	ix.Remove(x)

	if ix.Size() != size {
		t.Errorf("Size = %d, want %d", ix.Size(), size)
	}
	after := ix.Frontier()
	if len(after) != len(before) {
		t.Fatalf("frontier length %d, want %d", len(after), len(before))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("frontier[%d] = offer %d, want %d", i, after[i].ID(), before[i].ID())
		}
	}
}

func TestInsertIntoSecondIndexFails(t *testing.T) {
	a, b := NewIndex(), NewIndex()
	o := mustOffer(t, 1, 10, 1)
	a.Insert(o)
	if b.Insert(o) {
		t.Error("offer was inserted into two indexes")
	}
	if b.Remove(o) {
		t.Error("foreign index removed the offer")
	}
}

func TestIteratorRemoveKeepsFrontier(t *testing.T) {
	ix := NewIndex()
	for i := 1; i <= 20; i++ {
		ix.Insert(mustOffer(t, ID(i), float64(100+i%7*10), i%5))
	}
	ix.RebuildFrontier()

	visited := 0
	it := ix.Iterator()
	for it.Next() {
		visited++
		if it.Offer().Quality()%2 == 0 {
			it.Remove()
			if err := ix.CheckInvariant(); err != nil {
				t.Fatalf("after removing offer %d: %v", it.Offer().ID(), err)
			}
		}
	}
	if visited != 20 {
		t.Errorf("visited %d offers, want 20", visited)
	}
	ix.ForEachAscending(func(o *Offer) bool {
		if o.Quality()%2 == 0 {
			t.Errorf("offer %d should have been removed", o.ID())
		}
		return true
	})
}

func TestClearUnlistsOffers(t *testing.T) {
	ix, q5, _, _ := scenarioA(t)
	ix.Clear()
	if ix.Size() != 0 || ix.FrontierSize() != 0 {
		t.Fatal("Clear left offers behind")
	}
	if q5.Listed() {
		t.Error("offer still marked listed after Clear")
	}
	if !NewIndex().Insert(q5) {
		t.Error("cleared offer could not be inserted elsewhere")
	}
}

// ──── Properties ────

// bruteForce scans every offer in index order and keeps the first one of
// maximal quality among those priced at or below ceiling.
func bruteForce(ix *Index, ceiling float64) *Offer {
	var best *Offer
	ix.ForEachAscending(func(o *Offer) bool {
		if o.Price() > ceiling {
			return false
		}
		if best == nil || o.Quality() > best.Quality() {
			best = o
		}
		return true
	})
	return best
}

func TestFrontierEquivalenceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ix := NewIndex()
		var live []*Offer
		next := ID(1)

		steps := rapid.IntRange(1, 120).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch op := rapid.IntRange(0, 4).Draw(t, "op"); {
			case op <= 1 || len(live) == 0:
				price := float64(rapid.IntRange(0, 30).Draw(t, "price") * 10)
				o, _ := NewOffer(OfferSpec{ID: next, Price: price, Quality: rapid.IntRange(0, 6).Draw(t, "quality")}, testAuth, nil)
				next++
				ix.Insert(o)
				live = append(live, o)
			case op == 2:
				k := rapid.IntRange(0, len(live)-1).Draw(t, "victim")
				ix.Remove(live[k])
				live = append(live[:k], live[k+1:]...)
			case op == 3:
				k := rapid.IntRange(0, len(live)-1).Draw(t, "repriced")
				price := float64(rapid.IntRange(0, 30).Draw(t, "newPrice") * 10)
				if err := live[k].SetPrice(price, testAuth); err != nil {
					t.Fatal(err)
				}
			default:
				ix.RebuildFrontier()
			}

			ceiling := float64(rapid.IntRange(-1, 31).Draw(t, "ceiling") * 10)
			if got, want := ix.BestAffordable(ceiling), bruteForce(ix, ceiling); got != want {
				t.Fatalf("BestAffordable(%v) = %v, brute force = %v", ceiling, got, want)
			}
			if err := ix.CheckInvariant(); err != nil {
				t.Fatal(err)
			}
		}
		if ix.Size() != len(live) {
			t.Fatalf("Size = %d, want %d", ix.Size(), len(live))
		}
	})
}

func TestIncrementalMatchesRebuildProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ix := NewIndex()
		n := rapid.IntRange(1, 80).Draw(t, "n")
		live := make([]*Offer, 0, n)
		for i := 0; i < n; i++ {
			o, _ := NewOffer(OfferSpec{
				ID:      ID(i + 1),
				Price:   float64(rapid.IntRange(0, 20).Draw(t, "price")),
				Quality: rapid.IntRange(0, 8).Draw(t, "quality"),
			}, testAuth, nil)
			ix.Insert(o)
			live = append(live, o)
		}
		ix.RebuildFrontier()

		removals := rapid.IntRange(0, n).Draw(t, "removals")
		for i := 0; i < removals; i++ {
			k := rapid.IntRange(0, len(live)-1).Draw(t, "victim")
			ix.Remove(live[k])
			live = append(live[:k], live[k+1:]...)
		}

		incremental := ix.frontier.Slice()
		ix.RebuildFrontier()
		rebuilt := ix.frontier.Slice()
		if len(incremental) != len(rebuilt) {
			t.Fatalf("incremental frontier has %d offers, rebuilt has %d", len(incremental), len(rebuilt))
		}
		for i := range rebuilt {
			if incremental[i] != rebuilt[i] {
				t.Fatalf("frontier[%d]: incremental offer %d, rebuilt offer %d", i, incremental[i].ID(), rebuilt[i].ID())
			}
		}
	})
}

func TestCheckInvariantCatchesDominatedFrontierOffer(t *testing.T) {
	ix, _, q3, _ := scenarioA(t)
	ix.RebuildFrontier()
	if err := ix.CheckInvariant(); err != nil {
		t.Fatalf("fresh frontier: %v", err)
	}

	// (120, q3) is dominated by (100, q5)
	ix.frontier.Insert(q3)
	err := ix.CheckInvariant()
	if err == nil {
		t.Fatal("dominated offer on the frontier not detected")
	}
	if !errors.IsAssertionFailure(err) {
		t.Errorf("err = %v, want an assertion failure", err)
	}
}

func TestCheckInvariantCatchesMissingFrontierOffer(t *testing.T) {
	ix, q5, _, _ := scenarioA(t)
	ix.RebuildFrontier()

	ix.frontier.Delete(q5)
	if err := ix.CheckInvariant(); !errors.IsAssertionFailure(err) {
		t.Errorf("err = %v, want an assertion failure", err)
	}
}
