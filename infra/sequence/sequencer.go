package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing IDs. One sequencer is shared by
// every market of a run so bids and offers never collide or get reused.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer whose first ID is start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns a fresh ID.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued ID, zero if none.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}
