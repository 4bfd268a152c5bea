package market

import (
	"math"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
)

/*
Clear runs one clearing round:

 1. rebuild the frontier of the index
 2. match every bid to the best offer it can afford
 3. award each contested offer to its highest bid, at a bid-up price
 4. take the offer off the market and settle; a rejected settlement puts it
    back at its listed price
 5. decay the prices of the offers left over
 6. report the round to the collector and drop the bids

Bids never survive a round.
*/
func (m *Market) Clear() RoundStats {
	month := m.clock.Month()
	stats := RoundStats{
		Market:         m.kind,
		Month:          month,
		Buyers:         len(m.bids),
		Sellers:        m.book.Size(),
		MonthsOnMarket: make(map[int]float64),
	}

	m.book.RebuildFrontier()
	m.checkInvariant()

	stats.Unmatched += m.matchBids()
	m.resolveMatches(month, &stats)
	stats.Decayed = m.decay()

	stats.Remaining = m.book.Size()
	m.bids = nil
	m.checkInvariant()

	m.collector.RecordRound(stats)
	m.log.Debugw("round cleared",
		"month", month,
		"buyers", stats.Buyers,
		"sellers", stats.Sellers,
		"matches", stats.Matches,
		"unmatched", stats.Unmatched,
		"rejected", stats.Rejected,
		"decayed", stats.Decayed,
	)
	return stats
}

// ──── Matching ────

// matchBids attaches each bid to the best offer it can afford and returns the
// number of bids that found none.
func (m *Market) matchBids() int {
	unmatched := 0
	for _, b := range m.orderedBids() {
		o := m.book.BestAffordable(b.Price())
		if o == nil || o.Seller() == b.Bidder() {
			unmatched++
			continue
		}
		o.MatchWith(b)
	}
	return unmatched
}

func (m *Market) orderedBids() []*orderbook.Bid {
	if m.cfg.BidOrder == ArrivalOrder {
		return m.bids
	}
	bids := slices.Clone(m.bids)
	m.rng.Shuffle(len(bids), func(i, j int) { bids[i], bids[j] = bids[j], bids[i] })
	slices.SortStableFunc(bids, func(a, b *orderbook.Bid) int {
		switch {
		case a.Price() > b.Price():
			return -1
		case a.Price() < b.Price():
			return 1
		}
		return 0
	})
	return bids
}

// ──── Resolution ────

func (m *Market) resolveMatches(month int, stats *RoundStats) {
	var (
		total  float64
		months = make(map[int]int)
	)

	it := m.book.Iterator()
	for it.Next() {
		o := it.Offer()
		bids := o.MatchedBids()
		if len(bids) == 0 {
			continue
		}
		o.ResetMatches()

		winner, price := m.auction(o, bids)
		stats.Unmatched += len(bids) - 1

		it.Remove()
		rec, err := m.settle(o, winner, MatchRecord{
			Market:    m.kind,
			Month:     month,
			Bid:       winner,
			Offer:     o,
			AskPrice:  o.Price(),
			Price:     price,
			Competing: len(bids),
		})
		if err != nil {
			// back at the listed price; the iterator has already passed it
			m.book.Insert(o)
			stats.Rejected++
			stats.Unmatched++
			if errors.Is(err, ErrMatchRejected) {
				m.log.Debugw("match rejected", "offer", o.ID(), "bid", winner.ID(), "err", err)
			} else {
				m.log.Warnw("settlement failed", "offer", o.ID(), "bid", winner.ID(), "err", err)
			}
			continue
		}

		if err := o.SetPrice(price, m.auth); err != nil {
			panic(errors.NewAssertionErrorWithWrappedErrf(err, "market: final price of offer %d", o.ID()))
		}
		m.forget(o)
		m.collector.RecordMatch(rec)

		stats.Matches++
		total += price
		stats.MonthsOnMarket[o.Quality()] += float64(rec.MonthsOnMarket())
		months[o.Quality()]++
	}

	if stats.Matches > 0 {
		stats.AveragePrice = total / float64(stats.Matches)
	}
	for q, n := range months {
		stats.MonthsOnMarket[q] /= float64(n)
	}
}

// auction picks the winner among the bids matched to o and the price it pays.
// The highest ceiling wins, equal ceilings are drawn at random. With n bids the
// price moves from the listed price towards the second highest ceiling by
// 1 - (1-f)^(n-1) of the gap; a single bid pays the listed price.
func (m *Market) auction(o *orderbook.Offer, bids []*orderbook.Bid) (*orderbook.Bid, float64) {
	listed := o.Price()
	if len(bids) == 1 {
		return bids[0], listed
	}

	top := make([]int, 0, 2)
	for i, b := range bids {
		switch {
		case len(top) == 0 || b.Price() > bids[top[0]].Price():
			top = append(top[:0], i)
		case b.Price() == bids[top[0]].Price():
			top = append(top, i)
		}
	}
	win := top[0]
	if len(top) > 1 {
		win = top[m.rng.Intn(len(top))]
	}

	second := math.Inf(-1)
	for i, b := range bids {
		if i != win && b.Price() > second {
			second = b.Price()
		}
	}
	if second <= listed {
		return bids[win], listed
	}

	f := 1 - math.Pow(1-m.cfg.BidUpFraction, float64(len(bids)-1))
	return bids[win], listed + f*(second-listed)
}

// ──── Decay ────

// decay cuts the price of each remaining offer with the configured
// probability and returns how many were cut.
func (m *Market) decay() int {
	d := m.cfg.Decay
	if d.Probability <= 0 {
		return 0
	}
	n := 0
	for _, o := range m.book.Offers() {
		if m.rng.Float64() >= d.Probability {
			continue
		}
		cut := math.Exp(d.Mu+d.Sigma*m.rng.NormFloat64()) / 100
		price := math.Max(0, o.Price()*(1-cut))
		if err := o.SetPrice(price, m.auth); err != nil {
			panic(errors.NewAssertionErrorWithWrappedErrf(err, "market: decay of offer %d", o.ID()))
		}
		n++
	}
	return n
}

func (m *Market) checkInvariant() {
	if !m.cfg.CheckInvariants {
		return
	}
	if err := m.verify(); err != nil {
		panic(err)
	}
}
