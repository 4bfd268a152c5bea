// Package market runs the monthly double auction of the sale and rental
// markets on top of the orderbook index.
//
// A Market owns its index, the authority that lists its offers and the
// table from offer ID to offer. Households list houses and place bids between
// rounds; Clear matches the bids, resolves contested offers, settles the
// winners through the market specialization and decays what is left.
// Everything runs on the caller's goroutine and every random draw comes from
// the one *rand.Rand injected at construction.
package market

import (
	"math/rand"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/INET-Complexity/housing-model-sub001/domain/housing"
	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
	"github.com/INET-Complexity/housing-model-sub001/infra/logging"
	"github.com/INET-Complexity/housing-model-sub001/infra/sequence"
)

var (
	// ErrMatchRejected is returned by a settlement that must be rolled back.
	ErrMatchRejected = errors.New("market: match rejected")

	// ErrUnknownHouse aliases the housing error so callers need one import.
	ErrUnknownHouse = housing.ErrUnknownHouse

	ErrUnknownOffer     = errors.New("market: unknown offer")
	ErrUnknownHousehold = errors.New("market: unknown household")
	ErrAlreadyListed    = errors.New("market: house already listed")
	ErrNotOwner         = errors.New("market: seller does not own the house")
)

// BidOrder selects the order in which bids are matched.
type BidOrder uint8

const (
	// ArrivalOrder matches bids in the order they were placed.
	ArrivalOrder BidOrder = iota
	// PriceOrder matches the highest ceilings first, equal ceilings in
	// random order.
	PriceOrder
)

// Decay is the monthly price reduction of unsold offers: with Probability,
// price *= 1 - exp(Mu + Sigma*Z)/100 for Z standard normal.
type Decay struct {
	Probability float64
	Mu          float64
	Sigma       float64
}

// Config holds the clearing parameters of one market.
type Config struct {
	// BidUpFraction is the share of the gap between the listed price and the
	// second highest ceiling a contested offer is bid up by. In (0, 1), so a
	// contested offer always sells above its listed price.
	BidUpFraction float64
	BidOrder      BidOrder
	Decay         Decay

	// CheckInvariants verifies the index around every round and panics on a
	// broken frontier.
	CheckInvariants bool
}

func (c Config) validate() error {
	if !(c.BidUpFraction > 0 && c.BidUpFraction < 1) {
		return errors.Newf("market: bid-up fraction %v outside (0, 1)", c.BidUpFraction)
	}
	if c.BidOrder > PriceOrder {
		return errors.Newf("market: unknown bid order %d", c.BidOrder)
	}
	if c.Decay.Probability < 0 || c.Decay.Probability > 1 {
		return errors.Newf("market: decay probability %v outside [0, 1]", c.Decay.Probability)
	}
	if c.Decay.Sigma < 0 {
		return errors.Newf("market: decay sigma %v is negative", c.Decay.Sigma)
	}
	return nil
}

// Deps are the collaborators shared by the markets of a run.
type Deps struct {
	Stock      *housing.Stock
	Households Households
	Clock      Clock
	Seq        *sequence.Sequencer
	Rand       *rand.Rand

	// optional
	Refs      orderbook.References
	Collector Collector
	Log       *zap.SugaredLogger
}

func (d Deps) validate() error {
	switch {
	case d.Stock == nil:
		return errors.New("market: stock is required")
	case d.Households == nil:
		return errors.New("market: households are required")
	case d.Clock == nil:
		return errors.New("market: clock is required")
	case d.Seq == nil:
		return errors.New("market: sequencer is required")
	case d.Rand == nil:
		return errors.New("market: random source is required")
	}
	return nil
}

// BidOptions carries the optional attributes of a bid.
type BidOptions struct {
	BuyToLet    bool
	DownPayment float64
}

// ListOptions carries the optional attributes of an offer.
type ListOptions struct {
	BuyToLet bool
}

// settler completes a winning match. Returning an error wrapping
// ErrMatchRejected puts the offer back on the market.
type settler func(o *orderbook.Offer, b *orderbook.Bid, rec MatchRecord) (MatchRecord, error)

type Market struct {
	kind Kind
	cfg  Config

	book   *orderbook.Index
	auth   *orderbook.Authority
	offers map[orderbook.ID]*orderbook.Offer
	bids   []*orderbook.Bid

	stock      *housing.Stock
	households Households
	clock      Clock
	seq        *sequence.Sequencer
	rng        *rand.Rand
	yields     orderbook.YieldRule
	collector  Collector
	log        *zap.SugaredLogger

	settle settler
	// run around every round when CheckInvariants is set
	verify func() error
}

func newMarket(kind Kind, cfg Config, deps Deps) (*Market, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	collector := deps.Collector
	if collector == nil {
		collector = nopCollector{}
	}
	var yields orderbook.YieldRule
	if deps.Refs != nil {
		switch kind {
		case Rental:
			yields = orderbook.RentalYield{Refs: deps.Refs}
		default:
			yields = orderbook.SaleYield{Refs: deps.Refs}
		}
	}
	m := &Market{
		kind:       kind,
		cfg:        cfg,
		book:       orderbook.NewIndex(),
		auth:       orderbook.NewAuthority(kind.String() + "-market"),
		offers:     make(map[orderbook.ID]*orderbook.Offer),
		stock:      deps.Stock,
		households: deps.Households,
		clock:      deps.Clock,
		seq:        deps.Seq,
		rng:        deps.Rand,
		yields:     yields,
		collector:  collector,
		log:        logging.OrNop(deps.Log).With("market", kind.String()),
	}
	m.verify = m.book.CheckInvariant
	return m, nil
}

func (m *Market) Kind() Kind { return m.kind }

// Len returns the number of listed offers.
func (m *Market) Len() int { return m.book.Size() }

// PendingBids returns the number of bids waiting for the next round.
func (m *Market) PendingBids() int { return len(m.bids) }

// Offer looks up a listed offer.
func (m *Market) Offer(id orderbook.ID) (*orderbook.Offer, bool) {
	o, ok := m.offers[id]
	return o, ok
}

// Offers returns the listed offers in index order.
func (m *Market) Offers() []*orderbook.Offer { return m.book.Offers() }

// listing returns the field of h that records its offer on this market.
func (m *Market) listing(h *housing.House) *orderbook.ID {
	if m.kind == Rental {
		return &h.RentalOffer
	}
	return &h.SaleOffer
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// List puts house on the market at price on behalf of seller.
func (m *Market) List(seller orderbook.HouseholdID, house orderbook.HouseID, price float64, opts ListOptions) (*orderbook.Offer, error) {
	h, err := m.stock.Get(house)
	if err != nil {
		return nil, err
	}
	if h.Owner != seller {
		return nil, errors.Wrapf(ErrNotOwner, "house %d owned by %d, listed by %d", house, h.Owner, seller)
	}
	slot := m.listing(h)
	if *slot != 0 {
		return nil, errors.Wrapf(ErrAlreadyListed, "house %d as offer %d", house, *slot)
	}

	o, err := orderbook.NewOffer(orderbook.OfferSpec{
		ID:       orderbook.ID(m.seq.Next()),
		House:    house,
		Seller:   seller,
		Quality:  h.Quality,
		Price:    price,
		ListedAt: m.clock.Month(),
		BuyToLet: opts.BuyToLet,
	}, m.auth, m.yields)
	if err != nil {
		return nil, err
	}

	m.book.Insert(o)
	m.offers[o.ID()] = o
	*slot = o.ID()
	return o, nil
}

// UpdatePrice changes the price of a listed offer.
func (m *Market) UpdatePrice(id orderbook.ID, price float64) error {
	o, ok := m.offers[id]
	if !ok {
		return errors.Wrapf(ErrUnknownOffer, "offer %d", id)
	}
	return o.SetPrice(price, m.auth)
}

// Withdraw takes an offer off the market. Withdrawing an offer that is not
// listed does nothing and returns false.
func (m *Market) Withdraw(id orderbook.ID) bool {
	o, ok := m.offers[id]
	if !ok {
		return false
	}
	m.book.Remove(o)
	m.forget(o)
	return true
}

// WithdrawHouse withdraws the current offer of house, if any.
func (m *Market) WithdrawHouse(house orderbook.HouseID) bool {
	h, err := m.stock.Get(house)
	if err != nil {
		return false
	}
	id := *m.listing(h)
	if id == 0 {
		return false
	}
	return m.Withdraw(id)
}

// PlaceBid queues a bid for the next round.
func (m *Market) PlaceBid(bidder orderbook.HouseholdID, price float64, opts BidOptions) (*orderbook.Bid, error) {
	b, err := orderbook.NewBid(orderbook.ID(m.seq.Next()), bidder, price, opts.BuyToLet, opts.DownPayment)
	if err != nil {
		return nil, err
	}
	m.bids = append(m.bids, b)
	return b, nil
}

// forget drops an offer that has left the index from the lookup table and
// from its house.
func (m *Market) forget(o *orderbook.Offer) {
	delete(m.offers, o.ID())
	if h, err := m.stock.Get(o.House()); err == nil {
		if slot := m.listing(h); *slot == o.ID() {
			*slot = 0
		}
	}
}
