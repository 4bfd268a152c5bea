package orderbook

import (
	"math"

	"github.com/cockroachdb/errors"
)

// ID identifies a bid or an offer. IDs are handed out by one sequencer per
// simulation run, so they are unique across both sides and never reused.
type ID uint64

// HouseholdID is a handle to a household owned by the caller.
type HouseholdID uint64

// HouseID is a handle to a house in the housing stock.
type HouseID uint64

var (
	// ErrForbidden is returned when a price change is attempted without the
	// authority that listed the offer.
	ErrForbidden = errors.New("orderbook: price change not authorised")

	// ErrInvalidPrice is returned for negative or NaN prices.
	ErrInvalidPrice = errors.New("orderbook: invalid price")
)

// References supplies the per-quality reference values used to compute the
// implied yield of an offer.
type References interface {
	ReferencePrice(quality int) float64
	ReferenceYield(quality int) float64
}

// YieldRule turns the listed price of an offer into its implied yield.
type YieldRule interface {
	ImpliedYield(quality int, price float64) float64
}

// SaleYield values a house for sale against the rent it is expected to earn:
// ReferenceYield(q) * ReferencePrice(q) / price. A zero price gives +Inf.
type SaleYield struct{ Refs References }

func (y SaleYield) ImpliedYield(q int, price float64) float64 {
	if price <= 0 {
		return math.Inf(1)
	}
	return y.Refs.ReferenceYield(q) * y.Refs.ReferencePrice(q) / price
}

// RentalYield is the gross annual yield a monthly rent earns on the reference
// price of its quality: 12 * rent / ReferencePrice(q).
type RentalYield struct{ Refs References }

func (y RentalYield) ImpliedYield(q int, rent float64) float64 {
	ref := y.Refs.ReferencePrice(q)
	if ref <= 0 {
		return math.Inf(1)
	}
	return 12 * rent / ref
}

// Authority is the capability needed to change the price of a listed offer.
// Each market creates its own; offers only accept the one that listed them.
type Authority struct {
	name string
}

func NewAuthority(name string) *Authority {
	return &Authority{name: name}
}

func (a *Authority) String() string {
	if a == nil {
		return "<none>"
	}
	return a.name
}

func validPrice(p float64) bool {
	return p >= 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

//
// ──────────────────────────────────────────────────────────
// Bid
// ──────────────────────────────────────────────────────────
//

// Bid is a household's price ceiling for the current clearing round.
// It is never mutated after creation.
type Bid struct {
	id          ID
	bidder      HouseholdID
	price       float64
	buyToLet    bool
	downPayment float64
}

// NewBid builds a bid. downPayment is only meaningful on the sale market.
func NewBid(id ID, bidder HouseholdID, price float64, buyToLet bool, downPayment float64) (*Bid, error) {
	if !validPrice(price) {
		return nil, errors.Wrapf(ErrInvalidPrice, "bid %d: %v", id, price)
	}
	return &Bid{
		id:          id,
		bidder:      bidder,
		price:       price,
		buyToLet:    buyToLet,
		downPayment: downPayment,
	}, nil
}

func (b *Bid) ID() ID                      { return b.id }
func (b *Bid) Bidder() HouseholdID         { return b.bidder }
func (b *Bid) Price() float64              { return b.price }
func (b *Bid) BuyToLet() bool              { return b.buyToLet }
func (b *Bid) DesiredDownPayment() float64 { return b.downPayment }

//
// ──────────────────────────────────────────────────────────
// Offer
// ──────────────────────────────────────────────────────────
//

// Offer is a listed house with an asking price. Quality and listing month are
// fixed at creation; the price moves only through SetPrice.
type Offer struct {
	id           ID
	house        HouseID
	seller       HouseholdID
	quality      int
	initialPrice float64
	price        float64
	listedAt     int
	yield        float64
	buyToLet     bool

	auth    *Authority
	yields  YieldRule
	matched []*Bid

	// index holding the offer, nil when unlisted
	index *Index
}

// OfferSpec carries the immutable attributes of a new offer.
type OfferSpec struct {
	ID       ID
	House    HouseID
	Seller   HouseholdID
	Quality  int
	Price    float64
	ListedAt int
	BuyToLet bool
}

// NewOffer builds an offer owned by auth. yields may be nil, in which case the
// implied yield stays zero.
func NewOffer(spec OfferSpec, auth *Authority, yields YieldRule) (*Offer, error) {
	if !validPrice(spec.Price) {
		return nil, errors.Wrapf(ErrInvalidPrice, "offer %d: %v", spec.ID, spec.Price)
	}
	o := &Offer{
		id:           spec.ID,
		house:        spec.House,
		seller:       spec.Seller,
		quality:      spec.Quality,
		initialPrice: spec.Price,
		price:        spec.Price,
		listedAt:     spec.ListedAt,
		buyToLet:     spec.BuyToLet,
		auth:         auth,
		yields:       yields,
	}
	o.recalculateYield()
	return o, nil
}

func (o *Offer) ID() ID                      { return o.id }
func (o *Offer) House() HouseID              { return o.house }
func (o *Offer) Seller() HouseholdID         { return o.seller }
func (o *Offer) Quality() int                { return o.quality }
func (o *Offer) Price() float64              { return o.price }
func (o *Offer) InitialListedPrice() float64 { return o.initialPrice }
func (o *Offer) ListedAt() int               { return o.listedAt }
func (o *Offer) ImpliedYield() float64       { return o.yield }
func (o *Offer) BuyToLet() bool              { return o.buyToLet }
func (o *Offer) Listed() bool                { return o.index != nil }

// MonthsOnMarket is the number of months since the offer was first listed.
func (o *Offer) MonthsOnMarket(now int) int {
	return now - o.listedAt
}

// SetPrice changes the listed price. The implied yield is recomputed and, if
// the offer sits in an index, it is moved to its new position there.
func (o *Offer) SetPrice(price float64, auth *Authority) error {
	if auth == nil || auth != o.auth {
		return errors.Wrapf(ErrForbidden, "offer %d by %s", o.id, auth)
	}
	if !validPrice(price) {
		return errors.Wrapf(ErrInvalidPrice, "offer %d: %v", o.id, price)
	}
	if ix := o.index; ix != nil {
		ix.Remove(o)
		o.setPrice(price)
		ix.Insert(o)
		return nil
	}
	o.setPrice(price)
	return nil
}

func (o *Offer) setPrice(price float64) {
	o.price = price
	o.recalculateYield()
}

func (o *Offer) recalculateYield() {
	if o.yields == nil {
		return
	}
	o.yield = o.yields.ImpliedYield(o.quality, o.price)
}

// MatchWith records a provisional match for the current round.
func (o *Offer) MatchWith(b *Bid) { o.matched = append(o.matched, b) }

// MatchedBids returns the provisional bids of the current round.
func (o *Offer) MatchedBids() []*Bid { return o.matched }

// ResetMatches drops the provisional bids.
func (o *Offer) ResetMatches() { o.matched = nil }

// compare orders offers by price ascending, quality descending, id ascending.
func compare(a, b *Offer) int {
	switch {
	case a.price < b.price:
		return -1
	case a.price > b.price:
		return 1
	case a.quality > b.quality:
		return -1
	case a.quality < b.quality:
		return 1
	case a.id < b.id:
		return -1
	case a.id > b.id:
		return 1
	}
	return 0
}

// Less reports whether a precedes b in index order.
func Less(a, b *Offer) bool { return compare(a, b) < 0 }
