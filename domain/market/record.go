package market

import (
	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
)

// Kind names a market.
type Kind uint8

const (
	Sale Kind = iota
	Rental
)

func (k Kind) String() string {
	switch k {
	case Sale:
		return "sale"
	case Rental:
		return "rental"
	default:
		return "unknown"
	}
}

// MatchRecord is one completed trade. Offer is already off the market and
// carries the final price. Mortgage is set on the sale market, Lease on the
// rental market.
type MatchRecord struct {
	Market    Kind
	Month     int
	Bid       *orderbook.Bid
	Offer     *orderbook.Offer
	AskPrice  float64
	Price     float64
	Competing int

	Mortgage *Mortgage
	Lease    *Lease
}

// MonthsOnMarket is how long the offer was listed before it matched.
func (r MatchRecord) MonthsOnMarket() int { return r.Offer.MonthsOnMarket(r.Month) }

// Lease is a tenancy created by the rental market.
type Lease struct {
	Tenant   orderbook.HouseholdID
	Landlord orderbook.HouseholdID
	House    orderbook.HouseID
	Rent     float64
	Months   int
	Start    int
}

// End is the first month after the tenancy.
func (l Lease) End() int { return l.Start + l.Months }

// RoundStats aggregates one clearing round.
type RoundStats struct {
	Market Kind
	Month  int

	Buyers    int // bids placed
	Sellers   int // offers listed when the round started
	Matches   int
	Unmatched int // bids that left the round without a house
	Rejected  int // matches rolled back by the bank
	Decayed   int
	Remaining int // offers still listed after the round

	AveragePrice float64
	// MonthsOnMarket is the average listing age of the matched offers per
	// quality band.
	MonthsOnMarket map[int]float64
}
