package market

import (
	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
)

// Household receives the completion callbacks of the matches it takes part in.
type Household interface {
	CompleteHouseSale(MatchRecord)
	CompleteHousePurchase(MatchRecord)
	CompleteHouseRental(Lease)
	CompleteHouseLet(Lease)
}

// Households looks households up by handle.
type Households interface {
	Household(id orderbook.HouseholdID) (Household, bool)
}

// MortgageRequest is what the sale market asks the bank for a winning bid.
type MortgageRequest struct {
	Buyer       orderbook.HouseholdID
	House       orderbook.HouseID
	Price       float64
	DownPayment float64
	BuyToLet    bool
}

// Mortgage describes an approved loan.
type Mortgage struct {
	Principal      float64
	DownPayment    float64
	FirstTimeBuyer bool
	BuyToLet       bool
}

// Bank approves or declines mortgages. A decline rolls the match back.
type Bank interface {
	Approve(MortgageRequest) (Mortgage, bool)
}

// Clock reports the current simulated month.
type Clock interface {
	Month() int
}

// Collector receives every completed match and the statistics of each round.
type Collector interface {
	RecordMatch(MatchRecord)
	RecordRound(RoundStats)
}

// Withdrawer takes a house off a market, if it is listed there.
type Withdrawer interface {
	WithdrawHouse(house orderbook.HouseID) bool
}

type nopCollector struct{}

func (nopCollector) RecordMatch(MatchRecord) {}
func (nopCollector) RecordRound(RoundStats)  {}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int

func (f ClockFunc) Month() int { return f() }
