package main

import (
	"math"
	"math/rand"

	"github.com/INET-Complexity/housing-model-sub001/domain/housing"
	"github.com/INET-Complexity/housing-model-sub001/domain/market"
	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
	"github.com/INET-Complexity/housing-model-sub001/service"
)

// Synthetic behaviour rules. They only exist to drive the markets from the
// command line.
const (
	pListForSale      = 0.02
	pBuyRatherRent    = 0.4
	loanToIncome      = 4.5
	rentShareOfIncome = 0.3
	downPaymentShare  = 0.1
	askNoise          = 0.1
)

type resident struct {
	id     orderbook.HouseholdID
	income float64 // annual
	home   orderbook.HouseID
	leases []market.Lease
}

func (r *resident) CompleteHouseSale(rec market.MatchRecord) {
	if r.home == rec.Offer.House() {
		r.home = 0
	}
}

func (r *resident) CompleteHousePurchase(rec market.MatchRecord) {
	if !rec.Bid.BuyToLet() {
		r.home = rec.Offer.House()
	}
}

func (r *resident) CompleteHouseRental(l market.Lease) { r.home = l.House }

func (r *resident) CompleteHouseLet(l market.Lease) { r.leases = append(r.leases, l) }

// population is the households directory and the bank of a synthetic run.
type population struct {
	rng    *rand.Rand
	stock  *housing.Stock
	people []*resident
	bands  int
}

func newPopulation(rng *rand.Rand, stock *housing.Stock, households, houses, bands int) *population {
	p := &population{
		rng:    rng,
		stock:  stock,
		people: make([]*resident, households),
		bands:  bands,
	}
	for i := range p.people {
		p.people[i] = &resident{
			id:     orderbook.HouseholdID(i + 1),
			income: math.Exp(10.3 + 0.5*rng.NormFloat64()),
		}
	}
	for i := 0; i < houses; i++ {
		owner := p.people[rng.Intn(households)]
		id := stock.Build(rng.Intn(bands), owner.id)
		if owner.home == 0 {
			owner.home = id
			h, _ := stock.Get(id)
			h.Resident = owner.id
		}
	}
	return p
}

func (p *population) Household(id orderbook.HouseholdID) (market.Household, bool) {
	if id == 0 || int(id) > len(p.people) {
		return nil, false
	}
	return p.people[id-1], true
}

// Approve lends up to loanToIncome times the buyer's income.
func (p *population) Approve(req market.MortgageRequest) (market.Mortgage, bool) {
	r := p.people[req.Buyer-1]
	principal := math.Max(0, req.Price-req.DownPayment)
	if principal > loanToIncome*r.income {
		return market.Mortgage{}, false
	}
	return market.Mortgage{
		Principal:      principal,
		DownPayment:    req.Price - principal,
		FirstTimeBuyer: !p.owns(r.id),
		BuyToLet:       req.BuyToLet,
	}, true
}

func (p *population) owns(id orderbook.HouseholdID) bool {
	found := false
	p.stock.ForEach(func(h *housing.House) bool {
		found = h.Owner == id
		return !found
	})
	return found
}

// step ends expired leases, lists houses and places this month's bids.
func (p *population) step(svc *service.MarketService, refs *service.Collector) {
	month := svc.Month()

	p.stock.ForEach(func(h *housing.House) bool {
		q := h.Quality
		if !h.OnSale() && p.rng.Float64() < pListForSale {
			ask := refs.ReferencePrice(q) * (1 + askNoise*p.rng.NormFloat64())
			_, _ = svc.ListForSale(h.Owner, h.ID, math.Max(ask, 1), false)
		}
		if h.Resident == housing.NoHousehold && !h.OnRent() {
			rent := refs.ReferencePrice(q) * refs.ReferenceYield(q) / 12
			_, _ = svc.ListForRent(h.Owner, h.ID, rent)
		}
		return true
	})

	for _, r := range p.people {
		r.leases = p.expire(r.leases, month)
		if r.home != 0 {
			continue
		}
		if p.rng.Float64() < pBuyRatherRent {
			price := loanToIncome * r.income / (1 - downPaymentShare)
			_, _ = svc.BidToBuy(r.id, price, price*downPaymentShare, false)
		} else {
			_, _ = svc.BidToRent(r.id, rentShareOfIncome*r.income/12)
		}
	}
}

// expire moves out the tenants of leases that ended and keeps the rest.
func (p *population) expire(leases []market.Lease, month int) []market.Lease {
	kept := leases[:0]
	for _, l := range leases {
		if l.End() > month {
			kept = append(kept, l)
			continue
		}
		h, err := p.stock.Get(l.House)
		if err != nil || h.Resident != l.Tenant {
			continue
		}
		h.Resident = housing.NoHousehold
		if t := p.people[l.Tenant-1]; t.home == l.House {
			t.home = 0
		}
	}
	return kept
}
