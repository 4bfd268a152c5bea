package market

import (
	"github.com/cockroachdb/errors"

	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
)

// Tenancy is the length of new leases in months: Average plus a uniform draw
// from [-Epsilon, Epsilon].
type Tenancy struct {
	Average int
	Epsilon int
}

// RentalMarket creates leases. Ownership never changes hands.
type RentalMarket struct {
	*Market

	tenancy Tenancy
}

func NewRentalMarket(cfg Config, deps Deps, tenancy Tenancy) (*RentalMarket, error) {
	if tenancy.Epsilon < 0 || tenancy.Average-tenancy.Epsilon < 1 {
		return nil, errors.Newf("market: tenancy %d±%d must stay above zero months", tenancy.Average, tenancy.Epsilon)
	}
	m, err := newMarket(Rental, cfg, deps)
	if err != nil {
		return nil, err
	}
	r := &RentalMarket{Market: m, tenancy: tenancy}
	m.settle = r.settle
	return r, nil
}

func (r *RentalMarket) settle(o *orderbook.Offer, b *orderbook.Bid, rec MatchRecord) (MatchRecord, error) {
	tenant, ok := r.households.Household(b.Bidder())
	if !ok {
		return rec, errors.Wrapf(ErrUnknownHousehold, "tenant %d", b.Bidder())
	}
	landlord, ok := r.households.Household(o.Seller())
	if !ok {
		return rec, errors.Wrapf(ErrUnknownHousehold, "landlord %d", o.Seller())
	}
	h, err := r.stock.Get(o.House())
	if err != nil {
		return rec, err
	}

	lease := Lease{
		Tenant:   b.Bidder(),
		Landlord: o.Seller(),
		House:    o.House(),
		Rent:     rec.Price,
		Months:   r.tenancyLength(),
		Start:    rec.Month,
	}
	rec.Lease = &lease
	h.Resident = b.Bidder()

	tenant.CompleteHouseRental(lease)
	landlord.CompleteHouseLet(lease)
	return rec, nil
}

func (r *RentalMarket) tenancyLength() int {
	t := r.tenancy
	return t.Average + r.rng.Intn(2*t.Epsilon+1) - t.Epsilon
}
