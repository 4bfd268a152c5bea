// Package housing is the arena of houses the markets trade. Houses refer to
// their owner, resident and current listings by handle only.
package housing

import (
	"github.com/cockroachdb/errors"

	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
)

// ErrUnknownHouse is returned for a HouseID the stock never issued.
var ErrUnknownHouse = errors.New("housing: unknown house")

// NoHousehold marks a house without owner or resident.
const NoHousehold orderbook.HouseholdID = 0

// House is one dwelling. SaleOffer and RentalOffer hold the ID of the
// current listing on each market, zero when not listed.
type House struct {
	ID       orderbook.HouseID
	Quality  int
	Owner    orderbook.HouseholdID
	Resident orderbook.HouseholdID

	SaleOffer   orderbook.ID
	RentalOffer orderbook.ID
}

// OnSale reports whether the house is listed on the sale market.
func (h *House) OnSale() bool { return h.SaleOffer != 0 }

// OnRent reports whether the house is listed on the rental market.
func (h *House) OnRent() bool { return h.RentalOffer != 0 }

// Stock owns every house of a run. HouseIDs start at 1.
type Stock struct {
	houses []House
}

func NewStock(capacity int) *Stock {
	return &Stock{houses: make([]House, 0, capacity)}
}

// Build adds a house of the given quality owned by owner and returns its ID.
func (s *Stock) Build(quality int, owner orderbook.HouseholdID) orderbook.HouseID {
	id := orderbook.HouseID(len(s.houses) + 1)
	s.houses = append(s.houses, House{
		ID:      id,
		Quality: quality,
		Owner:   owner,
	})
	return id
}

// Get returns the house for id. The pointer stays valid until the next Build.
func (s *Stock) Get(id orderbook.HouseID) (*House, error) {
	if id == 0 || int(id) > len(s.houses) {
		return nil, errors.Wrapf(ErrUnknownHouse, "house %d", id)
	}
	return &s.houses[id-1], nil
}

// Transfer hands ownership of a house to buyer.
func (s *Stock) Transfer(id orderbook.HouseID, buyer orderbook.HouseholdID) error {
	h, err := s.Get(id)
	if err != nil {
		return err
	}
	h.Owner = buyer
	return nil
}

func (s *Stock) Len() int { return len(s.houses) }

// ForEach visits houses in ID order until fn returns false.
func (s *Stock) ForEach(fn func(*House) bool) {
	for i := range s.houses {
		if !fn(&s.houses[i]) {
			return
		}
	}
}
