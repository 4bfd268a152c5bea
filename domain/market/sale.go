package market

import (
	"github.com/cockroachdb/errors"

	"github.com/INET-Complexity/housing-model-sub001/domain/housing"
	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
)

// SaleMarket transfers ownership of the houses it clears. Every winning bid
// needs a mortgage approval from the bank.
type SaleMarket struct {
	*Market

	bank    Bank
	rentals Withdrawer
}

// NewSaleMarket creates the sale market. rentals, when set, is told to drop
// the rental listing of every house that is sold.
func NewSaleMarket(cfg Config, deps Deps, bank Bank, rentals Withdrawer) (*SaleMarket, error) {
	if bank == nil {
		return nil, errors.New("market: bank is required")
	}
	m, err := newMarket(Sale, cfg, deps)
	if err != nil {
		return nil, err
	}
	s := &SaleMarket{Market: m, bank: bank, rentals: rentals}
	m.settle = s.settle
	return s, nil
}

func (s *SaleMarket) settle(o *orderbook.Offer, b *orderbook.Bid, rec MatchRecord) (MatchRecord, error) {
	buyer, ok := s.households.Household(b.Bidder())
	if !ok {
		return rec, errors.Wrapf(ErrUnknownHousehold, "buyer %d", b.Bidder())
	}
	seller, ok := s.households.Household(o.Seller())
	if !ok {
		return rec, errors.Wrapf(ErrUnknownHousehold, "seller %d", o.Seller())
	}
	h, err := s.stock.Get(o.House())
	if err != nil {
		return rec, err
	}

	mortgage, ok := s.bank.Approve(MortgageRequest{
		Buyer:       b.Bidder(),
		House:       o.House(),
		Price:       rec.Price,
		DownPayment: b.DesiredDownPayment(),
		BuyToLet:    b.BuyToLet(),
	})
	if !ok {
		return rec, errors.Wrapf(ErrMatchRejected, "mortgage declined for household %d on house %d", b.Bidder(), o.House())
	}
	rec.Mortgage = &mortgage

	if err := s.stock.Transfer(o.House(), b.Bidder()); err != nil {
		return rec, err
	}
	switch {
	case !b.BuyToLet():
		h.Resident = b.Bidder()
	case h.Resident == o.Seller():
		h.Resident = housing.NoHousehold
	}
	if s.rentals != nil {
		s.rentals.WithdrawHouse(o.House())
	}

	seller.CompleteHouseSale(rec)
	buyer.CompleteHousePurchase(rec)
	return rec, nil
}
