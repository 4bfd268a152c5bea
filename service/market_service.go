package service

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/INET-Complexity/housing-model-sub001/domain/housing"
	"github.com/INET-Complexity/housing-model-sub001/domain/market"
	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
	"github.com/INET-Complexity/housing-model-sub001/infra/logging"
	"github.com/INET-Complexity/housing-model-sub001/infra/sequence"
)

/*
MarketService is the ONLY write entry point into the markets.

Both markets share:
- one housing stock
- one ID sequencer
- one random source
- one collector, which also supplies the reference prices
*/
type MarketService struct {
	sale   *market.SaleMarket
	rental *market.RentalMarket
	stock  *housing.Stock
	coll   *Collector
	log    *zap.SugaredLogger

	month int
}

type MarketServiceConfig struct {
	Sale    market.Config
	Rental  market.Config
	Tenancy market.Tenancy
}

// NewMarketService wires all dependencies.
func NewMarketService(
	cfg MarketServiceConfig,
	stock *housing.Stock,
	households market.Households,
	bank market.Bank,
	rng *rand.Rand,
	coll *Collector,
	log *zap.SugaredLogger,
) (*MarketService, error) {
	s := &MarketService{
		stock: stock,
		coll:  coll,
		log:   logging.OrNop(log),
	}
	deps := market.Deps{
		Stock:      stock,
		Households: households,
		Clock:      s,
		Seq:        sequence.New(0),
		Rand:       rng,
		Log:        s.log,
	}
	if coll != nil {
		deps.Refs = coll
		deps.Collector = coll
	}

	rental, err := market.NewRentalMarket(cfg.Rental, deps, cfg.Tenancy)
	if err != nil {
		return nil, err
	}
	sale, err := market.NewSaleMarket(cfg.Sale, deps, bank, rental)
	if err != nil {
		return nil, err
	}
	s.sale, s.rental = sale, rental
	return s, nil
}

// Month is the current simulated month.
func (s *MarketService) Month() int { return s.month }

func (s *MarketService) Sale() *market.SaleMarket     { return s.sale }
func (s *MarketService) Rental() *market.RentalMarket { return s.rental }
func (s *MarketService) Stock() *housing.Stock        { return s.stock }

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

func (s *MarketService) ListForSale(seller orderbook.HouseholdID, house orderbook.HouseID, price float64, btl bool) (*orderbook.Offer, error) {
	return s.sale.List(seller, house, price, market.ListOptions{BuyToLet: btl})
}

func (s *MarketService) ListForRent(landlord orderbook.HouseholdID, house orderbook.HouseID, rent float64) (*orderbook.Offer, error) {
	return s.rental.List(landlord, house, rent, market.ListOptions{})
}

func (s *MarketService) BidToBuy(buyer orderbook.HouseholdID, price, downPayment float64, btl bool) (*orderbook.Bid, error) {
	return s.sale.PlaceBid(buyer, price, market.BidOptions{BuyToLet: btl, DownPayment: downPayment})
}

func (s *MarketService) BidToRent(tenant orderbook.HouseholdID, rent float64) (*orderbook.Bid, error) {
	return s.rental.PlaceBid(tenant, rent, market.BidOptions{})
}

// ClearMonth clears the sale market, then the rental market, and moves the
// clock to the next month.
func (s *MarketService) ClearMonth() (sale, rental market.RoundStats) {
	sale = s.sale.Clear()
	rental = s.rental.Clear()
	s.log.Infow("month cleared",
		"month", s.month,
		"sales", sale.Matches,
		"lets", rental.Matches,
		"for_sale", sale.Remaining,
		"to_let", rental.Remaining,
	)
	s.month++
	return sale, rental
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// ForSale returns the offers on the sale market, cheapest first.
func (s *MarketService) ForSale() []*orderbook.Offer { return s.sale.Offers() }

// ToLet returns the offers on the rental market, cheapest first.
func (s *MarketService) ToLet() []*orderbook.Offer { return s.rental.Offers() }
