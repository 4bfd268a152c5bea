package config

import (
	"github.com/INET-Complexity/housing-model-sub001/domain/market"
	"github.com/INET-Complexity/housing-model-sub001/service"
)

// SaleMarket returns the clearing parameters of the sale market.
func (c *Config) SaleMarket() market.Config {
	return c.Sale.market(c.CheckInvariants)
}

// RentalMarket returns the clearing parameters of the rental market.
func (c *Config) RentalMarket() market.Config {
	return c.Rental.market(c.CheckInvariants)
}

func (c *Config) Tenancy() market.Tenancy {
	return market.Tenancy{
		Average: c.Rental.Tenancy.Average,
		Epsilon: c.Rental.Tenancy.Epsilon,
	}
}

// Collector returns the settings of the statistics collector. Reference
// prices are stretched over every quality band.
func (c *Config) Collector() service.CollectorConfig {
	prices := make([]float64, c.QualityBands)
	for q := range prices {
		if q < len(c.References.Prices) {
			prices[q] = c.References.Prices[q]
		} else {
			prices[q] = c.References.Prices[len(c.References.Prices)-1]
		}
	}
	return service.CollectorConfig{
		InitialPrices: prices,
		InitialYield:  c.References.Yield,
		Decay:         c.References.Decay,
	}
}

func (m *MarketConfig) market(check bool) market.Config {
	order := market.ArrivalOrder
	if m.BidOrder == BidOrderPrice {
		order = market.PriceOrder
	}
	cfg := market.Config{
		BidOrder:        order,
		CheckInvariants: check,
	}
	if m.BidUpFraction != nil {
		cfg.BidUpFraction = *m.BidUpFraction
	}
	if !m.Decay.Disabled {
		cfg.Decay = market.Decay{
			Probability: m.Decay.Probability,
			Mu:          m.Decay.Mu,
			Sigma:       m.Decay.Sigma,
		}
	}
	return cfg
}
