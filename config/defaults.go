package config

import (
	"math"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultQualityBands  = 48
	DefaultBidUpFraction = 0.5
	DefaultBidOrder      = BidOrderArrival

	DefaultSaleDecayProbability = 0.055
	DefaultSaleDecayMu          = 1.603
	DefaultSaleDecaySigma       = 0.617

	DefaultTenancyAverage = 18
	DefaultTenancyEpsilon = 6

	DefaultReferencePrice = 200_000.0
	DefaultReferenceYield = 0.05
	DefaultReferenceDecay = 0.1

	DefaultOutboxDir       = "./outbox"
	DefaultOutboxFormat    = "json"
	DefaultMatchTopic      = "housing.matches"
	DefaultStatsTopic      = "housing.rounds"
	DefaultPublishInterval = 250 * time.Millisecond
	DefaultMaxRetries      = 5

	DefaultLogLevel = "info"
)

const (
	BidOrderArrival = "arrival"
	BidOrderPrice   = "price"
)

// Rents fall by a flat 5% every month they stay unlet.
var (
	DefaultRentalDecayProbability = 1.0
	DefaultRentalDecayMu          = math.Log(5)
	DefaultRentalDecaySigma       = 0.0
)

func (c *Config) applyDefaults() {
	if c.QualityBands == 0 {
		c.QualityBands = DefaultQualityBands
	}

	applyMarketDefaults(&c.Sale, DecayConfig{
		Probability: DefaultSaleDecayProbability,
		Mu:          DefaultSaleDecayMu,
		Sigma:       DefaultSaleDecaySigma,
	})
	applyMarketDefaults(&c.Rental.MarketConfig, DecayConfig{
		Probability: DefaultRentalDecayProbability,
		Mu:          DefaultRentalDecayMu,
		Sigma:       DefaultRentalDecaySigma,
	})
	if c.Rental.Tenancy.Average == 0 {
		c.Rental.Tenancy.Average = DefaultTenancyAverage
		if c.Rental.Tenancy.Epsilon == 0 {
			c.Rental.Tenancy.Epsilon = DefaultTenancyEpsilon
		}
	}

	// References defaults
	if len(c.References.Prices) == 0 {
		c.References.Prices = []float64{DefaultReferencePrice}
	}
	if c.References.Yield == 0 {
		c.References.Yield = DefaultReferenceYield
	}
	if c.References.Decay == 0 {
		c.References.Decay = DefaultReferenceDecay
	}

	// Outbox and Kafka defaults
	if c.Outbox.Dir == "" {
		c.Outbox.Dir = DefaultOutboxDir
	}
	if c.Outbox.Format == "" {
		c.Outbox.Format = DefaultOutboxFormat
	}
	if c.Kafka.MatchTopic == "" {
		c.Kafka.MatchTopic = DefaultMatchTopic
	}
	if c.Kafka.StatsTopic == "" {
		c.Kafka.StatsTopic = DefaultStatsTopic
	}
	if c.Kafka.PublishInterval == 0 {
		c.Kafka.PublishInterval = DefaultPublishInterval
	}
	if c.Kafka.MaxRetries == 0 {
		c.Kafka.MaxRetries = DefaultMaxRetries
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyMarketDefaults(m *MarketConfig, decay DecayConfig) {
	if m.BidUpFraction == nil {
		f := DefaultBidUpFraction
		m.BidUpFraction = &f
	}
	if m.BidOrder == "" {
		m.BidOrder = DefaultBidOrder
	}
	if m.Decay.Disabled {
		return
	}
	if m.Decay.Probability == 0 {
		m.Decay.Probability = decay.Probability
	}
	if m.Decay.Mu == 0 {
		m.Decay.Mu = decay.Mu
	}
	if m.Decay.Sigma == 0 {
		m.Decay.Sigma = decay.Sigma
	}
}
