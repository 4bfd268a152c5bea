package config

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Validate checks that all values are in range.
func (c *Config) Validate() error {
	if c.QualityBands < 1 {
		return errors.New("quality_bands must be >= 1")
	}
	if err := c.Sale.validate("sale"); err != nil {
		return err
	}
	if err := c.Rental.validate("rental"); err != nil {
		return err
	}
	if c.Rental.Tenancy.Epsilon < 0 {
		return errors.New("rental.tenancy.epsilon must be >= 0")
	}
	if c.Rental.Tenancy.Average-c.Rental.Tenancy.Epsilon < 1 {
		return errors.New("rental.tenancy.average - epsilon must be >= 1")
	}

	for i, p := range c.References.Prices {
		if p <= 0 {
			return fmt.Errorf("references.prices[%d] must be > 0, got %v", i, p)
		}
	}
	if c.References.Decay <= 0 || c.References.Decay > 1 {
		return fmt.Errorf("references.decay must be in (0, 1], got %v", c.References.Decay)
	}

	if c.Outbox.Dir == "" {
		return errors.New("outbox.dir is required")
	}
	if c.Outbox.Format != "json" && c.Outbox.Format != "proto" {
		return fmt.Errorf("outbox.format must be json or proto, got %q", c.Outbox.Format)
	}
	if c.Kafka.PublishInterval <= 0 {
		return errors.New("kafka.publish_interval must be > 0")
	}
	return nil
}

func (m *MarketConfig) validate(prefix string) error {
	if m.BidUpFraction == nil {
		return fmt.Errorf("%s.bid_up_fraction is required", prefix)
	}
	if f := *m.BidUpFraction; !(f > 0 && f < 1) {
		return fmt.Errorf("%s.bid_up_fraction must be in (0, 1), got %v", prefix, f)
	}
	if m.BidOrder != BidOrderArrival && m.BidOrder != BidOrderPrice {
		return fmt.Errorf("%s.bid_order must be %q or %q, got %q", prefix, BidOrderArrival, BidOrderPrice, m.BidOrder)
	}
	if m.Decay.Probability < 0 || m.Decay.Probability > 1 {
		return fmt.Errorf("%s.decay.probability must be in [0, 1], got %v", prefix, m.Decay.Probability)
	}
	if m.Decay.Sigma < 0 {
		return fmt.Errorf("%s.decay.sigma must be >= 0", prefix)
	}
	return nil
}

// RequireKafka checks the settings the publish command needs.
func (c *Config) RequireKafka() error {
	if len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required")
	}
	return nil
}
