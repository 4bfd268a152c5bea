// Package config loads the parameters of a simulation run from YAML, with
// HOUSING_* environment variables taking precedence over the file.
package config

import "time"

type Config struct {
	Seed            int64 `yaml:"seed" env:"SEED"`
	QualityBands    int   `yaml:"quality_bands" env:"QUALITY_BANDS"`
	CheckInvariants bool  `yaml:"check_invariants" env:"CHECK_INVARIANTS"`

	Sale       MarketConfig    `yaml:"sale" envPrefix:"SALE_"`
	Rental     RentalConfig    `yaml:"rental" envPrefix:"RENTAL_"`
	References ReferenceConfig `yaml:"references" envPrefix:"REFERENCES_"`
	Outbox     OutboxConfig    `yaml:"outbox" envPrefix:"OUTBOX_"`
	Kafka      KafkaConfig     `yaml:"kafka" envPrefix:"KAFKA_"`
	Log        LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

// MarketConfig holds the clearing parameters of one market.
type MarketConfig struct {
	// nil until set by the file, the environment or the defaults
	BidUpFraction *float64    `yaml:"bid_up_fraction" env:"BID_UP_FRACTION"`
	BidOrder      string      `yaml:"bid_order" env:"BID_ORDER"`
	Decay         DecayConfig `yaml:"decay" envPrefix:"DECAY_"`
}

// DecayConfig is the monthly price cut of unsold offers.
type DecayConfig struct {
	Disabled    bool    `yaml:"disabled" env:"DISABLED"`
	Probability float64 `yaml:"probability" env:"PROBABILITY"`
	Mu          float64 `yaml:"mu" env:"MU"`
	Sigma       float64 `yaml:"sigma" env:"SIGMA"`
}

type RentalConfig struct {
	MarketConfig `yaml:",inline"`
	Tenancy      TenancyConfig `yaml:"tenancy" envPrefix:"TENANCY_"`
}

// TenancyConfig is the lease length in months: average ± epsilon.
type TenancyConfig struct {
	Average int `yaml:"average" env:"AVERAGE"`
	Epsilon int `yaml:"epsilon" env:"EPSILON"`
}

// ReferenceConfig seeds the reference prices and yields per quality band.
type ReferenceConfig struct {
	Prices []float64 `yaml:"prices" env:"PRICES" envSeparator:","`
	Yield  float64   `yaml:"yield" env:"YIELD"`
	Decay  float64   `yaml:"decay" env:"DECAY"`
}

type OutboxConfig struct {
	Dir    string `yaml:"dir" env:"DIR"`
	Format string `yaml:"format" env:"FORMAT"`
}

type KafkaConfig struct {
	Brokers         []string      `yaml:"brokers" env:"BROKERS" envSeparator:","`
	MatchTopic      string        `yaml:"match_topic" env:"MATCH_TOPIC"`
	StatsTopic      string        `yaml:"stats_topic" env:"STATS_TOPIC"`
	PublishInterval time.Duration `yaml:"publish_interval" env:"PUBLISH_INTERVAL"`
	MaxRetries      uint32        `yaml:"max_retries" env:"MAX_RETRIES"`
	DropAcked       bool          `yaml:"drop_acked" env:"DROP_ACKED"`
}

type LogConfig struct {
	Level       string `yaml:"level" env:"LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
}
