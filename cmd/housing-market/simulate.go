package main

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"

	"github.com/INET-Complexity/housing-model-sub001/config"
	"github.com/INET-Complexity/housing-model-sub001/domain/housing"
	"github.com/INET-Complexity/housing-model-sub001/infra/codec"
	"github.com/INET-Complexity/housing-model-sub001/infra/kafka"
	"github.com/INET-Complexity/housing-model-sub001/infra/logging"
	"github.com/INET-Complexity/housing-model-sub001/infra/outbox"
	"github.com/INET-Complexity/housing-model-sub001/infra/random"
	"github.com/INET-Complexity/housing-model-sub001/service"
)

var simulateCmd = &cli.Command{
	Name:    "simulate",
	Usage:   "Run a synthetic population through both markets",
	Aliases: []string{"s"},
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "months",
			Value: 12,
			Usage: "specify the number of clearing rounds",
		},
		&cli.IntFlag{
			Name:  "households",
			Value: 1000,
			Usage: "specify the number of households",
		},
		&cli.IntFlag{
			Name:  "houses",
			Value: 900,
			Usage: "specify the number of houses",
		},
		&cli.Int64Flag{
			Name:  "seed",
			Usage: "override the configured seed",
		},
		&cli.BoolFlag{
			Name:  "publish-stats",
			Usage: "publish round statistics to the stats topic",
		},
	},
	Action: func(ctx *cli.Context) error {
		var (
			months     = ctx.Int("months")
			households = ctx.Int("households")
			houses     = ctx.Int("houses")
		)
		if months <= 0 {
			return errors.New("invalid months")
		}
		if households <= 0 || houses <= 0 {
			return errors.New("invalid population")
		}

		cfg, err := config.LoadAndValidate(ctx.String("config"))
		if err != nil {
			return err
		}
		if ctx.IsSet("seed") {
			cfg.Seed = ctx.Int64("seed")
		}
		return doSimulate(ctx.Context, cfg, months, households, houses, ctx.Bool("publish-stats"))
	},
}

func doSimulate(ctx context.Context, cfg *config.Config, months, nHouseholds, nHouses int, publishStats bool) error {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	rng, seed := random.NewSeeded(cfg.Seed, log)

	ser, err := codec.ByName(cfg.Outbox.Format)
	if err != nil {
		return err
	}
	box, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		return err
	}
	defer box.Close()

	var pub service.Publisher
	if publishStats {
		if err := cfg.RequireKafka(); err != nil {
			return err
		}
		p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.StatsTopic)
		defer p.Close()
		pub = p
	}

	coll, err := service.NewCollector(ctx, cfg.Collector(), ser, box, pub, log)
	if err != nil {
		return err
	}

	stock := housing.NewStock(nHouses)
	pop := newPopulation(rng, stock, nHouseholds, nHouses, cfg.QualityBands)

	svc, err := service.NewMarketService(service.MarketServiceConfig{
		Sale:    cfg.SaleMarket(),
		Rental:  cfg.RentalMarket(),
		Tenancy: cfg.Tenancy(),
	}, stock, pop, pop, rng, coll, log)
	if err != nil {
		return err
	}

	log.Infow("simulation started",
		"run", coll.RunID(),
		"seed", seed,
		"months", months,
		"households", nHouseholds,
		"houses", nHouses,
	)

	var sold, let int
	for m := 0; m < months; m++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pop.step(svc, coll)
		sale, rental := svc.ClearMonth()
		sold += sale.Matches
		let += rental.Matches
	}

	fmt.Printf("run %s seed %d: %d sales, %d lets over %d months, %d for sale, %d to let\n",
		coll.RunID(), seed, sold, let, months, len(svc.ForSale()), len(svc.ToLet()))
	return nil
}
