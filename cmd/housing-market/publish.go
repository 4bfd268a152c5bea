package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/INET-Complexity/housing-model-sub001/config"
	"github.com/INET-Complexity/housing-model-sub001/infra/logging"
	"github.com/INET-Complexity/housing-model-sub001/infra/outbox"
	"github.com/INET-Complexity/housing-model-sub001/jobs/broadcaster"
)

var publishCmd = &cli.Command{
	Name:    "publish",
	Usage:   "Drain the match outbox to Kafka",
	Aliases: []string{"p"},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "once",
			Usage: "drain once and exit instead of polling",
		},
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := config.LoadAndValidate(ctx.String("config"))
		if err != nil {
			return err
		}
		if err := cfg.RequireKafka(); err != nil {
			return err
		}
		return doPublish(ctx.Context, cfg, ctx.Bool("once"))
	},
}

func doPublish(ctx context.Context, cfg *config.Config, once bool) error {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	box, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		return err
	}
	defer box.Close()

	producer, err := broadcaster.NewSyncProducer(cfg.Kafka.Brokers)
	if err != nil {
		return err
	}
	bc := broadcaster.New(box, producer, cfg.Kafka.MatchTopic, broadcaster.Options{
		Interval:   cfg.Kafka.PublishInterval,
		MaxRetries: cfg.Kafka.MaxRetries,
		DropAcked:  cfg.Kafka.DropAcked,
	}, log)
	defer bc.Close()

	if once {
		res, err := bc.DrainOnce()
		if err != nil {
			return err
		}
		counts, err := box.Counts()
		if err != nil {
			return err
		}
		fmt.Printf("acked %d, failed %d; outbox: %d new, %d acked, %d failed\n",
			res.Acked, res.Failed, counts[outbox.StateNew], counts[outbox.StateAcked], counts[outbox.StateFailed])
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := bc.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
