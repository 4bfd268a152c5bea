package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/INET-Complexity/housing-model-sub001/infra/logging"
	"github.com/INET-Complexity/housing-model-sub001/infra/outbox"
)

const (
	DefaultInterval   = 250 * time.Millisecond
	DefaultMaxRetries = 5
)

// Broadcaster drains the outbox into a Kafka topic. A record is marked SENT
// before publishing and ACKED once the broker confirms it, or deleted when
// DropAcked is set. A record that keeps failing is parked as FAILED after
// MaxRetries attempts.
type Broadcaster struct {
	box      *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	log      *zap.SugaredLogger

	interval   time.Duration
	maxRetries uint32
	dropAcked  bool
}

type Options struct {
	Interval   time.Duration
	MaxRetries uint32
	// DropAcked deletes records once the broker confirms them.
	DropAcked bool
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

// NewSyncProducer connects a producer that waits for all in-sync replicas.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "broadcaster: connect producer")
	}
	return p, nil
}

func New(box *outbox.Outbox, producer sarama.SyncProducer, topic string, opts Options, log *zap.SugaredLogger) *Broadcaster {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &Broadcaster{
		box:        box,
		producer:   producer,
		topic:      topic,
		log:        logging.OrNop(log).With("job", "broadcaster", "topic", topic),
		interval:   opts.Interval,
		maxRetries: opts.MaxRetries,
		dropAcked:  opts.DropAcked,
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run drains the outbox on every tick until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	b.log.Infow("started", "interval", b.interval)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Infow("stopped")
			return ctx.Err()

		case <-ticker.C:
			if _, err := b.DrainOnce(); err != nil {
				b.log.Errorw("drain failed", "err", err)
			}
		}
	}
}

// ------------------------------------------------
// DRAIN
// ------------------------------------------------

type Result struct {
	Acked  int
	Failed int
}

// DrainOnce publishes every NEW record, then retries records left SENT by an
// interrupted drain.
func (b *Broadcaster) DrainOnce() (Result, error) {
	var res Result
	for _, state := range []outbox.State{outbox.StateNew, outbox.StateSent} {
		err := b.box.ScanByState(state, func(rec outbox.Record) error {
			return b.deliver(rec, &res)
		})
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (b *Broadcaster) deliver(rec outbox.Record, res *Result) error {
	if err := b.box.UpdateState(rec.Seq, outbox.StateSent, rec.Retries); err != nil {
		return err
	}

	_, _, err := b.producer.SendMessage(&sarama.ProducerMessage{
		Topic: b.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(rec.Seq, 10)),
		Value: sarama.ByteEncoder(rec.Payload),
	})
	if err == nil {
		res.Acked++
		if b.dropAcked {
			return b.box.Delete(rec.Seq)
		}
		return b.box.UpdateState(rec.Seq, outbox.StateAcked, rec.Retries)
	}

	retries := rec.Retries + 1
	if retries >= b.maxRetries {
		res.Failed++
		b.log.Warnw("giving up on record", "seq", rec.Seq, "retries", retries, "err", err)
		return b.box.UpdateState(rec.Seq, outbox.StateFailed, retries)
	}
	b.log.Debugw("publish failed, will retry", "seq", rec.Seq, "retries", retries, "err", err)
	return b.box.UpdateState(rec.Seq, outbox.StateNew, retries)
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
