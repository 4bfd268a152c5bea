package service

import (
	"context"
	"math"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/INET-Complexity/housing-model-sub001/domain/market"
	"github.com/INET-Complexity/housing-model-sub001/infra/codec"
	"github.com/INET-Complexity/housing-model-sub001/infra/logging"
	"github.com/INET-Complexity/housing-model-sub001/infra/outbox"
	"github.com/INET-Complexity/housing-model-sub001/infra/sequence"
)

/*
Collector is the statistics sink of both markets and the source of the
reference values offers price their yield against.

It keeps, per quality band:
- an exponential moving average of sale prices (the reference price)
- an exponential moving average of monthly rents
- an exponential moving average of months on market

Every match goes to the outbox as an event; round statistics go to the
Publisher. Both are optional.
*/

// Publisher sends round statistics out of process.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

type CollectorConfig struct {
	// InitialPrices seeds the reference sale price per quality band. Bands
	// beyond its length start at the last entry.
	InitialPrices []float64
	// InitialYield is the gross rental yield used until rents are observed.
	InitialYield float64
	// Decay is the weight of a new observation in the moving averages.
	Decay float64
}

type band struct {
	price  float64
	rent   float64
	months float64
}

type Collector struct {
	mu    sync.Mutex
	bands []band
	cfg   CollectorConfig

	runID string
	seq   *sequence.Sequencer
	codec codec.Serializer
	box   *outbox.Outbox
	pub   Publisher
	ctx   context.Context
	log   *zap.SugaredLogger

	last map[market.Kind]market.RoundStats
}

// NewCollector wires the collector. box and pub may be nil. Event sequence
// numbers continue after the last record already in box.
func NewCollector(
	ctx context.Context,
	cfg CollectorConfig,
	ser codec.Serializer,
	box *outbox.Outbox,
	pub Publisher,
	log *zap.SugaredLogger,
) (*Collector, error) {
	if len(cfg.InitialPrices) == 0 {
		cfg.InitialPrices = []float64{1}
	}
	if cfg.Decay <= 0 || cfg.Decay > 1 {
		cfg.Decay = 0.1
	}
	if ser == nil {
		ser = codec.JSONSerializer{}
	}

	var start uint64
	if box != nil {
		last, err := box.LastSeq()
		if err != nil {
			return nil, err
		}
		start = last
	}

	runID := uuid.NewString()
	return &Collector{
		bands: make([]band, len(cfg.InitialPrices)),
		cfg:   cfg,
		runID: runID,
		seq:   sequence.New(start),
		codec: ser,
		box:   box,
		pub:   pub,
		ctx:   ctx,
		log:   logging.OrNop(log).With("run", runID),
		last:  make(map[market.Kind]market.RoundStats),
	}, nil
}

func (c *Collector) RunID() string { return c.runID }

//
// ──────────────────────────────────────────────────────────
// References
// ──────────────────────────────────────────────────────────
//

// ReferencePrice is the moving average sale price of quality q.
func (c *Collector) ReferencePrice(q int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.referencePrice(q)
}

// ReferenceYield is the gross annual rental yield of quality q.
func (c *Collector) ReferenceYield(q int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.band(q)
	price := c.referencePrice(q)
	if b == nil || b.rent == 0 || price == 0 {
		return c.cfg.InitialYield
	}
	return 12 * b.rent / price
}

// MonthsOnMarket is the moving average listing age of sold offers of quality q.
func (c *Collector) MonthsOnMarket(q int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b := c.band(q); b != nil {
		return b.months
	}
	return 0
}

// LastRound returns the statistics of the latest round of a market.
func (c *Collector) LastRound(k market.Kind) (market.RoundStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.last[k]
	return s, ok
}

func (c *Collector) band(q int) *band {
	if q < 0 || q >= len(c.bands) {
		return nil
	}
	return &c.bands[q]
}

func (c *Collector) referencePrice(q int) float64 {
	if b := c.band(q); b != nil && b.price > 0 {
		return b.price
	}
	p := c.cfg.InitialPrices
	switch {
	case q < 0:
		return p[0]
	case q >= len(p):
		return p[len(p)-1]
	}
	return p[q]
}

func (c *Collector) ema(old, v float64) float64 {
	if old == 0 {
		return v
	}
	return old + c.cfg.Decay*(v-old)
}

//
// ──────────────────────────────────────────────────────────
// Collector
// ──────────────────────────────────────────────────────────
//

func (c *Collector) RecordMatch(r market.MatchRecord) {
	q := r.Offer.Quality()

	c.mu.Lock()
	if b := c.band(q); b != nil {
		switch r.Market {
		case market.Sale:
			if b.price == 0 {
				b.price = c.referencePrice(q)
			}
			b.price = c.ema(b.price, r.Price)
			b.months = c.ema(b.months, float64(r.MonthsOnMarket()))
		case market.Rental:
			b.rent = c.ema(b.rent, r.Price)
		}
	}
	c.mu.Unlock()

	c.emit("match", matchBody(r))
}

func (c *Collector) RecordRound(s market.RoundStats) {
	c.mu.Lock()
	c.last[s.Market] = s
	c.mu.Unlock()

	if c.pub == nil {
		return
	}
	ev := c.event("round", roundBody(s))
	b, err := c.codec.Encode(ev)
	if err != nil {
		c.log.Errorw("encode round", "err", err)
		return
	}
	if err := c.pub.Publish(c.ctx, []byte(s.Market.String()), b); err != nil {
		c.log.Warnw("publish round", "market", s.Market.String(), "month", s.Month, "err", err)
	}
}

func (c *Collector) event(typ string, body map[string]any) codec.Event {
	return codec.Event{
		V:    codec.Version,
		Type: typ,
		Seq:  c.seq.Next(),
		Run:  c.runID,
		Body: body,
	}
}

func (c *Collector) emit(typ string, body map[string]any) {
	if c.box == nil {
		return
	}
	ev := c.event(typ, body)
	b, err := c.codec.Encode(ev)
	if err != nil {
		c.log.Errorw("encode event", "type", typ, "err", err)
		return
	}
	if err := c.box.Put(ev.Seq, b); err != nil {
		c.log.Errorw("outbox put", "seq", ev.Seq, "err", err)
	}
}

// ──── Event bodies ────

func matchBody(r market.MatchRecord) map[string]any {
	o, b := r.Offer, r.Bid
	body := map[string]any{
		"market":           r.Market.String(),
		"month":            r.Month,
		"bid":              strconv.FormatUint(uint64(b.ID()), 10),
		"buyer":            strconv.FormatUint(uint64(b.Bidder()), 10),
		"offer":            strconv.FormatUint(uint64(o.ID()), 10),
		"house":            strconv.FormatUint(uint64(o.House()), 10),
		"seller":           strconv.FormatUint(uint64(o.Seller()), 10),
		"quality":          o.Quality(),
		"initial_price":    codec.Money(o.InitialListedPrice()),
		"ask":              codec.Money(r.AskPrice),
		"price":            codec.Money(r.Price),
		"competing":        r.Competing,
		"months_on_market": r.MonthsOnMarket(),
		"buy_to_let":       b.BuyToLet(),
	}
	if y := o.ImpliedYield(); !math.IsInf(y, 0) && !math.IsNaN(y) {
		body["yield"] = y
	}
	if m := r.Mortgage; m != nil {
		body["mortgage"] = map[string]any{
			"principal":        codec.Money(m.Principal),
			"down_payment":     codec.Money(m.DownPayment),
			"first_time_buyer": m.FirstTimeBuyer,
			"buy_to_let":       m.BuyToLet,
		}
	}
	if l := r.Lease; l != nil {
		body["lease"] = map[string]any{
			"months": l.Months,
			"start":  l.Start,
			"end":    l.End(),
		}
	}
	return body
}

func roundBody(s market.RoundStats) map[string]any {
	months := make(map[string]any, len(s.MonthsOnMarket))
	for q, m := range s.MonthsOnMarket {
		months[strconv.Itoa(q)] = m
	}
	return map[string]any{
		"market":           s.Market.String(),
		"month":            s.Month,
		"buyers":           s.Buyers,
		"sellers":          s.Sellers,
		"matches":          s.Matches,
		"unmatched":        s.Unmatched,
		"rejected":         s.Rejected,
		"decayed":          s.Decayed,
		"remaining":        s.Remaining,
		"average_price":    codec.Money(s.AveragePrice),
		"months_on_market": months,
	}
}
