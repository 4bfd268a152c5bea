package main

import (
	"context"
	"math/rand"
	"testing"

	"github.com/INET-Complexity/housing-model-sub001/domain/housing"
	"github.com/INET-Complexity/housing-model-sub001/domain/market"
	"github.com/INET-Complexity/housing-model-sub001/infra/codec"
	"github.com/INET-Complexity/housing-model-sub001/service"
)

func runPopulation(t *testing.T, seed int64) (sold, let int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	coll, err := service.NewCollector(context.Background(), service.CollectorConfig{
		InitialPrices: []float64{150_000, 200_000, 250_000, 300_000},
		InitialYield:  0.05,
	}, codec.JSONSerializer{}, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	stock := housing.NewStock(120)
	pop := newPopulation(rng, stock, 150, 120, 4)
	cfg := market.Config{
		BidUpFraction:   0.5,
		Decay:           market.Decay{Probability: 0.1, Mu: 1.6, Sigma: 0.6},
		CheckInvariants: true,
	}
	svc, err := service.NewMarketService(service.MarketServiceConfig{
		Sale:    cfg,
		Rental:  cfg,
		Tenancy: market.Tenancy{Average: 6, Epsilon: 2},
	}, stock, pop, pop, rng, coll, nil)
	if err != nil {
		t.Fatal(err)
	}

	for m := 0; m < 24; m++ {
		pop.step(svc, coll)
		sale, rental := svc.ClearMonth()
		sold += sale.Matches
		let += rental.Matches
	}
	return sold, let
}

func TestPopulationTrades(t *testing.T) {
	sold, let := runPopulation(t, 3)
	if sold+let == 0 {
		t.Fatal("no trades in two years")
	}
	if s2, l2 := runPopulation(t, 3); s2 != sold || l2 != let {
		t.Errorf("same seed gave %d/%d then %d/%d", sold, let, s2, l2)
	}
}
