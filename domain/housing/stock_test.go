package housing

import (
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/INET-Complexity/housing-model-sub001/domain/orderbook"
)

func TestBuildAndGet(t *testing.T) {
	s := NewStock(2)
	a := s.Build(3, 7)
	b := s.Build(5, 8)
	if a == b || a == 0 {
		t.Fatalf("unexpected ids %d, %d", a, b)
	}

	h, err := s.Get(b)
	if err != nil {
		t.Fatal(err)
	}
	if h.Quality != 5 || h.Owner != 8 {
		t.Errorf("house = %+v", *h)
	}
	if h.OnSale() || h.OnRent() {
		t.Error("new house should not be listed")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestGetUnknown(t *testing.T) {
	s := NewStock(0)
	for _, id := range []uint64{0, 1, 42} {
		if _, err := s.Get(orderbook.HouseID(id)); !errors.Is(err, ErrUnknownHouse) {
			t.Errorf("Get(%d) err = %v, want ErrUnknownHouse", id, err)
		}
	}
}

func TestTransfer(t *testing.T) {
	s := NewStock(1)
	id := s.Build(1, 7)
	if err := s.Transfer(id, 9); err != nil {
		t.Fatal(err)
	}
	h, _ := s.Get(id)
	if h.Owner != 9 {
		t.Errorf("Owner = %d, want 9", h.Owner)
	}
	if err := s.Transfer(id+1, 9); !errors.Is(err, ErrUnknownHouse) {
		t.Errorf("Transfer(unknown) err = %v", err)
	}
}
