package logging

import "testing"

func TestNew(t *testing.T) {
	for _, dev := range []bool{false, true} {
		l, err := New("debug", dev)
		if err != nil {
			t.Fatalf("New(debug, %v): %v", dev, err)
		}
		l.Debugw("hello", "dev", dev)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", false); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
