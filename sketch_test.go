package histosketch

import (
	"math"
	"testing"
)

func TestNewRejectsSmallCapacity(t *testing.T) {
	if _, err := New(1); err != ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
	if _, err := New(0); err != ErrInvalidCapacity {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
}

func TestNewEmptyInvariants(t *testing.T) {
	s, err := New(5)
	if err != nil {
		t.Fatal(err)
	}
	if s.BinCount() != 0 {
		t.Fatalf("expected bin count 0, got %d", s.BinCount())
	}
	if s.TotalCount() != 0 {
		t.Fatalf("expected total count 0, got %d", s.TotalCount())
	}
	if !math.IsInf(float64(s.Min()), 1) {
		t.Fatalf("expected min +Inf, got %v", s.Min())
	}
	if !math.IsInf(float64(s.Max()), -1) {
		t.Fatalf("expected max -Inf, got %v", s.Max())
	}
	if s.Capacity() != 5 {
		t.Fatalf("expected capacity 5, got %d", s.Capacity())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s, _ := New(5)
	mustOffer(t, s, 1, 2, 3)
	c := s.Clone()
	mustOffer(t, s, 4)
	if c.BinCount() != 3 {
		t.Fatalf("clone should not observe later offers, got bin count %d", c.BinCount())
	}
	if c.TotalCount() != 3 {
		t.Fatalf("clone total count should be 3, got %d", c.TotalCount())
	}
}

func mustOffer(t *testing.T, s *Sketch, vs ...float32) {
	t.Helper()
	for _, v := range vs {
		if err := s.Offer(v); err != nil {
			t.Fatalf("Offer(%v): %v", v, err)
		}
	}
}
