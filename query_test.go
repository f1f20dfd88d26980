package histosketch

import (
	"math"
	"testing"
)

// Scenario D: quantile of symmetric uniform data.
func TestQuantileUniformData(t *testing.T) {
	s, _ := New(50)
	for i := 0; i <= 100; i++ {
		mustOffer(t, s, float32(i)/100)
	}
	got, err := s.Quantiles([]float32{0.5})
	if err != nil {
		t.Fatal(err)
	}
	if diff := float64(got[0]) - 0.5; diff < -0.02 || diff > 0.02 {
		t.Fatalf("quantile(0.5) = %v, want within 0.02 of 0.5", got[0])
	}
}

func TestQuantileEmptySketchIsNaN(t *testing.T) {
	s, _ := New(5)
	got, err := s.Quantiles([]float32{0.5})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(float64(got[0])) {
		t.Fatalf("quantile of empty sketch = %v, want NaN", got[0])
	}
}

func TestQuantileRejectsOutOfRangeProbability(t *testing.T) {
	s, _ := New(5)
	mustOffer(t, s, 1, 2, 3)
	for _, p := range []float32{0, 1, -0.1, 1.1} {
		if _, err := s.Quantiles([]float32{p}); err != ErrInvalidProbability {
			t.Fatalf("Quantiles(%v) = %v, want ErrInvalidProbability", p, err)
		}
	}
}

func TestQuantileMonotonicAndBounded(t *testing.T) {
	s, _ := New(20)
	for i := 0; i < 500; i++ {
		mustOffer(t, s, float32(math.Mod(float64(i)*37.2, 211))-100)
	}
	probs := []float32{0.01, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99}
	got, err := s.Quantiles(probs)
	if err != nil {
		t.Fatal(err)
	}
	for i, q := range got {
		if q < s.Min() || q > s.Max() {
			t.Fatalf("quantile(%v) = %v out of range [%v, %v]", probs[i], q, s.Min(), s.Max())
		}
		if i > 0 && got[i] < got[i-1] {
			t.Fatalf("quantiles not monotonic: q(%v)=%v < q(%v)=%v", probs[i], got[i], probs[i-1], got[i-1])
		}
	}
}

func TestSumMonotonicAndBounded(t *testing.T) {
	s, _ := New(10)
	for i := 0; i < 200; i++ {
		mustOffer(t, s, float32(math.Mod(float64(i)*13.7, 97)))
	}
	xs := []float32{-50, -1, 0, 10, 20, 50, 96, 97, 200}
	var prev float64
	for i, x := range xs {
		got := s.Sum(x)
		if got < 0 || got > float64(s.TotalCount()) {
			t.Fatalf("Sum(%v) = %v out of [0, %d]", x, got, s.TotalCount())
		}
		if i > 0 && got < prev {
			t.Fatalf("Sum not monotonic: Sum(%v)=%v < Sum(%v)=%v", x, got, xs[i-1], prev)
		}
		prev = got
	}
}

func TestSumBelowMinAboveMax(t *testing.T) {
	s, _ := New(10)
	mustOffer(t, s, 5, 10, 15)
	if got := s.Sum(4); got != 0 {
		t.Fatalf("Sum below min = %v, want 0", got)
	}
	if got := s.Sum(15); got != float64(s.TotalCount()) {
		t.Fatalf("Sum at max = %v, want %d", got, s.TotalCount())
	}
	if got := s.Sum(100); got != float64(s.TotalCount()) {
		t.Fatalf("Sum above max = %v, want %d", got, s.TotalCount())
	}
}

func TestSumEmptySketchIsZero(t *testing.T) {
	s, _ := New(5)
	if got := s.Sum(0); got != 0 {
		t.Fatalf("Sum on empty sketch = %v, want 0", got)
	}
	if got := s.Sum(1e9); got != 0 {
		t.Fatalf("Sum on empty sketch = %v, want 0", got)
	}
}

func TestHistogramEqualCountRejectsSmallN(t *testing.T) {
	s, _ := New(5)
	mustOffer(t, s, 1, 2, 3)
	if _, err := s.HistogramEqualCount(1); err != ErrInvalidCapacity {
		t.Fatalf("HistogramEqualCount(1) = %v, want ErrInvalidCapacity", err)
	}
}

func TestHistogramEqualCountSumsToTotal(t *testing.T) {
	s, _ := New(20)
	for i := 0; i < 100; i++ {
		mustOffer(t, s, float32(i))
	}
	counts, err := s.HistogramEqualCount(10)
	if err != nil {
		t.Fatal(err)
	}
	var sum float64
	for _, c := range counts {
		sum += c
	}
	if diff := sum - float64(s.TotalCount()); diff < -1e-6 || diff > 1e-6 {
		t.Fatalf("histogram buckets sum to %v, want %d", sum, s.TotalCount())
	}
}

func TestHistogramAlignedSumsToTotal(t *testing.T) {
	s, err := NewWithLimits(20, 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		mustOffer(t, s, float32(i))
	}
	counts := s.HistogramAligned(10, 0)
	if len(counts) == 0 {
		t.Fatalf("expected at least one bucket")
	}
	var sum float64
	for _, c := range counts {
		sum += c
	}
	if diff := sum - float64(s.TotalCount()); diff < -1 || diff > 1 {
		t.Fatalf("aligned histogram buckets sum to %v, want ~%d", sum, s.TotalCount())
	}
}
