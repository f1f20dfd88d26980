package histosketch

import (
	"fmt"
	"math"
)

// Sketch is a bounded-memory approximate histogram over a stream of
// float32 samples. Its zero value is not ready for Offer/Sum/Quantiles
// (capacity 0); it is only useful as the receiver of a Fold/FoldFast
// call, which treats a zero-capacity receiver as "replace me with a
// copy of the other sketch" (see heapmerge.go, rulemerge.go).
type Sketch struct {
	size uint32

	positions []float32
	bins      []uint64
	binCount  uint32

	min float32
	max float32

	totalCount uint64

	lowerLimit float32
	upperLimit float32
}

// New returns an empty Sketch retaining at most size bin centroids.
func New(size int) (*Sketch, error) {
	return NewWithLimits(size, float32(math.Inf(-1)), float32(math.Inf(1)))
}

// NewWithLimits returns an empty Sketch with the given capacity and
// out-of-range clamp limits. FoldFast uses them for its cutoff and its
// low/high out-of-range bins (see rulemerge.go), and HistogramAligned
// clamps its outer breaks to them. Pass -Inf/+Inf for "no limit".
func NewWithLimits(size int, lower, upper float32) (*Sketch, error) {
	if size < 2 {
		return nil, ErrInvalidCapacity
	}
	return &Sketch{
		size:       uint32(size),
		positions:  make([]float32, size),
		bins:       make([]uint64, size),
		binCount:   0,
		min:        float32(math.Inf(1)),
		max:        float32(math.Inf(-1)),
		totalCount: 0,
		lowerLimit: lower,
		upperLimit: upper,
	}, nil
}

// BinCount returns the number of bins currently in use.
func (s *Sketch) BinCount() int { return int(s.binCount) }

// Capacity returns the maximum number of bins this sketch can hold
// without merging (the size it was constructed with, unless FoldFast has
// since grown it to fit its result).
func (s *Sketch) Capacity() int { return int(s.size) }

// TotalCount returns the number of samples ever offered into this
// sketch (the sum of all bin counts).
func (s *Sketch) TotalCount() uint64 { return s.totalCount }

// Min returns the smallest value ever offered, or +Inf if empty.
func (s *Sketch) Min() float32 { return s.min }

// Max returns the largest value ever offered, or -Inf if empty.
func (s *Sketch) Max() float32 { return s.max }

// Positions returns a copy of the used bin centroids, ascending.
func (s *Sketch) Positions() []float32 {
	out := make([]float32, s.binCount)
	copy(out, s.positions[:s.binCount])
	return out
}

// Counts returns a copy of the used bin counts, with the approximate
// flag stripped.
func (s *Sketch) Counts() []uint64 {
	out := make([]uint64, s.binCount)
	for i := range out {
		out[i] = binCountOf(s.bins[i])
	}
	return out
}

// ExactCount returns the sum of counts over bins that have never been
// merged (approx == false).
func (s *Sketch) ExactCount() uint64 {
	var c uint64
	for i := 0; i < int(s.binCount); i++ {
		if !binIsApprox(s.bins[i]) {
			c += binCountOf(s.bins[i])
		}
	}
	return c
}

// Clone returns a deep copy independent of the receiver.
func (s *Sketch) Clone() *Sketch {
	return &Sketch{
		size:       s.size,
		positions:  append([]float32(nil), s.positions...),
		bins:       append([]uint64(nil), s.bins...),
		binCount:   s.binCount,
		min:        s.min,
		max:        s.max,
		totalCount: s.totalCount,
		lowerLimit: s.lowerLimit,
		upperLimit: s.upperLimit,
	}
}

// MaxStorageSize returns an upper bound, in bytes, on the size of
// ToBytes' output: the dense encoding's size at this sketch's current
// capacity. It is only useful for pre-allocating a buffer before
// encoding; ToBytes may well pick the smaller sparse encoding, so this
// is not the actual on-disk size.
func (s *Sketch) MaxStorageSize() int {
	return denseSizeFor(int(s.size))
}

// String returns a short human-readable summary for debugging.
func (s *Sketch) String() string {
	return fmt.Sprintf("Sketch{bins=%d/%d total=%d min=%v max=%v}",
		s.binCount, s.size, s.totalCount, s.min, s.max)
}
