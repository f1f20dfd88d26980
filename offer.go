package histosketch

import (
	"math"
	"sort"
)

// Offer inserts a single sample. On success, total count increases by
// one and min/max are updated to include v. On error (non-finite v, or
// a bin count that would overflow 63 bits) the sketch is left exactly
// as it was.
func (s *Sketch) Offer(v float32) error {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return ErrInvalidSample
	}

	newMin, newMax := minFloat32(s.min, v), maxFloat32(s.max, v)

	if s.binCount == 0 {
		s.positions[0] = v
		s.bins[0] = makeBin(1, false)
		s.binCount = 1
		s.min, s.max = newMin, newMax
		s.totalCount++
		return nil
	}

	n := int(s.binCount)
	ins := sort.Search(n, func(k int) bool { return s.positions[k] > v })

	if ins > 0 && s.positions[ins-1] == v {
		j := ins - 1
		nc, err := addCounts(binCountOf(s.bins[j]), 1)
		if err != nil {
			return err
		}
		s.bins[j] = makeBin(nc, binIsApprox(s.bins[j]))
		s.min, s.max = newMin, newMax
		s.totalCount++
		return nil
	}

	if n < int(s.size) {
		copy(s.positions[ins+1:n+1], s.positions[ins:n])
		copy(s.bins[ins+1:n+1], s.bins[ins:n])
		s.positions[ins] = v
		s.bins[ins] = makeBin(1, false)
		s.binCount++
		s.min, s.max = newMin, newMax
		s.totalCount++
		return nil
	}

	// The array is full: either fold v into a neighboring bin, or merge
	// the globally closest pair of existing bins to free a slot.
	closestPairIndex, minDelta := s.closestPair()

	deltaRight := math.Inf(1)
	if ins < n {
		deltaRight = float64(s.positions[ins]) - float64(v)
	}
	deltaLeft := math.Inf(1)
	if ins > 0 {
		deltaLeft = float64(v) - float64(s.positions[ins-1])
	}
	smallest := math.Min(minDelta, math.Min(deltaRight, deltaLeft))

	switch {
	case deltaRight == smallest:
		if err := s.foldValueIntoBin(ins, v); err != nil {
			return err
		}
	case deltaLeft == smallest:
		if err := s.foldValueIntoBin(ins-1, v); err != nil {
			return err
		}
	default:
		if err := s.mergeInsert(closestPairIndex, ins, v, 1); err != nil {
			return err
		}
	}

	s.min, s.max = newMin, newMax
	s.totalCount++
	return nil
}

// OfferMany offers each sample in order, stopping at the first error.
func (s *Sketch) OfferMany(vs []float32) error {
	for _, v := range vs {
		if err := s.Offer(v); err != nil {
			return err
		}
	}
	return nil
}

// foldValueIntoBin merges a single observation of v into the existing
// bin at index p, weighting the centroid update by the bin's current
// count (promoted to float64 to avoid cancellation, per the spec's
// numeric-stability note).
func (s *Sketch) foldValueIntoBin(p int, v float32) error {
	k := binCountOf(s.bins[p])
	nc, err := addCounts(k, 1)
	if err != nil {
		return err
	}
	newPos := (float64(s.positions[p])*float64(k) + float64(v)) / float64(nc)
	s.positions[p] = float32(newPos)
	s.bins[p] = makeBin(nc, true)
	return nil
}

// closestPair returns the index i minimizing positions[i+1]-positions[i]
// over the used prefix, breaking ties toward the lowest index.
func (s *Sketch) closestPair() (int, float64) {
	best := 0
	bestDelta := math.Inf(1)
	for i := 0; i < int(s.binCount)-1; i++ {
		d := float64(s.positions[i+1]) - float64(s.positions[i])
		if d < bestDelta {
			bestDelta = d
			best = i
		}
	}
	return best, bestDelta
}
