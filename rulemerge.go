package histosketch

import "math"

// FoldFast merges other into the receiver using the single-pass cutoff
// strategy: bins within cutoff() of the running tail are folded
// together, samples outside [lower_limit, upper_limit] are accumulated
// into a single low/high bin. Unlike Fold, the result may hold more bins
// than the receiver's capacity; the receiver's capacity then grows to
// the result's bin count, so BinCount() <= Capacity() still holds. If other
// is empty this is a no-op. Scratch buffers are allocated internally;
// use FoldFastWithScratch to supply your own.
func (s *Sketch) FoldFast(other *Sketch) error {
	needed := int(s.binCount) + int(other.binCount)
	return s.FoldFastWithScratch(other, make([]float32, needed), make([]uint64, needed))
}

// FoldFastWithScratch is FoldFast with caller-supplied scratch buffers,
// each of which must have length >= self.BinCount()+other.BinCount().
func (s *Sketch) FoldFastWithScratch(other *Sketch, scratchPositions []float32, scratchBins []uint64) error {
	if other.binCount == 0 {
		return nil
	}
	if s.size == 0 {
		*s = *other.Clone()
		return nil
	}

	needed := int(s.binCount) + int(other.binCount)
	if len(scratchPositions) < needed || len(scratchBins) < needed {
		actual := len(scratchPositions)
		if len(scratchBins) < actual {
			actual = len(scratchBins)
		}
		return &BufferTooSmallError{Needed: needed, Actual: actual}
	}

	mergedMin := minFloat32(s.min, other.min)
	mergedMax := maxFloat32(s.max, other.max)
	mergedCount := s.totalCount + other.totalCount
	cutoff := s.cutoff()
	lower, upper := float64(s.lowerLimit), float64(s.upperLimit)

	sp, sb := s.positions[:s.binCount], s.bins[:s.binCount]
	op, ob := other.positions[:other.binCount], other.bins[:other.binCount]

	out := scratchPositions[:0]
	outBins := scratchBins[:0]

	var lowSum float64
	var lowCount uint64
	haveLow := false
	var highSum float64
	var highCount uint64
	haveHigh := false

	i, j := 0, 0
	for i < len(sp) || j < len(op) {
		var pos float64
		var count uint64
		var approx bool
		if j >= len(op) || (i < len(sp) && sp[i] <= op[j]) {
			pos, count, approx = float64(sp[i]), binCountOf(sb[i]), binIsApprox(sb[i])
			i++
		} else {
			pos, count, approx = float64(op[j]), binCountOf(ob[j]), binIsApprox(ob[j])
			j++
		}

		switch {
		case pos < lower:
			lowSum += pos * float64(count)
			var err error
			if lowCount, err = addCounts(lowCount, count); err != nil {
				return err
			}
			haveLow = true
		case pos > upper:
			highSum += pos * float64(count)
			var err error
			if highCount, err = addCounts(highCount, count); err != nil {
				return err
			}
			haveHigh = true
		default:
			if len(out) > 0 && pos-float64(out[len(out)-1]) <= cutoff {
				k0 := binCountOf(outBins[len(outBins)-1])
				merged, err := addCounts(k0, count)
				if err != nil {
					return err
				}
				tail := float64(out[len(out)-1])
				nv := (tail*float64(k0) + pos*float64(count)) / float64(merged)
				out[len(out)-1] = float32(nv)
				outBins[len(outBins)-1] = makeBin(merged, true)
			} else {
				out = append(out, float32(pos))
				outBins = append(outBins, makeBin(count, approx))
			}
		}
	}

	final := make([]float32, 0, len(out)+2)
	finalBins := make([]uint64, 0, len(out)+2)
	if haveLow {
		final = append(final, float32(lowSum/float64(lowCount)))
		finalBins = append(finalBins, makeBin(lowCount, true))
	}
	final = append(final, out...)
	finalBins = append(finalBins, outBins...)
	if haveHigh {
		final = append(final, float32(highSum/float64(highCount)))
		finalBins = append(finalBins, makeBin(highCount, true))
	}

	n := len(final)
	if n > len(s.positions) {
		// The caller's cutoff was too small to keep the result within
		// capacity; grow rather than silently truncate (spec: "Result
		// length is not guaranteed to be <= size in general"). Capacity
		// grows to match so bin_count <= Capacity() still holds.
		s.positions = make([]float32, n)
		s.bins = make([]uint64, n)
		s.size = uint32(n)
	}
	copy(s.positions, final)
	copy(s.bins, finalBins)
	s.binCount = uint32(n)
	s.min, s.max, s.totalCount = mergedMin, mergedMax, mergedCount
	return nil
}

// cutoff computes the fold-together distance threshold from the
// sketch's capacity and whichever of lower_limit/upper_limit are finite.
func (s *Sketch) cutoff() float64 {
	lowerFinite := !math.IsInf(float64(s.lowerLimit), -1)
	upperFinite := !math.IsInf(float64(s.upperLimit), 1)
	n := float64(s.size)
	switch {
	case lowerFinite && upperFinite:
		return (float64(s.upperLimit) - float64(s.lowerLimit)) / (n - 3)
	case upperFinite:
		return (float64(s.upperLimit) - float64(s.min)) / (n - 2)
	case lowerFinite:
		return (float64(s.max) - float64(s.lowerLimit)) / (n - 2)
	default:
		return (float64(s.max) - float64(s.min)) / (n - 1)
	}
}
