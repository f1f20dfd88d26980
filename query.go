package histosketch

import (
	"math"
	"sort"
)

// Sum returns the estimated number of observations with value <= b.
// Exact bins are treated as point masses: Sum never interpolates
// across one, it either includes it whole or not at all.
func (s *Sketch) Sum(b float32) float64 {
	if s.binCount == 0 {
		return 0
	}
	if float64(b) < float64(s.min) {
		return 0
	}
	if float64(b) >= float64(s.max) {
		return float64(s.totalCount)
	}

	n := int(s.binCount)
	idx := sort.Search(n, func(k int) bool { return float64(s.positions[k]) > float64(b) })
	i := idx - 1

	var p0, p1, m0, m1 float64
	var e0, e1 bool
	if i < 0 {
		p0, m0, e0 = float64(s.min), 0, false
	} else {
		p0, m0, e0 = float64(s.positions[i]), float64(binCountOf(s.bins[i])), !binIsApprox(s.bins[i])
	}
	if i+1 >= n {
		p1, m1, e1 = float64(s.max), 0, false
	} else {
		p1, m1, e1 = float64(s.positions[i+1]), float64(binCountOf(s.bins[i+1])), !binIsApprox(s.bins[i+1])
	}

	var prefix float64
	for k := 0; k < i; k++ {
		prefix += float64(binCountOf(s.bins[k]))
	}

	tm0, tm1 := m0, m1
	if e0 {
		tm0 = 0
	}
	if e1 {
		tm1 = 0
	}

	var l float64
	if p1 != p0 {
		l = (float64(b) - p0) / (p1 - p0)
	}
	trapezoid := 0.5 * (tm0 + tm0 + (tm1-tm0)*l) * l

	var left float64
	if e0 {
		left = m0
	} else {
		left = 0.5 * m0
	}

	return prefix + trapezoid + left
}

// Quantiles returns the estimated value at each probability in probs,
// each of which must lie strictly within (0, 1). If the sketch is
// empty every result is NaN.
func (s *Sketch) Quantiles(probs []float32) ([]float32, error) {
	for _, p := range probs {
		if !(p > 0 && p < 1) {
			return nil, ErrInvalidProbability
		}
	}
	out := make([]float32, len(probs))
	for i, p := range probs {
		out[i] = s.quantile(p)
	}
	return out, nil
}

func (s *Sketch) quantile(p float32) float32 {
	if s.totalCount == 0 {
		return float32(math.NaN())
	}
	target := float64(p) * float64(s.totalCount)
	n := int(s.binCount)

	sum := 0.0
	i := 0
	for ; i < n; i++ {
		c := float64(binCountOf(s.bins[i]))
		if sum+c > target {
			break
		}
		sum += c
	}
	if i >= n {
		return s.max
	}
	if i == 0 {
		return s.min
	}

	ci := float64(binCountOf(s.bins[i]))
	cim1 := float64(binCountOf(s.bins[i-1]))
	a := ci - cim1
	b := 2 * cim1
	c := -2 * (target - sum)

	var z float64
	if a == 0 {
		z = -c / b
	} else {
		z = (-b + math.Sqrt(b*b-4*a*c)) / (2 * a)
	}
	pos := float64(s.positions[i-1]) + (float64(s.positions[i])-float64(s.positions[i-1]))*z
	return float32(pos)
}

// Histogram returns the estimated count falling within each consecutive
// pair of the given ascending breaks, computed as the difference of two
// Sum queries.
func (s *Sketch) Histogram(breaks []float32) []float64 {
	if len(breaks) < 2 {
		return []float64{}
	}
	counts := make([]float64, len(breaks)-1)
	prev := s.Sum(breaks[0])
	for k := 1; k < len(breaks); k++ {
		cur := s.Sum(breaks[k])
		counts[k-1] = cur - prev
		prev = cur
	}
	return counts
}

// HistogramEqualCount bucketizes the sketch's range into n equal-width
// buckets, returning n+1 breaks' worth of bucket counts via Histogram.
func (s *Sketch) HistogramEqualCount(n int) ([]float64, error) {
	if n < 2 {
		return nil, ErrInvalidCapacity
	}
	delta := (float64(s.max) - float64(s.min)) / float64(n-1)
	start := float64(s.min) - delta
	end := float64(s.max)
	step := (end - start) / float64(n)

	breaks := make([]float32, n+1)
	for i := 0; i <= n; i++ {
		breaks[i] = float32(start + float64(i)*step)
	}
	breaks[n] = float32(end)
	return s.Histogram(breaks), nil
}

// HistogramAligned bucketizes the sketch's range into buckets of
// bucketSize aligned to offset, clamped to the sketch's configured
// limits, dropping any intermediate break whose bucket would hold no
// more than 0.1 of estimated mass. A tolerance of bucketSize/10 absorbs
// float32 accumulation error at the upper edge.
func (s *Sketch) HistogramAligned(bucketSize, offset float32) []float64 {
	bs := float64(bucketSize)
	off := float64(offset)

	firstIdx := math.Floor((float64(s.min) - off) / bs)
	lastIdx := math.Ceil((float64(s.max) - off) / bs)
	first := firstIdx*bs + off
	last := lastIdx*bs + off

	if !math.IsInf(float64(s.lowerLimit), -1) && first < float64(s.lowerLimit) {
		first = float64(s.lowerLimit)
	}
	if !math.IsInf(float64(s.upperLimit), 1) && last > float64(s.upperLimit) {
		last = float64(s.upperLimit)
	}

	const massThreshold = 0.1
	tol := bs / 10

	breaks := []float32{float32(first)}
	cur := first
	for cur+bs < last+tol {
		next := cur + bs
		mass := s.Sum(float32(next)) - s.Sum(float32(cur))
		if mass > massThreshold {
			breaks = append(breaks, float32(next))
		}
		cur = next
	}
	if breaks[len(breaks)-1] != float32(last) {
		breaks = append(breaks, float32(last))
	}
	return s.Histogram(breaks)
}
