package histosketch

// Fold merges other into the receiver using the heap-driven optimal
// strategy: the union of both bin arrays is formed, then exactly as
// many closest-pair merges as needed to fit capacity are performed,
// always collapsing the globally smallest gap first. Scratch buffers
// are allocated internally; use FoldWithScratch to supply your own.
func (s *Sketch) Fold(other *Sketch) error {
	needed := int(s.binCount) + int(other.binCount)
	return s.FoldWithScratch(other,
		make([]float32, needed),
		make([]uint64, needed),
		make([]float64, needed),
	)
}

// FoldWithScratch is Fold with caller-supplied scratch buffers, each of
// which must have length >= self.BinCount()+other.BinCount(). The
// buffers must not alias each other or either sketch's storage.
func (s *Sketch) FoldWithScratch(other *Sketch, scratchPositions []float32, scratchBins []uint64, scratchDeltas []float64) error {
	if s.size == 0 {
		*s = *other.Clone()
		return nil
	}

	needed := int(s.binCount) + int(other.binCount)
	if shorter := len(scratchPositions) < needed || len(scratchBins) < needed; shorter {
		actual := len(scratchPositions)
		if len(scratchBins) < actual {
			actual = len(scratchBins)
		}
		return &BufferTooSmallError{Needed: needed, Actual: actual}
	}
	if needed > 0 && len(scratchDeltas) < needed {
		return &BufferTooSmallError{Needed: needed, Actual: len(scratchDeltas)}
	}

	mergedMin := minFloat32(s.min, other.min)
	mergedMax := maxFloat32(s.max, other.max)
	mergedCount := s.totalCount + other.totalCount

	m, err := combineBins(
		s.positions[:s.binCount], s.bins[:s.binCount],
		other.positions[:other.binCount], other.bins[:other.binCount],
		scratchPositions, scratchBins,
	)
	if err != nil {
		return err
	}

	if m <= int(s.size) {
		copy(s.positions, scratchPositions[:m])
		copy(s.bins, scratchBins[:m])
		s.binCount = uint32(m)
		s.min, s.max, s.totalCount = mergedMin, mergedMax, mergedCount
		return nil
	}

	numMerge := m - int(s.size)
	pos := scratchPositions[:m]
	bins := scratchBins[:m]
	deltas := scratchDeltas[:m-1]
	for i := 0; i < m-1; i++ {
		deltas[i] = float64(pos[i+1]) - float64(pos[i])
	}

	next := make([]int, m)
	prev := make([]int, m)
	for i := 0; i < m; i++ {
		if i+1 < m {
			next[i] = i + 1
		} else {
			next[i] = -1
		}
		if i-1 >= 0 {
			prev[i] = i - 1
		} else {
			prev[i] = -1
		}
	}

	h := newDeltaHeap(deltas)
	for iter := 0; iter < numMerge; iter++ {
		c := h.top()
		n := next[c]
		p := prev[c]

		k0 := binCountOf(bins[c])
		k1 := binCountOf(bins[n])
		merged, err := addCounts(k0, k1)
		if err != nil {
			return err
		}
		newPos := (float64(pos[c])*float64(k0) + float64(pos[n])*float64(k1)) / float64(merged)
		pos[c] = float32(newPos)
		bins[c] = makeBin(merged, true)

		nn := next[n]
		next[c] = nn
		if nn != -1 {
			prev[nn] = c
		}

		if nn == -1 {
			// n was the tail; c is the new tail, so its gap no longer exists.
			h.remove(c)
		} else {
			h.remove(n)
			deltas[c] = float64(pos[next[c]]) - float64(pos[c])
			h.fixIncreased(c)
		}
		if p != -1 {
			deltas[p] = float64(pos[c]) - float64(pos[p])
			h.fixIncreased(p)
		}
	}

	s.binCount = uint32(m - numMerge)
	idx := 0
	for i := 0; i < int(s.binCount); i++ {
		s.positions[i] = pos[idx]
		s.bins[i] = bins[idx]
		idx = next[idx]
	}
	s.min, s.max, s.totalCount = mergedMin, mergedMax, mergedCount
	return nil
}

// combineBins merge-sorts two ascending (position, bin) sequences into
// out, summing counts and OR-ing the approximate flag when two
// positions are exactly equal. It returns the number of entries
// written, which is len(selfPos)+len(otherPos) minus the number of
// exact ties collapsed.
func combineBins(selfPos []float32, selfBins []uint64, otherPos []float32, otherBins []uint64, outPos []float32, outBins []uint64) (int, error) {
	i, j, k := 0, 0, 0
	for i < len(selfPos) && j < len(otherPos) {
		switch {
		case selfPos[i] < otherPos[j]:
			outPos[k], outBins[k] = selfPos[i], selfBins[i]
			i++
		case otherPos[j] < selfPos[i]:
			outPos[k], outBins[k] = otherPos[j], otherBins[j]
			j++
		default:
			merged, err := addCounts(binCountOf(selfBins[i]), binCountOf(otherBins[j]))
			if err != nil {
				return 0, err
			}
			approx := binIsApprox(selfBins[i]) || binIsApprox(otherBins[j])
			outPos[k] = selfPos[i]
			outBins[k] = makeBin(merged, approx)
			i++
			j++
		}
		k++
	}
	for i < len(selfPos) {
		outPos[k], outBins[k] = selfPos[i], selfBins[i]
		i++
		k++
	}
	for j < len(otherPos) {
		outPos[k], outBins[k] = otherPos[j], otherBins[j]
		j++
		k++
	}
	return k, nil
}

// deltaHeap is a binary min-heap over a caller-owned deltas slice,
// indexed by "gap index" (the index i such that deltas[i] is the gap
// between bin i and bin i+1), with a reverse index so a gap's heap slot
// can be found and fixed in O(log n) after its value changes or it is
// evicted. Sift-down always prefers the left child on an equal
// comparison, and the heap is built with a stable bottom-up pass, so
// the merge order is a pure function of the input deltas.
type deltaHeap struct {
	deltas []float64
	h      []int
	pos    []int
}

func newDeltaHeap(deltas []float64) *deltaHeap {
	n := len(deltas)
	h := make([]int, n)
	pos := make([]int, n)
	for i := 0; i < n; i++ {
		h[i] = i
		pos[i] = i
	}
	dh := &deltaHeap{deltas: deltas, h: h, pos: pos}
	for i := n/2 - 1; i >= 0; i-- {
		dh.siftDown(i)
	}
	return dh
}

func (dh *deltaHeap) less(i, j int) bool {
	return dh.deltas[dh.h[i]] < dh.deltas[dh.h[j]]
}

func (dh *deltaHeap) swap(i, j int) {
	dh.h[i], dh.h[j] = dh.h[j], dh.h[i]
	dh.pos[dh.h[i]] = i
	dh.pos[dh.h[j]] = j
}

func (dh *deltaHeap) siftDown(i int) {
	n := len(dh.h)
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < n && dh.less(l, smallest) {
			smallest = l
		}
		if r < n && dh.less(r, smallest) {
			smallest = r
		}
		if smallest == i {
			return
		}
		dh.swap(i, smallest)
		i = smallest
	}
}

func (dh *deltaHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !dh.less(i, parent) {
			return
		}
		dh.swap(i, parent)
		i = parent
	}
}

func (dh *deltaHeap) top() int { return dh.h[0] }

// remove evicts gapIdx's entry from the heap entirely.
func (dh *deltaHeap) remove(gapIdx int) {
	i := dh.pos[gapIdx]
	last := len(dh.h) - 1
	dh.swap(i, last)
	dh.h = dh.h[:last]
	dh.pos[gapIdx] = -1
	if i < len(dh.h) {
		dh.siftDown(i)
		dh.siftUp(i)
	}
}

// fixIncreased restores the heap after deltas[gapIdx] has increased (its
// only possible direction of change in the merge loop).
func (dh *deltaHeap) fixIncreased(gapIdx int) {
	dh.siftDown(dh.pos[gapIdx])
}
