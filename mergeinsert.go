package histosketch

// mergeInsert merges the adjacent bins at mergeAt and mergeAt+1 into one
// approximate bin at mergeAt, freeing the slot at mergeAt+1. If
// insertAt >= 0, the freed slot is shifted to insertAt and (v, c,
// approx=false) is written there, leaving bin_count unchanged (one bin
// removed, one added). If insertAt < 0, the array is simply compacted
// left and bin_count decreases by one.
//
// mergeAt and mergeAt+1 must both be valid indices into the used prefix
// before the call.
func (s *Sketch) mergeInsert(mergeAt, insertAt int, v float32, c uint64) error {
	k0 := binCountOf(s.bins[mergeAt])
	k1 := binCountOf(s.bins[mergeAt+1])
	merged, err := addCounts(k0, k1)
	if err != nil {
		return err
	}
	newPos := (float64(s.positions[mergeAt])*float64(k0) + float64(s.positions[mergeAt+1])*float64(k1)) / float64(merged)
	s.positions[mergeAt] = float32(newPos)
	s.bins[mergeAt] = makeBin(merged, true)

	n := int(s.binCount)
	// Close the hole left at mergeAt+1 by shifting the tail left one slot.
	copy(s.positions[mergeAt+1:n-1], s.positions[mergeAt+2:n])
	copy(s.bins[mergeAt+1:n-1], s.bins[mergeAt+2:n])
	n--

	if insertAt < 0 {
		s.binCount = uint32(n)
		return nil
	}

	if insertAt > mergeAt+1 {
		insertAt--
	}
	copy(s.positions[insertAt+1:n+1], s.positions[insertAt:n])
	copy(s.bins[insertAt+1:n+1], s.bins[insertAt:n])
	s.positions[insertAt] = v
	s.bins[insertAt] = makeBin(c, false)
	n++

	s.binCount = uint32(n)
	return nil
}
