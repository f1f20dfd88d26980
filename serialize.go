package histosketch

import (
	"encoding/binary"
	"math"
)

const (
	tagDense  byte = 0x00
	tagSparse byte = 0x01

	headerSize = 1 + 4 + 4 + 4 + 4 // tag + size + bin_count + min + max
)

func denseSizeFor(size int) int      { return headerSize + 12*size }
func sparseSizeFor(binCount int) int { return headerSize + 12*binCount }

// ToBytes encodes the sketch, picking whichever of the dense or sparse
// layouts is smaller. lower_limit, upper_limit, and total_count are not
// serialized: total_count is recomputed on decode from the bin counts,
// and limits default to +/-Inf (callers reconfigure them after loading,
// per spec).
func (s *Sketch) ToBytes() []byte {
	if sparseSizeFor(int(s.binCount)) < denseSizeFor(int(s.size)) {
		return s.encodeSparse()
	}
	return s.encodeDense()
}

func (s *Sketch) encodeHeader(buf []byte, tag byte) {
	buf[0] = tag
	binary.BigEndian.PutUint32(buf[1:5], uint32(s.size))
	binary.BigEndian.PutUint32(buf[5:9], uint32(s.binCount))
	binary.BigEndian.PutUint32(buf[9:13], math.Float32bits(s.min))
	binary.BigEndian.PutUint32(buf[13:17], math.Float32bits(s.max))
}

func (s *Sketch) encodeDense() []byte {
	buf := make([]byte, denseSizeFor(int(s.size)))
	s.encodeHeader(buf, tagDense)

	off := headerSize
	for i := 0; i < int(s.size); i++ {
		var v float32
		if i < int(s.binCount) {
			v = s.positions[i]
		}
		binary.BigEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	for i := 0; i < int(s.size); i++ {
		var w uint64
		if i < int(s.binCount) {
			w = s.bins[i]
		}
		binary.BigEndian.PutUint64(buf[off:off+8], w)
		off += 8
	}
	return buf
}

func (s *Sketch) encodeSparse() []byte {
	buf := make([]byte, sparseSizeFor(int(s.binCount)))
	s.encodeHeader(buf, tagSparse)

	off := headerSize
	for i := 0; i < int(s.binCount); i++ {
		binary.BigEndian.PutUint32(buf[off:off+4], math.Float32bits(s.positions[i]))
		off += 4
	}
	for i := 0; i < int(s.binCount); i++ {
		binary.BigEndian.PutUint64(buf[off:off+8], s.bins[i])
		off += 8
	}
	return buf
}

// FromBytes decodes a sketch previously produced by ToBytes, dispatching
// on the format tag. lower_limit and upper_limit are reset to +/-Inf;
// reconfigure them with NewWithLimits's fields if FoldFast's cutoff
// behavior is needed (there is no setter: construct via NewWithLimits
// and Fold the decoded sketch into it, or use it only for Sum/Quantiles,
// which ignore the limits entirely).
func FromBytes(data []byte) (*Sketch, error) {
	if len(data) < headerSize {
		return nil, ErrMalformedSerialization
	}
	tag := data[0]
	size := int(int32(binary.BigEndian.Uint32(data[1:5])))
	binCount := int(int32(binary.BigEndian.Uint32(data[5:9])))
	min := math.Float32frombits(binary.BigEndian.Uint32(data[9:13]))
	max := math.Float32frombits(binary.BigEndian.Uint32(data[13:17]))

	if size < 2 || binCount < 0 || binCount > size {
		return nil, ErrMalformedSerialization
	}

	var encodedCount int
	switch tag {
	case tagDense:
		encodedCount = size
		if len(data) != denseSizeFor(size) {
			return nil, ErrMalformedSerialization
		}
	case tagSparse:
		encodedCount = binCount
		if len(data) != sparseSizeFor(binCount) {
			return nil, ErrMalformedSerialization
		}
	default:
		return nil, ErrMalformedSerialization
	}

	positions := make([]float32, size)
	bins := make([]uint64, size)

	off := headerSize
	for i := 0; i < encodedCount; i++ {
		v := math.Float32frombits(binary.BigEndian.Uint32(data[off : off+4]))
		if i < binCount {
			positions[i] = v
		}
		off += 4
	}
	for i := 0; i < encodedCount; i++ {
		w := binary.BigEndian.Uint64(data[off : off+8])
		if i < binCount {
			bins[i] = w
		}
		off += 8
	}

	var total uint64
	for i := 0; i < binCount; i++ {
		c := binCountOf(bins[i])
		if c == 0 {
			return nil, ErrMalformedSerialization
		}
		if i > 0 && !(positions[i-1] < positions[i]) {
			return nil, ErrMalformedSerialization
		}
		var err error
		if total, err = addCounts(total, c); err != nil {
			return nil, ErrMalformedSerialization
		}
	}
	if binCount > 0 && (min > positions[0] || positions[binCount-1] > max) {
		return nil, ErrMalformedSerialization
	}

	return &Sketch{
		size:       uint32(size),
		positions:  positions,
		bins:       bins,
		binCount:   uint32(binCount),
		min:        min,
		max:        max,
		totalCount: total,
		lowerLimit: float32(math.Inf(-1)),
		upperLimit: float32(math.Inf(1)),
	}, nil
}
