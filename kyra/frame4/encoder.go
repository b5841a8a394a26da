package frame4

import "encoding/binary"

const (
	minMatch     = 3
	maxShortLen  = 10
	maxShortDist = 0x0FFF
	maxMedLen    = 0x3F + 3 - 2 // 0xFE and 0xFF are reserved
	maxLongLen   = 0xFFFF
	maxAbsOffset = 0xFFFF
	maxLiterals  = 0x3F
	minFill      = 0x41

	hashBits   = 15
	chainLimit = 128
)

type encoder struct {
	src  []byte
	out  []byte
	lit  []byte
	head []int32
	prev []int32
}

// Encode compresses src into a stream Decode expands back to src. The output
// always ends with the end-of-stream code.
func Encode(src []byte) []byte {
	encoder := &encoder{
		src:  src,
		out:  make([]byte, 0, len(src)/2+16),
		head: make([]int32, 1<<hashBits),
		prev: make([]int32, len(src)),
	}
	for i := range encoder.head {
		encoder.head[i] = -1
	}

	pos := 0
	for pos < len(src) {
		run := encoder.runLength(pos)
		length, from := encoder.findMatch(pos)

		if run >= minFill && run > length {
			encoder.flushLiterals()
			encoder.out = append(encoder.out, 0xFE)
			encoder.out = binary.LittleEndian.AppendUint16(encoder.out, uint16(run))
			encoder.out = append(encoder.out, src[pos])
			encoder.insert(pos, run)
			pos += run
			continue
		}

		if length >= minMatch {
			encoder.flushLiterals()
			encoder.emitCopy(pos, from, length)
			encoder.insert(pos, length)
			pos += length
			continue
		}

		encoder.lit = append(encoder.lit, src[pos])
		if len(encoder.lit) == maxLiterals {
			encoder.flushLiterals()
		}
		encoder.insert(pos, 1)
		pos++
	}
	encoder.flushLiterals()
	return append(encoder.out, 0x80)
}

func (encoder *encoder) emitCopy(pos, from, length int) {
	dist := pos - from
	switch {
	case length <= maxShortLen && dist <= maxShortDist:
		encoder.out = append(encoder.out, byte((length-minMatch)<<4|dist>>8), byte(dist))
	case length <= maxMedLen:
		encoder.out = append(encoder.out, 0xC0|byte(length-minMatch))
		encoder.out = binary.LittleEndian.AppendUint16(encoder.out, uint16(from))
	default:
		encoder.out = append(encoder.out, 0xFF)
		encoder.out = binary.LittleEndian.AppendUint16(encoder.out, uint16(length))
		encoder.out = binary.LittleEndian.AppendUint16(encoder.out, uint16(from))
	}
}

func (encoder *encoder) flushLiterals() {
	if len(encoder.lit) == 0 {
		return
	}
	encoder.out = append(encoder.out, 0x80|byte(len(encoder.lit)))
	encoder.out = append(encoder.out, encoder.lit...)
	encoder.lit = encoder.lit[:0]
}

func (encoder *encoder) runLength(pos int) int {
	v := encoder.src[pos]
	n := 1
	for pos+n < len(encoder.src) && n < maxLongLen && encoder.src[pos+n] == v {
		n++
	}
	return n
}

// findMatch returns the longest earlier match for src[pos:] that one of the
// copy forms can address.
func (encoder *encoder) findMatch(pos int) (int, int) {
	if pos+minMatch > len(encoder.src) {
		return 0, 0
	}

	best, bestFrom := 0, 0
	steps := 0
	for p := encoder.head[encoder.hash(pos)]; p >= 0 && steps < chainLimit; p = encoder.prev[p] {
		steps++
		from := int(p)
		dist := pos - from
		limit := maxLongLen
		if from > maxAbsOffset {
			if dist > maxShortDist {
				continue
			}
			limit = maxShortLen
		}

		n := 0
		for pos+n < len(encoder.src) && n < limit && encoder.src[from+n] == encoder.src[pos+n] {
			n++
		}
		if n > best {
			best, bestFrom = n, from
			if n == limit {
				break
			}
		}
	}
	return best, bestFrom
}

func (encoder *encoder) insert(pos, n int) {
	for i := pos; i < pos+n; i++ {
		if i+minMatch > len(encoder.src) {
			encoder.prev[i] = -1
			continue
		}
		h := encoder.hash(i)
		encoder.prev[i] = encoder.head[h]
		encoder.head[h] = int32(i)
	}
}

func (encoder *encoder) hash(pos int) uint32 {
	v := uint32(encoder.src[pos])<<16 | uint32(encoder.src[pos+1])<<8 | uint32(encoder.src[pos+2])
	return (v * 2654435761) >> (32 - hashBits)
}
