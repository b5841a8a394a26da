package delta

import "encoding/binary"

const (
	maxShortSkip = 0x7F
	maxLongSkip  = 0x7FFF
	maxShortCopy = 0x7F
	maxLongCopy  = 0x3FFF
	maxShortFill = 0xFF
	maxLongFill  = 0x3FFF
	minFill      = 3
)

// Encode returns the delta stream turning prev into next. A nil prev stands
// for an all zero buffer, which makes the stream usable with noXor as well.
// Trailing unchanged cells are not encoded.
func Encode(prev, next []byte) []byte {
	x := make([]byte, len(next))
	for i := range next {
		x[i] = next[i]
		if i < len(prev) {
			x[i] ^= prev[i]
		}
	}

	var out []byte
	i := 0
	for i < len(x) {
		if x[i] == 0 {
			n := span(x, i, func(b byte) bool { return b == 0 })
			if i+n == len(x) {
				break
			}
			out = appendSkip(out, n)
			i += n
			continue
		}

		if n := span(x, i, func(b byte) bool { return b == x[i] }); n >= minFill {
			out = appendFill(out, n, x[i])
			i += n
			continue
		}

		j := i
		for j < len(x) && x[j] != 0 {
			if j+minFill <= len(x) && x[j] == x[j+1] && x[j] == x[j+2] {
				break
			}
			j++
		}
		out = appendCopy(out, x[i:j])
		i = j
	}
	return append(out, 0x80, 0x00, 0x00)
}

func span(x []byte, i int, match func(byte) bool) int {
	n := 0
	for i+n < len(x) && match(x[i+n]) {
		n++
	}
	return n
}

func appendSkip(out []byte, n int) []byte {
	for n > 0 {
		if n <= maxShortSkip {
			return append(out, 0x80|byte(n))
		}
		c := min(n, maxLongSkip)
		out = append(out, 0x80)
		out = binary.LittleEndian.AppendUint16(out, uint16(c))
		n -= c
	}
	return out
}

func appendFill(out []byte, n int, v byte) []byte {
	for n > 0 {
		if n <= maxShortFill {
			return append(out, 0x00, byte(n), v)
		}
		c := min(n, maxLongFill)
		out = append(out, 0x80)
		out = binary.LittleEndian.AppendUint16(out, uint16(0xC000|c))
		out = append(out, v)
		n -= c
	}
	return out
}

func appendCopy(out, lit []byte) []byte {
	for len(lit) > 0 {
		if len(lit) <= maxShortCopy {
			out = append(out, byte(len(lit)))
			return append(out, lit...)
		}
		c := min(len(lit), maxLongCopy)
		out = append(out, 0x80)
		out = binary.LittleEndian.AppendUint16(out, uint16(0x8000|c))
		out = append(out, lit[:c]...)
		lit = lit[c:]
	}
	return out
}
