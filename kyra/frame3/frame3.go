// Package frame3 implements the signed-code RLE used by CPS bitmaps
// (compression type 3).
//
// Each control byte is read as a signed 8-bit code:
//
//	code == 0   big endian uint16 count, then a fill byte
//	code <  0   -code copies of the next byte
//	code >  0   code literal bytes
package frame3

import (
	"encoding/binary"
	"errors"
)

var (
	ErrOverrun   = errors.New("frame3: run exceeds destination")
	ErrTruncated = errors.New("frame3: source ends before destination is full")
)

// Decode fills dst completely from src and returns the number of source
// bytes consumed. A stream that would write past len(dst), or that ends
// before dst is full, is rejected.
func Decode(dst, src []byte) (int, error) {
	var (
		d = 0
		s = 0
	)
	for d < len(dst) {
		if s >= len(src) {
			return s, ErrTruncated
		}
		code := int8(src[s])
		s++

		switch {
		case code == 0:
			if s+3 > len(src) {
				return s, ErrTruncated
			}
			n := int(binary.BigEndian.Uint16(src[s:]))
			v := src[s+2]
			s += 3
			if d+n > len(dst) {
				return s, ErrOverrun
			}
			fill(dst[d:d+n], v)
			d += n
		case code < 0:
			if s >= len(src) {
				return s, ErrTruncated
			}
			n := -int(code)
			if d+n > len(dst) {
				return s, ErrOverrun
			}
			fill(dst[d:d+n], src[s])
			s++
			d += n
		default:
			n := int(code)
			if s+n > len(src) {
				return s, ErrTruncated
			}
			if d+n > len(dst) {
				return s, ErrOverrun
			}
			copy(dst[d:], src[s:s+n])
			s += n
			d += n
		}
	}
	return s, nil
}

func fill(buf []byte, v byte) {
	for i := range buf {
		buf[i] = v
	}
}
