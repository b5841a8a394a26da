// Package frame4 implements the LZ codec shared by compressed shapes, CPS
// bitmaps (compression type 4) and every WSA frame payload.
//
// Control bytes:
//
//	0x00-0x7F  relative copy: len = code>>4 + 3, dist = (code&0xF)<<8 | next
//	0x80       end of stream
//	0x81-0xBF  code&0x3F literal bytes
//	0xC0-0xFD  absolute copy: len = code&0x3F + 3, LE16 offset from dst start
//	0xFE       fill: LE16 len, value
//	0xFF       absolute copy: LE16 len, LE16 offset
//
// Copies run byte by byte so overlapping references repeat patterns.
package frame4

import (
	"encoding/binary"
	"errors"
)

var (
	ErrOffsetOutOfRange = errors.New("frame4: back reference out of range")
	ErrTruncated        = errors.New("frame4: unexpected end of source")
)

type decoder struct {
	src []byte
	s   int
	dst []byte
	d   int
}

// Decode expands src into dst and returns the number of bytes written.
// Decoding stops at the end-of-stream code or as soon as dst is full, even in
// the middle of a token. Every length is clamped to the space left in dst.
func Decode(dst, src []byte) (int, error) {
	decoder := &decoder{src: src, dst: dst}
	err := decoder.run()
	return decoder.d, err
}

func (decoder *decoder) run() error {
	for {
		count := len(decoder.dst) - decoder.d
		if count == 0 {
			return nil
		}

		code, err := decoder.byte()
		if err != nil {
			return err
		}

		switch {
		case code&0x80 == 0:
			next, err := decoder.byte()
			if err != nil {
				return err
			}
			n := min(count, int(code>>4)+3)
			offs := int(code&0x0F)<<8 | int(next)
			if err := decoder.copyFrom(decoder.d-offs, n); err != nil {
				return err
			}
		case code&0x40 != 0:
			n := int(code&0x3F) + 3
			if code == 0xFE {
				l, err := decoder.word()
				if err != nil {
					return err
				}
				v, err := decoder.byte()
				if err != nil {
					return err
				}
				n = min(count, int(l))
				for i := 0; i < n; i++ {
					decoder.dst[decoder.d+i] = v
				}
				decoder.d += n
				continue
			}
			if code == 0xFF {
				l, err := decoder.word()
				if err != nil {
					return err
				}
				n = int(l)
			}
			offs, err := decoder.word()
			if err != nil {
				return err
			}
			if err := decoder.copyFrom(int(offs), min(count, n)); err != nil {
				return err
			}
		case code != 0x80:
			n := min(count, int(code&0x3F))
			if decoder.s+n > len(decoder.src) {
				return ErrTruncated
			}
			copy(decoder.dst[decoder.d:], decoder.src[decoder.s:decoder.s+n])
			decoder.s += n
			decoder.d += n
		default:
			return nil
		}
	}
}

// copyFrom copies n bytes from dst[from:] to the write position one byte at
// a time.
func (decoder *decoder) copyFrom(from, n int) error {
	if from < 0 || from+n > len(decoder.dst) {
		return ErrOffsetOutOfRange
	}
	for i := 0; i < n; i++ {
		decoder.dst[decoder.d] = decoder.dst[from+i]
		decoder.d++
	}
	return nil
}

func (decoder *decoder) byte() (byte, error) {
	if decoder.s >= len(decoder.src) {
		return 0, ErrTruncated
	}
	b := decoder.src[decoder.s]
	decoder.s++
	return b, nil
}

func (decoder *decoder) word() (uint16, error) {
	if decoder.s+2 > len(decoder.src) {
		return 0, ErrTruncated
	}
	w := binary.LittleEndian.Uint16(decoder.src[decoder.s:])
	decoder.s += 2
	return w, nil
}
