// Package delta applies and builds the XOR delta streams stored (Frame4
// compressed) in WSA animation frames.
//
// Control bytes:
//
//	0x00         count byte, value byte: count cells get value
//	0x01-0x7F    code literal bytes
//	0x81-0xFF    skip code&0x7F cells
//	0x80, LE16   0x0000 end of stream
//	             0x0001-0x7FFF skip
//	             0x8000|n literal bytes (n < 0x4000)
//	             0xC000|n cells get the next value byte
//
// "Get" means XOR unless the caller asks for plain assignment.
package delta

import (
	"encoding/binary"
	"errors"
)

var (
	ErrOverrun   = errors.New("delta: write past destination")
	ErrTruncated = errors.New("delta: unexpected end of stream")
)

// cursor maps the linear delta position onto a destination. A flat cursor
// has pitch == stride == 0.
type cursor struct {
	dst    []byte
	stride int
	pitch  int
	rows   int
	row    int
	col    int
	noXor  bool
}

func (c *cursor) index() int {
	if c.pitch == 0 {
		return c.col
	}
	return c.row*c.stride + c.col
}

func (c *cursor) put(v byte) error {
	i := c.index()
	if i >= len(c.dst) || c.pitch != 0 && c.row >= c.rows {
		return ErrOverrun
	}
	if c.noXor {
		c.dst[i] = v
	} else {
		c.dst[i] ^= v
	}
	c.col++
	if c.pitch != 0 && c.col == c.pitch {
		c.col = 0
		c.row++
	}
	return nil
}

func (c *cursor) skip(n int) error {
	c.col += n
	if c.pitch != 0 {
		c.row += c.col / c.pitch
		c.col %= c.pitch
	}
	if c.index() > len(c.dst) {
		return ErrOverrun
	}
	if c.pitch != 0 && (c.row > c.rows || c.row == c.rows && c.col > 0) {
		return ErrOverrun
	}
	return nil
}

// Apply applies a delta stream to a linear buffer.
func Apply(dst, src []byte, noXor bool) error {
	return run(&cursor{dst: dst, noXor: noXor}, src)
}

// ApplyPage applies a delta stream to a pitch by rows rectangle inside a
// page whose rows are stride bytes apart. dst starts at the rectangle's top
// left pixel. Writes below the rectangle fail with ErrOverrun.
func ApplyPage(dst, src []byte, stride, pitch, rows int, noXor bool) error {
	if pitch <= 0 || rows <= 0 || stride < pitch {
		return ErrOverrun
	}
	return run(&cursor{dst: dst, stride: stride, pitch: pitch, rows: rows, noXor: noXor}, src)
}

func run(c *cursor, src []byte) error {
	s := 0
	next := func() (byte, error) {
		if s >= len(src) {
			return 0, ErrTruncated
		}
		b := src[s]
		s++
		return b, nil
	}

	for {
		code, err := next()
		if err != nil {
			return err
		}

		switch {
		case code == 0:
			if s+2 > len(src) {
				return ErrTruncated
			}
			n, v := int(src[s]), src[s+1]
			s += 2
			if err := fill(c, n, v); err != nil {
				return err
			}
		case code&0x80 != 0 && code != 0x80:
			if err := c.skip(int(code & 0x7F)); err != nil {
				return err
			}
		case code == 0x80:
			if s+2 > len(src) {
				return ErrTruncated
			}
			sub := int(binary.LittleEndian.Uint16(src[s:]))
			s += 2
			switch {
			case sub == 0:
				return nil
			case sub&0x8000 == 0:
				if err := c.skip(sub); err != nil {
					return err
				}
			case sub&0x4000 != 0:
				v, err := next()
				if err != nil {
					return err
				}
				if err := fill(c, sub&0x3FFF, v); err != nil {
					return err
				}
			default:
				n := sub & 0x3FFF
				if s+n > len(src) {
					return ErrTruncated
				}
				for _, v := range src[s : s+n] {
					if err := c.put(v); err != nil {
						return err
					}
				}
				s += n
			}
		default:
			n := int(code)
			if s+n > len(src) {
				return ErrTruncated
			}
			for _, v := range src[s : s+n] {
				if err := c.put(v); err != nil {
					return err
				}
			}
			s += n
		}
	}
}

func fill(c *cursor, n int, v byte) error {
	for i := 0; i < n; i++ {
		if err := c.put(v); err != nil {
			return err
		}
	}
	return nil
}
