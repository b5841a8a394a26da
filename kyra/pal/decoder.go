package pal

import (
	"encoding/binary"
	"errors"
	"image/color"
	"io"
)

var ErrColorRange = errors.New("pal: colour index out of range")

// Format describes how a palette is stored on disk.
type Format uint8

const (
	// FormatVGA stores 3 bytes per colour with 6 significant bits.
	FormatVGA Format = iota
	// FormatRGB stores 3 bytes per colour with 8 significant bits.
	FormatRGB
	// FormatAmiga stores one big endian word per colour, 4 bits per channel.
	FormatAmiga
)

func (format Format) BytesPerColor() int {
	if format == FormatAmiga {
		return 2
	}
	return 3
}

// Palette holds RGB triples in VGA 6-bit precision, the depth the engine
// works in. Expand converts to 8-bit for display.
type Palette []byte

func New(colors int) Palette { return make(Palette, colors*3) }

func (p Palette) NumColors() int { return len(p) / 3 }

func (p Palette) Copy(src Palette) { copy(p, src) }

func (p Palette) Clone() Palette { return append(Palette(nil), p...) }

// Set stores a colour given in 6-bit channels.
func (p Palette) Set(index int, r, g, b uint8) error {
	if index < 0 || index >= p.NumColors() {
		return ErrColorRange
	}
	p[index*3+0] = r & 0x3F
	p[index*3+1] = g & 0x3F
	p[index*3+2] = b & 0x3F
	return nil
}

// Expand returns 8-bit RGB triples, replicating the top bits into the
// bottom two.
func (p Palette) Expand() []byte {
	out := make([]byte, len(p))
	for i, c := range p {
		out[i] = c<<2 | c&3
	}
	return out
}

// ColorPalette converts to an image/color palette with opaque entries.
func (p Palette) ColorPalette() color.Palette {
	rgb := p.Expand()
	cp := make(color.Palette, p.NumColors())
	for i := range cp {
		cp[i] = color.RGBA{R: rgb[i*3], G: rgb[i*3+1], B: rgb[i*3+2], A: 255}
	}
	return cp
}

type Decoder struct {
	r io.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

func (decoder *Decoder) Decode(format Format, size int) (Palette, error) {
	buf := make([]byte, size*format.BytesPerColor())
	if _, err := io.ReadFull(decoder.r, buf); err != nil {
		return nil, err
	}

	p := New(size)
	for i := 0; i < size; i++ {
		switch format {
		case FormatVGA:
			p[i*3+0] = buf[i*3+0] & 0x3F
			p[i*3+1] = buf[i*3+1] & 0x3F
			p[i*3+2] = buf[i*3+2] & 0x3F
		case FormatRGB:
			p[i*3+0] = buf[i*3+0] >> 2
			p[i*3+1] = buf[i*3+1] >> 2
			p[i*3+2] = buf[i*3+2] >> 2
		case FormatAmiga:
			col := binary.BigEndian.Uint16(buf[i*2:])
			r, g, b := byte(col>>8)&0xF, byte(col>>4)&0xF, byte(col)&0xF
			p[i*3+0] = r<<2 | r>>2
			p[i*3+1] = g<<2 | g>>2
			p[i*3+2] = b<<2 | b>>2
		}
	}
	return p, nil
}

// FromColorPalette converts an image/color palette, dropping the two low
// bits of each channel.
func FromColorPalette(cp color.Palette) Palette {
	p := New(len(cp))
	for i, c := range cp {
		r, g, b, _ := c.RGBA()
		p[i*3+0] = byte(r >> 10)
		p[i*3+1] = byte(g >> 10)
		p[i*3+2] = byte(b >> 10)
	}
	return p
}
