package shp

import (
	"fmt"
	"image"
	"image/color"

	"github.com/cam-per/kyra/kyra/frame4"
)

// Decoder expands shapes into buffers it owns. The returned pixels stay
// valid until the next Decode call; a Decoder is not safe for concurrent
// use.
type Decoder struct {
	format Format
	pixels []byte
	block  []byte
}

func NewDecoder(format Format) *Decoder {
	return &Decoder{format: format}
}

func (decoder *Decoder) Format() Format { return decoder.format }

// Decode parses data and expands it into Width*Height palette indices,
// zero meaning transparent. Shapes with a colour table yield table indices.
func (decoder *Decoder) Decode(data []byte) (*Shape, []byte, error) {
	shape, err := Parse(data, decoder.format)
	if err != nil {
		return nil, nil, err
	}

	// The header fields bound the buffer to 0xFFFF by 0xFF pixels.
	w, h := int(shape.Width), int(shape.Height)

	rle := shape.Payload
	if shape.Compressed() {
		decoder.block = grow(decoder.block, int(shape.PayloadSize))
		n, err := frame4.Decode(decoder.block, shape.Payload)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		rle = decoder.block[:n]
	}

	decoder.pixels = grow(decoder.pixels, w*h)
	clear(decoder.pixels)
	if _, err := expand(decoder.pixels, w, h, rle); err != nil {
		return nil, nil, err
	}
	return shape, decoder.pixels, nil
}

// expand writes a zero-run stream into dst row by row and returns the
// number of source bytes consumed. dst must be zeroed.
func expand(dst []byte, w, h int, src []byte) (int, error) {
	s := 0
	for y := 0; y < h; y++ {
		row := dst[y*w : y*w+w]
		x := 0
		for x < w {
			if s >= len(src) {
				return s, fmt.Errorf("%w: row %d ends at %d of %d", ErrCorrupt, y, x, w)
			}
			c := src[s]
			s++
			if c != 0 {
				row[x] = c
				x++
				continue
			}
			if s >= len(src) {
				return s, fmt.Errorf("%w: missing run length", ErrCorrupt)
			}
			n := int(src[s])
			s++
			if x+n > w {
				return s, fmt.Errorf("%w: run of %d crosses row %d", ErrCorrupt, n, y)
			}
			x += n
		}
	}
	return s, nil
}

func grow(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}

// Image renders decoded pixels with palette. Shapes carrying a colour table
// are mapped through it first; index 0 stays transparent.
func (shape *Shape) Image(pixels []byte, palette color.Palette) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, int(shape.Width), int(shape.Height)), palette)
	for i, c := range pixels[:len(img.Pix)] {
		if c != 0 && shape.Table != nil && int(c) < len(shape.Table) {
			c = shape.Table[c]
		}
		img.Pix[i] = c
	}
	return img
}
