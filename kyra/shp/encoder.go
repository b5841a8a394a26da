package shp

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cam-per/kyra/kyra/frame4"
)

// EncodeOptions control Encode.
type EncodeOptions struct {
	Format Format
	// ColorTable stores pixels as indices into an embedded 16 entry table.
	// Up to 15 distinct colours keep their identity, later ones map to
	// table slot 1.
	ColorTable bool
	// Uncompressed skips the Frame4 attempt.
	Uncompressed bool
}

// Encode builds a shape from a w by h block of palette indices (zero is
// transparent). The payload is Frame4 wrapped only when that is strictly
// smaller than the zero-run stream.
func Encode(pixels []byte, w, h int, opts EncodeOptions) ([]byte, error) {
	if w < 0 || h < 0 || w > 0xFFFF || h > 0xFF {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}
	if len(pixels) < w*h {
		return nil, fmt.Errorf("shp: %d pixels for %dx%d", len(pixels), w, h)
	}

	var table []byte
	var remap [256]byte
	if opts.ColorTable {
		table = make([]byte, colorTableSize)
		next := 1
		for _, c := range pixels[:w*h] {
			if c == 0 || remap[c] != 0 {
				continue
			}
			if next < colorTableSize {
				remap[c] = byte(next)
				table[next] = c
				next++
			} else {
				remap[c] = 1
			}
		}
	}

	rle := zeroRun(pixels, w, h, func(c byte) byte {
		if opts.ColorTable {
			return remap[c]
		}
		return c
	})
	if len(rle) > 0xFFFF {
		return nil, fmt.Errorf("%w: payload %d bytes", ErrTooLarge, len(rle))
	}

	hdr := Header{
		Height:      uint8(h),
		Width:       uint16(w),
		OrigHeight:  uint8(h),
		PayloadSize: uint16(len(rle)),
	}
	if opts.ColorTable {
		hdr.Flags |= FlagColorTable
	}

	payload := rle
	if !opts.Uncompressed {
		if packed := frame4.Encode(rle); len(packed) < len(rle) {
			payload = packed
		}
	}
	if len(payload) == len(rle) {
		hdr.Flags |= FlagUncompressed
	}

	size := opts.Format.prefix() + headerSize + len(table) + len(payload)
	if size > 0xFFFF {
		return nil, fmt.Errorf("%w: shape %d bytes", ErrTooLarge, size)
	}
	hdr.Size = uint16(size)

	var buf bytes.Buffer
	buf.Grow(size)
	if opts.Format.AltHeader {
		buf.Write([]byte{0, 0})
	}
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	buf.Write(table)
	buf.Write(payload)
	return buf.Bytes(), nil
}

func zeroRun(pixels []byte, w, h int, mapColor func(byte) byte) []byte {
	out := make([]byte, 0, w*h+h*2)
	for y := 0; y < h; y++ {
		row := pixels[y*w : y*w+w]
		for x := 0; x < w; {
			if row[x] != 0 {
				out = append(out, mapColor(row[x]))
				x++
				continue
			}
			n := 0
			for x < w && row[x] == 0 {
				n++
				x++
			}
			for n > 0xFF {
				out = append(out, 0, 0xFF)
				n -= 0xFF
			}
			out = append(out, 0, byte(n))
		}
	}
	return out
}
