package screen

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cam-per/kyra/kyra/frame3"
	"github.com/cam-per/kyra/kyra/frame4"
	"github.com/cam-per/kyra/kyra/pal"
)

// CPS compression types.
const (
	CompressionNone   = 0
	CompressionFrame3 = 3
	CompressionFrame4 = 4
)

const bitmapHeaderSize = 10

type BitmapHeader struct {
	Compression uint8
	ImageSize   int
	PaletteSize int
}

// ParseBitmapHeader reads a CPS header. CMP files keep the image size in
// the first word instead of at offset 4.
func ParseBitmapHeader(data []byte, cmp bool) (BitmapHeader, error) {
	if len(data) < bitmapHeaderSize {
		return BitmapHeader{}, fmt.Errorf("%w: %d bytes", ErrBitmap, len(data))
	}
	hdr := BitmapHeader{
		Compression: data[2],
		ImageSize:   int(binary.LittleEndian.Uint32(data[4:])),
		PaletteSize: int(binary.LittleEndian.Uint16(data[8:])),
	}
	if cmp {
		hdr.ImageSize = int(binary.LittleEndian.Uint16(data))
	}
	if bitmapHeaderSize+hdr.PaletteSize > len(data) {
		return hdr, fmt.Errorf("%w: palette of %d bytes truncated", ErrBitmap, hdr.PaletteSize)
	}
	return hdr, nil
}

// LoadBitmap decodes a CPS image into page n. When p is non-nil an embedded
// palette is loaded into it.
func (screen *Screen) LoadBitmap(data []byte, cmp bool, n int, p pal.Palette) error {
	hdr, err := ParseBitmapHeader(data, cmp)
	if err != nil {
		return err
	}
	page, err := screen.Page(n)
	if err != nil {
		return err
	}
	if hdr.ImageSize > len(page) {
		return fmt.Errorf("%w: image of %d bytes", ErrBitmap, hdr.ImageSize)
	}

	if p != nil && hdr.PaletteSize > 0 {
		raw := data[bitmapHeaderSize : bitmapHeaderSize+hdr.PaletteSize]
		loaded, err := pal.NewDecoder(bytes.NewReader(raw)).Decode(pal.FormatVGA, hdr.PaletteSize/3)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBitmap, err)
		}
		p.Copy(loaded)
	}

	src := data[bitmapHeaderSize+hdr.PaletteSize:]
	dst := page[:hdr.ImageSize]
	switch hdr.Compression {
	case CompressionNone:
		if len(src) < len(dst) {
			return fmt.Errorf("%w: %d of %d bytes", ErrBitmap, len(src), len(dst))
		}
		copy(dst, src)
	case CompressionFrame3:
		if _, err := frame3.Decode(dst, src); err != nil {
			return fmt.Errorf("%w: %v", ErrBitmap, err)
		}
	case CompressionFrame4:
		if _, err := frame4.Decode(dst, src); err != nil {
			return fmt.Errorf("%w: %v", ErrBitmap, err)
		}
	default:
		return fmt.Errorf("%w: compression %d", ErrBitmap, hdr.Compression)
	}

	if n == 0 || n == 1 {
		screen.forceFull = true
	}
	return nil
}
