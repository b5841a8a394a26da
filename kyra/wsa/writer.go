package wsa

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cam-per/kyra/kyra/delta"
	"github.com/cam-per/kyra/kyra/frame4"
	"github.com/cam-per/kyra/kyra/pal"
)

type WriteOptions struct {
	AltHeader bool
	// Palette is stored when set; it needs the alternative header.
	Palette pal.Palette
	// NoFirstFrame leaves frame 0 out. Players then start from whatever the
	// destination holds, so frames[0] should match it.
	NoFirstFrame bool
}

// Write builds a WSA file from full w by h frames.
func Write(frames [][]byte, w, h int, opts WriteOptions) ([]byte, error) {
	n := len(frames)
	if n == 0 || n >= unhandled {
		return nil, fmt.Errorf("%w: %d frames", ErrHeader, n)
	}
	if w <= 0 || h <= 0 || w > 0xFFFF || h > 0xFFFF {
		return nil, fmt.Errorf("%w: size %dx%d", ErrHeader, w, h)
	}
	for i, frame := range frames {
		if len(frame) != w*h {
			return nil, fmt.Errorf("%w: frame %d has %d bytes, want %d", ErrHeader, i, len(frame), w*h)
		}
	}
	var flags uint16
	if opts.Palette != nil {
		if !opts.AltHeader {
			return nil, fmt.Errorf("%w: a palette needs the flags word", ErrHeader)
		}
		if len(opts.Palette) != paletteSize {
			return nil, fmt.Errorf("%w: palette of %d bytes", ErrHeader, len(opts.Palette))
		}
		flags |= FlagPalette
	}

	// Payload i is delta i; delta n loops back to the first frame.
	payloads := make([][]byte, n+1)
	deltaSize := 0
	for i := range payloads {
		var d []byte
		switch {
		case i == 0 && opts.NoFirstFrame:
			continue
		case i == 0:
			d = delta.Encode(nil, frames[0])
		case i == n:
			d = delta.Encode(frames[n-1], frames[0])
		default:
			d = delta.Encode(frames[i-1], frames[i])
		}
		deltaSize = max(deltaSize, len(d))
		payloads[i] = frame4.Encode(d)
	}
	if deltaSize > 0xFFFF {
		return nil, fmt.Errorf("%w: delta buffer of %d bytes", ErrHeader, deltaSize)
	}

	var out bytes.Buffer
	header := Header{
		NumFrames: uint16(n),
		Width:     uint16(w),
		Height:    uint16(h),
		DeltaSize: uint16(deltaSize),
	}
	if err := binary.Write(&out, binary.LittleEndian, header); err != nil {
		return nil, err
	}
	if opts.AltHeader {
		if err := binary.Write(&out, binary.LittleEndian, flags); err != nil {
			return nil, err
		}
	}

	pos := out.Len() + (n+2)*4
	if flags&FlagPalette != 0 {
		pos += paletteSize
	}
	entries := make([]uint32, n+2)
	for i, payload := range payloads {
		if i == 0 && opts.NoFirstFrame {
			continue
		}
		entries[i] = uint32(pos)
		pos += len(payload)
	}
	entries[n+1] = uint32(pos)

	if err := binary.Write(&out, binary.LittleEndian, entries); err != nil {
		return nil, err
	}
	if flags&FlagPalette != 0 {
		out.Write(opts.Palette)
	}
	for _, payload := range payloads {
		out.Write(payload)
	}
	return out.Bytes(), nil
}
