// Package wsa reads, plays and writes WSA animations: a Frame4 compressed
// first frame followed by one XOR delta per frame and a loop delta leading
// from the last frame back to the first.
package wsa

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cam-per/kyra/internal/logging"
	"github.com/cam-per/kyra/kyra/frame4"
	"github.com/cam-per/kyra/kyra/pal"
)

var (
	ErrHeader           = errors.New("wsa: invalid header")
	ErrUnsupportedFlags = errors.New("wsa: unsupported flags")
	ErrFrameRange       = errors.New("wsa: frame out of range")
	ErrNotOpen          = errors.New("wsa: movie is closed")
	ErrPlacement        = errors.New("wsa: frame does not fit on the page")
	ErrMode             = errors.New("wsa: needs offscreen decoding")
)

// Header flags. The flags word is only present with the alternative header.
const (
	FlagPalette = 0x0001
	FlagXor     = 0x0002
)

const (
	headerSize  = 8
	paletteSize = 0x300
	// unhandled marks a frame count carrying the unknown 0x80 flag.
	unhandled = 0x8000
)

type Header struct {
	NumFrames uint16
	Width     uint16
	Height    uint16
	DeltaSize uint16
}

type Options struct {
	// AltHeader files carry a flags word after the header.
	AltHeader bool
	// Offscreen decodes into a private buffer that Display blits with
	// Screen.CopyWsaRect. Otherwise frames are decoded in place on the page.
	Offscreen bool
	Logger    *logging.Logger
}

// Movie is an open animation. The frame cursor starts past the last frame,
// meaning nothing has been displayed yet.
type Movie struct {
	header  Header
	flags   uint16
	palette pal.Palette

	// offsets holds NumFrames+2 positions into frames; the entry at
	// NumFrames is the loop delta.
	offsets      []int
	frames       []byte
	delta        []byte
	offscreen    []byte
	current      int
	noFirstFrame bool
	opened       bool
}

// Open parses a WSA file. Unless the file has no first frame, it is
// decoded into the delta buffer right away.
func Open(data []byte, opts Options) (*Movie, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	r := bytes.NewReader(data)
	movie := &Movie{}
	if err := binary.Read(r, binary.LittleEndian, &movie.header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeader, err)
	}
	if opts.AltHeader {
		if err := binary.Read(r, binary.LittleEndian, &movie.flags); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHeader, err)
		}
	}

	hdr := &movie.header
	if hdr.NumFrames&unhandled != 0 {
		return nil, fmt.Errorf("%w: frame count %#04x", ErrUnsupportedFlags, hdr.NumFrames)
	}
	if hdr.NumFrames == 0 || hdr.Width == 0 || hdr.Height == 0 || hdr.DeltaSize == 0 {
		return nil, fmt.Errorf("%w: %d frames of %dx%d, delta buffer %d", ErrHeader, hdr.NumFrames, hdr.Width, hdr.Height, hdr.DeltaSize)
	}

	n := int(hdr.NumFrames)
	entries := make([]uint32, n+2)
	if err := binary.Read(r, binary.LittleEndian, entries); err != nil {
		return nil, fmt.Errorf("%w: frame table: %v", ErrHeader, err)
	}

	if movie.flags&FlagPalette != 0 {
		p, err := pal.NewDecoder(r).Decode(pal.FormatVGA, paletteSize/3)
		if err != nil {
			return nil, fmt.Errorf("%w: palette: %v", ErrHeader, err)
		}
		movie.palette = p
	}

	base := entries[0]
	if base == 0 {
		movie.noFirstFrame = true
		base = entries[1]
	}
	movie.offsets = make([]int, n+2)
	for i := 1; i < n+2; i++ {
		movie.offsets[i] = int(entries[i]) - int(base)
	}

	movie.frames = data[len(data)-r.Len():]
	movie.delta = make([]byte, hdr.DeltaSize)
	if opts.Offscreen {
		movie.offscreen = make([]byte, int(hdr.Width)*int(hdr.Height))
	}
	movie.current = n
	movie.opened = true

	if !movie.noFirstFrame {
		if _, err := frame4.Decode(movie.delta, movie.frames); err != nil {
			return nil, fmt.Errorf("wsa: first frame: %w", err)
		}
	}

	log.Debug("wsa: %d frames of %dx%d, delta buffer %d, flags %#04x", n, hdr.Width, hdr.Height, hdr.DeltaSize, movie.flags)
	return movie, nil
}

// Close releases the frame data. Display fails with ErrNotOpen afterwards.
func (movie *Movie) Close() {
	movie.opened = false
	movie.frames, movie.delta, movie.offscreen, movie.offsets = nil, nil, nil, nil
}

func (movie *Movie) Header() Header { return movie.header }

func (movie *Movie) Flags() uint16 { return movie.flags }

func (movie *Movie) NumFrames() int { return int(movie.header.NumFrames) }

func (movie *Movie) Width() int { return int(movie.header.Width) }

func (movie *Movie) Height() int { return int(movie.header.Height) }

// Palette returns the embedded palette or nil.
func (movie *Movie) Palette() pal.Palette { return movie.palette }

func (movie *Movie) HasFirstFrame() bool { return !movie.noFirstFrame }

// CurrentFrame is the frame last displayed, or NumFrames before the first
// Display call.
func (movie *Movie) CurrentFrame() int { return movie.current }

// FrameSize returns the compressed size of frame i, where i == NumFrames is
// the loop delta.
func (movie *Movie) FrameSize(i int) (int, error) {
	if i < 0 || i > movie.NumFrames() {
		return 0, fmt.Errorf("%w: %d", ErrFrameRange, i)
	}
	if i == 0 && movie.noFirstFrame {
		return 0, nil
	}
	return movie.offsets[i+1] - movie.offsets[i], nil
}

func (movie *Movie) payload(i int) ([]byte, error) {
	off := movie.offsets[i]
	if off < 0 || off >= len(movie.frames) {
		return nil, fmt.Errorf("%w: frame %d at %d of %d bytes", ErrHeader, i, off, len(movie.frames))
	}
	return movie.frames[off:], nil
}
