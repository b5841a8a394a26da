// Package shp reads and writes the SHP shape format.
//
// A shape is a 10 byte header (optionally preceded by a 2 byte CD marker),
// an optional colour table and a payload. The payload is a zero-run stream
// (non-zero bytes are pixels, 0 followed by n skips n transparent pixels,
// runs never cross a row) which is itself Frame4 compressed unless
// FlagUncompressed is set.
package shp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrHeader   = errors.New("shp: invalid header")
	ErrCorrupt  = errors.New("shp: corrupt payload")
	ErrTooLarge = errors.New("shp: shape too large")
)

const (
	// FlagColorTable marks an embedded colour table; pixels are table indices.
	FlagColorTable uint16 = 0x0001
	// FlagUncompressed marks a payload that is not Frame4 wrapped.
	FlagUncompressed uint16 = 0x0002
	// FlagTableSize marks a one byte table length after the header. Only
	// games after Kyra 1 use it.
	FlagTableSize uint16 = 0x0004
)

const (
	headerSize     = 10
	altMarkerSize  = 2
	colorTableSize = 16
)

// Format selects the header variant.
type Format struct {
	// AltHeader shapes carry a 2 byte marker in front of the header (CD
	// and talkie releases).
	AltHeader bool
	// VariableTable honours FlagTableSize.
	VariableTable bool
}

func (format Format) prefix() int {
	if format.AltHeader {
		return altMarkerSize
	}
	return 0
}

type Header struct {
	Flags      uint16
	Height     uint8
	Width      uint16
	OrigHeight uint8
	// Size covers the whole shape, CD marker included.
	Size uint16
	// PayloadSize is the length of the zero-run stream before Frame4.
	PayloadSize uint16
}

// Shape is a parsed, still compressed shape. Table and Payload alias the
// data passed to Parse.
type Shape struct {
	Header
	Table   []byte
	Payload []byte
}

func (shape *Shape) Compressed() bool { return shape.Flags&FlagUncompressed == 0 }

func (shape *Shape) HasTable() bool { return shape.Flags&FlagColorTable != 0 }

func Parse(data []byte, format Format) (*Shape, error) {
	off := format.prefix()
	if len(data) < off+headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeader, len(data))
	}

	shape := &Shape{}
	if err := binary.Read(bytes.NewReader(data[off:]), binary.LittleEndian, &shape.Header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeader, err)
	}
	off += headerSize

	if shape.HasTable() {
		n := colorTableSize
		if format.VariableTable && shape.Flags&FlagTableSize != 0 {
			if off >= len(data) {
				return nil, fmt.Errorf("%w: missing table size", ErrHeader)
			}
			n = int(data[off])
			off++
		}
		if off+n > len(data) {
			return nil, fmt.Errorf("%w: colour table truncated", ErrHeader)
		}
		shape.Table = data[off : off+n]
		off += n
	}

	shape.Payload = data[off:]
	return shape, nil
}

// SetHeight overrides the drawn height stored in the header and returns the
// previous value.
func SetHeight(data []byte, format Format, height uint8) (uint8, error) {
	off := format.prefix()
	if len(data) < off+headerSize {
		return 0, ErrHeader
	}
	old := data[off+2]
	data[off+2] = height
	return old, nil
}

// ResetHeight restores the drawn height from the original height field.
func ResetHeight(data []byte, format Format) (uint8, error) {
	off := format.prefix()
	if len(data) < off+headerSize {
		return 0, ErrHeader
	}
	old := data[off+2]
	data[off+2] = data[off+5]
	return old, nil
}
