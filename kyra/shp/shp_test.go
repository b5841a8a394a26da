package shp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(flags uint16, w, h, size, payload int) []byte {
	return []byte{
		byte(flags), byte(flags >> 8),
		byte(h),
		byte(w), byte(w >> 8),
		byte(h),
		byte(size), byte(size >> 8),
		byte(payload), byte(payload >> 8),
	}
}

func TestDecodeUncompressed(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0x00, 0x02, 0xCC, 0xCC, 0x00, 0x02}
	data := append(header(FlagUncompressed, 4, 2, 18, 8), payload...)

	shape, pixels, err := NewDecoder(Format{}).Decode(data)
	require.NoError(t, err)
	assert.EqualValues(t, 4, shape.Width)
	assert.EqualValues(t, 2, shape.Height)
	assert.Nil(t, shape.Table)
	assert.Equal(t, []byte{0xAA, 0xBB, 0x00, 0x00, 0xCC, 0xCC, 0x00, 0x00}, pixels)
}

func TestDecodeAltHeader(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x07}
	data := append([]byte{0x01, 0x00}, header(FlagUncompressed, 2, 1, 13, 3)...)
	data = append(data, payload...)

	_, pixels, err := NewDecoder(Format{AltHeader: true}).Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x07}, pixels)
}

func TestDecodeColorTable(t *testing.T) {
	table := make([]byte, 16)
	table[1], table[2] = 0x40, 0x41
	data := append(header(FlagColorTable|FlagUncompressed, 3, 1, 29, 3), table...)
	data = append(data, 0x01, 0x02, 0x01)

	shape, pixels, err := NewDecoder(Format{}).Decode(data)
	require.NoError(t, err)
	require.Len(t, shape.Table, 16)
	assert.Equal(t, []byte{1, 2, 1}, pixels)

	img := shape.Image(pixels, nil)
	assert.Equal(t, []byte{0x40, 0x41, 0x40}, img.Pix)
}

func TestDecodeVariableTable(t *testing.T) {
	flags := FlagColorTable | FlagUncompressed | FlagTableSize
	data := append(header(flags, 2, 1, 17, 2), 4, 0, 0x10, 0x20, 0x30)
	data = append(data, 0x03, 0x01)

	shape, pixels, err := NewDecoder(Format{VariableTable: true}).Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0x10, 0x20, 0x30}, []byte(shape.Table))
	assert.Equal(t, []byte{3, 1}, pixels)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"short header", []byte{0, 0, 1}, ErrHeader},
		{"run crosses row", append(header(FlagUncompressed, 2, 2, 14, 4), 0x00, 0x03, 0x01, 0x01), ErrCorrupt},
		{"payload ends early", append(header(FlagUncompressed, 2, 2, 13, 3), 0x01, 0x01, 0x01), ErrCorrupt},
		{"missing run length", append(header(FlagUncompressed, 2, 1, 11, 1), 0x00), ErrCorrupt},
		{"truncated table", append(header(FlagColorTable, 1, 1, 27, 1), 1, 2, 3), ErrHeader},
		{"bad lz payload", append(header(0, 4, 1, 13, 4), 0xC5, 0x10, 0x00), ErrCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewDecoder(Format{}).Decode(tt.data)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestZeroRunSplitsLongRuns(t *testing.T) {
	pixels := make([]byte, 600)
	pixels[599] = 9
	got := zeroRun(pixels, 600, 1, func(c byte) byte { return c })
	assert.Equal(t, []byte{0x00, 0xFF, 0x00, 0xFF, 0x00, 0x59, 0x09}, got)
}

func TestEncodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pixels := make([]byte, 37*21)
	for i := range pixels {
		if rng.Intn(3) == 0 {
			pixels[i] = byte(rng.Intn(255) + 1)
		}
	}

	formats := []Format{{}, {AltHeader: true}}
	for _, format := range formats {
		for _, raw := range []bool{false, true} {
			data, err := Encode(pixels, 37, 21, EncodeOptions{Format: format, Uncompressed: raw})
			require.NoError(t, err)

			shape, got, err := NewDecoder(format).Decode(data)
			require.NoError(t, err)
			assert.Equal(t, pixels, got)
			assert.EqualValues(t, len(data), shape.Size)
		}
	}
}

func TestEncodeCompressionPolicy(t *testing.T) {
	solid := make([]byte, 200)
	for i := range solid {
		solid[i] = 5
	}
	data, err := Encode(solid, 200, 1, EncodeOptions{})
	require.NoError(t, err)
	shape, err := Parse(data, Format{})
	require.NoError(t, err)
	assert.True(t, shape.Compressed())
	assert.EqualValues(t, 200, shape.PayloadSize)
	assert.Less(t, len(shape.Payload), 200)

	rng := rand.New(rand.NewSource(9))
	noise := make([]byte, 256)
	for i := range noise {
		noise[i] = byte(rng.Intn(255) + 1)
	}
	data, err = Encode(noise, 64, 4, EncodeOptions{})
	require.NoError(t, err)
	shape, err = Parse(data, Format{})
	require.NoError(t, err)
	assert.False(t, shape.Compressed())
	assert.Equal(t, noise, []byte(shape.Payload))
}

func TestEncodeColorTable(t *testing.T) {
	pixels := make([]byte, 20)
	for i := range pixels {
		pixels[i] = byte(100 + i)
	}
	pixels[0] = 0

	data, err := Encode(pixels, 20, 1, EncodeOptions{ColorTable: true})
	require.NoError(t, err)
	shape, got, err := NewDecoder(Format{}).Decode(data)
	require.NoError(t, err)
	require.True(t, shape.HasTable())

	assert.EqualValues(t, 0, got[0])
	for i := 1; i <= 15; i++ {
		assert.EqualValues(t, i, got[i])
		assert.Equal(t, pixels[i], shape.Table[i])
	}
	for i := 16; i < 20; i++ {
		assert.EqualValues(t, 1, got[i], "colour %d overflows to slot 1", i)
	}
}

func TestEncodeLimits(t *testing.T) {
	_, err := Encode(make([]byte, 256), 1, 256, EncodeOptions{})
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = Encode(make([]byte, 3), 2, 2, EncodeOptions{})
	assert.Error(t, err)
}

func TestLargeSparseShape(t *testing.T) {
	const w, h = 320, 210
	pixels := make([]byte, w*h)
	for y := 0; y < h; y += 7 {
		pixels[y*w+y] = byte(y + 1)
	}

	data, err := Encode(pixels, w, h, EncodeOptions{})
	require.NoError(t, err)
	shape, got, err := NewDecoder(Format{}).Decode(data)
	require.NoError(t, err)
	assert.EqualValues(t, w, shape.Width)
	assert.EqualValues(t, h, shape.Height)
	assert.Equal(t, pixels, got)

	_, err = Encode(make([]byte, w*h), w, 256, EncodeOptions{})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSetHeight(t *testing.T) {
	data := append(header(FlagUncompressed, 1, 3, 13, 3), 1, 1, 1)

	old, err := SetHeight(data, Format{}, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, old)

	shape, pixels, err := NewDecoder(Format{}).Decode(data)
	require.NoError(t, err)
	assert.EqualValues(t, 1, shape.Height)
	assert.EqualValues(t, 3, shape.OrigHeight)
	assert.Equal(t, []byte{1}, pixels)

	old, err = ResetHeight(data, Format{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, old)
	assert.EqualValues(t, 3, data[2])
}
