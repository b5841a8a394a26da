package frame4

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTokens(t *testing.T) {
	tests := []struct {
		name string
		size int
		src  []byte
		want []byte
	}{
		{
			name: "literals",
			size: 3,
			src:  []byte{0x83, 1, 2, 3, 0x80},
			want: []byte{1, 2, 3},
		},
		{
			name: "fill",
			size: 5,
			src:  []byte{0xFE, 0x05, 0x00, 0x42, 0x80},
			want: []byte{0x42, 0x42, 0x42, 0x42, 0x42},
		},
		{
			name: "absolute copy",
			size: 7,
			src:  []byte{0x84, 9, 8, 7, 6, 0xC0, 0x01, 0x00, 0x80},
			want: []byte{9, 8, 7, 6, 8, 7, 6},
		},
		{
			name: "long absolute copy",
			size: 6,
			src:  []byte{0x82, 4, 5, 0xFF, 0x04, 0x00, 0x00, 0x00, 0x80},
			want: []byte{4, 5, 4, 5, 4, 5},
		},
		{
			name: "relative copy",
			size: 6,
			src:  []byte{0x83, 1, 2, 3, 0x00, 0x03, 0x80},
			want: []byte{1, 2, 3, 1, 2, 3},
		},
		{
			name: "stops when destination is full mid token",
			size: 4,
			src:  []byte{0x82, 1, 2, 0xFE, 0x10, 0x00, 7},
			want: []byte{1, 2, 7, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, tt.size)
			n, err := Decode(dst, tt.src)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
			assert.Equal(t, tt.want, dst)
		})
	}
}

func TestDecodeOverlappingBackReference(t *testing.T) {
	// two literals, a relative copy of 7 bytes from distance 2 and an
	// absolute copy of 5 bytes starting at offset 0
	src := []byte{0x82, 0xA1, 0xB2, 0x40, 0x02, 0xC2, 0x00, 0x00, 0x80}
	dst := make([]byte, 2+7+5)
	n, err := Decode(dst, src)
	require.NoError(t, err)
	require.Equal(t, len(dst), n)

	want := []byte{0xA1, 0xB2}
	for i := 0; i < 7; i++ {
		want = append(want, want[len(want)-2])
	}
	for i := 0; i < 5; i++ {
		want = append(want, want[i])
	}
	assert.Equal(t, want, dst)
}

func TestDecodeEndBeforeFull(t *testing.T) {
	dst := make([]byte, 10)
	n, err := Decode(dst, []byte{0x81, 5, 0x80})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
		err  error
	}{
		{"relative before start", []byte{0x81, 1, 0x00, 0x05}, ErrOffsetOutOfRange},
		{"absolute past end", []byte{0xC0, 0xFF, 0x00}, ErrOffsetOutOfRange},
		{"missing end code", []byte{0x81, 1}, ErrTruncated},
		{"short literal", []byte{0x85, 1, 2}, ErrTruncated},
		{"short fill", []byte{0xFE, 0x02}, ErrTruncated},
		{"short offset", []byte{0xFF, 0x02, 0x00, 0x00}, ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(make([]byte, 16), tt.src)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))

	noise := make([]byte, 5000)
	rnd.Read(noise)

	pattern := bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7}, 1500)

	sparse := make([]byte, 70000)
	for i := 0; i < 400; i++ {
		sparse[rnd.Intn(len(sparse))] = byte(rnd.Intn(255) + 1)
	}

	mixed := append([]byte{}, noise[:300]...)
	mixed = append(mixed, bytes.Repeat([]byte{9}, 1000)...)
	mixed = append(mixed, noise[:300]...)
	mixed = append(mixed, noise[100:180]...)

	tests := map[string][]byte{
		"empty":   {},
		"single":  {0x33},
		"noise":   noise,
		"pattern": pattern,
		"sparse":  sparse,
		"mixed":   mixed,
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			enc := Encode(in)
			require.Equal(t, byte(0x80), enc[len(enc)-1])

			out := make([]byte, len(in))
			n, err := Decode(out, enc)
			require.NoError(t, err)
			assert.Equal(t, len(in), n)
			assert.True(t, bytes.Equal(in, out))
		})
	}
}

func TestEncodeCompressesRepetition(t *testing.T) {
	in := bytes.Repeat([]byte{0xAB, 0xCD}, 4000)
	assert.Less(t, len(Encode(in)), len(in)/10)
}
