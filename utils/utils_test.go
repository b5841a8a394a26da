package utils

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestCString(t *testing.T) {
	assert.Equal(t, "KYRA.PAK", CString("KYRA.PAK\x00junk").String())
	assert.Equal(t, "", CString("\x00KYRA").String())
	assert.Equal(t, "NONUL", CString("NONUL").String())
	assert.Equal(t, "MÜHLE", CString("M\x9aHLE\x00").Decode(charmap.CodePage437))
}

func TestEncode(t *testing.T) {
	assert.Equal(t, CString("M\x9aHLE"), Encode("MÜHLE", charmap.CodePage437))
	assert.Equal(t, CString("a?b"), Encode("a€b", charmap.CodePage437))
}

func TestReaders(t *testing.T) {
	r := bufio.NewReader(bytes.NewReader([]byte{0x78, 0x56, 0x34, 0x12, 'A', 'B', 0, 'C'}))

	v, err := ReadUint32LE(r)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)

	s, err := ReadCString(r)
	require.NoError(t, err)
	assert.Equal(t, "AB", s.String())

	_, err = ReadCString(r)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	_, err = ReadUint32LE(r)
	assert.Error(t, err)
}

func TestHexDump(t *testing.T) {
	var out strings.Builder
	require.NoError(t, HexDump(&out, []byte("Kyrandia\x00\x01\xff0123456789"), 0x100))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "00000100  4b 79 72 61 6e 64 69 61 00 01 ff 30 31 32 33 34  |Kyrandia...01234|", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "00000110  35 36 37 38 39 "))
	assert.True(t, strings.HasSuffix(lines[1], " |56789|"))

	out.Reset()
	require.NoError(t, HexDumpAt(&out, bytes.NewReader([]byte("abcdef")), 2, 100))
	assert.True(t, strings.HasPrefix(out.String(), "00000002  63 64 65 66 "))
}
