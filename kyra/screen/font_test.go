package screen

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFont builds a font with glyphs up to 'B': 'A' is 2 pixels wide with a
// single glyph row, 'B' is a 3x3 ring.
func testFont() []byte {
	const (
		lastGlyph    = 'B'
		glyphs       = lastGlyph + 1
		descOffset   = 0x10
		bitmapOffset = descOffset + 6
		widthOffset  = bitmapOffset + glyphs*2
		heightOffset = widthOffset + glyphs
		dataOffset   = heightOffset + glyphs*2
	)
	data := make([]byte, dataOffset)
	binary.LittleEndian.PutUint16(data[2:], fontSignature)
	binary.LittleEndian.PutUint16(data[4:], descOffset)
	binary.LittleEndian.PutUint16(data[6:], bitmapOffset)
	binary.LittleEndian.PutUint16(data[8:], widthOffset)
	binary.LittleEndian.PutUint16(data[0xC:], heightOffset)
	copy(data[descOffset:], []byte{0, 0, 0, lastGlyph, 3, 2})

	binary.LittleEndian.PutUint16(data[bitmapOffset+'A'*2:], uint16(len(data)))
	data[widthOffset+'A'] = 2
	data[heightOffset+'A'*2], data[heightOffset+'A'*2+1] = 1, 1
	data = append(data, 0x10)

	binary.LittleEndian.PutUint16(data[bitmapOffset+'B'*2:], uint16(len(data)))
	data[widthOffset+'B'] = 3
	data[heightOffset+'B'*2], data[heightOffset+'B'*2+1] = 0, 3
	data = append(data, 0x11, 0x01, 0x10, 0x00, 0x11, 0x01)

	binary.LittleEndian.PutUint16(data, uint16(len(data)))
	return data
}

func TestParseFont(t *testing.T) {
	font, err := ParseFont(testFont())
	require.NoError(t, err)
	assert.Equal(t, 3, font.Height())
	assert.Equal(t, 2, font.Width())
	assert.Equal(t, 'B', rune(font.LastGlyph()))

	_, err = ParseFont(testFont()[:8])
	assert.ErrorIs(t, err, ErrFont)

	bad := testFont()
	bad[3] = 0x04
	_, err = ParseFont(bad)
	assert.ErrorIs(t, err, ErrFont)

	_, err = ParseFont(testFont()[:0x40])
	assert.ErrorIs(t, err, ErrFont)
}

func TestTextWidth(t *testing.T) {
	screen, _, _ := newTestScreen(t)
	assert.Equal(t, 0, screen.TextWidth("AB"), "no font loaded")

	require.NoError(t, screen.LoadFont(Font8x8, testFont()))
	prev := screen.SetFont(Font8x8)
	assert.Equal(t, Font6x8, prev)
	assert.Equal(t, 3, screen.FontHeight())
	assert.Equal(t, 2, screen.FontWidth())

	assert.Equal(t, 5, screen.TextWidth("AB"))
	assert.Equal(t, 5, screen.TextWidth("A\rAB\rA"))
	assert.Equal(t, 2, screen.TextWidth("Az"), "glyphs past the last one have no width")

	screen.SetCharSpacing(1, 0)
	assert.Equal(t, 7, screen.TextWidth("AB"))

	assert.ErrorIs(t, screen.LoadFont(NumFonts, testFont()), ErrFont)
}

func TestPrintText(t *testing.T) {
	screen, _, _ := newTestScreen(t)
	require.NoError(t, screen.LoadFont(Font8x8, testFont()))
	screen.SetFont(Font8x8)
	page, _ := screen.Page(0)

	screen.PrintText("AB", 10, 20, 5, 0)
	assert.Equal(t, []byte{0, 0, 5, 5, 5}, page[at(10, 20):at(15, 20)])
	assert.Equal(t, []byte{0, 5, 0, 5, 0}, page[at(10, 21):at(15, 21)])
	assert.Equal(t, []byte{0, 0, 5, 5, 5}, page[at(10, 22):at(15, 22)])
	assert.NotEmpty(t, screen.DirtyRects())

	screen.PrintText("A", 30, 20, 5, 7)
	assert.Equal(t, []byte{7, 7}, page[at(30, 20):at(32, 20)])
	assert.Equal(t, []byte{7, 5}, page[at(30, 21):at(32, 21)])
	assert.Equal(t, []byte{7, 7}, page[at(30, 22):at(32, 22)])

	screen.SetCharSpacing(0, 1)
	screen.PrintText("B\rB", 40, 20, 6, 0)
	assert.EqualValues(t, 6, page[at(40, 20)])
	assert.EqualValues(t, 6, page[at(40, 24)], "second line starts below the first plus the line offset")
	assert.EqualValues(t, 0, page[at(40, 23)])
}
