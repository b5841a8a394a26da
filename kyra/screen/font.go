package screen

import (
	"encoding/binary"
	"fmt"
)

type FontID int

const (
	Font6x8 FontID = iota
	Font8x8
	Font8Fat
	FontInit
	NumFonts
)

const fontSignature = 0x500

// Font is a parsed FNT file: 4 bit glyphs with per glyph width and vertical
// placement.
type Font struct {
	data         []byte
	descOffset   int
	bitmapOffset int
	widthOffset  int
	heightOffset int
	lastGlyph    int
}

func ParseFont(data []byte) (*Font, error) {
	if len(data) < 0xE {
		return nil, fmt.Errorf("%w: %d bytes", ErrFont, len(data))
	}
	if sig := binary.LittleEndian.Uint16(data[2:]); sig != fontSignature {
		return nil, fmt.Errorf("%w: signature %#04x", ErrFont, sig)
	}

	font := &Font{
		data:         data,
		descOffset:   int(binary.LittleEndian.Uint16(data[4:])),
		bitmapOffset: int(binary.LittleEndian.Uint16(data[6:])),
		widthOffset:  int(binary.LittleEndian.Uint16(data[8:])),
		heightOffset: int(binary.LittleEndian.Uint16(data[0xC:])),
	}
	if font.descOffset+6 > len(data) {
		return nil, fmt.Errorf("%w: descriptor at %d", ErrFont, font.descOffset)
	}
	font.lastGlyph = int(data[font.descOffset+3])

	glyphs := font.lastGlyph + 1
	if font.bitmapOffset+glyphs*2 > len(data) ||
		font.widthOffset+glyphs > len(data) ||
		font.heightOffset+glyphs*2 > len(data) {
		return nil, fmt.Errorf("%w: glyph tables truncated", ErrFont)
	}
	return font, nil
}

func (font *Font) Height() int { return int(font.data[font.descOffset+4]) }

func (font *Font) Width() int { return int(font.data[font.descOffset+5]) }

func (font *Font) LastGlyph() int { return font.lastGlyph }

func (font *Font) glyphWidth(c byte) int {
	if int(c) > font.lastGlyph {
		return 0
	}
	return int(font.data[font.widthOffset+int(c)])
}

func (screen *Screen) LoadFont(id FontID, data []byte) error {
	if id < 0 || id >= NumFonts {
		return fmt.Errorf("%w: id %d", ErrFont, id)
	}
	font, err := ParseFont(data)
	if err != nil {
		return err
	}
	screen.fonts[id] = font
	return nil
}

// SetFont selects the font and returns the previous one.
func (screen *Screen) SetFont(id FontID) FontID {
	prev := screen.curFont
	screen.curFont = id
	return prev
}

func (screen *Screen) font() *Font {
	if screen.curFont < 0 || screen.curFont >= NumFonts {
		return nil
	}
	return screen.fonts[screen.curFont]
}

func (screen *Screen) FontHeight() int {
	if font := screen.font(); font != nil {
		return font.Height()
	}
	return 0
}

func (screen *Screen) FontWidth() int {
	if font := screen.font(); font != nil {
		return font.Width()
	}
	return 0
}

// SetCharSpacing sets the extra pixels after each glyph and between lines.
func (screen *Screen) SetCharSpacing(width, lineOffset int) {
	screen.charWidth, screen.charOffset = width, lineOffset
}

func (screen *Screen) CharWidth(c byte) int {
	font := screen.font()
	if font == nil || int(c) > font.lastGlyph {
		return 0
	}
	return font.glyphWidth(c) + screen.charWidth
}

// TextWidth returns the width of the widest '\r' separated line of s.
func (screen *Screen) TextWidth(s string) int {
	cur, widest := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' {
			widest = max(widest, cur)
			cur = 0
			continue
		}
		cur += screen.CharWidth(s[i])
	}
	return max(widest, cur)
}

// SetTextColor copies cmap into text colour slots a..b.
func (screen *Screen) SetTextColor(cmap []byte, a, b int) {
	copy(screen.textColors[a:b+1], cmap)
}

// PrintText draws s on the current page with fg for glyph pixels and bg
// for the background; colour 0 is transparent.
func (screen *Screen) PrintText(s string, x, y int, fg, bg byte) {
	screen.SetTextColor([]byte{bg, fg}, 0, 1)

	font := screen.font()
	if font == nil {
		return
	}
	x, y = max(x, 0), max(y, 0)
	if x >= Width || y >= Height {
		return
	}

	startX := x
	lineHeight := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\r' {
			x = startX
			y += lineHeight + screen.charOffset
			continue
		}

		w := screen.CharWidth(c)
		if x+w > Width {
			x = startX
			y += lineHeight + screen.charOffset
			if y >= Height {
				break
			}
		}
		screen.drawChar(font, c, x, y)
		lineHeight = font.Height()
		x += w
	}
}

func (screen *Screen) drawChar(font *Font, c byte, x, y int) {
	if int(c) > font.lastGlyph {
		return
	}
	bitmap := int(binary.LittleEndian.Uint16(font.data[font.bitmapOffset+int(c)*2:]))
	if bitmap == 0 {
		return
	}
	w := font.glyphWidth(c)
	h := font.Height()
	if w == 0 || x+w > Width || h == 0 || y+h > Height {
		return
	}

	top := int(font.data[font.heightOffset+int(c)*2])
	rows := int(font.data[font.heightOffset+int(c)*2+1])
	if top+rows > h || bitmap+rows*((w+1)/2) > len(font.data) {
		return
	}

	page := screen.page(screen.curPage)
	src := font.data[bitmap:]
	for row := 0; row < h; row++ {
		dst := page[(y+row)*Width+x : (y+row)*Width+x+w]
		glyphRow := row >= top && row < top+rows
		var b byte
		for i := range dst {
			col := screen.textColors[0]
			if glyphRow {
				if i&1 == 0 {
					b = src[0]
					src = src[1:]
					col = screen.textColors[b&0xF]
				} else {
					col = screen.textColors[b>>4]
				}
			}
			if col != 0 {
				dst[i] = col
			}
		}
	}
	screen.markPage(screen.curPage, rect(x, y, w, h))
}
