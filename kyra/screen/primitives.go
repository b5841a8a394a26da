package screen

import "image"

type CopyFlags int

// CopyNoTransparentCheck copies zero pixels too.
const CopyNoTransparentCheck CopyFlags = 0x01

var pageBounds = image.Rect(0, 0, Width, Height)

// CopyRegion copies a w by h block from (x1, y1) on srcPage to (x2, y2) on
// dstPage, clipping the destination to the page. Zero pixels are skipped
// unless CopyNoTransparentCheck is set.
func (screen *Screen) CopyRegion(x1, y1, x2, y2, w, h, srcPage, dstPage int, flags CopyFlags) {
	if x2 < 0 {
		if x2 <= -w {
			return
		}
		w += x2
		x1 -= x2
		x2 = 0
	} else if x2+w >= Width {
		if x2 > Width {
			return
		}
		w = Width - x2
	}

	if y2 < 0 {
		if y2 <= -h {
			return
		}
		h += y2
		y1 -= y2
		y2 = 0
	} else if y2+h >= Height {
		if y2 > Height {
			return
		}
		h = Height - y2
	}

	src := screen.page(srcPage)
	dst := screen.page(dstPage)
	screen.markPage(dstPage, image.Rect(x2, y2, x2+w, y2+h))

	for y := 0; y < h; y++ {
		s := src[(y1+y)*Width+x1 : (y1+y)*Width+x1+w]
		d := dst[(y2+y)*Width+x2 : (y2+y)*Width+x2+w]
		if flags&CopyNoTransparentCheck != 0 {
			copy(d, s)
			continue
		}
		for i, c := range s {
			if c != 0 {
				d[i] = c
			}
		}
	}
}

// CopyRegionToBuffer copies the page part of a w by h block at (x, y) into
// dst, which is laid out with stride w.
func (screen *Screen) CopyRegionToBuffer(n, x, y, w, h int, dst []byte) {
	stride := w
	off := 0
	if y < 0 {
		off += -y * stride
		h += y
		y = 0
	} else if y+h > Height {
		h = Height - y
	}
	if x < 0 {
		off += -x
		w += x
		x = 0
	} else if x+w > Width {
		w = Width - x
	}
	if w <= 0 || h <= 0 {
		return
	}

	page := screen.page(n)
	for i := 0; i < h; i++ {
		copy(dst[off+i*stride:off+i*stride+w], page[(y+i)*Width+x:])
	}
}

// CopyBlockToPage writes a w by h block with stride w to page n at (x, y).
func (screen *Screen) CopyBlockToPage(n, x, y, w, h int, src []byte) {
	stride := w
	off := 0
	if y < 0 {
		off += -y * stride
		h += y
		y = 0
	} else if y+h > Height {
		h = Height - y
	}
	if x < 0 {
		off += -x
		w += x
		x = 0
	} else if x+w > Width {
		w = Width - x
	}
	if w <= 0 || h <= 0 {
		return
	}

	page := screen.page(n)
	screen.markPage(n, image.Rect(x, y, x+w, y+h))
	for i := 0; i < h; i++ {
		copy(page[(y+i)*Width+x:(y+i)*Width+x+w], src[off+i*stride:])
	}
}

func (screen *Screen) CopyPage(srcPage, dstPage int) {
	copy(screen.page(dstPage), screen.page(srcPage))
	if dstPage == 0 || dstPage == 1 {
		screen.forceFull = true
	}
}

// FillRect fills the inclusive rectangle (x1, y1)-(x2, y2). A negative page
// means the current page. With xored the colour is XORed into the page.
func (screen *Screen) FillRect(x1, y1, x2, y2 int, c byte, n int, xored bool) {
	if n < 0 {
		n = screen.curPage
	}
	r := image.Rect(x1, y1, x2+1, y2+1).Intersect(pageBounds)
	if r.Empty() {
		return
	}

	page := screen.page(n)
	screen.markPage(n, r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := page[y*Width+r.Min.X : y*Width+r.Max.X]
		for i := range row {
			if xored {
				row[i] ^= c
			} else {
				row[i] = c
			}
		}
	}
}

// DrawLine draws a horizontal or vertical run of length pixels on the
// current page.
func (screen *Screen) DrawLine(vertical bool, x, y, length int, c byte) {
	r := image.Rect(x, y, x+length, y+1)
	if vertical {
		r = image.Rect(x, y, x+1, y+length)
	}
	r = r.Intersect(pageBounds)
	if r.Empty() {
		return
	}

	page := screen.page(screen.curPage)
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			page[py*Width+px] = c
		}
	}
	screen.markPage(screen.curPage, r)
}

// DrawClippedLine draws an axis aligned line with both ends clamped to the
// page. Lines that are not horizontal are drawn vertically at x1.
func (screen *Screen) DrawClippedLine(x1, y1, x2, y2 int, c byte) {
	x1, x2 = clamp(x1, 0, Width-1), clamp(x2, 0, Width-1)
	y1, y2 = clamp(y1, 0, Height-1), clamp(y2, 0, Height-1)

	switch {
	case x1 == x2:
		screen.DrawLine(true, x1, min(y1, y2), abs(y1-y2)+1, c)
	default:
		screen.DrawLine(false, min(x1, x2), y1, abs(x1-x2)+1, c)
	}
}

func (screen *Screen) DrawBox(x1, y1, x2, y2 int, c byte) {
	screen.DrawClippedLine(x1, y1, x2, y1, c)
	screen.DrawClippedLine(x1, y1, x1, y2, c)
	screen.DrawClippedLine(x2, y1, x2, y2, c)
	screen.DrawClippedLine(x1, y2, x2, y2, c)
}

// DrawShadedBox draws a two pixel bevel: light on top and right, dark on the
// left and bottom.
func (screen *Screen) DrawShadedBox(x1, y1, x2, y2 int, light, dark byte) {
	screen.FillRect(x1, y1, x2, y1+1, light, -1, false)
	screen.FillRect(x2-1, y1, x2, y2, light, -1, false)

	screen.DrawClippedLine(x1, y1, x1, y2, dark)
	screen.DrawClippedLine(x1+1, y1+1, x1+1, y2-1, dark)
	screen.DrawClippedLine(x1, y2-1, x2-1, y2-1, dark)
	screen.DrawClippedLine(x1, y2, x2, y2, dark)
}

// RectClip moves a w by h rectangle at (x, y) inside the page.
func RectClip(x, y, w, h int) (int, int) {
	if x < 0 {
		x = 0
	} else if x+w >= Width {
		x = Width - w
	}
	if y < 0 {
		y = 0
	} else if y+h >= Height {
		y = Height - h
	}
	return x, y
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func rect(x, y, w, h int) image.Rectangle {
	return image.Rect(x, y, x+w, y+h)
}
