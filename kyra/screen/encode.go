package screen

import (
	"github.com/cam-per/kyra/kyra/shp"
)

// EncodeShape packs a w by h region of the current page at (x, y) into a
// shape. The screen's shape format overrides opts.Format.
func (screen *Screen) EncodeShape(x, y, w, h int, opts shp.EncodeOptions) ([]byte, error) {
	buf := make([]byte, w*h)
	screen.CopyRegionToBuffer(screen.curPage, x, y, w, h, buf)
	opts.Format = screen.shapes.Format()
	return shp.Encode(buf, w, h, opts)
}
