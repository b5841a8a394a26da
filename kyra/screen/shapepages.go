package screen

import "fmt"

// SetShapePages selects the occlusion page (layer ids in the low bits, a
// walkable flag in bit 7) and the background page used by priority drawing.
// Rows outside (minY, maxY) are drawn without the priority test. The layer
// queries panic until shape pages are set.
func (screen *Screen) SetShapePages(occlusionPage, backgroundPage, minY, maxY int) error {
	occ, err := screen.Page(occlusionPage)
	if err != nil {
		return err
	}
	bg, err := screen.Page(backgroundPage)
	if err != nil {
		return err
	}
	return screen.SetShapeBuffers(occ, bg, minY, maxY)
}

// SetShapeBuffers is SetShapePages for buffers the screen does not own. Both
// must be full pages.
func (screen *Screen) SetShapeBuffers(occlusion, background []byte, minY, maxY int) error {
	if len(occlusion) != PageSize || len(background) != PageSize {
		return fmt.Errorf("%w: %d and %d bytes", ErrOcclusionSize, len(occlusion), len(background))
	}
	screen.shapePages = [2][]byte{occlusion, background}
	screen.maskMinY = minY
	screen.maskMaxY = maxY
	return nil
}

func (screen *Screen) occlusion() []byte {
	if screen.shapePages[0] == nil {
		panic(ErrNoShapePages)
	}
	return screen.shapePages[0]
}

// ShapeFlag1 reports whether (x, y) is walkable.
func (screen *Screen) ShapeFlag1(x, y int) bool {
	return screen.occlusion()[y*Width+x]&0x80 == 0
}

// ShapeFlag2 returns the layer id at (x, y).
func (screen *Screen) ShapeFlag2(x, y int) int {
	return int(screen.occlusion()[y*Width+x] & 0x7F & 0x87)
}

func (screen *Screen) layerAt(x, y int) int {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return 0
	}
	return screen.ShapeFlag2(x, y)
}

// DrawLayer returns the highest layer in the 16 pixels on the row above a
// sprite's foot point, at least 1 and at most 7.
func (screen *Screen) DrawLayer(x, y int) int {
	layer := 1
	for px := x - 8; px < x+8; px++ {
		layer = max(layer, screen.layerAt(px, y-1))
		if layer >= 7 {
			return 7
		}
	}
	return layer
}

// DrawLayer2 is DrawLayer over the height rows above the foot point.
func (screen *Screen) DrawLayer2(x, y, height int) int {
	layer := 1
	for px := x - 8; px < x+8; px++ {
		for py := y - 1 - height; py < y-1; py++ {
			l := screen.layerAt(px, py)
			if l >= 7 {
				return 7
			}
			layer = max(layer, l)
		}
	}
	return layer
}

// BlockInRegion marks a region walkable.
func (screen *Screen) BlockInRegion(x, y, w, h int) {
	screen.maskRegion(x, y, w, h, func(b byte) byte { return b & 0x7F })
}

// BlockOutRegion marks a region blocked.
func (screen *Screen) BlockOutRegion(x, y, w, h int) {
	screen.maskRegion(x, y, w, h, func(b byte) byte { return b | 0x80 })
}

func (screen *Screen) maskRegion(x, y, w, h int, f func(byte) byte) {
	occ := screen.occlusion()
	r := pageBounds.Intersect(rect(x, y, w, h))
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			occ[py*Width+px] = f(occ[py*Width+px])
		}
	}
}
