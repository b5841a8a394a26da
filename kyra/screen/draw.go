package screen

import (
	"fmt"
	"image"
)

type DrawFlags uint32

const (
	DrawXFlip          DrawFlags = 0x0001
	DrawYFlip          DrawFlags = 0x0002
	DrawScale          DrawFlags = 0x0004
	DrawWindowRelative DrawFlags = 0x0010
	DrawCenter         DrawFlags = 0x0020
	DrawRemap          DrawFlags = 0x0100
	DrawShimmer        DrawFlags = 0x0200
	DrawColorTable     DrawFlags = 0x0400
	DrawPriority       DrawFlags = 0x0800
	DrawBlend          DrawFlags = 0x1000
	DrawMorph          DrawFlags = 0x4000
	DrawColor          DrawFlags = 0x8000
)

// DrawOptions carries the arguments some flags need. Only the fields of set
// flags are read.
type DrawOptions struct {
	// DrawRemap. A zero count drops the flag.
	Remap      []byte
	RemapCount int
	// DrawColor. Shapes with an embedded table use it when this is nil.
	Color []byte
	// DrawBlend.
	Blend    []byte
	BlendMix []byte
	// DrawMorph overrides the shimmer step.
	ShimmerStep int
	// DrawPriority.
	Layer int
	// DrawScale, 8.8 fixed point.
	ScaleX, ScaleY int
}

func (opts *DrawOptions) tables(flags DrawFlags, embedded []byte) (Tables, DrawFlags, error) {
	var tables Tables

	if flags&DrawRemap != 0 {
		if opts.RemapCount == 0 {
			flags &^= DrawRemap
		} else if len(opts.Remap) < 256 || opts.RemapCount < 0 {
			return tables, flags, fmt.Errorf("%w: remap table of %d entries", ErrMissingTable, len(opts.Remap))
		} else {
			tables.Remap, tables.RemapCount = opts.Remap, opts.RemapCount
		}
	}

	if flags&DrawColor != 0 {
		if opts.Color == nil {
			return tables, flags, fmt.Errorf("%w: colour table", ErrMissingTable)
		}
		tables.Color = opts.Color
	} else if embedded != nil {
		tables.Color = embedded
	}
	if flags&DrawColorTable != 0 && tables.Color == nil {
		return tables, flags, fmt.Errorf("%w: colour table", ErrMissingTable)
	}

	if flags&DrawBlend != 0 {
		if len(opts.Blend) < 256 || len(opts.BlendMix) < 0x8000 {
			return tables, flags, fmt.Errorf("%w: blend tables of %d and %d entries", ErrMissingTable, len(opts.Blend), len(opts.BlendMix))
		}
		tables.Blend, tables.BlendMix = opts.Blend, opts.BlendMix
	}
	return tables, flags, nil
}

// DrawShape decodes a shape and composites it onto page n at (x, y) inside
// clip window dim. Shapes that scale to nothing or fall outside the window
// draw nothing and return nil, as do unknown modes, which are logged once.
func (screen *Screen) DrawShape(n int, data []byte, x, y, dim int, flags DrawFlags, opts *DrawOptions) error {
	if data == nil {
		return nil
	}
	if opts == nil {
		opts = &DrawOptions{}
	}
	page, err := screen.Page(n)
	if err != nil {
		return err
	}
	window, err := screen.Dim(dim)
	if err != nil {
		return err
	}

	shape, pixels, err := screen.shapes.Decode(data)
	if err != nil {
		return fmt.Errorf("draw shape: %w", err)
	}
	if shape.HasTable() {
		flags |= DrawColorTable
	}

	tables, flags, err := opts.tables(flags, shape.Table)
	if err != nil {
		return err
	}

	mode := modeOf(flags)
	if !mode.Valid() {
		screen.log.WarnOnce(fmt.Sprintf("draw-mode-%d", mode), "draw shape: unknown pixel mode %d", mode)
		return nil
	}
	if mode&modePriority != 0 {
		if screen.shapePages[0] == nil {
			return ErrNoShapePages
		}
		if len(screen.shapePages[0]) != len(page) || len(screen.shapePages[1]) != len(page) {
			return fmt.Errorf("%w: page %d bytes", ErrOcclusionSize, len(page))
		}
	}

	if flags&DrawShimmer != 0 {
		screen.shimmer.Advance()
	}
	if flags&DrawMorph != 0 {
		screen.shimmer.SetStep(opts.ShimmerStep)
	}

	w, h := int(shape.Width), int(shape.Height)
	scaleX, scaleY := 0x100, 0x100
	if flags&DrawScale != 0 {
		scaleX, scaleY = opts.ScaleX, opts.ScaleY
	}
	sw, sh := w*scaleX>>8, h*scaleY>>8
	if sw <= 0 || sh <= 0 {
		return nil
	}

	clip := window.Rect().Intersect(pageBounds)
	if flags&DrawWindowRelative != 0 {
		x += window.SX << 3
		y += window.SY
	}
	if flags&DrawCenter != 0 {
		x -= sw >> 1
		y -= sh >> 1
	}

	box := image.Rect(x, y, x+sw, y+sh)
	vis := box.Intersect(clip)
	if vis.Empty() {
		return nil
	}

	screen.colLUT = sourceIndex(screen.colLUT, vis.Min.X-box.Min.X, vis.Dx(), w, scaleX, flags&DrawXFlip != 0)
	screen.rowLUT = sourceIndex(screen.rowLUT, vis.Min.Y-box.Min.Y, vis.Dy(), h, scaleY, flags&DrawYFlip != 0)
	screen.markPage(n, vis)

	sample := Sample{}
	offset := screen.shimmer.Offset()
	for j, sy := range screen.rowLUT {
		py := vis.Min.Y + j
		rowMode := mode
		if flags&DrawPriority != 0 && !(py > screen.maskMinY && py < screen.maskMaxY) {
			rowMode &^= modePriority
		}

		src := pixels[sy*w : sy*w+w]
		base := py*Width + vis.Min.X
		for i, sx := range screen.colLUT {
			c := src[sx]
			if c == 0 {
				continue
			}
			o := base + i
			sample.Dst = page[o]
			if rowMode&modeShimmer != 0 {
				sample.Shimmer = sample.Dst
				if o+offset < len(page) {
					sample.Shimmer = page[o+offset]
				}
			}
			if rowMode&modePriority != 0 {
				sample.Occluded = opts.Layer < int(screen.shapePages[0][o]&0x7F&0x87)
				sample.Background = screen.shapePages[1][o]
			}
			if v, ok := rowMode.Plot(c, sample, &tables, &screen.shimmer); ok {
				page[o] = v
			}
		}
	}
	return nil
}

// sourceIndex maps count destination pixels, starting skip pixels into the
// scaled span, to source indices of a size pixel span.
func sourceIndex(lut []int, skip, count, size, scale int, flip bool) []int {
	if cap(lut) < count {
		lut = make([]int, count)
	}
	lut = lut[:count]
	for i := range lut {
		s := min(((skip+i)<<8)/scale, size-1)
		if flip {
			s = size - 1 - s
		}
		lut[i] = s
	}
	return lut
}
