package screen

import (
	"fmt"
)

// WSA rect plot functions.
const (
	PlotOpaque           = 0
	PlotBlend            = 1
	PlotTransparent      = 4
	PlotTransparentBlend = 5
	PlotOccluded         = 8
	PlotOccludedAlt      = 9
	PlotOccludedMasked   = 12
	PlotOccludedMaskAlt  = 13
)

type WsaRectOptions struct {
	Plot  int
	Layer int
	// Blend entries other than 0xFF select a 256 byte row of BlendMix.
	Blend    []byte
	BlendMix []byte
}

// CopyWsaRect blits a w by h frame to the current page at (x, y), clipped to
// window dim.
func (screen *Screen) CopyWsaRect(x, y, w, h, dim int, src []byte, opts WsaRectOptions) error {
	window, err := screen.Dim(dim)
	if err != nil {
		return err
	}
	if len(src) < w*h {
		return fmt.Errorf("screen: wsa rect source of %d bytes for %dx%d", len(src), w, h)
	}

	switch opts.Plot {
	case PlotOpaque, PlotTransparent:
	case PlotBlend, PlotTransparentBlend:
		if len(opts.Blend) < 256 || len(opts.BlendMix) < 0xFF00 {
			return fmt.Errorf("%w: wsa blend tables", ErrMissingTable)
		}
	case PlotOccluded, PlotOccludedAlt, PlotOccludedMasked, PlotOccludedMaskAlt:
		if screen.shapePages[0] == nil {
			return ErrNoShapePages
		}
	default:
		screen.log.WarnOnce(fmt.Sprintf("wsa-plot-%d", opts.Plot), "copy wsa rect: unknown plot function %d", opts.Plot)
		return nil
	}

	box := rect(x, y, w, h)
	vis := box.Intersect(window.Rect()).Intersect(pageBounds)
	if vis.Empty() {
		return nil
	}

	page := screen.page(screen.curPage)
	screen.markPage(screen.curPage, vis)

	for py := vis.Min.Y; py < vis.Max.Y; py++ {
		row := src[(py-y)*w+vis.Min.X-x : (py-y)*w+vis.Max.X-x]
		base := py*Width + vis.Min.X
		inBand := py > screen.maskMinY && py < screen.maskMaxY

		for i, d := range row {
			o := base + i
			switch opts.Plot {
			case PlotOpaque:
				page[o] = d
			case PlotBlend:
				page[o] = wsaBlend(d, page[o], &opts)
			case PlotTransparent:
				if d != 0 {
					page[o] = d
				}
			case PlotTransparentBlend:
				if d != 0 {
					page[o] = wsaBlend(d, page[o], &opts)
				}
			case PlotOccluded, PlotOccludedAlt:
				if screen.wsaOccluded(o, opts.Layer, inBand) {
					d = screen.shapePages[1][o]
				}
				page[o] = d
			case PlotOccludedMasked, PlotOccludedMaskAlt:
				if d == 0 || screen.wsaOccluded(o, opts.Layer, inBand) {
					d = screen.shapePages[1][o]
				}
				page[o] = d
			}
		}
	}
	return nil
}

func wsaBlend(d, dst byte, opts *WsaRectOptions) byte {
	if t := opts.Blend[d]; t != 0xFF {
		return opts.BlendMix[int(t)<<8|int(dst)]
	}
	return d
}

func (screen *Screen) wsaOccluded(o, layer int, inBand bool) bool {
	return inBand && layer < int(screen.shapePages[0][o]&7)
}
