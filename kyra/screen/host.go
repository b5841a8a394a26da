package screen

import (
	"image"
	"image/color"
)

// Host is the display surface page 0 is presented on.
type Host interface {
	// SetPalette receives 256 RGB triples with 8 bit channels.
	SetPalette(rgb []byte)
	// CopyRect copies r from a page with the given stride.
	CopyRect(src []byte, stride int, r image.Rectangle)
	// Update shows what has been copied so far.
	Update() error
}

// ImageHost is a headless Host backed by an image.Paletted.
type ImageHost struct {
	img     *image.Paletted
	Updates int
}

func NewImageHost() *ImageHost {
	return &ImageHost{
		img: image.NewPaletted(image.Rect(0, 0, Width, Height), make(color.Palette, 256)),
	}
}

func (host *ImageHost) SetPalette(rgb []byte) {
	for i := range host.img.Palette {
		if i*3+2 >= len(rgb) {
			host.img.Palette[i] = color.RGBA{A: 0xFF}
			continue
		}
		host.img.Palette[i] = color.RGBA{rgb[i*3], rgb[i*3+1], rgb[i*3+2], 0xFF}
	}
}

func (host *ImageHost) CopyRect(src []byte, stride int, r image.Rectangle) {
	r = r.Intersect(host.img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(host.img.Pix[y*host.img.Stride+r.Min.X:y*host.img.Stride+r.Max.X], src[y*stride+r.Min.X:y*stride+r.Max.X])
	}
}

func (host *ImageHost) Update() error {
	host.Updates++
	return nil
}

// Snapshot returns a copy of the displayed image.
func (host *ImageHost) Snapshot() *image.Paletted {
	img := image.NewPaletted(host.img.Rect, append(color.Palette(nil), host.img.Palette...))
	copy(img.Pix, host.img.Pix)
	return img
}

// PageImage renders page n with the current screen palette.
func (screen *Screen) PageImage(n int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, Width, Height), screen.screenPalette.ColorPalette())
	copy(img.Pix, screen.page(n))
	return img
}
