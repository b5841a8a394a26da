// Package screen is the paletted page store the engine draws into: pages,
// palettes, clip windows, blit primitives, shape compositing, fonts and the
// hand-off to a host display.
package screen

import (
	"errors"
	"fmt"
	"image"

	"github.com/cam-per/kyra/internal/logging"
	"github.com/cam-per/kyra/kyra/pal"
	"github.com/cam-per/kyra/kyra/shp"
)

const (
	Width    = 320
	Height   = 200
	PageSize = Width * Height

	DefaultPages = 16
	NumPalettes  = 4

	maxDirtyRects = 50
)

var (
	ErrPageRange     = errors.New("screen: page out of range")
	ErrDimRange      = errors.New("screen: dim out of range")
	ErrPaletteRange  = errors.New("screen: palette out of range")
	ErrMissingTable  = errors.New("screen: missing lookup table")
	ErrNoShapePages  = errors.New("screen: shape pages not set")
	ErrOcclusionSize = errors.New("screen: occlusion buffer size mismatch")
	ErrFont          = errors.New("screen: invalid font")
	ErrBitmap        = errors.New("screen: invalid bitmap")
)

// Dim is a clip window. SX and W count 8 pixel columns.
type Dim struct {
	SX, SY int
	W, H   int
	Col1   uint8
	Col2   uint8
}

// Rect returns the window in page pixels.
func (dim Dim) Rect() image.Rectangle {
	return image.Rect(dim.SX<<3, dim.SY, (dim.SX+dim.W)<<3, dim.SY+dim.H)
}

var Kyra1Dims = []Dim{
	{0x00, 0x00, 0x28, 0xC8, 0x0F, 0x0C},
	{0x08, 0x48, 0x18, 0x38, 0x0F, 0x0C},
	{0x01, 0x08, 0x26, 0x80, 0x0F, 0x0C},
	{0x00, 0xC2, 0x28, 0x06, 0x0F, 0x0C},
	{0x00, 0x90, 0x28, 0x38, 0x04, 0x0C},
	{0x01, 0x94, 0x26, 0x30, 0x04, 0x1B},
	{0x00, 0x90, 0x28, 0x38, 0x0F, 0x0D},
	{0x01, 0x96, 0x26, 0x32, 0x0F, 0x0D},
	{0x00, 0x00, 0x28, 0x88, 0x0F, 0x0C},
	{0x01, 0x20, 0x26, 0x80, 0x0F, 0x0C},
	{0x03, 0x28, 0x22, 0x46, 0x0F, 0x0D},
}

var Kyra2Dims = []Dim{
	{0x00, 0x00, 0x28, 0xC8, 0xC7, 0xCF},
	{0x08, 0x48, 0x18, 0x38, 0xC7, 0xCF},
	{0x00, 0x00, 0x28, 0x90, 0xC7, 0xCF},
	{0x00, 0xC2, 0x28, 0x06, 0xC7, 0xCF},
	{0x00, 0x90, 0x28, 0x38, 0x96, 0xCF},
	{0x01, 0x94, 0x26, 0x30, 0x96, 0x1B},
	{0x00, 0x90, 0x28, 0x38, 0xC7, 0xCC},
	{0x01, 0x96, 0x26, 0x32, 0xC7, 0xCC},
	{0x00, 0x00, 0x28, 0x88, 0xC7, 0xCF},
	{0x00, 0x08, 0x28, 0xB8, 0xC7, 0xCF},
	{0x01, 0x28, 0x26, 0x46, 0xC7, 0xCC},
	{0x0A, 0x96, 0x14, 0x30, 0x19, 0xF0},
}

type Config struct {
	// Pages defaults to DefaultPages.
	Pages int
	// Dims defaults to Kyra1Dims.
	Dims        []Dim
	ShapeFormat shp.Format
	Logger      *logging.Logger
	// Host may be nil for headless use.
	Host Host
}

type Screen struct {
	pages   [][]byte
	curPage int

	palettes      [NumPalettes]pal.Palette
	screenPalette pal.Palette

	dims   []Dim
	curDim int

	shapePages     [2][]byte
	maskMinY       int
	maskMaxY       int
	shimmer        ShimmerClock
	shapes         *shp.Decoder
	colLUT, rowLUT []int

	fonts      [NumFonts]*Font
	curFont    FontID
	textColors [16]byte
	charWidth  int
	charOffset int

	dirty     []image.Rectangle
	forceFull bool
	host      Host
	log       *logging.Logger
}

func New(cfg Config) *Screen {
	if cfg.Pages <= 0 {
		cfg.Pages = DefaultPages
	}
	if cfg.Dims == nil {
		cfg.Dims = Kyra1Dims
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	screen := &Screen{
		pages:         make([][]byte, cfg.Pages),
		screenPalette: pal.New(256),
		dims:          cfg.Dims,
		maskMinY:      -1,
		maskMaxY:      Height + 1,
		shimmer:       NewShimmerClock(),
		shapes:        shp.NewDecoder(cfg.ShapeFormat),
		host:          cfg.Host,
		log:           cfg.Logger,
	}
	for i := range screen.pages {
		screen.pages[i] = make([]byte, PageSize)
	}
	for i := range screen.palettes {
		screen.palettes[i] = pal.New(256)
	}
	for i := range screen.textColors {
		screen.textColors[i] = byte(i)
	}
	screen.SetScreenPalette(screen.palettes[0])
	return screen
}

func (screen *Screen) NumPages() int { return len(screen.pages) }

// Page returns the pixels of page n. The slice stays owned by the screen.
func (screen *Screen) Page(n int) ([]byte, error) {
	if n < 0 || n >= len(screen.pages) {
		return nil, fmt.Errorf("%w: %d", ErrPageRange, n)
	}
	return screen.pages[n], nil
}

func (screen *Screen) page(n int) []byte {
	if n < 0 || n >= len(screen.pages) {
		panic(fmt.Sprintf("screen: page %d out of range", n))
	}
	return screen.pages[n]
}

func (screen *Screen) CurPage() int { return screen.curPage }

// SetCurPage selects the page drawing primitives target and returns the
// previous one.
func (screen *Screen) SetCurPage(n int) (int, error) {
	if n < 0 || n >= len(screen.pages) {
		return screen.curPage, fmt.Errorf("%w: %d", ErrPageRange, n)
	}
	prev := screen.curPage
	screen.curPage = n
	return prev, nil
}

func (screen *Screen) ClearPage(n int) {
	if n == 0 || n == 1 {
		screen.forceFull = true
	}
	clear(screen.page(n))
}

func (screen *Screen) ClearCurPage() { screen.ClearPage(screen.curPage) }

func (screen *Screen) PagePixel(n, x, y int) byte {
	return screen.page(n)[y*Width+x]
}

func (screen *Screen) SetPagePixel(n, x, y int, c byte) {
	if n == 0 || n == 1 {
		screen.addDirtyRect(x, y, 1, 1)
	}
	screen.page(n)[y*Width+x] = c
}

// Dim returns clip window n.
func (screen *Screen) Dim(n int) (Dim, error) {
	if n < 0 || n >= len(screen.dims) {
		return Dim{}, fmt.Errorf("%w: %d", ErrDimRange, n)
	}
	return screen.dims[n], nil
}

func (screen *Screen) SetDims(dims []Dim) { screen.dims = dims }

func (screen *Screen) CurDim() int { return screen.curDim }

func (screen *Screen) SetScreenDim(n int) error {
	if _, err := screen.Dim(n); err != nil {
		return err
	}
	screen.curDim = n
	return nil
}

func (screen *Screen) Shimmer() *ShimmerClock { return &screen.shimmer }

func (screen *Screen) ShapeFormat() shp.Format { return screen.shapes.Format() }

// Palette returns palette n (0 is the working palette).
func (screen *Screen) Palette(n int) (pal.Palette, error) {
	if n < 0 || n >= NumPalettes {
		return nil, fmt.Errorf("%w: %d", ErrPaletteRange, n)
	}
	return screen.palettes[n], nil
}

func (screen *Screen) CopyPalette(dst, src int) error {
	to, err := screen.Palette(dst)
	if err != nil {
		return err
	}
	from, err := screen.Palette(src)
	if err != nil {
		return err
	}
	to.Copy(from)
	return nil
}

// SetScreenPalette makes p the displayed palette.
func (screen *Screen) SetScreenPalette(p pal.Palette) {
	screen.screenPalette.Copy(p)
	if screen.host != nil {
		screen.host.SetPalette(screen.screenPalette.Expand())
	}
}

func (screen *Screen) ScreenPalette() pal.Palette { return screen.screenPalette }

// SetPaletteIndex changes one entry of the working palette and shows it.
func (screen *Screen) SetPaletteIndex(index int, r, g, b uint8) error {
	if err := screen.palettes[0].Set(index, r, g, b); err != nil {
		return err
	}
	screen.SetScreenPalette(screen.palettes[0])
	return nil
}

// RealPalette returns palette n expanded to 8 bit channels.
func (screen *Screen) RealPalette(n int) ([]byte, error) {
	p, err := screen.Palette(n)
	if err != nil {
		return nil, err
	}
	return p.Expand(), nil
}

func (screen *Screen) addDirtyRect(x, y, w, h int) {
	if screen.forceFull || len(screen.dirty) >= maxDirtyRects {
		screen.forceFull = true
		return
	}

	r := image.Rect(x, y, x+w, y+h).Intersect(image.Rect(0, 0, Width, Height))
	if r.Empty() {
		return
	}

	for _, d := range screen.dirty {
		if r.In(d) {
			return
		}
	}
	kept := screen.dirty[:0]
	for _, d := range screen.dirty {
		if !d.In(r) {
			kept = append(kept, d)
		}
	}
	screen.dirty = append(kept, r)
}

func (screen *Screen) markPage(n int, r image.Rectangle) {
	if n == 0 || n == 1 {
		screen.addDirtyRect(r.Min.X, r.Min.Y, r.Dx(), r.Dy())
	}
}

// MarkDirty records r as changed on page n. Only pages 0 and 1 are tracked.
func (screen *Screen) MarkDirty(n int, r image.Rectangle) { screen.markPage(n, r) }

// DirtyRects returns the areas of page 0 changed since the last update.
func (screen *Screen) DirtyRects() []image.Rectangle { return screen.dirty }

// UpdateScreen pushes the changed parts of page 0 to the host.
func (screen *Screen) UpdateScreen() error {
	defer func() {
		screen.forceFull = false
		screen.dirty = screen.dirty[:0]
	}()
	if screen.host == nil {
		return nil
	}

	page := screen.pages[0]
	if screen.forceFull {
		screen.host.CopyRect(page, Width, image.Rect(0, 0, Width, Height))
	} else {
		for _, r := range screen.dirty {
			screen.host.CopyRect(page, Width, r)
		}
	}
	return screen.host.Update()
}
