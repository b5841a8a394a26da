package screen

// Mode selects how a shape pixel is combined with the page. It is bits 8-13
// of the draw flags.
type Mode uint8

const (
	modeRemap    Mode = 0x01
	modeShimmer  Mode = 0x02
	modeColor    Mode = 0x04
	modePriority Mode = 0x08
	modeBlend    Mode = 0x10

	// ModeLast is the highest defined mode.
	ModeLast Mode = 24
)

func modeOf(flags DrawFlags) Mode { return Mode(flags>>8) & 0x3F }

func (mode Mode) Valid() bool { return mode <= ModeLast }

// Tables holds the lookup tables modes read.
type Tables struct {
	// Remap is applied RemapCount times.
	Remap      []byte
	RemapCount int
	// Color maps shape colours first.
	Color []byte
	// Blend and BlendMix emulate translucency: a Blend entry without bit 7
	// selects a 256 byte row of BlendMix indexed by the page colour.
	Blend    []byte
	BlendMix []byte
}

func (tables *Tables) chain(c byte) byte {
	for i := 0; i < tables.RemapCount; i++ {
		c = tables.Remap[c]
	}
	return c
}

func (tables *Tables) color(c byte) byte {
	if int(c) < len(tables.Color) {
		return tables.Color[c]
	}
	return c
}

func (tables *Tables) blend(c, dst byte) byte {
	t := tables.Blend[c]
	if t&0x80 == 0 {
		return tables.BlendMix[int(t)<<8|int(dst)]
	}
	return c
}

// Sample is what a mode may read around the destination pixel.
type Sample struct {
	Dst byte
	// Shimmer is the page pixel at the shimmer clock offset.
	Shimmer byte
	// Occluded is set when the draw layer is below the occlusion page.
	Occluded   bool
	Background byte
}

// Plot resolves shape colour c against s. It reports false when the page
// must be left as is.
func (mode Mode) Plot(c byte, s Sample, tables *Tables, clock *ShimmerClock) (byte, bool) {
	if !mode.Valid() {
		return s.Dst, false
	}

	if mode&modePriority != 0 && s.Occluded {
		c = s.Background
	} else {
		switch {
		case mode&(modeRemap|modeShimmer) == modeRemap|modeShimmer:
			c = s.Dst
		case mode&modeShimmer != 0:
			if clock.Tick() {
				c = s.Shimmer
			} else if mode&modeColor != 0 {
				c = tables.color(c)
			}
		case mode&modeColor != 0:
			c = tables.color(c)
		}
		if mode&modeBlend != 0 {
			c = tables.blend(c, s.Dst)
		}
		if mode&modeRemap != 0 {
			c = tables.chain(c)
		}
	}

	if mode&modeRemap != 0 && c == 0 {
		return s.Dst, false
	}
	return c, true
}

var shimmerOffsets = [8]int{1, 3, 2, 5, 4, 3, 2, 1}

// ShimmerClock drives the shimmer modes. The offset index carries over from
// one draw call to the next so consecutive shapes wobble differently.
type ShimmerClock struct {
	index  int
	offset int
	phase  int
	step   int
}

func NewShimmerClock() ShimmerClock {
	return ShimmerClock{offset: shimmerOffsets[0]}
}

// Advance moves to the next offset and restarts the phase at full speed.
func (clock *ShimmerClock) Advance() {
	clock.index = (clock.index + 1) & 7
	clock.offset = shimmerOffsets[clock.index]
	clock.phase = 0
	clock.step = 0x100
}

// SetStep sets the phase increment per pixel; 0x100 samples every pixel.
func (clock *ShimmerClock) SetStep(step int) { clock.step = step }

func (clock *ShimmerClock) Offset() int { return clock.offset }

func (clock *ShimmerClock) Index() int { return clock.index }

// Tick advances the phase by one pixel and reports whether this pixel takes
// the shifted sample.
func (clock *ShimmerClock) Tick() bool {
	t := clock.phase + clock.step
	if t&0xFF00 != 0 {
		clock.phase = t & 0xFF
		return true
	}
	clock.phase = t
	return false
}
