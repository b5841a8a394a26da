package wsa

import (
	"fmt"
	"image"

	"github.com/cam-per/kyra/kyra/delta"
	"github.com/cam-per/kyra/kyra/frame4"
	"github.com/cam-per/kyra/kyra/screen"
)

// Surface is what a movie is displayed on. *screen.Screen implements it.
type Surface interface {
	Page(n int) ([]byte, error)
	CurPage() int
	SetCurPage(n int) (int, error)
	MarkDirty(n int, r image.Rectangle)
	CopyWsaRect(x, y, w, h, dim int, src []byte, opts screen.WsaRectOptions) error
}

type DisplayOptions struct {
	Page int
	X, Y int
	// Flags apply to offscreen movies: bits 12-15 select the CopyWsaRect
	// plot function and bits 0-7 the draw layer.
	Flags uint16
	// Blend tables for the blending plot functions.
	Blend    []byte
	BlendMix []byte
}

func (opts *DisplayOptions) rect() screen.WsaRectOptions {
	return screen.WsaRectOptions{
		Plot:     int(opts.Flags&0xFF00) >> 12,
		Layer:    int(opts.Flags & 0xFF),
		Blend:    opts.Blend,
		BlendMix: opts.BlendMix,
	}
}

type applyFunc func(d []byte, noXor bool) error

// Display brings frame to the surface. The movie walks from the frame it
// last displayed, in whichever direction around the loop takes fewer
// deltas; the result always equals a replay from the first frame.
func (movie *Movie) Display(surface Surface, frame int, opts DisplayOptions) error {
	if !movie.opened {
		return ErrNotOpen
	}
	if frame < 0 || frame >= movie.NumFrames() {
		return fmt.Errorf("%w: %d of %d", ErrFrameRange, frame, movie.NumFrames())
	}

	w, h := movie.Width(), movie.Height()
	if movie.offscreen != nil {
		if err := movie.seek(frame, movie.applyOffscreen); err != nil {
			return err
		}
		prev := surface.CurPage()
		if _, err := surface.SetCurPage(opts.Page); err != nil {
			return err
		}
		defer surface.SetCurPage(prev)
		return surface.CopyWsaRect(opts.X, opts.Y, w, h, 0, movie.offscreen, opts.rect())
	}

	page, err := surface.Page(opts.Page)
	if err != nil {
		return err
	}
	if opts.X < 0 || opts.Y < 0 || opts.X+w > screen.Width || (opts.Y+h)*screen.Width > len(page) {
		return fmt.Errorf("%w: %dx%d at (%d, %d)", ErrPlacement, w, h, opts.X, opts.Y)
	}
	dst := page[opts.Y*screen.Width+opts.X:]
	err = movie.seek(frame, func(d []byte, noXor bool) error {
		return delta.ApplyPage(dst, d, screen.Width, w, h, noXor)
	})
	surface.MarkDirty(opts.Page, image.Rect(opts.X, opts.Y, opts.X+w, opts.Y+h))
	return err
}

// Frame decodes frame into the offscreen buffer and returns a copy of it.
func (movie *Movie) Frame(frame int) ([]byte, error) {
	if !movie.opened {
		return nil, ErrNotOpen
	}
	if movie.offscreen == nil {
		return nil, ErrMode
	}
	if frame < 0 || frame >= movie.NumFrames() {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameRange, frame, movie.NumFrames())
	}
	if err := movie.seek(frame, movie.applyOffscreen); err != nil {
		return nil, err
	}
	return append([]byte(nil), movie.offscreen...), nil
}

func (movie *Movie) applyOffscreen(d []byte, noXor bool) error {
	return delta.Apply(movie.offscreen, d, noXor)
}

// hops returns the direction and number of deltas between the current
// frame and target.
func (movie *Movie) hops(target int) (step, count int) {
	cur, n := movie.current, movie.NumFrames()
	diff := max(cur-target, target-cur)
	if cur < target {
		count = n - target + cur
		if diff > count {
			return -1, count
		}
		return 1, diff
	}
	count = n - cur + target
	if count >= diff {
		return -1, diff
	}
	return 1, count
}

// seek applies deltas until the destination shows target. The cursor
// follows every applied delta so a failed walk leaves it consistent with
// the destination.
func (movie *Movie) seek(target int, apply applyFunc) error {
	n := movie.NumFrames()
	if movie.current == n {
		if !movie.noFirstFrame {
			if err := apply(movie.delta, movie.flags&FlagXor == 0); err != nil {
				return fmt.Errorf("wsa: first frame: %w", err)
			}
		}
		movie.current = 0
	}

	step, count := movie.hops(target)
	cf := movie.current
	for ; count > 0; count-- {
		if step > 0 {
			cf++
			if err := movie.process(cf, apply); err != nil {
				return err
			}
			if cf == n {
				cf = 0
			}
		} else {
			if cf == 0 {
				cf = n
			}
			if err := movie.process(cf, apply); err != nil {
				return err
			}
			cf--
		}
		movie.current = cf
	}
	return nil
}

// process applies delta i, which leads from frame i-1 to frame i. XOR
// deltas are their own inverse, so the same delta also walks backwards.
func (movie *Movie) process(i int, apply applyFunc) error {
	src, err := movie.payload(i)
	if err != nil {
		return err
	}
	if _, err := frame4.Decode(movie.delta, src); err != nil {
		return fmt.Errorf("wsa: frame %d: %w", i, err)
	}
	if err := apply(movie.delta, false); err != nil {
		return fmt.Errorf("wsa: frame %d: %w", i, err)
	}
	return nil
}
