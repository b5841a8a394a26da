package wsa

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cam-per/kyra/internal/logging"
	"github.com/cam-per/kyra/kyra/delta"
	"github.com/cam-per/kyra/kyra/frame4"
	"github.com/cam-per/kyra/kyra/pal"
	"github.com/cam-per/kyra/kyra/screen"
)

const (
	testW = 6
	testH = 4
)

func testFrames(n int) [][]byte {
	frames := make([][]byte, n)
	for i := range frames {
		frame := make([]byte, testW*testH)
		for p := range frame {
			switch {
			case p/testW == i%testH:
				frame[p] = byte(0x40 + i)
			case p%3 == 0:
				frame[p] = byte(i*7 + p)
			}
		}
		frames[i] = frame
	}
	return frames
}

func quietLogger() *logging.Logger { return logging.New(&bytes.Buffer{}, 0) }

func openTest(t *testing.T, frames [][]byte, write WriteOptions, opts Options) *Movie {
	t.Helper()
	data, err := Write(frames, testW, testH, write)
	require.NoError(t, err)
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	movie, err := Open(data, opts)
	require.NoError(t, err)
	return movie
}

func TestOpen(t *testing.T) {
	frames := testFrames(5)
	movie := openTest(t, frames, WriteOptions{}, Options{Offscreen: true})

	assert.Equal(t, 5, movie.NumFrames())
	assert.Equal(t, testW, movie.Width())
	assert.Equal(t, testH, movie.Height())
	assert.Equal(t, 5, movie.CurrentFrame(), "nothing displayed yet")
	assert.True(t, movie.HasFirstFrame())
	assert.Nil(t, movie.Palette())

	for i := 0; i <= movie.NumFrames(); i++ {
		size, err := movie.FrameSize(i)
		require.NoError(t, err)
		assert.Positive(t, size)
	}
	_, err := movie.FrameSize(6)
	assert.ErrorIs(t, err, ErrFrameRange)
}

func TestOpenLogs(t *testing.T) {
	var logs bytes.Buffer
	log := logging.New(&logs, 0)
	log.SetLevel(logging.LevelDebug)

	openTest(t, testFrames(2), WriteOptions{}, Options{Logger: log})
	assert.Contains(t, logs.String(), "wsa: 2 frames of 6x4")
}

func TestHops(t *testing.T) {
	tests := []struct {
		n, cur, target int
		step, count    int
	}{
		{5, 0, 2, 1, 2},
		{5, 0, 3, -1, 2},
		{5, 3, 1, -1, 2},
		{5, 1, 4, -1, 2},
		{5, 4, 0, 1, 1},
		{5, 2, 2, -1, 0},
		{4, 1, 3, 1, 2},
		{4, 3, 1, -1, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d to %d of %d", tt.cur, tt.target, tt.n), func(t *testing.T) {
			movie := &Movie{header: Header{NumFrames: uint16(tt.n)}, current: tt.cur}
			step, count := movie.hops(tt.target)
			assert.Equal(t, tt.count, count)
			if tt.count > 0 {
				assert.Equal(t, tt.step, step)
			}
		})
	}
}

func TestFrameSequences(t *testing.T) {
	frames := testFrames(5)
	sequences := [][]int{
		{0, 1, 2, 3, 4, 0, 1},
		{3, 1, 4, 0},
		{4, 3, 2, 1, 0, 4},
		{2, 2, 0, 3, 3, 1},
	}
	for _, seq := range sequences {
		t.Run(fmt.Sprint(seq), func(t *testing.T) {
			movie := openTest(t, frames, WriteOptions{}, Options{Offscreen: true})
			for _, f := range seq {
				got, err := movie.Frame(f)
				require.NoError(t, err)
				assert.Equal(t, frames[f], got, "frame %d", f)
				assert.Equal(t, f, movie.CurrentFrame())
			}
		})
	}
}

func TestSingleFrame(t *testing.T) {
	frames := testFrames(1)
	movie := openTest(t, frames, WriteOptions{}, Options{Offscreen: true})
	for i := 0; i < 3; i++ {
		got, err := movie.Frame(0)
		require.NoError(t, err)
		assert.Equal(t, frames[0], got)
	}
}

func TestNoFirstFrame(t *testing.T) {
	frames := testFrames(4)
	frames[0] = make([]byte, testW*testH)

	movie := openTest(t, frames, WriteOptions{NoFirstFrame: true}, Options{Offscreen: true})
	assert.False(t, movie.HasFirstFrame())
	for _, f := range []int{2, 0, 3, 1, 0} {
		got, err := movie.Frame(f)
		require.NoError(t, err)
		assert.Equal(t, frames[f], got, "frame %d", f)
	}
}

func TestPalette(t *testing.T) {
	p := pal.New(256)
	require.NoError(t, p.Set(1, 63, 32, 1))

	movie := openTest(t, testFrames(2), WriteOptions{AltHeader: true, Palette: p}, Options{AltHeader: true, Offscreen: true})
	assert.Equal(t, uint16(FlagPalette), movie.Flags())
	assert.Equal(t, p, movie.Palette())

	got, err := movie.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, testFrames(2)[1], got)

	_, err = Write(testFrames(2), testW, testH, WriteOptions{Palette: p})
	assert.ErrorIs(t, err, ErrHeader)
}

func newTestScreen() *screen.Screen {
	return screen.New(screen.Config{Logger: quietLogger()})
}

func pageRect(t *testing.T, s *screen.Screen, n, x, y int) []byte {
	t.Helper()
	page, err := s.Page(n)
	require.NoError(t, err)
	out := make([]byte, 0, testW*testH)
	for row := 0; row < testH; row++ {
		o := (y+row)*screen.Width + x
		out = append(out, page[o:o+testW]...)
	}
	return out
}

func TestDisplayPaged(t *testing.T) {
	frames := testFrames(5)
	movie := openTest(t, frames, WriteOptions{}, Options{})
	s := newTestScreen()

	for _, f := range []int{0, 3, 1, 4, 0, 2} {
		require.NoError(t, movie.Display(s, f, DisplayOptions{Page: 2, X: 100, Y: 50}))
		assert.Equal(t, frames[f], pageRect(t, s, 2, 100, 50), "frame %d", f)
	}
	assert.Empty(t, s.DirtyRects(), "page 2 is not tracked")

	_, err := movie.Frame(0)
	assert.ErrorIs(t, err, ErrMode)
}

func TestDisplayPagedMarksScreen(t *testing.T) {
	movie := openTest(t, testFrames(2), WriteOptions{}, Options{})
	s := newTestScreen()

	require.NoError(t, movie.Display(s, 1, DisplayOptions{Page: 0, X: 10, Y: 20}))
	require.Len(t, s.DirtyRects(), 1)
	assert.Equal(t, 10, s.DirtyRects()[0].Min.X)
	assert.Equal(t, 20, s.DirtyRects()[0].Min.Y)
}

func TestDisplayPagedOverrun(t *testing.T) {
	// A 4x2 movie whose first frame literal-copies 12 cells.
	stream := append([]byte{12}, bytes.Repeat([]byte{0x77}, 12)...)
	stream = append(stream, 0x80, 0x00, 0x00)
	first := frame4.Encode(stream)
	loop := frame4.Encode([]byte{0x80, 0x00, 0x00})

	var data bytes.Buffer
	binary.Write(&data, binary.LittleEndian, Header{NumFrames: 1, Width: 4, Height: 2, DeltaSize: uint16(len(stream))})
	pos := uint32(headerSize + 3*4)
	binary.Write(&data, binary.LittleEndian, []uint32{pos, pos + uint32(len(first)), pos + uint32(len(first)+len(loop))})
	data.Write(first)
	data.Write(loop)

	movie, err := Open(data.Bytes(), Options{Logger: quietLogger()})
	require.NoError(t, err)
	s := newTestScreen()

	err = movie.Display(s, 0, DisplayOptions{Page: 2})
	assert.ErrorIs(t, err, delta.ErrOverrun)
	page, _ := s.Page(2)
	assert.Equal(t, []byte{0x77, 0x77, 0x77, 0x77}, page[screen.Width:screen.Width+4])
	assert.Equal(t, make([]byte, 4), page[2*screen.Width:2*screen.Width+4], "row below the frame")
}

func TestDisplayPlacement(t *testing.T) {
	movie := openTest(t, testFrames(2), WriteOptions{}, Options{})
	s := newTestScreen()

	for _, pos := range [][2]int{{-1, 0}, {0, -1}, {screen.Width - testW + 1, 0}, {0, screen.Height - testH + 1}} {
		err := movie.Display(s, 0, DisplayOptions{Page: 2, X: pos[0], Y: pos[1]})
		assert.ErrorIs(t, err, ErrPlacement)
	}
	assert.ErrorIs(t, movie.Display(s, 0, DisplayOptions{Page: 99}), screen.ErrPageRange)
}

func TestDisplayOffscreen(t *testing.T) {
	frames := testFrames(3)
	movie := openTest(t, frames, WriteOptions{}, Options{Offscreen: true})
	s := newTestScreen()
	_, err := s.SetCurPage(5)
	require.NoError(t, err)

	require.NoError(t, movie.Display(s, 2, DisplayOptions{Page: 3, X: 7, Y: 9}))
	assert.Equal(t, frames[2], pageRect(t, s, 3, 7, 9))
	assert.Equal(t, 5, s.CurPage(), "the current page is restored")

	page, _ := s.Page(4)
	for i := range page {
		page[i] = 0xEE
	}
	require.NoError(t, movie.Display(s, 1, DisplayOptions{Page: 4, Flags: screen.PlotTransparent << 12}))
	got := pageRect(t, s, 4, 0, 0)
	for i, c := range frames[1] {
		if c == 0 {
			assert.EqualValues(t, 0xEE, got[i])
		} else {
			assert.Equal(t, c, got[i])
		}
	}
}

func TestDisplayErrors(t *testing.T) {
	movie := openTest(t, testFrames(3), WriteOptions{}, Options{Offscreen: true})
	s := newTestScreen()

	assert.ErrorIs(t, movie.Display(s, 3, DisplayOptions{}), ErrFrameRange)
	assert.ErrorIs(t, movie.Display(s, -1, DisplayOptions{}), ErrFrameRange)
	_, err := movie.Frame(3)
	assert.ErrorIs(t, err, ErrFrameRange)

	movie.Close()
	assert.ErrorIs(t, movie.Display(s, 0, DisplayOptions{}), ErrNotOpen)
	_, err = movie.Frame(0)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestOpenErrors(t *testing.T) {
	valid, err := Write(testFrames(2), testW, testH, WriteOptions{})
	require.NoError(t, err)

	withFrames := func(n uint16) []byte {
		data := append([]byte(nil), valid...)
		binary.LittleEndian.PutUint16(data, n)
		return data
	}

	_, err = Open(valid[:5], Options{Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrHeader)

	_, err = Open(withFrames(0x8002), Options{Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrUnsupportedFlags)

	_, err = Open(withFrames(0), Options{Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrHeader)

	_, err = Open(valid[:headerSize+8], Options{Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrHeader, "frame table cut short")

	_, err = Open(valid[:8], Options{AltHeader: true, Logger: quietLogger()})
	assert.ErrorIs(t, err, ErrHeader, "flags word missing")

	broken := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(broken[headerSize+4:], 0xFFFF)
	movie, err := Open(broken, Options{Offscreen: true, Logger: quietLogger()})
	require.NoError(t, err)
	_, err = movie.Frame(1)
	assert.ErrorIs(t, err, ErrHeader, "delta offset past the end")
}

func TestWriteLayout(t *testing.T) {
	data, err := Write(testFrames(3), testW, testH, WriteOptions{AltHeader: true})
	require.NoError(t, err)

	var header Header
	require.NoError(t, binary.Read(bytes.NewReader(data), binary.LittleEndian, &header))
	assert.Equal(t, Header{NumFrames: 3, Width: testW, Height: testH, DeltaSize: header.DeltaSize}, header)
	assert.Positive(t, header.DeltaSize)
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(data[headerSize:]), "flags word")

	table := data[headerSize+2:]
	first := binary.LittleEndian.Uint32(table)
	assert.EqualValues(t, headerSize+2+5*4, first)
	prev := first
	for i := 1; i < 5; i++ {
		entry := binary.LittleEndian.Uint32(table[i*4:])
		assert.Greater(t, entry, prev, "entry %d", i)
		prev = entry
	}
	assert.EqualValues(t, len(data), prev, "last entry marks the end")
}

func TestWriteErrors(t *testing.T) {
	_, err := Write(nil, testW, testH, WriteOptions{})
	assert.ErrorIs(t, err, ErrHeader)

	_, err = Write([][]byte{make([]byte, 3)}, testW, testH, WriteOptions{})
	assert.ErrorIs(t, err, ErrHeader)

	_, err = Write(testFrames(1), 0, testH, WriteOptions{})
	assert.ErrorIs(t, err, ErrHeader)

	_, err = Write(testFrames(1), testW, testH, WriteOptions{AltHeader: true, Palette: pal.New(16)})
	assert.ErrorIs(t, err, ErrHeader)
}
