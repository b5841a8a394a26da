package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/cam-per/kyra/internal/rendering"
	"github.com/cam-per/kyra/kyra/pal"
	"github.com/cam-per/kyra/kyra/screen"
	"github.com/cam-per/kyra/kyra/wsa"
)

func (a *app) wsaCommand() *cli.Command {
	return &cli.Command{
		Name:  "wsa",
		Usage: "WSA animations",
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print the header and frame sizes",
				ArgsUsage: "<file.wsa>",
				Action:    a.wsaInfo,
			},
			{
				Name:      "png",
				Usage:     "write every frame as a PNG",
				ArgsUsage: "<file.wsa> <outdir>",
				Flags:     []cli.Flag{palFlag, scaleFlag},
				Action:    a.wsaPNG,
			},
			{
				Name:      "pack",
				Usage:     "build an animation from paletted PNG frames of one size",
				ArgsUsage: "<out.wsa> <frame.png>...",
				Action:    a.wsaPack,
			},
			{
				Name:      "play",
				Usage:     "play an animation in a window",
				ArgsUsage: "<file.wsa>",
				Flags: []cli.Flag{
					palFlag,
					&cli.IntFlag{Name: "fps", Usage: "frames per second", Sources: cli.EnvVars("KYRA_FPS")},
					&cli.IntFlag{Name: "scale", Usage: "window zoom", Sources: cli.EnvVars("KYRA_SCALE")},
				},
				Action: a.wsaPlay,
			},
		},
	}
}

func (a *app) openMovie(name string, offscreen bool) (*wsa.Movie, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	movie, err := wsa.Open(data, wsa.Options{
		AltHeader: a.cfg.AltShapeHeader,
		Offscreen: offscreen,
		Logger:    a.log,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return movie, nil
}

func (a *app) wsaInfo(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 1); err != nil {
		return err
	}
	movie, err := a.openMovie(cmd.Args().Get(0), false)
	if err != nil {
		return err
	}
	defer movie.Close()

	hdr := movie.Header()
	a.title(cmd.Args().Get(0))
	a.printf("%d frames of %dx%d, delta buffer %s, flags %#04x, palette %v, first frame %v\n",
		hdr.NumFrames, hdr.Width, hdr.Height, humanize.Bytes(uint64(hdr.DeltaSize)),
		movie.Flags(), movie.Palette() != nil, movie.HasFirstFrame())

	t := table.New().Border(lipgloss.NormalBorder()).Headers("FRAME", "SIZE")
	total := 0
	for i := 0; i <= movie.NumFrames(); i++ {
		size, err := movie.FrameSize(i)
		if err != nil {
			return err
		}
		label := fmt.Sprint(i)
		if i == movie.NumFrames() {
			label = "loop"
		}
		total += size
		t.Row(label, humanize.Bytes(uint64(size)))
	}
	fmt.Fprintln(a.out, t.Render())
	a.printf("total %s\n", humanize.Bytes(uint64(total)))
	return nil
}

func (a *app) wsaPNG(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 2); err != nil {
		return err
	}
	movie, err := a.openMovie(cmd.Args().Get(0), true)
	if err != nil {
		return err
	}
	defer movie.Close()

	p, err := loadPalette(cmd.String("pal"), movie.Palette())
	if err != nil {
		return err
	}
	dir := cmd.Args().Get(1)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	rect := image.Rect(0, 0, movie.Width(), movie.Height())
	for i := 0; i < movie.NumFrames(); i++ {
		pixels, err := movie.Frame(i)
		if err != nil {
			return err
		}
		img := &image.Paletted{Pix: pixels, Stride: movie.Width(), Rect: rect, Palette: p.ColorPalette()}
		if err := writePNG(filepath.Join(dir, fmt.Sprintf("frame_%03d.png", i)), img, cmd.Int("scale")); err != nil {
			return err
		}
	}
	a.printf("wrote %s frames to %s\n", humanize.Comma(int64(movie.NumFrames())), dir)
	return nil
}

func (a *app) wsaPack(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 2); err != nil {
		return err
	}
	args := cmd.Args().Slice()

	var (
		frames  [][]byte
		palette pal.Palette
		size    image.Point
	)
	for _, name := range args[1:] {
		img, err := readIndexed(name, grayPalette())
		if err != nil {
			return err
		}
		b := img.Bounds()
		if frames == nil {
			size = b.Size()
			palette = fullPalette(img.Palette)
		} else if b.Size() != size {
			return fmt.Errorf("%s: %dx%d, other frames are %dx%d", name, b.Dx(), b.Dy(), size.X, size.Y)
		}

		frame := make([]byte, 0, size.X*size.Y)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := img.Pix[img.PixOffset(b.Min.X, y):]
			frame = append(frame, row[:b.Dx()]...)
		}
		frames = append(frames, frame)
	}

	opts := wsa.WriteOptions{AltHeader: a.cfg.AltShapeHeader}
	if opts.AltHeader {
		opts.Palette = palette
	}
	data, err := wsa.Write(frames, size.X, size.Y, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return err
	}
	a.printf("%s: %d frames of %dx%d, %s\n", args[0], len(frames), size.X, size.Y, humanize.Bytes(uint64(len(data))))
	return nil
}

func (a *app) wsaPlay(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 1); err != nil {
		return err
	}
	fps, scale := a.cfg.FPS, a.cfg.Scale
	if cmd.IsSet("fps") {
		fps = cmd.Int("fps")
	}
	if cmd.IsSet("scale") {
		scale = cmd.Int("scale")
	}
	if fps < 1 || scale < 1 {
		return fmt.Errorf("fps and scale must be positive")
	}

	movie, err := a.openMovie(cmd.Args().Get(0), false)
	if err != nil {
		return err
	}
	defer movie.Close()
	p, err := loadPalette(cmd.String("pal"), movie.Palette())
	if err != nil {
		return err
	}

	display, err := rendering.NewDisplay("kyratool - "+filepath.Base(cmd.Args().Get(0)), scale)
	if err != nil {
		return err
	}
	defer display.Close()

	s := screen.New(a.cfg.ScreenConfig(a.log, display))
	s.SetScreenPalette(p)
	opts := wsa.DisplayOptions{
		X: max(0, (screen.Width-movie.Width())/2),
		Y: max(0, (screen.Height-movie.Height())/2),
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for frame := 0; ; frame = (frame + 1) % movie.NumFrames() {
		if err := movie.Display(s, frame, opts); err != nil {
			return err
		}
		if err := s.UpdateScreen(); err != nil {
			if errors.Is(err, rendering.ErrClosed) {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
