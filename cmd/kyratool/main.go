package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"
	"golang.org/x/image/draw"

	"github.com/cam-per/kyra/internal/config"
	"github.com/cam-per/kyra/internal/logging"
	"github.com/cam-per/kyra/kyra/pal"
)

func init() {
	// GLFW wants the main thread.
	runtime.LockOSThread()
}

type app struct {
	out io.Writer
	cfg *config.Config
	log *logging.Logger
}

var titleStyle = lipgloss.NewStyle().Bold(true)

func newApp(out io.Writer) (*app, *cli.Command) {
	a := &app{out: out}
	cmd := &cli.Command{
		Name:  "kyratool",
		Usage: "inspect, convert and play Kyrandia SHP, CPS, WSA and PAK files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "game",
				Usage:   "game data layout, kyra1 or kyra2",
				Sources: cli.EnvVars("KYRA_GAME"),
			},
			&cli.BoolFlag{
				Name:    "alt-header",
				Usage:   "CD release layout: 2 byte shape prefix and WSA flags word",
				Sources: cli.EnvVars("KYRA_ALT_SHAPE_HEADER"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn or error",
				Sources: cli.EnvVars("KYRA_LOG_LEVEL"),
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.pakCommand(),
			a.shapeCommand(),
			a.cpsCommand(),
			a.wsaCommand(),
		},
	}
	return a, cmd
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.LoadWithOverrides(config.LoadOptions{
		Game:           cmd.String("game"),
		AltShapeHeader: cmd.Bool("alt-header"),
		LogLevel:       cmd.String("log-level"),
	})
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg
	a.log = cfg.Logger()
	return ctx, nil
}

func main() {
	_, cmd := newApp(os.Stdout)
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logging.Error("%v", err)
		os.Exit(1)
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) title(s string) {
	fmt.Fprintln(a.out, titleStyle.Render(s))
}

func needArgs(cmd *cli.Command, n int) error {
	if cmd.NArg() < n {
		return fmt.Errorf("%s: expected %d arguments, got %d", cmd.Name, n, cmd.NArg())
	}
	return nil
}

var palFlag = &cli.StringFlag{Name: "pal", Usage: "palette file, 768 bytes of 6 bit VGA colour"}

var scaleFlag = &cli.IntFlag{Name: "scale", Value: 1, Usage: "output zoom"}

// grayPalette stands in when no palette is given.
func grayPalette() pal.Palette {
	p := pal.New(256)
	for i := 0; i < 256; i++ {
		p.Set(i, uint8(i>>2), uint8(i>>2), uint8(i>>2))
	}
	return p
}

// loadPalette reads the --pal file, or returns fallback, or a grey ramp.
func loadPalette(name string, fallback pal.Palette) (pal.Palette, error) {
	if name == "" {
		if fallback != nil {
			return fallback, nil
		}
		return grayPalette(), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if len(data) < 768 {
		return nil, fmt.Errorf("palette %s: %d bytes, want 768", name, len(data))
	}
	return pal.NewDecoder(bytes.NewReader(data)).Decode(pal.FormatVGA, 256)
}

// scaled returns img zoomed by an integer factor.
func scaled(img *image.Paletted, scale int) *image.Paletted {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale), img.Palette)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writePNG(name string, img *image.Paletted, scale int) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, scaled(img, scale)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readIndexed decodes a PNG into palette indices. Non paletted images are
// mapped onto p.
func readIndexed(name string, p pal.Palette) (*image.Paletted, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if paletted, ok := img.(*image.Paletted); ok {
		return paletted, nil
	}

	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p.ColorPalette())
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst, nil
}

// fullPalette pads an image palette to 256 entries.
func fullPalette(cp color.Palette) pal.Palette {
	p := pal.New(256)
	p.Copy(pal.FromColorPalette(cp))
	return p
}
