package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/cam-per/kyra/kyra/shp"
	"github.com/cam-per/kyra/utils"
)

var offsetFlag = &cli.IntFlag{Name: "offset", Usage: "byte offset of the shape in the file"}

func (a *app) shapeCommand() *cli.Command {
	return &cli.Command{
		Name:  "shape",
		Usage: "SHP shapes",
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "print a shape header",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					offsetFlag,
					&cli.BoolFlag{Name: "dump", Usage: "hex dump the header and colour table"},
				},
				Action: a.shapeInfo,
			},
			{
				Name:      "png",
				Usage:     "convert a shape to PNG",
				ArgsUsage: "<file> <out.png>",
				Flags:     []cli.Flag{offsetFlag, palFlag, scaleFlag},
				Action:    a.shapePNG,
			},
			{
				Name:      "encode",
				Usage:     "build a shape from a PNG; colour 0 is transparent",
				ArgsUsage: "<in.png> <out.shp>",
				Flags: []cli.Flag{
					palFlag,
					&cli.BoolFlag{Name: "remap", Usage: "store a 16 colour table"},
					&cli.BoolFlag{Name: "lz", Usage: "Frame4 compress when it helps"},
				},
				Action: a.shapeEncode,
			},
		},
	}
}

func (a *app) readShape(cmd *cli.Command) ([]byte, error) {
	data, err := os.ReadFile(cmd.Args().Get(0))
	if err != nil {
		return nil, err
	}
	off := cmd.Int("offset")
	if off < 0 || off >= len(data) {
		return nil, fmt.Errorf("offset %d outside %d bytes", off, len(data))
	}
	return data[off:], nil
}

func (a *app) shapeInfo(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 1); err != nil {
		return err
	}
	data, err := a.readShape(cmd)
	if err != nil {
		return err
	}
	shape, err := shp.Parse(data, a.cfg.ShapeFormat())
	if err != nil {
		return err
	}

	a.title(cmd.Args().Get(0))
	t := table.New().Border(lipgloss.NormalBorder()).Headers("FIELD", "VALUE")
	t.Row("flags", fmt.Sprintf("%#04x", shape.Flags))
	t.Row("size", fmt.Sprintf("%dx%d", shape.Width, shape.Height))
	t.Row("original height", fmt.Sprint(shape.OrigHeight))
	t.Row("compressed", fmt.Sprint(shape.Compressed()))
	t.Row("colour table", fmt.Sprintf("%d entries", len(shape.Table)))
	t.Row("stored size", humanize.Bytes(uint64(shape.Size)))
	t.Row("payload size", humanize.Bytes(uint64(shape.PayloadSize)))
	fmt.Fprintln(a.out, t.Render())

	if cmd.Bool("dump") {
		return utils.HexDump(a.out, data[:len(data)-len(shape.Payload)], int64(cmd.Int("offset")))
	}
	return nil
}

func (a *app) shapePNG(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 2); err != nil {
		return err
	}
	data, err := a.readShape(cmd)
	if err != nil {
		return err
	}
	p, err := loadPalette(cmd.String("pal"), nil)
	if err != nil {
		return err
	}

	shape, pixels, err := shp.NewDecoder(a.cfg.ShapeFormat()).Decode(data)
	if err != nil {
		return err
	}
	out := cmd.Args().Get(1)
	if err := writePNG(out, shape.Image(pixels, p.ColorPalette()), cmd.Int("scale")); err != nil {
		return err
	}
	a.log.Info("wrote %s (%dx%d)", out, shape.Width, shape.Height)
	return nil
}

func (a *app) shapeEncode(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 2); err != nil {
		return err
	}
	p, err := loadPalette(cmd.String("pal"), nil)
	if err != nil {
		return err
	}
	img, err := readIndexed(cmd.Args().Get(0), p)
	if err != nil {
		return err
	}

	b := img.Bounds()
	pixels := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		pixels = append(pixels, row[:b.Dx()]...)
	}
	data, err := shp.Encode(pixels, b.Dx(), b.Dy(), shp.EncodeOptions{
		Format:       a.cfg.ShapeFormat(),
		ColorTable:   cmd.Bool("remap"),
		Uncompressed: !cmd.Bool("lz"),
	})
	if err != nil {
		return err
	}

	out := cmd.Args().Get(1)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	a.printf("%s: %dx%d, %s\n", out, b.Dx(), b.Dy(), humanize.Bytes(uint64(len(data))))
	return nil
}
