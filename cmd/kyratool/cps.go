package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/cam-per/kyra/kyra/pal"
	"github.com/cam-per/kyra/kyra/screen"
)

// cpsPage is the scratch page bitmaps are decoded into.
const cpsPage = 2

func (a *app) cpsCommand() *cli.Command {
	return &cli.Command{
		Name:  "cps",
		Usage: "CPS and CMP bitmaps",
		Commands: []*cli.Command{
			{
				Name:      "png",
				Usage:     "convert a bitmap to PNG; an embedded palette wins over --pal",
				ArgsUsage: "<file.cps> <out.png>",
				Flags:     []cli.Flag{palFlag, scaleFlag},
				Action:    a.cpsPNG,
			},
		},
	}
}

func (a *app) cpsPNG(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 2); err != nil {
		return err
	}
	name := cmd.Args().Get(0)
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	cmp := strings.EqualFold(filepath.Ext(name), ".cmp")

	hdr, err := screen.ParseBitmapHeader(data, cmp)
	if err != nil {
		return err
	}
	s := screen.New(a.cfg.ScreenConfig(a.log, nil))
	embedded := pal.New(256)
	if err := s.LoadBitmap(data, cmp, cpsPage, embedded); err != nil {
		return err
	}
	p := embedded
	if hdr.PaletteSize == 0 {
		if p, err = loadPalette(cmd.String("pal"), nil); err != nil {
			return err
		}
	}
	s.SetScreenPalette(p)

	out := cmd.Args().Get(1)
	if err := writePNG(out, s.PageImage(cpsPage), cmd.Int("scale")); err != nil {
		return err
	}
	a.log.Info("wrote %s (compression %d)", out, hdr.Compression)
	return nil
}
