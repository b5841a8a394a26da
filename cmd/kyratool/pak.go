package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/cam-per/kyra/internal/pak"
	"github.com/cam-per/kyra/utils"
)

func (a *app) pakCommand() *cli.Command {
	return &cli.Command{
		Name:  "pak",
		Usage: "PAK archives",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "list the files of an archive",
				ArgsUsage: "<file.pak>",
				Action:    a.pakList,
			},
			{
				Name:      "dump",
				Usage:     "hex dump part of an archived file",
				ArgsUsage: "<file.pak> <name>",
				Flags: []cli.Flag{
					offsetFlag,
					&cli.IntFlag{Name: "length", Value: 256, Usage: "bytes to dump"},
				},
				Action: a.pakDump,
			},
			{
				Name:      "extract",
				Usage:     "write every file of an archive to a directory",
				ArgsUsage: "<file.pak> <dir>",
				Action:    a.pakExtract,
			},
		},
	}
}

func openArchive(name string) (*pak.Archive, *os.File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	archive, err := pak.NewArchive(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return archive, f, nil
}

func (a *app) pakList(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 1); err != nil {
		return err
	}
	archive, f, err := openArchive(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	t := table.New().Border(lipgloss.NormalBorder()).Headers("NAME", "SIZE")
	var total uint64
	for _, name := range archive.Names() {
		file, err := archive.Open(name)
		if err != nil {
			return err
		}
		info, err := file.Stat()
		file.Close()
		if err != nil {
			return err
		}
		total += uint64(info.Size())
		t.Row(name, humanize.Bytes(uint64(info.Size())))
	}
	fmt.Fprintln(a.out, t.Render())
	a.printf("%s files, %s\n", humanize.Comma(int64(len(archive.Names()))), humanize.Bytes(total))
	return nil
}

func (a *app) pakDump(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 2); err != nil {
		return err
	}
	archive, f, err := openArchive(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	file, err := archive.Open(cmd.Args().Get(1))
	if err != nil {
		return err
	}
	defer file.Close()
	r, ok := file.(io.ReaderAt)
	if !ok {
		return fmt.Errorf("%s is not a file", cmd.Args().Get(1))
	}
	off, length := cmd.Int("offset"), cmd.Int("length")
	if off < 0 || length <= 0 {
		return fmt.Errorf("bad range %d+%d", off, length)
	}
	return utils.HexDumpAt(a.out, r, int64(off), int64(length))
}

func (a *app) pakExtract(ctx context.Context, cmd *cli.Command) error {
	if err := needArgs(cmd, 2); err != nil {
		return err
	}
	archive, f, err := openArchive(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	defer f.Close()

	dir := cmd.Args().Get(1)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range archive.Names() {
		data, err := archive.ReadFile(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, filepath.Base(name)), data, 0o644); err != nil {
			return err
		}
		a.log.Debug("extracted %s (%s)", name, humanize.Bytes(uint64(len(data))))
	}
	a.printf("extracted %d files to %s\n", len(archive.Names()), dir)
	return nil
}
