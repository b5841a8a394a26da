// Package pak reads PAK archives: a table of [u32 offset][CP437 name NUL]
// entries, ended by an empty name, a zero offset or the first file's data.
// Each file runs up to the next entry's offset.
package pak

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/cam-per/kyra/utils"
)

var ErrFormat = errors.New("pak: invalid entry table")

type ArchiveReader interface {
	io.Reader
	io.ReaderAt
}

type entry struct {
	name   string
	offset int64
	size   int64
}

func (e *entry) Name() string               { return e.name }
func (e *entry) IsDir() bool                { return false }
func (e *entry) Type() fs.FileMode          { return 0 }
func (e *entry) Info() (fs.FileInfo, error) { return e, nil }
func (e *entry) Size() int64                { return e.size }
func (e *entry) Mode() fs.FileMode          { return 0o444 }
func (e *entry) ModTime() time.Time         { return time.Time{} }
func (e *entry) Sys() any                   { return nil }

// Offset is where the file starts in the archive.
func (e *entry) Offset() int64 { return e.offset }

type root struct {
	archive *Archive
	pos     int
}

func (d *root) Name() string               { return "." }
func (d *root) IsDir() bool                { return true }
func (d *root) Type() fs.FileMode          { return fs.ModeDir }
func (d *root) Size() int64                { return 0 }
func (d *root) Mode() fs.FileMode          { return fs.ModeDir | 0o555 }
func (d *root) ModTime() time.Time         { return time.Time{} }
func (d *root) Sys() any                   { return nil }
func (d *root) Stat() (fs.FileInfo, error) { return d, nil }
func (d *root) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}
func (d *root) Close() error { return nil }

func (d *root) ReadDir(n int) ([]fs.DirEntry, error) {
	entries := d.archive.entries()
	rest := entries[d.pos:]
	if n <= 0 {
		d.pos = len(entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	rest = rest[:min(n, len(rest))]
	d.pos += len(rest)
	return rest, nil
}

// Archive is a parsed PAK file. It implements fs.FS with every file at the
// root.
type Archive struct {
	r     ArchiveReader
	files []*entry
	m     map[string]*entry
}

func NewArchive(r ArchiveReader, size int64) (*Archive, error) {
	archive := &Archive{
		r: r,
		m: make(map[string]*entry),
	}
	if err := archive.readTable(size); err != nil {
		return nil, err
	}
	return archive, nil
}

func (archive *Archive) readTable(size int64) error {
	br := bufio.NewReader(io.NewSectionReader(archive.r, 0, size))
	pos := int64(0)
	first := size

	for pos < first {
		offset, err := utils.ReadUint32LE(br)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFormat, err)
		}
		pos += 4
		if offset == 0 {
			break
		}
		raw, err := utils.ReadCString(br)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFormat, err)
		}
		pos += int64(len(raw)) + 1
		if len(raw) == 0 {
			break
		}

		off := int64(offset)
		if off > size {
			return fmt.Errorf("%w: %q at %d past the end", ErrFormat, raw, off)
		}
		if n := len(archive.files); n > 0 && off < archive.files[n-1].offset {
			return fmt.Errorf("%w: %q at %d before the previous file", ErrFormat, raw, off)
		}
		first = min(first, off)

		name := raw.Decode(charmap.CodePage437)
		e := &entry{name: name, offset: off}
		archive.files = append(archive.files, e)
		archive.m[name] = e
	}

	if pos > first {
		return fmt.Errorf("%w: table runs into file data", ErrFormat)
	}
	for i, e := range archive.files {
		end := size
		if i+1 < len(archive.files) {
			end = archive.files[i+1].offset
		}
		e.size = end - e.offset
	}
	return nil
}

func (archive *Archive) entries() []fs.DirEntry {
	out := make([]fs.DirEntry, 0, len(archive.files))
	for _, e := range archive.files {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names lists the files in table order.
func (archive *Archive) Names() []string {
	names := make([]string, len(archive.files))
	for i, e := range archive.files {
		names[i] = e.name
	}
	return names
}

type openedFile struct {
	*entry
	sr *io.SectionReader
}

func (f *openedFile) Read(p []byte) (int, error)                { return f.sr.Read(p) }
func (f *openedFile) Seek(off int64, whence int) (int64, error) { return f.sr.Seek(off, whence) }
func (f *openedFile) ReadAt(p []byte, off int64) (int, error)   { return f.sr.ReadAt(p, off) }
func (f *openedFile) Close() error                              { return nil }
func (f *openedFile) Stat() (fs.FileInfo, error)                { return f.entry, nil }

func (archive *Archive) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return &root{archive: archive}, nil
	}
	e, ok := archive.m[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &openedFile{entry: e, sr: io.NewSectionReader(archive.r, e.offset, e.size)}, nil
}

func (archive *Archive) ReadDir(name string) ([]fs.DirEntry, error) {
	if name != "." {
		if _, ok := archive.m[path.Clean(name)]; ok {
			return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
		}
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return archive.entries(), nil
}

// ReadFile returns the whole of file name.
func (archive *Archive) ReadFile(name string) ([]byte, error) {
	e, ok := archive.m[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	buf := make([]byte, e.size)
	if n, err := archive.r.ReadAt(buf, e.offset); err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return buf, nil
}
