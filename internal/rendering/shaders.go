package rendering

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
)

//go:embed all:shaders
var shaderFS embed.FS

type shader struct {
	Handle     uint32
	Type       uint32
	SourceCode string
}

// Programs holds the linked shader programs, keyed by their directory
// relative to the shader root ("page" for shaders/page).
type Programs struct {
	sources  map[string][]*shader
	programs map[string]uint32
}

// LoadShaders collects the sources under root. Each directory holding
// <seq>.<type>.glsl files becomes one program with its stages attached in
// sequence order.
func LoadShaders(fsys fs.FS, root string) (*Programs, error) {
	programs := &Programs{sources: make(map[string][]*shader)}
	err := fs.WalkDir(fsys, root, func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		return programs.loadDirectory(fsys, root, name)
	})
	if err != nil {
		return nil, err
	}
	if len(programs.sources) == 0 {
		return nil, fmt.Errorf("no shader programs under %s", root)
	}
	return programs, nil
}

func (programs *Programs) loadDirectory(fsys fs.FS, root, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	stages := make(map[int]*shader)
	maxSeq := -1
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".glsl" {
			continue
		}

		seq, shaderType, err := parseShaderName(name)
		if err != nil {
			return err
		}
		if _, ok := stages[seq]; ok {
			return fmt.Errorf("duplicate shader sequence number %d in %s", seq, dir)
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return err
		}
		stages[seq] = &shader{Type: shaderType, SourceCode: string(data)}
		maxSeq = max(maxSeq, seq)
	}
	if maxSeq == -1 {
		return nil
	}

	ordered := make([]*shader, maxSeq+1)
	for i := range ordered {
		stage, ok := stages[i]
		if !ok {
			return fmt.Errorf("missing shader with sequence number: %d in directory: %s", i, dir)
		}
		ordered[i] = stage
	}

	name := strings.TrimPrefix(strings.TrimPrefix(dir, root), "/")
	programs.sources[name] = ordered
	return nil
}

func parseShaderName(name string) (int, uint32, error) {
	p := strings.Split(name, ".")
	if len(p) != 3 {
		return 0, 0, fmt.Errorf("invalid shader file name: %s", name)
	}

	var shaderType uint32
	switch p[1] {
	case "vertex":
		shaderType = gl.VERTEX_SHADER
	case "fragment":
		shaderType = gl.FRAGMENT_SHADER
	case "geometry":
		shaderType = gl.GEOMETRY_SHADER
	default:
		return 0, 0, fmt.Errorf("unknown shader type: %s", p[1])
	}

	seq, err := strconv.Atoi(p[0])
	if err != nil || seq < 0 {
		return 0, 0, fmt.Errorf("invalid shader sequence number: %s", p[0])
	}
	return seq, shaderType, nil
}

// Names lists the loaded programs.
func (programs *Programs) Names() []string {
	names := make([]string, 0, len(programs.sources)+len(programs.programs))
	for name := range programs.sources {
		names = append(names, name)
	}
	for name := range programs.programs {
		if _, ok := programs.sources[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Compile builds and links every program. It needs a current GL context.
func (programs *Programs) Compile() error {
	if err := programs.build(); err != nil {
		return err
	}
	if err := programs.link(); err != nil {
		return err
	}

	for _, sources := range programs.sources {
		for _, shader := range sources {
			gl.DeleteShader(shader.Handle)
			shader.Handle = 0
		}
	}
	programs.sources = nil
	return nil
}

// Program returns the linked handle of a program.
func (programs *Programs) Program(name string) (uint32, bool) {
	handle, ok := programs.programs[name]
	return handle, ok
}

func (programs *Programs) Use(name string) {
	if handle, ok := programs.programs[name]; ok {
		gl.UseProgram(handle)
	}
}

func (programs *Programs) Delete() {
	for name, handle := range programs.programs {
		gl.DeleteProgram(handle)
		delete(programs.programs, name)
	}
}

func (programs *Programs) build() error {
	for name, sources := range programs.sources {
		for _, shader := range sources {
			shader.Handle = gl.CreateShader(shader.Type)
			if shader.Handle == 0 {
				return fmt.Errorf("failed to create shader handle for %s", name)
			}

			csources, free := gl.Strs(shader.SourceCode + "\x00")
			gl.ShaderSource(shader.Handle, 1, csources, nil)
			free()
			gl.CompileShader(shader.Handle)

			var status int32
			gl.GetShaderiv(shader.Handle, gl.COMPILE_STATUS, &status)
			if status == gl.FALSE {
				var logLength int32
				gl.GetShaderiv(shader.Handle, gl.INFO_LOG_LENGTH, &logLength)
				logString := infoLog(logLength, func(buf *uint8) {
					gl.GetShaderInfoLog(shader.Handle, logLength, nil, buf)
				})
				gl.DeleteShader(shader.Handle)
				return fmt.Errorf("failed to compile shader %s:\n%s", name, logString)
			}
		}
	}
	return nil
}

func (programs *Programs) link() error {
	programs.programs = make(map[string]uint32)
	for name, sources := range programs.sources {
		program := gl.CreateProgram()
		for _, shader := range sources {
			gl.AttachShader(program, shader.Handle)
		}
		gl.LinkProgram(program)

		var status int32
		gl.GetProgramiv(program, gl.LINK_STATUS, &status)
		if status == gl.FALSE {
			var logLength int32
			gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
			logString := infoLog(logLength, func(buf *uint8) {
				gl.GetProgramInfoLog(program, logLength, nil, buf)
			})
			gl.DeleteProgram(program)
			return fmt.Errorf("failed to link program %s:\n%s", name, logString)
		}
		programs.programs[name] = program
	}
	return nil
}

func infoLog(length int32, read func(buf *uint8)) string {
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	read(&buf[0])
	return gl.GoStr(&buf[0])
}
