package rendering

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/cam-per/kyra/kyra/screen"
)

var ErrClosed = errors.New("rendering: window closed")

const pageProgram = "page"

// Display is a GLFW window showing page 0. The page is uploaded as an 8 bit
// index texture and the fragment shader looks colours up in a 256x1
// palette texture. GLFW and GL calls must stay on the main OS thread.
type Display struct {
	window   *glfw.Window
	programs *Programs
	vao      uint32
	pageTex  uint32
	palTex   uint32
	pix      []byte
	palette  []byte
	dirty    bool
	palDirty bool
}

func NewDisplay(title string, scale int) (*Display, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("rendering: glfw: %w", err)
	}
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(screen.Width*scale, screen.Height*scale, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("rendering: window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("rendering: gl: %w", err)
	}

	programs, err := LoadShaders(shaderFS, "shaders")
	if err == nil {
		err = programs.Compile()
	}
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, err
	}

	display := &Display{
		window:   window,
		programs: programs,
		pix:      make([]byte, screen.PageSize),
		palette:  make([]byte, 256*3),
		dirty:    true,
		palDirty: true,
	}
	display.setup()
	return display, nil
}

func newTexture(w, h int32, internal int32, format uint32) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, w, h, 0, format, gl.UNSIGNED_BYTE, nil)
	return tex
}

func (display *Display) setup() {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.GenVertexArrays(1, &display.vao)

	display.pageTex = newTexture(screen.Width, screen.Height, gl.R8, gl.RED)
	display.palTex = newTexture(256, 1, gl.RGB8, gl.RGB)

	display.programs.Use(pageProgram)
	if program, ok := display.programs.Program(pageProgram); ok {
		gl.Uniform1i(gl.GetUniformLocation(program, gl.Str("page\x00")), 0)
		gl.Uniform1i(gl.GetUniformLocation(program, gl.Str("palette\x00")), 1)
	}
}

// SetPalette implements screen.Host.
func (display *Display) SetPalette(rgb []byte) {
	copy(display.palette, rgb)
	display.palDirty = true
}

// CopyRect implements screen.Host.
func (display *Display) CopyRect(src []byte, stride int, r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, screen.Width, screen.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(display.pix[y*screen.Width+r.Min.X:y*screen.Width+r.Max.X], src[y*stride+r.Min.X:y*stride+r.Max.X])
	}
	if !r.Empty() {
		display.dirty = true
	}
}

// Update implements screen.Host. It redraws the window and reports
// ErrClosed once the user closed it.
func (display *Display) Update() error {
	glfw.PollEvents()
	if display.window.ShouldClose() {
		return ErrClosed
	}

	if display.palDirty {
		gl.BindTexture(gl.TEXTURE_2D, display.palTex)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, 256, 1, gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(display.palette))
		display.palDirty = false
	}
	if display.dirty {
		gl.BindTexture(gl.TEXTURE_2D, display.pageTex)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, screen.Width, screen.Height, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(display.pix))
		display.dirty = false
	}

	w, h := display.window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.Clear(gl.COLOR_BUFFER_BIT)

	display.programs.Use(pageProgram)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, display.pageTex)
	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, display.palTex)
	gl.BindVertexArray(display.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)

	display.window.SwapBuffers()
	return nil
}

func (display *Display) ShouldClose() bool { return display.window.ShouldClose() }

func (display *Display) Close() {
	display.programs.Delete()
	gl.DeleteTextures(1, &display.pageTex)
	gl.DeleteTextures(1, &display.palTex)
	gl.DeleteVertexArrays(1, &display.vao)
	display.window.Destroy()
	glfw.Terminate()
}

var _ screen.Host = (*Display)(nil)
