// Package display owns the GLFW window, the renderbuffer the tracer writes
// into, and the blit that puts it on screen. All functions must be called
// from the main goroutine.
package display

import (
	"runtime"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/xupit3r/directcl/internal/logging"
	"github.com/xupit3r/directcl/internal/tracer"
)

func init() {
	// GLFW and GL calls must stay on the thread that created the context.
	runtime.LockOSThread()
}

// Options configures the window.
type Options struct {
	Title  string
	Width  int
	Height int
	VSync  bool
}

// Window is an on-screen GL context with one offscreen color renderbuffer
// of the drawable's size at creation.
type Window struct {
	win *glfw.Window

	width, height int // renderbuffer size
	viewW, viewH  int // current framebuffer size

	rbo uint32
	fbo uint32

	onKey func(tracer.Key, tracer.Action)
}

// Open creates the window, makes its context current and allocates the
// renderbuffer.
func Open(opts Options) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw init")
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	win, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw create window")
	}
	win.MakeContextCurrent()
	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, errors.Wrap(err, "gl init")
	}
	logging.Debugf("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	w := &Window{win: win}
	w.width, w.height = win.GetFramebufferSize()
	w.viewW, w.viewH = w.width, w.height

	gl.GenRenderbuffers(1, &w.rbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, w.rbo)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.RGBA8, int32(w.width), int32(w.height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	gl.GenFramebuffers(1, &w.fbo)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, w.fbo)
	gl.FramebufferRenderbuffer(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, w.rbo)
	status := gl.CheckFramebufferStatus(gl.READ_FRAMEBUFFER)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		w.Close()
		return nil, errors.Errorf("framebuffer incomplete: %#x", status)
	}

	win.SetFramebufferSizeCallback(w.framebufferSize)
	win.SetKeyCallback(w.key)
	gl.Viewport(0, 0, int32(w.viewW), int32(w.viewH))

	return w, nil
}

// Size returns the renderbuffer size in pixels.
func (w *Window) Size() (width, height int) { return w.width, w.height }

// Renderbuffer returns the GL name of the color renderbuffer.
func (w *Window) Renderbuffer() uint32 { return w.rbo }

// SharingHandles returns the native GL context and display of the
// window, for creating a compute context that shares its objects.
func (w *Window) SharingHandles() (glContext, display uintptr, err error) {
	return currentGLX()
}

// OnKey registers fn to receive control key transitions.
func (w *Window) OnKey(fn func(tracer.Key, tracer.Action)) { w.onKey = fn }

// Finish blocks until every issued GL command has completed.
func (w *Window) Finish() error {
	gl.Finish()
	if code := gl.GetError(); code != gl.NO_ERROR {
		return errors.Errorf("glFinish: GL error %#x", code)
	}
	return nil
}

// Present draws the renderbuffer to the window, scaled to the current
// framebuffer size, and swaps buffers. Row 0 of the image is the top of
// the screen.
func (w *Window) Present() {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, w.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(
		0, 0, int32(w.width), int32(w.height),
		0, int32(w.viewH), int32(w.viewW), 0,
		gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	w.win.SwapBuffers()
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }

// PollEvents processes pending window events and runs callbacks.
func (w *Window) PollEvents() { glfw.PollEvents() }

// Close frees the GL objects and the window.
func (w *Window) Close() {
	if w.win == nil {
		return
	}
	if w.fbo != 0 {
		gl.DeleteFramebuffers(1, &w.fbo)
	}
	if w.rbo != 0 {
		gl.DeleteRenderbuffers(1, &w.rbo)
	}
	w.win.Destroy()
	w.win = nil
	glfw.Terminate()
}

func (w *Window) framebufferSize(_ *glfw.Window, width, height int) {
	w.viewW, w.viewH = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (w *Window) key(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if w.onKey == nil {
		return
	}
	k, ok := keymap[key]
	if !ok {
		return
	}
	switch action {
	case glfw.Press:
		w.onKey(k, tracer.Press)
	case glfw.Release:
		w.onKey(k, tracer.Release)
	}
}

var keymap = map[glfw.Key]tracer.Key{
	glfw.KeyW:            tracer.KeyForward,
	glfw.KeyS:            tracer.KeyBackward,
	glfw.KeyA:            tracer.KeyLeft,
	glfw.KeyD:            tracer.KeyRight,
	glfw.KeySpace:        tracer.KeyUp,
	glfw.KeyLeftControl:  tracer.KeyDown,
	glfw.KeyRightControl: tracer.KeyDown,
	glfw.KeyUp:           tracer.KeyLookUp,
	glfw.KeyDown:         tracer.KeyLookDown,
	glfw.KeyLeft:         tracer.KeyLookLeft,
	glfw.KeyRight:        tracer.KeyLookRight,
	glfw.KeyEscape:       tracer.KeyExit,
}
