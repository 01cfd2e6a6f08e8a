//go:build linux && cgo
// +build linux,cgo

package display

/*
#cgo LDFLAGS: -lGL
#include <GL/glx.h>
*/
import "C"
import (
	"unsafe"

	"github.com/pkg/errors"
)

// currentGLX returns the GLX context and X display current on this thread.
func currentGLX() (uintptr, uintptr, error) {
	ctx := C.glXGetCurrentContext()
	dpy := C.glXGetCurrentDisplay()
	if ctx == nil || dpy == nil {
		return 0, 0, errors.New("no current GLX context")
	}
	return uintptr(unsafe.Pointer(ctx)), uintptr(unsafe.Pointer(dpy)), nil
}
