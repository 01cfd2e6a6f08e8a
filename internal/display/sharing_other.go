//go:build !linux || !cgo
// +build !linux !cgo

package display

import "github.com/pkg/errors"

func currentGLX() (uintptr, uintptr, error) {
	return 0, 0, errors.New("GL sharing requires GLX on Linux with CGO enabled")
}
