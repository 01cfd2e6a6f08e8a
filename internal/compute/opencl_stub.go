//go:build !linux || !cgo
// +build !linux !cgo

package compute

// NewOpenCLDriver returns ErrDriverUnavailable on platforms without the
// cgo OpenCL bindings.
func NewOpenCLDriver() (Driver, error) {
	return nil, ErrDriverUnavailable
}
