package tracer

import (
	"github.com/pkg/errors"

	"github.com/xupit3r/directcl/internal/compute"
)

// Kernel argument layout.
const (
	ArgImage    = 0
	ArgScene    = 1
	ArgPosition = 2 // x, y, z
	ArgMatrix   = 5 // nine floats, row order
)

// BindScene binds the output image and the scene buffer in cursor order,
// so k must not have any arguments bound yet. They stay bound for the
// kernel's lifetime.
func BindScene(k *compute.Kernel, image, scene *compute.Buffer) error {
	if k.Cursor() != ArgImage {
		return errors.Errorf("argument cursor at %d, want %d", k.Cursor(), ArgImage)
	}
	if err := k.BindBuffer(image); err != nil {
		return err
	}
	return k.BindBuffer(scene)
}

// BindCamera binds the camera position and rotation for the next frame.
func BindCamera(k *compute.Kernel, cam Camera) error {
	pos := [3]float32{cam.Position.X, cam.Position.Y, cam.Position.Z}
	for i, v := range pos {
		if err := compute.BindAt(k, uint32(ArgPosition+i), v); err != nil {
			return err
		}
	}
	for i, v := range cam.Matrix.Floats() {
		if err := compute.BindAt(k, uint32(ArgMatrix+i), v); err != nil {
			return err
		}
	}
	return nil
}
