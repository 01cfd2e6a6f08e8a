package tracer

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/xupit3r/directcl/internal/compute"
)

// MaxBuildOptionsLen bounds the compiler option string.
const MaxBuildOptionsLen = 255

// ErrBuildOptionsTooLong is returned when the option string exceeds
// MaxBuildOptionsLen.
var ErrBuildOptionsTooLong = errors.New("kernel build options too long")

// BuildOptions are the compile-time parameters of the path tracer kernel.
type BuildOptions struct {
	IncludeDirs  []string
	Width        int
	Height       int
	Spheres      int
	RaysPerPixel int
	// Multiray traces each pixel's rays in separate work items of one
	// work-group instead of looping in a single work item.
	Multiray bool
}

// String renders the options in compiler flag form.
func (o BuildOptions) String() string {
	var b strings.Builder
	for _, dir := range o.IncludeDirs {
		fmt.Fprintf(&b, "-I %s ", dir)
	}
	fmt.Fprintf(&b, "-D SCREEN_WIDTH=%d -D SCREEN_HEIGHT=%d -D SPHERES_NUM=%d -D RAYS_PER_PIXEL=%d",
		o.Width, o.Height, o.Spheres, o.RaysPerPixel)
	if o.Multiray {
		b.WriteString(" -D MULTIRAY=1")
	}
	return b.String()
}

// Build validates the options and returns the flag string.
func (o BuildOptions) Build() (string, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return "", errors.Errorf("invalid image size %dx%d", o.Width, o.Height)
	}
	if o.Spheres <= 0 {
		return "", errors.New("scene has no spheres")
	}
	if o.RaysPerPixel <= 0 {
		return "", errors.Errorf("invalid rays per pixel: %d", o.RaysPerPixel)
	}
	s := o.String()
	if len(s) > MaxBuildOptionsLen {
		return "", errors.Wrapf(ErrBuildOptionsTooLong, "%d bytes, limit %d", len(s), MaxBuildOptionsLen)
	}
	return s, nil
}

// SetWorkSize declares the dispatch shape on k: one work item per pixel,
// or in multiray mode one work-group of RaysPerPixel items per pixel.
func (o BuildOptions) SetWorkSize(k *compute.Kernel) error {
	if o.Multiray {
		if err := k.SetGlobalSize(o.Width, o.Height, o.RaysPerPixel); err != nil {
			return err
		}
		return k.SetLocalSize(1, 1, o.RaysPerPixel)
	}
	return k.SetGlobalSize(o.Width, o.Height)
}
