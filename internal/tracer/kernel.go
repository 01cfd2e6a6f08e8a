package tracer

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
)

// EntryPoint is the kernel function name in KernelSource.
const EntryPoint = "runKernel"

// KernelSource is the built-in path tracer program.
//
//go:embed kernels/path_tracer.cl
var KernelSource string

// LoadSource returns the contents of file, or KernelSource when file is
// empty.
func LoadSource(file string) (string, error) {
	if file == "" {
		return KernelSource, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", errors.Wrap(err, "reading kernel source")
	}
	return string(b), nil
}
