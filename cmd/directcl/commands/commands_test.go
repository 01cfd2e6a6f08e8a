package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/compute/computetest"
	"github.com/xupit3r/directcl/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, computetest.NewDriver(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "directcl v"+version)
	assert.Contains(t, out, "Go version:")
}

func TestDeviceCommand(t *testing.T) {
	out, err := execute(t, computetest.NewDriver(), "device")
	require.NoError(t, err)

	assert.Contains(t, out, "Platform 0: Mock Platform")
	assert.Contains(t, out, "GPU  Mock GPU")
	assert.Contains(t, out, "CPU  Mock CPU")
	assert.Contains(t, out, "Selected GPU device: Mock GPU")
}

func TestDeviceCommandFlagOverridesConfig(t *testing.T) {
	out, err := execute(t, computetest.NewDriver(), "device", "--device", "cpu")
	require.NoError(t, err)
	assert.Contains(t, out, "Selected CPU device: Mock CPU")
}

func TestDeviceCommandNoPlatforms(t *testing.T) {
	out, err := execute(t, &computetest.Driver{}, "device")
	assert.True(t, errors.Is(err, compute.ErrNoPlatforms))
	assert.Contains(t, out, "No OpenCL platforms found")
}

func TestDeviceCommandNoDevices(t *testing.T) {
	drv := &computetest.Driver{Platforms: []computetest.Platform{{Name: "CPU only", CPUs: []string{"cpu0"}}}}
	out, err := execute(t, drv, "device")
	assert.True(t, errors.Is(err, compute.ErrNoDevices))
	assert.Contains(t, out, "CPU  cpu0")
	assert.Contains(t, out, "Selected GPU device: none")
}

func TestBuildCommand(t *testing.T) {
	out, err := execute(t, computetest.NewDriver(), "build", "--width", "320", "--height", "240")
	require.NoError(t, err)
	assert.Contains(t, out, "built runKernel for Mock GPU")
	assert.Contains(t, out, "-D SCREEN_WIDTH=320 -D SCREEN_HEIGHT=240 -D SPHERES_NUM=5 -D RAYS_PER_PIXEL=16")
}

func TestBuildCommandCompileError(t *testing.T) {
	kernel := filepath.Join(t.TempDir(), "broken.cl")
	require.NoError(t, os.WriteFile(kernel, []byte("__kernel void runKernel() {\n"), 0644))
	path := writeConfig(t, "tracer:\n  kernel_file: "+kernel+"\ncompute:\n  print_build_log: false\n")

	_, err := execute(t, computetest.NewDriver(), "build", "--config", path)
	var be *compute.BuildError
	require.True(t, errors.As(err, &be))
	assert.Contains(t, be.Log, "error:")
}

func TestBuildCommandDeviceNameFailure(t *testing.T) {
	drv := computetest.NewDriver()
	drv.FailAt = map[string]computetest.Failure{
		"clGetDeviceInfo": {Call: 1, Status: compute.InvalidDevice},
	}
	_, err := execute(t, drv, "build")

	var se *compute.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "clGetDeviceInfo", se.Op)
}

func TestRunUsesRenderer(t *testing.T) {
	var got *config.Config
	SetRenderer(func(c *config.Config, rt *compute.Runtime) error {
		got = c
		_, err := rt.CreateDevice(compute.DeviceTypeGPU)
		return err
	})
	t.Cleanup(func() { SetRenderer(nil) })

	_, err := execute(t, computetest.NewDriver(), "run", "--device", "cpu")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cpu", got.Device.Type)
}

func TestRunWithoutRenderer(t *testing.T) {
	SetRenderer(nil)
	_, err := execute(t, computetest.NewDriver(), "run")
	assert.Error(t, err)
}
