package compute_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/compute/computetest"
)

func TestCreateDeviceSingleGPUIsSilent(t *testing.T) {
	drv := computetest.NewDriver()
	rt, hook, _ := newRuntime(drv)

	dev, err := rt.CreateDevice(compute.DeviceTypeGPU)
	require.NoError(t, err)
	assert.Equal(t, compute.DeviceTypeGPU, dev.Type())
	assert.Empty(t, warnings(hook))

	name, err := dev.Name()
	require.NoError(t, err)
	assert.Equal(t, "Mock GPU", name)
}

func TestCreateDeviceNoDevices(t *testing.T) {
	drv := &computetest.Driver{Platforms: []computetest.Platform{{Name: "CPU only", CPUs: []string{"cpu0"}}}}
	rt, _, _ := newRuntime(drv)

	_, err := rt.CreateDevice(compute.DeviceTypeGPU)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compute.ErrNoDevices))
	assert.Contains(t, err.Error(), "no devices available")
}

func TestCreateDeviceNoPlatforms(t *testing.T) {
	rt, _, _ := newRuntime(&computetest.Driver{})

	_, err := rt.CreateDevice(compute.DeviceTypeGPU)
	assert.True(t, errors.Is(err, compute.ErrNoPlatforms))
}

func TestCreateDeviceWarnsOnMultiples(t *testing.T) {
	drv := &computetest.Driver{Platforms: []computetest.Platform{
		{Name: "first", GPUs: []string{"gpu0", "gpu1"}},
		{Name: "second", GPUs: []string{"gpu2"}},
	}}
	rt, hook, _ := newRuntime(drv)

	dev, err := rt.CreateDevice(compute.DeviceTypeGPU)
	require.NoError(t, err)

	warns := warnings(hook)
	require.Len(t, warns, 2)
	assert.Equal(t, "multiple platforms available (2), choosing first one", warns[0].Message)
	assert.Contains(t, warns[1].Message, "multiple GPU devices available (2)")

	name, err := dev.Name()
	require.NoError(t, err)
	assert.Equal(t, "gpu0", name)
}

func TestPlatformIsSelectedOnce(t *testing.T) {
	drv := computetest.NewDriver()
	rt, _, _ := newRuntime(drv)

	_, err := rt.CreateDevice(compute.DeviceTypeGPU)
	require.NoError(t, err)
	_, err = rt.CreateDevice(compute.DeviceTypeCPU)
	require.NoError(t, err)

	assert.Equal(t, 1, count(drv.Calls(), "clGetPlatformIDs"))
}

func TestCreateDeviceDriverFailure(t *testing.T) {
	drv := computetest.NewDriver()
	drv.FailOn = map[string]compute.Status{"clGetDeviceIDs": compute.OutOfHostMemory}
	rt, _, _ := newRuntime(drv)

	_, err := rt.CreateDevice(compute.DeviceTypeGPU)
	var se *compute.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, compute.OutOfHostMemory, se.Status)
	assert.Equal(t, "clGetDeviceIDs: CL_OUT_OF_HOST_MEMORY", err.Error())
}

func TestPlatforms(t *testing.T) {
	drv := &computetest.Driver{Platforms: []computetest.Platform{
		{Name: "a", GPUs: []string{"g"}, CPUs: []string{"c"}},
		{Name: "b"},
	}}
	rt, _, _ := newRuntime(drv)

	ps, err := rt.Platforms()
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "a", ps[0].Name)
	assert.Equal(t, []compute.DeviceInfo{
		{Name: "g", Type: compute.DeviceTypeGPU},
		{Name: "c", Type: compute.DeviceTypeCPU},
	}, ps[0].Devices)
	assert.Empty(t, ps[1].Devices)
}

func TestGLSharingProperties(t *testing.T) {
	f := newFixture(t)
	platform, err := f.rt.Platform()
	require.NoError(t, err)

	props, err := f.rt.GLSharingProperties(0xc0, 0xd0)
	require.NoError(t, err)
	assert.Equal(t, []compute.ContextProperty{
		compute.GLContextKHR, 0xc0,
		compute.GLXDisplayKHR, 0xd0,
		compute.ContextPlatform, compute.ContextProperty(platform),
	}, props)

	ctx, err := f.rt.CreateContext(f.device, props...)
	require.NoError(t, err)
	defer ctx.Release()
	assert.True(t, ctx.Interop())
	assert.False(t, f.ctx.Interop())
}

func TestCreateContextRejectsOddProperties(t *testing.T) {
	f := newFixture(t)
	_, err := f.rt.CreateContext(f.device, compute.ContextPlatform)
	assert.Error(t, err)
	assert.Zero(t, count(f.drv.Calls(), "clCreateContext"))
}

func TestReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.queue.Release())
	require.NoError(t, f.queue.Release())
	require.NoError(t, f.ctx.Release())
	require.NoError(t, f.ctx.Release())

	assert.Equal(t, 0, f.drv.Live("queue"))
	assert.Equal(t, 0, f.drv.Live("context"))
	assert.Equal(t, 1, count(f.drv.Calls(), "clReleaseContext"))

	_, err := f.rt.CreateQueue(f.ctx, f.device)
	assert.Equal(t, compute.ErrReleased, err)
}

func TestParseDeviceType(t *testing.T) {
	typ, err := compute.ParseDeviceType("GPU")
	require.NoError(t, err)
	assert.Equal(t, compute.DeviceTypeGPU, typ)

	typ, err = compute.ParseDeviceType("cpu")
	require.NoError(t, err)
	assert.Equal(t, compute.DeviceTypeCPU, typ)

	_, err = compute.ParseDeviceType("fpga")
	assert.Error(t, err)
}
