package interop_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/compute/computetest"
	"github.com/xupit3r/directcl/internal/interop"
)

// graphics records glFinish into the driver's call log so the two APIs'
// calls can be checked in one sequence.
type graphics struct {
	drv *computetest.Driver
	err error
}

func (g *graphics) Finish() error {
	g.drv.Record("glFinish")
	return g.err
}

type setup struct {
	drv    *computetest.Driver
	gfx    *graphics
	queue  *compute.Queue
	image  *compute.Buffer
	kernel *compute.Kernel
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	drv := computetest.NewDriver()
	rt := compute.NewRuntime(drv, compute.WithBuildLog(nil))

	dev, err := rt.CreateDevice(compute.DeviceTypeGPU)
	require.NoError(t, err)
	props, err := rt.GLSharingProperties(1, 2)
	require.NoError(t, err)
	ctx, err := rt.CreateContext(dev, props...)
	require.NoError(t, err)
	queue, err := rt.CreateQueue(ctx, dev)
	require.NoError(t, err)
	image, err := rt.CreateBufferFromRenderbuffer(ctx, compute.ReadWrite, 1)
	require.NoError(t, err)
	k, err := rt.CreateKernel(dev, ctx, "__kernel void fill(write_only image2d_t img) {}", "fill", "")
	require.NoError(t, err)
	require.NoError(t, k.BindBuffer(image))
	require.NoError(t, k.SetGlobalSize(4, 4))

	drv.Reset()
	return &setup{drv: drv, gfx: &graphics{drv: drv}, queue: queue, image: image, kernel: k}
}

func TestDispatchOrder(t *testing.T) {
	s := newSetup(t)
	sync, err := interop.New(s.gfx, s.queue, s.image)
	require.NoError(t, err)

	require.NoError(t, sync.Dispatch(s.kernel))
	assert.Equal(t, []string{
		"glFinish",
		"clEnqueueAcquireGLObjects",
		"clWaitForEvents",
		"clReleaseEvent",
		"clEnqueueNDRangeKernel",
		"clEnqueueReleaseGLObjects",
		"clWaitForEvents",
		"clReleaseEvent",
	}, s.drv.Calls())
	assert.Equal(t, 0, s.drv.Live("event"))
	assert.Len(t, s.drv.Dispatches(), 1)
	assert.Zero(t, s.kernel.Cursor())

	// The image is back with graphics, so the next frame can acquire it.
	require.NoError(t, sync.Dispatch(s.kernel))
	assert.Len(t, s.drv.Dispatches(), 2)
}

func TestDispatchStopsAtFailingStep(t *testing.T) {
	tests := []struct {
		name     string
		failOn   string
		gfxErr   error
		wantStep interop.Step
		lastCall string
	}{
		{name: "graphics finish", gfxErr: errors.New("context lost"), wantStep: interop.StepGraphicsFinish, lastCall: "glFinish"},
		{name: "acquire", failOn: "clEnqueueAcquireGLObjects", wantStep: interop.StepAcquire, lastCall: "clEnqueueAcquireGLObjects"},
		{name: "wait acquire", failOn: "clWaitForEvents", wantStep: interop.StepWaitAcquire, lastCall: "clReleaseEvent"},
		{name: "run", failOn: "clEnqueueNDRangeKernel", wantStep: interop.StepRun, lastCall: "clEnqueueNDRangeKernel"},
		{name: "release", failOn: "clEnqueueReleaseGLObjects", wantStep: interop.StepRelease, lastCall: "clEnqueueReleaseGLObjects"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSetup(t)
			s.gfx.err = tt.gfxErr
			if tt.failOn != "" {
				s.drv.FailOn = map[string]compute.Status{tt.failOn: compute.OutOfResources}
			}
			sync, err := interop.New(s.gfx, s.queue, s.image)
			require.NoError(t, err)

			err = sync.Dispatch(s.kernel)
			var se *interop.StepError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantStep, se.Step)

			calls := s.drv.Calls()
			assert.Equal(t, tt.lastCall, calls[len(calls)-1])
		})
	}
}

func TestWaitReleaseFailure(t *testing.T) {
	s := newSetup(t)
	s.drv.FailAt = map[string]computetest.Failure{
		"clWaitForEvents": {Call: 2, Status: compute.InvalidEvent},
	}
	sync, err := interop.New(s.gfx, s.queue, s.image)
	require.NoError(t, err)

	err = sync.Dispatch(s.kernel)
	var se *interop.StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, interop.StepWaitRelease, se.Step)
	assert.Equal(t, "interop wait release: clWaitForEvents: CL_INVALID_EVENT", err.Error())
	assert.Len(t, s.drv.Dispatches(), 1)
	assert.Equal(t, 0, s.drv.Live("event"))
}

func TestNewRequiresSharedBuffers(t *testing.T) {
	s := newSetup(t)

	_, err := interop.New(s.gfx, s.queue)
	assert.Error(t, err)
	_, err = interop.New(nil, s.queue, s.image)
	assert.Error(t, err)
}

func TestDispatchTrace(t *testing.T) {
	s := newSetup(t)
	sync, err := interop.New(s.gfx, s.queue, s.image)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.TraceLevel)
	sync.SetLogger(logger)

	require.NoError(t, sync.Dispatch(s.kernel))
	var steps []string
	for _, e := range hook.AllEntries() {
		steps = append(steps, e.Data["step"].(string))
	}
	assert.Equal(t, []string{
		"graphics finish", "acquire", "wait acquire", "run kernel", "release", "wait release",
	}, steps)
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "wait acquire", interop.StepWaitAcquire.String())
	assert.Equal(t, "step(9)", interop.Step(9).String())
}

func TestWaitFailureKeepsReleaseError(t *testing.T) {
	s := newSetup(t)
	s.drv.FailOn = map[string]compute.Status{
		"clWaitForEvents": compute.InvalidEvent,
		"clReleaseEvent":  compute.OutOfResources,
	}
	sync, err := interop.New(s.gfx, s.queue, s.image)
	require.NoError(t, err)

	err = sync.Dispatch(s.kernel)
	var se *interop.StepError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, interop.StepWaitAcquire, se.Step)
	assert.Contains(t, err.Error(), "clWaitForEvents: CL_INVALID_EVENT")
	assert.Contains(t, err.Error(), "clReleaseEvent: CL_OUT_OF_RESOURCES")

	var status *compute.StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, compute.InvalidEvent, status.Status)
}
