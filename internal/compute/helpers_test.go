package compute_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/compute/computetest"
)

// fixture is a runtime over the mock driver with one device, context and
// queue ready to use.
type fixture struct {
	drv      *computetest.Driver
	rt       *compute.Runtime
	hook     *test.Hook
	buildLog *bytes.Buffer

	device compute.Device
	ctx    *compute.Context
	queue  *compute.Queue
}

func newRuntime(drv *computetest.Driver) (*compute.Runtime, *test.Hook, *bytes.Buffer) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	buildLog := &bytes.Buffer{}
	rt := compute.NewRuntime(drv, compute.WithLogger(logger), compute.WithBuildLog(buildLog))
	return rt, hook, buildLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	drv := computetest.NewDriver()
	rt, hook, buildLog := newRuntime(drv)

	device, err := rt.CreateDevice(compute.DeviceTypeGPU)
	require.NoError(t, err)
	ctx, err := rt.CreateContext(device)
	require.NoError(t, err)
	queue, err := rt.CreateQueue(ctx, device)
	require.NoError(t, err)

	t.Cleanup(func() {
		queue.Release()
		ctx.Release()
	})
	drv.Reset()
	return &fixture{drv: drv, rt: rt, hook: hook, buildLog: buildLog, device: device, ctx: ctx, queue: queue}
}

const addSource = `
__kernel void add(__global int *out, int a, int b)
{
	out[get_global_id(0)] = a + b;
}
`

func (f *fixture) kernel(t *testing.T) *compute.Kernel {
	t.Helper()
	k, err := f.rt.CreateKernel(f.device, f.ctx, addSource, "add", "")
	require.NoError(t, err)
	t.Cleanup(func() { k.Release() })
	return k
}

func warnings(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

func count(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}
