package compute_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xupit3r/directcl/internal/compute"
)

func TestAcquireReleaseShared(t *testing.T) {
	f := newFixture(t)
	img, err := f.rt.CreateBufferFromRenderbuffer(f.ctx, compute.ReadWrite, 3)
	require.NoError(t, err)

	ev, err := f.queue.AcquireShared(img)
	require.NoError(t, err)
	require.NoError(t, ev.Wait())
	require.NoError(t, ev.Release())
	assert.Equal(t, compute.ErrReleased, ev.Wait())

	// Acquiring twice without a release is a driver error.
	_, err = f.queue.AcquireShared(img)
	assert.Error(t, err)

	ev, err = f.queue.ReleaseShared(img)
	require.NoError(t, err)
	require.NoError(t, ev.Wait())
	require.NoError(t, ev.Release())
	assert.Equal(t, 0, f.drv.Live("event"))
}

func TestAcquireRejectsPlainBuffers(t *testing.T) {
	f := newFixture(t)
	buf, err := f.rt.CreateBuffer(f.ctx, compute.ReadWrite, 4)
	require.NoError(t, err)
	defer buf.Release()

	_, err = f.queue.AcquireShared(buf)
	assert.Error(t, err)
	_, err = f.queue.AcquireShared()
	assert.Error(t, err)
	assert.Zero(t, count(f.drv.Calls(), "clEnqueueAcquireGLObjects"))
}

func TestFlushFinish(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.queue.Flush())
	require.NoError(t, f.queue.Finish())
	assert.Equal(t, []string{"clFlush", "clFinish"}, f.drv.Calls())
}
