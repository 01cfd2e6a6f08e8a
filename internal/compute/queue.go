package compute

import "github.com/pkg/errors"

// Queue is an in-order command stream to one device.
type Queue struct {
	id  QueueID
	drv Driver
}

// ID returns the native queue handle.
func (q *Queue) ID() QueueID { return q.id }

// Release drops the queue. Releasing twice is a no-op.
func (q *Queue) Release() error {
	if q.id == 0 {
		return nil
	}
	st := q.drv.ReleaseCommandQueue(q.id)
	q.id = 0
	return check("clReleaseCommandQueue", st)
}

func (q *Queue) transferable(b *Buffer, n int) error {
	if q.id == 0 || b.id == 0 {
		return ErrReleased
	}
	if b.shared {
		return errors.New("host transfers on a shared buffer are not supported")
	}
	if n > b.size {
		return errors.Errorf("transfer of %d bytes exceeds buffer size %d", n, b.size)
	}
	return nil
}

// Fill copies data into the start of b. With blocking set the call returns
// once the copy is complete; otherwise data must not be modified until the
// queue is finished.
func (q *Queue) Fill(b *Buffer, data []byte, blocking bool) error {
	if err := q.transferable(b, len(data)); err != nil {
		return err
	}
	return check("clEnqueueWriteBuffer", q.drv.EnqueueWriteBuffer(q.id, b.id, blocking, 0, data))
}

// Dump copies len(data) bytes from the start of b into data. Without
// blocking, data is only valid after the queue is finished.
func (q *Queue) Dump(b *Buffer, data []byte, blocking bool) error {
	if err := q.transferable(b, len(data)); err != nil {
		return err
	}
	return check("clEnqueueReadBuffer", q.drv.EnqueueReadBuffer(q.id, b.id, blocking, 0, data))
}

// Run submits k with its current global and local sizes and resets its
// argument cursor. It does not wait for completion.
func (q *Queue) Run(k *Kernel) error {
	if q.id == 0 || k.id == 0 {
		return ErrReleased
	}
	if !k.setGlobal {
		return ErrNoGlobalSize
	}
	global := k.global[:k.rank]
	var local []uintptr
	if k.setLocal {
		local = k.local[:k.rank]
	}
	k.arg = 0
	return check("clEnqueueNDRangeKernel", q.drv.EnqueueNDRangeKernel(q.id, k.id, global, local))
}

// AcquireShared enqueues the hand-over of shared buffers from the graphics API to
// this queue. The returned event completes once compute may touch them.
func (q *Queue) AcquireShared(bufs ...*Buffer) (*Event, error) {
	mems, err := sharedMems(bufs)
	if err != nil {
		return nil, err
	}
	id, st := q.drv.EnqueueAcquireGLObjects(q.id, mems)
	if err := check("clEnqueueAcquireGLObjects", st); err != nil {
		return nil, err
	}
	return &Event{id: id, drv: q.drv}, nil
}

// ReleaseShared hands shared buffers back to the graphics API. The returned event
// completes once graphics may sample them.
func (q *Queue) ReleaseShared(bufs ...*Buffer) (*Event, error) {
	mems, err := sharedMems(bufs)
	if err != nil {
		return nil, err
	}
	id, st := q.drv.EnqueueReleaseGLObjects(q.id, mems)
	if err := check("clEnqueueReleaseGLObjects", st); err != nil {
		return nil, err
	}
	return &Event{id: id, drv: q.drv}, nil
}

func sharedMems(bufs []*Buffer) ([]MemID, error) {
	if len(bufs) == 0 {
		return nil, errors.New("no shared buffers given")
	}
	mems := make([]MemID, len(bufs))
	for i, b := range bufs {
		if !b.shared {
			return nil, errors.Errorf("buffer %d is not shared with graphics", i)
		}
		mems[i] = b.id
	}
	return mems, nil
}

// Flush submits all queued commands to the device without waiting.
func (q *Queue) Flush() error {
	return check("clFlush", q.drv.Flush(q.id))
}

// Finish blocks until every queued command has completed.
func (q *Queue) Finish() error {
	return check("clFinish", q.drv.Finish(q.id))
}
