package compute

import "github.com/pkg/errors"

// Buffer is a region of device memory. A shared buffer aliases a graphics
// renderbuffer; its memory belongs to the graphics resource.
type Buffer struct {
	id     MemID
	size   int
	mode   BufferMode
	shared bool
	drv    Driver
}

// ID returns the native memory handle.
func (b *Buffer) ID() MemID { return b.id }

// Size returns the size in bytes, or 0 for a shared buffer whose storage is
// defined by the graphics resource.
func (b *Buffer) Size() int { return b.size }

// Mode returns the kernel-side access mode.
func (b *Buffer) Mode() BufferMode { return b.mode &^ copyHostPtr }

// Shared reports whether the buffer aliases a graphics resource.
func (b *Buffer) Shared() bool { return b.shared }

// Release frees the device memory. Shared buffers are left alone: the
// graphics resource owns them.
func (b *Buffer) Release() error {
	if b.id == 0 || b.shared {
		return nil
	}
	st := b.drv.ReleaseMemObject(b.id)
	b.id = 0
	return check("clReleaseMemObject", st)
}

func validMode(mode BufferMode) bool {
	switch mode {
	case ReadWrite, WriteOnly, ReadOnly:
		return true
	}
	return false
}

// CreateBuffer allocates size bytes of device memory in ctx.
func (r *Runtime) CreateBuffer(ctx *Context, mode BufferMode, size int) (*Buffer, error) {
	if !validMode(mode) {
		return nil, errors.Errorf("invalid buffer mode %#x", uint64(mode))
	}
	if size <= 0 {
		return nil, errors.Errorf("invalid buffer size: %d", size)
	}
	id, st := r.drv.CreateBuffer(ctx.id, mode, size, nil)
	if err := check("clCreateBuffer", st); err != nil {
		return nil, err
	}
	return &Buffer{id: id, size: size, mode: mode, drv: r.drv}, nil
}

// CreateBufferFrom allocates a buffer initialised with a copy of data.
func (r *Runtime) CreateBufferFrom(ctx *Context, mode BufferMode, data []byte) (*Buffer, error) {
	if !validMode(mode) {
		return nil, errors.Errorf("invalid buffer mode %#x", uint64(mode))
	}
	if len(data) == 0 {
		return nil, errors.New("invalid buffer size: 0")
	}
	id, st := r.drv.CreateBuffer(ctx.id, mode|copyHostPtr, len(data), data)
	if err := check("clCreateBuffer", st); err != nil {
		return nil, err
	}
	return &Buffer{id: id, size: len(data), mode: mode, drv: r.drv}, nil
}

// CreateBufferFromRenderbuffer aliases the GL renderbuffer rbo as a compute
// buffer. No memory is allocated; ctx must have been created with GL
// sharing properties.
func (r *Runtime) CreateBufferFromRenderbuffer(ctx *Context, mode BufferMode, rbo uint32) (*Buffer, error) {
	if !validMode(mode) {
		return nil, errors.Errorf("invalid buffer mode %#x", uint64(mode))
	}
	if !ctx.interop {
		r.log.Warn("creating a renderbuffer alias in a context without GL sharing properties")
	}
	id, st := r.drv.CreateFromGLRenderbuffer(ctx.id, mode, rbo)
	if err := check("clCreateFromGLRenderbuffer", st); err != nil {
		return nil, err
	}
	return &Buffer{id: id, mode: mode, shared: true, drv: r.drv}, nil
}
