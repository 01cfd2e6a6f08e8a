package compute

import (
	"strings"
	"unsafe"

	"github.com/pkg/errors"
)

// Native handles. They hold the raw OpenCL object pointers and are never
// dereferenced on the Go side.
type (
	PlatformID uintptr
	DeviceID   uintptr
	ContextID  uintptr
	QueueID    uintptr
	MemID      uintptr
	ProgramID  uintptr
	KernelID   uintptr
	EventID    uintptr
)

// HandleSize is the byte size of a memory object handle as seen by
// clSetKernelArg.
const HandleSize = unsafe.Sizeof(MemID(0))

// DeviceType selects a class of device. Values match cl_device_type.
type DeviceType uint64

const (
	DeviceTypeCPU DeviceType = 1 << 1
	DeviceTypeGPU DeviceType = 1 << 2
)

func (dt DeviceType) String() string {
	switch dt {
	case DeviceTypeCPU:
		return "CPU"
	case DeviceTypeGPU:
		return "GPU"
	default:
		return "Unknown"
	}
}

// ParseDeviceType maps "gpu" or "cpu", in any case, to a DeviceType.
func ParseDeviceType(s string) (DeviceType, error) {
	switch strings.ToLower(s) {
	case "gpu":
		return DeviceTypeGPU, nil
	case "cpu":
		return DeviceTypeCPU, nil
	}
	return 0, errors.Errorf("unknown device type %q", s)
}

// BufferMode is the kernel-side access mode of a buffer. Values match
// cl_mem_flags.
type BufferMode uint64

const (
	ReadWrite BufferMode = 1 << 0
	WriteOnly BufferMode = 1 << 1
	ReadOnly  BufferMode = 1 << 2

	// copyHostPtr is OR-ed into the mode by CreateBufferFrom.
	copyHostPtr BufferMode = 1 << 5
)

func (m BufferMode) String() string {
	switch m &^ copyHostPtr {
	case ReadWrite:
		return "read-write"
	case WriteOnly:
		return "write-only"
	case ReadOnly:
		return "read-only"
	default:
		return "invalid"
	}
}

// ContextProperty is one cl_context_properties word. Property lists are
// key/value pairs; the zero terminator is appended by the driver.
type ContextProperty uintptr

// Context property keys.
const (
	ContextPlatform ContextProperty = 0x1084
	GLContextKHR    ContextProperty = 0x2008
	GLXDisplayKHR   ContextProperty = 0x200A
)

// Driver is the native compute API surface. Every call mirrors one OpenCL
// entry point and reports the raw status code; interpretation of the codes
// is left to the Runtime.
type Driver interface {
	PlatformIDs() ([]PlatformID, Status)
	PlatformName(p PlatformID) (string, Status)
	DeviceIDs(p PlatformID, t DeviceType) ([]DeviceID, Status)
	DeviceName(d DeviceID) (string, Status)

	CreateContext(props []ContextProperty, d DeviceID) (ContextID, Status)
	ReleaseContext(c ContextID) Status
	CreateCommandQueue(c ContextID, d DeviceID) (QueueID, Status)
	ReleaseCommandQueue(q QueueID) Status

	CreateBuffer(c ContextID, mode BufferMode, size int, host []byte) (MemID, Status)
	CreateFromGLRenderbuffer(c ContextID, mode BufferMode, rbo uint32) (MemID, Status)
	ReleaseMemObject(m MemID) Status

	CreateProgramWithSource(c ContextID, source string) (ProgramID, Status)
	BuildProgram(p ProgramID, d DeviceID, options string) Status
	ProgramBuildLog(p ProgramID, d DeviceID) (string, Status)
	ReleaseProgram(p ProgramID) Status
	CreateKernel(p ProgramID, name string) (KernelID, Status)
	ReleaseKernel(k KernelID) Status
	SetKernelArg(k KernelID, index uint32, size uintptr, value unsafe.Pointer) Status

	EnqueueWriteBuffer(q QueueID, m MemID, blocking bool, offset int, data []byte) Status
	EnqueueReadBuffer(q QueueID, m MemID, blocking bool, offset int, data []byte) Status
	EnqueueNDRangeKernel(q QueueID, k KernelID, global, local []uintptr) Status
	EnqueueAcquireGLObjects(q QueueID, mems []MemID) (EventID, Status)
	EnqueueReleaseGLObjects(q QueueID, mems []MemID) (EventID, Status)
	WaitForEvents(events []EventID) Status
	ReleaseEvent(e EventID) Status
	Flush(q QueueID) Status
	Finish(q QueueID) Status
}
