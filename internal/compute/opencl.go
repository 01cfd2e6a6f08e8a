//go:build linux && cgo
// +build linux,cgo

package compute

/*
#cgo LDFLAGS: -lOpenCL

#define CL_TARGET_OPENCL_VERSION 200
#include <CL/cl.h>
#include <CL/cl_gl.h>
#include <stdlib.h>
*/
import "C"
import (
	"runtime"
	"sync"
	"unsafe"
)

// openCLDriver calls the system OpenCL ICD loader.
type openCLDriver struct {
	mu sync.Mutex
	// Host memory handed to non-blocking transfers, held until the queue
	// is finished.
	pinned map[QueueID]*runtime.Pinner
}

// NewOpenCLDriver returns the native driver.
func NewOpenCLDriver() (Driver, error) {
	return &openCLDriver{pinned: make(map[QueueID]*runtime.Pinner)}, nil
}

func ptr(h uintptr) unsafe.Pointer { return unsafe.Pointer(h) }

func (d *openCLDriver) PlatformIDs() ([]PlatformID, Status) {
	var n C.cl_uint
	if st := Status(C.clGetPlatformIDs(0, nil, &n)); st != Success {
		return nil, st
	}
	if n == 0 {
		return nil, Success
	}
	raw := make([]C.cl_platform_id, n)
	if st := Status(C.clGetPlatformIDs(n, &raw[0], nil)); st != Success {
		return nil, st
	}
	ids := make([]PlatformID, n)
	for i, p := range raw {
		ids[i] = PlatformID(unsafe.Pointer(p))
	}
	return ids, Success
}

func (d *openCLDriver) PlatformName(p PlatformID) (string, Status) {
	pid := C.cl_platform_id(ptr(uintptr(p)))
	var size C.size_t
	if st := Status(C.clGetPlatformInfo(pid, C.CL_PLATFORM_NAME, 0, nil, &size)); st != Success {
		return "", st
	}
	buf := make([]byte, size)
	if size == 0 {
		return "", Success
	}
	if st := Status(C.clGetPlatformInfo(pid, C.CL_PLATFORM_NAME, size, unsafe.Pointer(&buf[0]), nil)); st != Success {
		return "", st
	}
	return cstring(buf), Success
}

func (d *openCLDriver) DeviceIDs(p PlatformID, t DeviceType) ([]DeviceID, Status) {
	pid := C.cl_platform_id(ptr(uintptr(p)))
	var n C.cl_uint
	if st := Status(C.clGetDeviceIDs(pid, C.cl_device_type(t), 0, nil, &n)); st != Success {
		return nil, st
	}
	if n == 0 {
		return nil, Success
	}
	raw := make([]C.cl_device_id, n)
	if st := Status(C.clGetDeviceIDs(pid, C.cl_device_type(t), n, &raw[0], nil)); st != Success {
		return nil, st
	}
	ids := make([]DeviceID, n)
	for i, dev := range raw {
		ids[i] = DeviceID(unsafe.Pointer(dev))
	}
	return ids, Success
}

func (d *openCLDriver) DeviceName(dev DeviceID) (string, Status) {
	did := C.cl_device_id(ptr(uintptr(dev)))
	var size C.size_t
	if st := Status(C.clGetDeviceInfo(did, C.CL_DEVICE_NAME, 0, nil, &size)); st != Success {
		return "", st
	}
	if size == 0 {
		return "", Success
	}
	buf := make([]byte, size)
	if st := Status(C.clGetDeviceInfo(did, C.CL_DEVICE_NAME, size, unsafe.Pointer(&buf[0]), nil)); st != Success {
		return "", st
	}
	return cstring(buf), Success
}

func (d *openCLDriver) CreateContext(props []ContextProperty, dev DeviceID) (ContextID, Status) {
	var cprops *C.cl_context_properties
	if len(props) > 0 {
		list := make([]C.cl_context_properties, 0, len(props)+1)
		for _, p := range props {
			list = append(list, C.cl_context_properties(p))
		}
		list = append(list, 0)
		cprops = &list[0]
	}
	did := C.cl_device_id(ptr(uintptr(dev)))
	var errcode C.cl_int
	ctx := C.clCreateContext(cprops, 1, &did, nil, nil, &errcode)
	return ContextID(unsafe.Pointer(ctx)), Status(errcode)
}

func (d *openCLDriver) ReleaseContext(c ContextID) Status {
	return Status(C.clReleaseContext(C.cl_context(ptr(uintptr(c)))))
}

func (d *openCLDriver) CreateCommandQueue(c ContextID, dev DeviceID) (QueueID, Status) {
	var errcode C.cl_int
	q := C.clCreateCommandQueueWithProperties(
		C.cl_context(ptr(uintptr(c))), C.cl_device_id(ptr(uintptr(dev))), nil, &errcode)
	return QueueID(unsafe.Pointer(q)), Status(errcode)
}

func (d *openCLDriver) ReleaseCommandQueue(q QueueID) Status {
	d.unpin(q)
	return Status(C.clReleaseCommandQueue(C.cl_command_queue(ptr(uintptr(q)))))
}

func (d *openCLDriver) CreateBuffer(c ContextID, mode BufferMode, size int, host []byte) (MemID, Status) {
	var hostPtr unsafe.Pointer
	if len(host) > 0 {
		hostPtr = unsafe.Pointer(&host[0])
	}
	var errcode C.cl_int
	m := C.clCreateBuffer(C.cl_context(ptr(uintptr(c))), C.cl_mem_flags(mode), C.size_t(size), hostPtr, &errcode)
	return MemID(unsafe.Pointer(m)), Status(errcode)
}

func (d *openCLDriver) CreateFromGLRenderbuffer(c ContextID, mode BufferMode, rbo uint32) (MemID, Status) {
	var errcode C.cl_int
	m := C.clCreateFromGLRenderbuffer(C.cl_context(ptr(uintptr(c))), C.cl_mem_flags(mode), C.cl_GLuint(rbo), &errcode)
	return MemID(unsafe.Pointer(m)), Status(errcode)
}

func (d *openCLDriver) ReleaseMemObject(m MemID) Status {
	return Status(C.clReleaseMemObject(C.cl_mem(ptr(uintptr(m)))))
}

func (d *openCLDriver) CreateProgramWithSource(c ContextID, source string) (ProgramID, Status) {
	csrc := C.CString(source)
	defer C.free(unsafe.Pointer(csrc))
	var errcode C.cl_int
	p := C.clCreateProgramWithSource(C.cl_context(ptr(uintptr(c))), 1, &csrc, nil, &errcode)
	return ProgramID(unsafe.Pointer(p)), Status(errcode)
}

func (d *openCLDriver) BuildProgram(p ProgramID, dev DeviceID, options string) Status {
	copts := C.CString(options)
	defer C.free(unsafe.Pointer(copts))
	did := C.cl_device_id(ptr(uintptr(dev)))
	return Status(C.clBuildProgram(C.cl_program(ptr(uintptr(p))), 1, &did, copts, nil, nil))
}

func (d *openCLDriver) ProgramBuildLog(p ProgramID, dev DeviceID) (string, Status) {
	pid := C.cl_program(ptr(uintptr(p)))
	did := C.cl_device_id(ptr(uintptr(dev)))
	var size C.size_t
	if st := Status(C.clGetProgramBuildInfo(pid, did, C.CL_PROGRAM_BUILD_LOG, 0, nil, &size)); st != Success {
		return "", st
	}
	if size == 0 {
		return "", Success
	}
	buf := make([]byte, size)
	if st := Status(C.clGetProgramBuildInfo(pid, did, C.CL_PROGRAM_BUILD_LOG, size, unsafe.Pointer(&buf[0]), nil)); st != Success {
		return "", st
	}
	return cstring(buf), Success
}

func (d *openCLDriver) ReleaseProgram(p ProgramID) Status {
	return Status(C.clReleaseProgram(C.cl_program(ptr(uintptr(p)))))
}

func (d *openCLDriver) CreateKernel(p ProgramID, name string) (KernelID, Status) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	var errcode C.cl_int
	k := C.clCreateKernel(C.cl_program(ptr(uintptr(p))), cname, &errcode)
	return KernelID(unsafe.Pointer(k)), Status(errcode)
}

func (d *openCLDriver) ReleaseKernel(k KernelID) Status {
	return Status(C.clReleaseKernel(C.cl_kernel(ptr(uintptr(k)))))
}

func (d *openCLDriver) SetKernelArg(k KernelID, index uint32, size uintptr, value unsafe.Pointer) Status {
	return Status(C.clSetKernelArg(C.cl_kernel(ptr(uintptr(k))), C.cl_uint(index), C.size_t(size), value))
}

// pin keeps data reachable by the driver until q is finished.
func (d *openCLDriver) pin(q QueueID, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pinned[q]
	if !ok {
		p = new(runtime.Pinner)
		d.pinned[q] = p
	}
	p.Pin(&data[0])
}

func (d *openCLDriver) unpin(q QueueID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pinned[q]; ok {
		p.Unpin()
		delete(d.pinned, q)
	}
}

func clBool(b bool) C.cl_bool {
	if b {
		return C.CL_TRUE
	}
	return C.CL_FALSE
}

func (d *openCLDriver) EnqueueWriteBuffer(q QueueID, m MemID, blocking bool, offset int, data []byte) Status {
	if len(data) == 0 {
		return Success
	}
	if !blocking {
		d.pin(q, data)
	}
	return Status(C.clEnqueueWriteBuffer(C.cl_command_queue(ptr(uintptr(q))), C.cl_mem(ptr(uintptr(m))),
		clBool(blocking), C.size_t(offset), C.size_t(len(data)), unsafe.Pointer(&data[0]), 0, nil, nil))
}

func (d *openCLDriver) EnqueueReadBuffer(q QueueID, m MemID, blocking bool, offset int, data []byte) Status {
	if len(data) == 0 {
		return Success
	}
	if !blocking {
		d.pin(q, data)
	}
	return Status(C.clEnqueueReadBuffer(C.cl_command_queue(ptr(uintptr(q))), C.cl_mem(ptr(uintptr(m))),
		clBool(blocking), C.size_t(offset), C.size_t(len(data)), unsafe.Pointer(&data[0]), 0, nil, nil))
}

func (d *openCLDriver) EnqueueNDRangeKernel(q QueueID, k KernelID, global, local []uintptr) Status {
	var clocal *C.size_t
	if len(local) > 0 {
		clocal = (*C.size_t)(unsafe.Pointer(&local[0]))
	}
	return Status(C.clEnqueueNDRangeKernel(C.cl_command_queue(ptr(uintptr(q))), C.cl_kernel(ptr(uintptr(k))),
		C.cl_uint(len(global)), nil, (*C.size_t)(unsafe.Pointer(&global[0])), clocal, 0, nil, nil))
}

func memList(mems []MemID) []C.cl_mem {
	out := make([]C.cl_mem, len(mems))
	for i, m := range mems {
		out[i] = C.cl_mem(ptr(uintptr(m)))
	}
	return out
}

func (d *openCLDriver) EnqueueAcquireGLObjects(q QueueID, mems []MemID) (EventID, Status) {
	list := memList(mems)
	var ev C.cl_event
	st := C.clEnqueueAcquireGLObjects(C.cl_command_queue(ptr(uintptr(q))), C.cl_uint(len(list)), &list[0], 0, nil, &ev)
	return EventID(unsafe.Pointer(ev)), Status(st)
}

func (d *openCLDriver) EnqueueReleaseGLObjects(q QueueID, mems []MemID) (EventID, Status) {
	list := memList(mems)
	var ev C.cl_event
	st := C.clEnqueueReleaseGLObjects(C.cl_command_queue(ptr(uintptr(q))), C.cl_uint(len(list)), &list[0], 0, nil, &ev)
	return EventID(unsafe.Pointer(ev)), Status(st)
}

func (d *openCLDriver) WaitForEvents(events []EventID) Status {
	if len(events) == 0 {
		return InvalidValue
	}
	list := make([]C.cl_event, len(events))
	for i, e := range events {
		list[i] = C.cl_event(ptr(uintptr(e)))
	}
	return Status(C.clWaitForEvents(C.cl_uint(len(list)), &list[0]))
}

func (d *openCLDriver) ReleaseEvent(e EventID) Status {
	return Status(C.clReleaseEvent(C.cl_event(ptr(uintptr(e)))))
}

func (d *openCLDriver) Flush(q QueueID) Status {
	return Status(C.clFlush(C.cl_command_queue(ptr(uintptr(q)))))
}

func (d *openCLDriver) Finish(q QueueID) Status {
	st := Status(C.clFinish(C.cl_command_queue(ptr(uintptr(q)))))
	if st == Success {
		d.unpin(q)
	}
	return st
}

// cstring trims the NUL terminator OpenCL includes in string queries.
func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
