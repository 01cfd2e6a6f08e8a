// Package computetest provides an in-memory compute.Driver that records
// every call, for tests that must run without an OpenCL device.
package computetest

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/xupit3r/directcl/internal/compute"
)

// Platform describes one fake platform.
type Platform struct {
	Name string
	GPUs []string
	CPUs []string
}

// Dispatch is a recorded kernel submission.
type Dispatch struct {
	Kernel compute.KernelID
	Global []uintptr
	Local  []uintptr
	Args   map[uint32][]byte
}

// Failure selects the Call-th invocation (counting from 1 since the last
// Reset) of a function and the status it returns.
type Failure struct {
	Call   int
	Status compute.Status
}

type object struct {
	kind string
	name string

	data     []byte // buffers
	shared   bool
	acquired bool

	source string // programs
	log    string
	built  bool

	args map[uint32][]byte // kernels
}

// Driver is a recording compute.Driver. The zero value has no platforms;
// use NewDriver for the usual single-GPU setup.
type Driver struct {
	// Platforms is the fake hardware. Set it before first use.
	Platforms []Platform
	// FailOn forces the named OpenCL call to return the given status.
	FailOn map[string]compute.Status
	// FailAt forces a single call of the named function to fail.
	FailAt map[string]Failure

	mu         sync.Mutex
	next       uintptr
	objects    map[uintptr]*object
	calls      []string
	dispatches []Dispatch
}

var _ compute.Driver = (*Driver)(nil)

// NewDriver returns a driver with one platform holding one GPU and one CPU.
func NewDriver() *Driver {
	return &Driver{
		Platforms: []Platform{{
			Name: "Mock Platform",
			GPUs: []string{"Mock GPU"},
			CPUs: []string{"Mock CPU"},
		}},
	}
}

// Record appends name to the call log. Collaborators such as a fake
// graphics layer use it to interleave their calls with the driver's.
func (d *Driver) Record(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, name)
}

// Calls returns the call log.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// Reset clears the call log and recorded dispatches.
func (d *Driver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
	d.dispatches = nil
}

// Dispatches returns every recorded kernel submission.
func (d *Driver) Dispatches() []Dispatch {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Dispatch(nil), d.dispatches...)
}

// Arg returns the bytes last bound at index of kernel k.
func (d *Driver) Arg(k compute.KernelID, index uint32) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	o, ok := d.objects[uintptr(k)]
	if !ok || o.kind != "kernel" {
		return nil, false
	}
	v, ok := o.args[index]
	return v, ok
}

// Memory returns a copy of a buffer's contents.
func (d *Driver) Memory(m compute.MemID) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if o, ok := d.objects[uintptr(m)]; ok {
		return append([]byte(nil), o.data...)
	}
	return nil
}

// Live counts objects of the given kind ("context", "queue", "mem",
// "program", "kernel", "event") that have not been released.
func (d *Driver) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, o := range d.objects {
		if o.kind == kind {
			n++
		}
	}
	return n
}

// enter records a call and reports a forced failure, if any. The caller
// must hold d.mu.
func (d *Driver) enter(name string) compute.Status {
	d.calls = append(d.calls, name)
	if st, ok := d.FailOn[name]; ok {
		return st
	}
	if f, ok := d.FailAt[name]; ok {
		n := 0
		for _, c := range d.calls {
			if c == name {
				n++
			}
		}
		if n == f.Call {
			return f.Status
		}
	}
	return compute.Success
}

func (d *Driver) alloc(o *object) uintptr {
	if d.objects == nil {
		d.objects = make(map[uintptr]*object)
	}
	d.next += 0x10
	id := 0x1000 + d.next
	d.objects[id] = o
	return id
}

func (d *Driver) lookup(id uintptr, kind string) (*object, bool) {
	o, ok := d.objects[id]
	if !ok || o.kind != kind {
		return nil, false
	}
	return o, true
}

func (d *Driver) release(id uintptr, kind string, invalid compute.Status) compute.Status {
	if _, ok := d.lookup(id, kind); !ok {
		return invalid
	}
	delete(d.objects, id)
	return compute.Success
}

// Platform and device handles are stable indices so repeated queries agree.
func platformID(i int) compute.PlatformID { return compute.PlatformID(0x100 + i) }

func deviceID(p, i int, t compute.DeviceType) compute.DeviceID {
	return compute.DeviceID(0x200 + p*0x40 + int(t)*0x8 + i)
}

func (d *Driver) platformIndex(p compute.PlatformID) (int, bool) {
	i := int(p) - 0x100
	return i, i >= 0 && i < len(d.Platforms)
}

func (d *Driver) devices(p int, t compute.DeviceType) []string {
	switch t {
	case compute.DeviceTypeGPU:
		return d.Platforms[p].GPUs
	case compute.DeviceTypeCPU:
		return d.Platforms[p].CPUs
	}
	return nil
}

func (d *Driver) PlatformIDs() ([]compute.PlatformID, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clGetPlatformIDs"); st != compute.Success {
		return nil, st
	}
	if len(d.Platforms) == 0 {
		return nil, compute.PlatformNotFound
	}
	ids := make([]compute.PlatformID, len(d.Platforms))
	for i := range d.Platforms {
		ids[i] = platformID(i)
	}
	return ids, compute.Success
}

func (d *Driver) PlatformName(p compute.PlatformID) (string, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clGetPlatformInfo"); st != compute.Success {
		return "", st
	}
	i, ok := d.platformIndex(p)
	if !ok {
		return "", compute.InvalidPlatform
	}
	return d.Platforms[i].Name, compute.Success
}

func (d *Driver) DeviceIDs(p compute.PlatformID, t compute.DeviceType) ([]compute.DeviceID, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clGetDeviceIDs"); st != compute.Success {
		return nil, st
	}
	i, ok := d.platformIndex(p)
	if !ok {
		return nil, compute.InvalidPlatform
	}
	if t != compute.DeviceTypeGPU && t != compute.DeviceTypeCPU {
		return nil, compute.InvalidDeviceType
	}
	names := d.devices(i, t)
	if len(names) == 0 {
		return nil, compute.DeviceNotFound
	}
	ids := make([]compute.DeviceID, len(names))
	for j := range names {
		ids[j] = deviceID(i, j, t)
	}
	return ids, compute.Success
}

func (d *Driver) DeviceName(dev compute.DeviceID) (string, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clGetDeviceInfo"); st != compute.Success {
		return "", st
	}
	for p := range d.Platforms {
		for _, t := range []compute.DeviceType{compute.DeviceTypeGPU, compute.DeviceTypeCPU} {
			for j, name := range d.devices(p, t) {
				if deviceID(p, j, t) == dev {
					return name, compute.Success
				}
			}
		}
	}
	return "", compute.InvalidDevice
}

func (d *Driver) CreateContext(props []compute.ContextProperty, dev compute.DeviceID) (compute.ContextID, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clCreateContext"); st != compute.Success {
		return 0, st
	}
	if len(props)%2 != 0 {
		return 0, compute.InvalidValue
	}
	return compute.ContextID(d.alloc(&object{kind: "context"})), compute.Success
}

func (d *Driver) ReleaseContext(c compute.ContextID) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clReleaseContext"); st != compute.Success {
		return st
	}
	return d.release(uintptr(c), "context", compute.InvalidContext)
}

func (d *Driver) CreateCommandQueue(c compute.ContextID, dev compute.DeviceID) (compute.QueueID, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clCreateCommandQueueWithProperties"); st != compute.Success {
		return 0, st
	}
	if _, ok := d.lookup(uintptr(c), "context"); !ok {
		return 0, compute.InvalidContext
	}
	return compute.QueueID(d.alloc(&object{kind: "queue"})), compute.Success
}

func (d *Driver) ReleaseCommandQueue(q compute.QueueID) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clReleaseCommandQueue"); st != compute.Success {
		return st
	}
	return d.release(uintptr(q), "queue", compute.InvalidCommandQueue)
}

func (d *Driver) CreateBuffer(c compute.ContextID, mode compute.BufferMode, size int, host []byte) (compute.MemID, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clCreateBuffer"); st != compute.Success {
		return 0, st
	}
	if _, ok := d.lookup(uintptr(c), "context"); !ok {
		return 0, compute.InvalidContext
	}
	if size <= 0 {
		return 0, compute.InvalidBufferSize
	}
	data := make([]byte, size)
	copy(data, host)
	return compute.MemID(d.alloc(&object{kind: "mem", data: data})), compute.Success
}

func (d *Driver) CreateFromGLRenderbuffer(c compute.ContextID, mode compute.BufferMode, rbo uint32) (compute.MemID, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clCreateFromGLRenderbuffer"); st != compute.Success {
		return 0, st
	}
	if _, ok := d.lookup(uintptr(c), "context"); !ok {
		return 0, compute.InvalidContext
	}
	if rbo == 0 {
		return 0, compute.InvalidGLObject
	}
	return compute.MemID(d.alloc(&object{kind: "mem", shared: true, name: fmt.Sprintf("rbo %d", rbo)})), compute.Success
}

func (d *Driver) ReleaseMemObject(m compute.MemID) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clReleaseMemObject"); st != compute.Success {
		return st
	}
	return d.release(uintptr(m), "mem", compute.InvalidMemObject)
}

func (d *Driver) CreateProgramWithSource(c compute.ContextID, source string) (compute.ProgramID, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clCreateProgramWithSource"); st != compute.Success {
		return 0, st
	}
	if _, ok := d.lookup(uintptr(c), "context"); !ok {
		return 0, compute.InvalidContext
	}
	if source == "" {
		return 0, compute.InvalidValue
	}
	return compute.ProgramID(d.alloc(&object{kind: "program", source: source})), compute.Success
}

// compile fails on an #error directive or unbalanced brackets.
func compile(source string) string {
	var stack []rune
	line := 1
	for i, r := range source {
		switch r {
		case '\n':
			line++
		case '#':
			if strings.HasPrefix(source[i:], "#error") {
				return fmt.Sprintf("<kernel>:%d:1: error: %s", line, strings.SplitN(source[i:], "\n", 2)[0])
			}
		case '(', '{', '[':
			stack = append(stack, r)
		case ')', '}', ']':
			open := map[rune]rune{')': '(', '}': '{', ']': '['}[r]
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return fmt.Sprintf("<kernel>:%d: error: unexpected '%c'", line, r)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Sprintf("<kernel>:%d: error: expected '%c' at end of input", line, closing(stack[len(stack)-1]))
	}
	return ""
}

func closing(r rune) rune {
	switch r {
	case '(':
		return ')'
	case '{':
		return '}'
	}
	return ']'
}

func (d *Driver) BuildProgram(p compute.ProgramID, dev compute.DeviceID, options string) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clBuildProgram"); st != compute.Success {
		return st
	}
	o, ok := d.lookup(uintptr(p), "program")
	if !ok {
		return compute.InvalidProgram
	}
	if log := compile(o.source); log != "" {
		o.log = log + "\n1 error generated.\n"
		return compute.BuildProgramFailure
	}
	o.built = true
	return compute.Success
}

func (d *Driver) ProgramBuildLog(p compute.ProgramID, dev compute.DeviceID) (string, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clGetProgramBuildInfo"); st != compute.Success {
		return "", st
	}
	o, ok := d.lookup(uintptr(p), "program")
	if !ok {
		return "", compute.InvalidProgram
	}
	return o.log, compute.Success
}

func (d *Driver) ReleaseProgram(p compute.ProgramID) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clReleaseProgram"); st != compute.Success {
		return st
	}
	return d.release(uintptr(p), "program", compute.InvalidProgram)
}

func (d *Driver) CreateKernel(p compute.ProgramID, name string) (compute.KernelID, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clCreateKernel"); st != compute.Success {
		return 0, st
	}
	o, ok := d.lookup(uintptr(p), "program")
	if !ok || !o.built {
		return 0, compute.InvalidProgram
	}
	if !strings.Contains(o.source, name) {
		return 0, compute.InvalidKernelName
	}
	id := d.alloc(&object{kind: "kernel", name: name, args: make(map[uint32][]byte)})
	return compute.KernelID(id), compute.Success
}

func (d *Driver) ReleaseKernel(k compute.KernelID) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clReleaseKernel"); st != compute.Success {
		return st
	}
	return d.release(uintptr(k), "kernel", compute.InvalidKernel)
}

func (d *Driver) SetKernelArg(k compute.KernelID, index uint32, size uintptr, value unsafe.Pointer) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clSetKernelArg"); st != compute.Success {
		return st
	}
	o, ok := d.lookup(uintptr(k), "kernel")
	if !ok {
		return compute.InvalidKernel
	}
	if value == nil || size == 0 {
		return compute.InvalidArgValue
	}
	o.args[index] = append([]byte(nil), unsafe.Slice((*byte)(value), size)...)
	return compute.Success
}

func (d *Driver) transfer(q compute.QueueID, m compute.MemID, offset, n int) (*object, compute.Status) {
	if _, ok := d.lookup(uintptr(q), "queue"); !ok {
		return nil, compute.InvalidCommandQueue
	}
	o, ok := d.lookup(uintptr(m), "mem")
	if !ok {
		return nil, compute.InvalidMemObject
	}
	if offset < 0 || offset+n > len(o.data) {
		return nil, compute.InvalidValue
	}
	return o, compute.Success
}

func (d *Driver) EnqueueWriteBuffer(q compute.QueueID, m compute.MemID, blocking bool, offset int, data []byte) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clEnqueueWriteBuffer"); st != compute.Success {
		return st
	}
	o, st := d.transfer(q, m, offset, len(data))
	if st != compute.Success {
		return st
	}
	copy(o.data[offset:], data)
	return compute.Success
}

func (d *Driver) EnqueueReadBuffer(q compute.QueueID, m compute.MemID, blocking bool, offset int, data []byte) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clEnqueueReadBuffer"); st != compute.Success {
		return st
	}
	o, st := d.transfer(q, m, offset, len(data))
	if st != compute.Success {
		return st
	}
	copy(data, o.data[offset:])
	return compute.Success
}

func (d *Driver) EnqueueNDRangeKernel(q compute.QueueID, k compute.KernelID, global, local []uintptr) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clEnqueueNDRangeKernel"); st != compute.Success {
		return st
	}
	if _, ok := d.lookup(uintptr(q), "queue"); !ok {
		return compute.InvalidCommandQueue
	}
	o, ok := d.lookup(uintptr(k), "kernel")
	if !ok {
		return compute.InvalidKernel
	}
	if len(global) < 1 || len(global) > 3 {
		return compute.InvalidWorkDimension
	}
	if local != nil {
		if len(local) != len(global) {
			return compute.InvalidWorkGroupSize
		}
		for i := range local {
			if local[i] == 0 || global[i]%local[i] != 0 {
				return compute.InvalidWorkGroupSize
			}
		}
	}
	args := make(map[uint32][]byte, len(o.args))
	for i, v := range o.args {
		args[i] = v
	}
	d.dispatches = append(d.dispatches, Dispatch{
		Kernel: k,
		Global: append([]uintptr(nil), global...),
		Local:  append([]uintptr(nil), local...),
		Args:   args,
	})
	return compute.Success
}

func (d *Driver) handOver(name string, q compute.QueueID, mems []compute.MemID, acquire bool) (compute.EventID, compute.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter(name); st != compute.Success {
		return 0, st
	}
	if _, ok := d.lookup(uintptr(q), "queue"); !ok {
		return 0, compute.InvalidCommandQueue
	}
	for _, m := range mems {
		o, ok := d.lookup(uintptr(m), "mem")
		if !ok {
			return 0, compute.InvalidMemObject
		}
		if !o.shared || o.acquired == acquire {
			return 0, compute.InvalidGLObject
		}
	}
	for _, m := range mems {
		d.objects[uintptr(m)].acquired = acquire
	}
	return compute.EventID(d.alloc(&object{kind: "event"})), compute.Success
}

func (d *Driver) EnqueueAcquireGLObjects(q compute.QueueID, mems []compute.MemID) (compute.EventID, compute.Status) {
	return d.handOver("clEnqueueAcquireGLObjects", q, mems, true)
}

func (d *Driver) EnqueueReleaseGLObjects(q compute.QueueID, mems []compute.MemID) (compute.EventID, compute.Status) {
	return d.handOver("clEnqueueReleaseGLObjects", q, mems, false)
}

func (d *Driver) WaitForEvents(events []compute.EventID) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clWaitForEvents"); st != compute.Success {
		return st
	}
	if len(events) == 0 {
		return compute.InvalidValue
	}
	for _, e := range events {
		if _, ok := d.lookup(uintptr(e), "event"); !ok {
			return compute.InvalidEvent
		}
	}
	return compute.Success
}

func (d *Driver) ReleaseEvent(e compute.EventID) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clReleaseEvent"); st != compute.Success {
		return st
	}
	return d.release(uintptr(e), "event", compute.InvalidEvent)
}

func (d *Driver) Flush(q compute.QueueID) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clFlush"); st != compute.Success {
		return st
	}
	if _, ok := d.lookup(uintptr(q), "queue"); !ok {
		return compute.InvalidCommandQueue
	}
	return compute.Success
}

func (d *Driver) Finish(q compute.QueueID) compute.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st := d.enter("clFinish"); st != compute.Success {
		return st
	}
	if _, ok := d.lookup(uintptr(q), "queue"); !ok {
		return compute.InvalidCommandQueue
	}
	return compute.Success
}
