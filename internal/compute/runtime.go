package compute

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xupit3r/directcl/internal/logging"
)

// Runtime creates compute resources over a Driver. The platform is looked up
// once and reused by every later call.
type Runtime struct {
	drv      Driver
	log      logrus.FieldLogger
	buildLog io.Writer

	platformOnce sync.Once
	platform     PlatformID
	platformErr  error
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for selection warnings and traces.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runtime) { r.log = log }
}

// WithBuildLog sets where compiler output is printed on build failure.
// A nil writer disables printing; the log is still carried by BuildError.
func WithBuildLog(w io.Writer) Option {
	return func(r *Runtime) { r.buildLog = w }
}

// NewRuntime returns a runtime driving drv.
func NewRuntime(drv Driver, opts ...Option) *Runtime {
	r := &Runtime{
		drv:      drv,
		log:      logging.Get(),
		buildLog: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process-wide runtime over the native OpenCL driver.
var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
	defaultRuntimeErr  error
)

// Default returns the process-wide runtime backed by the OpenCL driver,
// creating it on first use. Options apply only on that first call.
func Default(opts ...Option) (*Runtime, error) {
	defaultRuntimeOnce.Do(func() {
		drv, err := NewOpenCLDriver()
		if err != nil {
			defaultRuntimeErr = err
			return
		}
		defaultRuntime = NewRuntime(drv, opts...)
	})
	return defaultRuntime, defaultRuntimeErr
}

// Driver returns the native driver behind the runtime.
func (r *Runtime) Driver() Driver {
	return r.drv
}

// Platform returns the selected platform, choosing it on first call.
func (r *Runtime) Platform() (PlatformID, error) {
	r.platformOnce.Do(func() {
		r.platform, r.platformErr = r.selectPlatform()
	})
	return r.platform, r.platformErr
}

func (r *Runtime) selectPlatform() (PlatformID, error) {
	ids, st := r.drv.PlatformIDs()
	if st == PlatformNotFound {
		return 0, ErrNoPlatforms
	}
	if err := check("clGetPlatformIDs", st); err != nil {
		return 0, err
	}
	switch {
	case len(ids) == 0:
		return 0, ErrNoPlatforms
	case len(ids) > 1:
		r.log.Warnf("multiple platforms available (%d), choosing first one", len(ids))
	}
	return ids[0], nil
}

// PlatformInfo describes one platform and its devices.
type PlatformInfo struct {
	Name    string
	Devices []DeviceInfo
}

// DeviceInfo describes one device.
type DeviceInfo struct {
	Name string
	Type DeviceType
}

// Platforms enumerates every platform with its CPU and GPU devices. It does
// not affect platform selection.
func (r *Runtime) Platforms() ([]PlatformInfo, error) {
	ids, st := r.drv.PlatformIDs()
	if st == PlatformNotFound {
		return nil, nil
	}
	if err := check("clGetPlatformIDs", st); err != nil {
		return nil, err
	}

	out := make([]PlatformInfo, 0, len(ids))
	for _, pid := range ids {
		name, st := r.drv.PlatformName(pid)
		if err := check("clGetPlatformInfo", st); err != nil {
			return nil, err
		}
		info := PlatformInfo{Name: name}
		for _, t := range []DeviceType{DeviceTypeGPU, DeviceTypeCPU} {
			devs, st := r.drv.DeviceIDs(pid, t)
			if st == DeviceNotFound {
				continue
			}
			if err := check("clGetDeviceIDs", st); err != nil {
				return nil, err
			}
			for _, d := range devs {
				dn, st := r.drv.DeviceName(d)
				if err := check("clGetDeviceInfo", st); err != nil {
					return nil, err
				}
				info.Devices = append(info.Devices, DeviceInfo{Name: dn, Type: t})
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// CreateDevice selects exactly one device of type t on the platform.
func (r *Runtime) CreateDevice(t DeviceType) (Device, error) {
	platform, err := r.Platform()
	if err != nil {
		return Device{}, err
	}

	ids, st := r.drv.DeviceIDs(platform, t)
	if st == DeviceNotFound {
		return Device{}, errors.Wrapf(ErrNoDevices, "%s", t)
	}
	if err := check("clGetDeviceIDs", st); err != nil {
		return Device{}, err
	}
	switch {
	case len(ids) == 0:
		return Device{}, errors.Wrapf(ErrNoDevices, "%s", t)
	case len(ids) > 1:
		r.log.Warnf("multiple %s devices available (%d), choosing first one", t, len(ids))
	}

	r.log.Debugf("selected %s device %#x", t, ids[0])
	return Device{id: ids[0], typ: t, drv: r.drv}, nil
}

// GLSharingProperties returns the context properties that bind a new
// context to the current GLX context and display.
func (r *Runtime) GLSharingProperties(glContext, display uintptr) ([]ContextProperty, error) {
	platform, err := r.Platform()
	if err != nil {
		return nil, err
	}
	return []ContextProperty{
		GLContextKHR, ContextProperty(glContext),
		GLXDisplayKHR, ContextProperty(display),
		ContextPlatform, ContextProperty(platform),
	}, nil
}

// CreateContext builds an execution context over device. Non-empty props
// enable graphics interop.
func (r *Runtime) CreateContext(device Device, props ...ContextProperty) (*Context, error) {
	if len(props)%2 != 0 {
		return nil, errors.Errorf("context properties must be key/value pairs, got %d words", len(props))
	}
	id, st := r.drv.CreateContext(props, device.id)
	if err := check("clCreateContext", st); err != nil {
		return nil, err
	}
	return &Context{id: id, drv: r.drv, interop: len(props) > 0}, nil
}

// CreateQueue creates an in-order command queue for device in ctx.
func (r *Runtime) CreateQueue(ctx *Context, device Device) (*Queue, error) {
	if ctx.id == 0 {
		return nil, ErrReleased
	}
	id, st := r.drv.CreateCommandQueue(ctx.id, device.id)
	if err := check("clCreateCommandQueueWithProperties", st); err != nil {
		return nil, err
	}
	return &Queue{id: id, drv: r.drv}, nil
}
