package compute

// Device is a selected compute device. Devices are never released; the
// driver reclaims them at process exit.
type Device struct {
	id  DeviceID
	typ DeviceType
	drv Driver
}

// ID returns the native device handle.
func (d Device) ID() DeviceID { return d.id }

// Type returns the device type the device was selected by.
func (d Device) Type() DeviceType { return d.typ }

// Name queries the device name from the driver.
func (d Device) Name() (string, error) {
	name, st := d.drv.DeviceName(d.id)
	if err := check("clGetDeviceInfo", st); err != nil {
		return "", err
	}
	return name, nil
}

// Context is an execution environment bound to one device. It must outlive
// every queue, buffer and kernel created from it.
type Context struct {
	id      ContextID
	drv     Driver
	interop bool
}

// ID returns the native context handle.
func (c *Context) ID() ContextID { return c.id }

// Interop reports whether the context was created with graphics sharing
// properties.
func (c *Context) Interop() bool { return c.interop }

// Release drops the context. Releasing twice is a no-op.
func (c *Context) Release() error {
	if c.id == 0 {
		return nil
	}
	st := c.drv.ReleaseContext(c.id)
	c.id = 0
	return check("clReleaseContext", st)
}

// Event is a completion event returned by an enqueue call.
type Event struct {
	id  EventID
	drv Driver
}

// ID returns the native event handle.
func (e *Event) ID() EventID { return e.id }

// Wait blocks until the event completes.
func (e *Event) Wait() error {
	if e.id == 0 {
		return ErrReleased
	}
	return check("clWaitForEvents", e.drv.WaitForEvents([]EventID{e.id}))
}

// Release drops the event. Releasing twice is a no-op.
func (e *Event) Release() error {
	if e.id == 0 {
		return nil
	}
	st := e.drv.ReleaseEvent(e.id)
	e.id = 0
	return check("clReleaseEvent", st)
}
