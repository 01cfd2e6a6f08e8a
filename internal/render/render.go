// Package render runs the interactive window loop: it wires the display,
// the compute runtime, the interop bracket and the tracer state together.
package render

import (
	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/config"
	"github.com/xupit3r/directcl/internal/display"
	"github.com/xupit3r/directcl/internal/interop"
	"github.com/xupit3r/directcl/internal/logging"
	"github.com/xupit3r/directcl/internal/tracer"
)

// Run opens the window and traces frames until it is closed. Any compute or
// window failure aborts the process; none of them can be recovered from
// mid-frame.
func Run(cfg *config.Config, rt *compute.Runtime) error {
	win := compute.Must(display.Open(display.Options{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		VSync:  cfg.Window.VSync,
	}))
	defer win.Close()

	device := compute.Must(rt.CreateDevice(compute.Must(compute.ParseDeviceType(cfg.Device.Type))))

	glContext, glDisplay, err := win.SharingHandles()
	compute.Abort(err)
	props := compute.Must(rt.GLSharingProperties(glContext, glDisplay))
	ctx := compute.Must(rt.CreateContext(device, props...))
	defer ctx.Release()
	queue := compute.Must(rt.CreateQueue(ctx, device))
	defer queue.Release()

	spheres := cfg.Scene.SphereList()
	width, height := win.Size()
	opts := tracer.BuildOptions{
		IncludeDirs:  cfg.Tracer.IncludeDirs,
		Width:        width,
		Height:       height,
		Spheres:      len(spheres),
		RaysPerPixel: cfg.Tracer.RaysPerPixel,
		Multiray:     cfg.Tracer.Multiray,
	}
	flags := compute.Must(opts.Build())
	source := compute.Must(tracer.LoadSource(cfg.Tracer.KernelFile))
	kernel := compute.Must(rt.CreateKernel(device, ctx, source, cfg.Tracer.Entry, flags))
	defer kernel.Release()

	image := compute.Must(rt.CreateBufferFromRenderbuffer(ctx, compute.ReadWrite, win.Renderbuffer()))
	scene := compute.Must(rt.CreateBufferFrom(ctx, compute.ReadOnly, tracer.EncodeScene(spheres)))
	defer scene.Release()

	compute.Abort(tracer.BindScene(kernel, image, scene))
	compute.Abort(opts.SetWorkSize(kernel))

	bracket := compute.Must(interop.New(win, queue, image))

	controls := tracer.NewControls(cfg.Tracer.MoveStep, cfg.Tracer.LookStep)
	win.OnKey(controls.Handle)

	state := tracer.NewState()
	fps := tracer.NewFrameCounter(cfg.Tracer.FPSInterval)
	logging.Infof("tracing %dx%d, %d spheres, %d rays per pixel", width, height, len(spheres), opts.RaysPerPixel)

	for !win.ShouldClose() {
		next, done := tracer.Update(state, controls.Input())
		if done {
			break
		}
		state = next

		compute.Abort(tracer.BindCamera(kernel, state.Camera))
		compute.Abort(bracket.Dispatch(kernel))
		win.Present()
		win.PollEvents()

		if frame, rate, ok := fps.Tick(); ok {
			logging.Infof("frame: %d, fps: %f", frame, rate)
		}
	}
	return nil
}
