package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/tracer"
)

var (
	buildWidth  int
	buildHeight int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the tracer kernel without opening a window",
	Long: `Compile the path tracer kernel for the configured device and report
the result. On a compile error the full build log is printed.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVar(&buildWidth, "width", 0, "image width (default from window.width)")
	buildCmd.Flags().IntVar(&buildHeight, "height", 0, "image height (default from window.height)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	width, height := cfg.Window.Width, cfg.Window.Height
	if buildWidth > 0 {
		width = buildWidth
	}
	if buildHeight > 0 {
		height = buildHeight
	}

	typ, err := compute.ParseDeviceType(cfg.Device.Type)
	if err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	device, err := rt.CreateDevice(typ)
	if err != nil {
		return err
	}
	ctx, err := rt.CreateContext(device)
	if err != nil {
		return err
	}
	defer ctx.Release()

	opts := tracer.BuildOptions{
		IncludeDirs:  cfg.Tracer.IncludeDirs,
		Width:        width,
		Height:       height,
		Spheres:      len(cfg.Scene.SphereList()),
		RaysPerPixel: cfg.Tracer.RaysPerPixel,
		Multiray:     cfg.Tracer.Multiray,
	}
	flags, err := opts.Build()
	if err != nil {
		return err
	}
	source, err := tracer.LoadSource(cfg.Tracer.KernelFile)
	if err != nil {
		return err
	}

	kernel, err := rt.CreateKernel(device, ctx, source, cfg.Tracer.Entry, flags)
	if err != nil {
		return err
	}
	defer kernel.Release()

	name, err := device.Name()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "built %s for %s (%s)\n", kernel.Name(), name, flags)
	return nil
}
