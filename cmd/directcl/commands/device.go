package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xupit3r/directcl/internal/compute"
)

var deviceInfoCmd = &cobra.Command{
	Use:   "device",
	Short: "Show compute platforms and devices",
	Long: `List every OpenCL platform with its GPU and CPU devices, then show
which device the configured type selects.`,
	RunE: runDeviceInfo,
}

func init() {
	rootCmd.AddCommand(deviceInfoCmd)
}

func runDeviceInfo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	platforms, err := rt.Platforms()
	if err != nil {
		return err
	}
	if len(platforms) == 0 {
		fmt.Fprintln(out, "No OpenCL platforms found")
		return compute.ErrNoPlatforms
	}

	for i, p := range platforms {
		fmt.Fprintf(out, "Platform %d: %s\n", i, p.Name)
		if len(p.Devices) == 0 {
			fmt.Fprintln(out, "   (no devices)")
		}
		for _, d := range p.Devices {
			fmt.Fprintf(out, "   %-4s %s\n", d.Type, d.Name)
		}
	}
	fmt.Fprintln(out)

	typ, err := compute.ParseDeviceType(cfg.Device.Type)
	if err != nil {
		return err
	}
	device, err := rt.CreateDevice(typ)
	if err != nil {
		fmt.Fprintf(out, "Selected %s device: none (%v)\n", typ, err)
		return err
	}
	name, err := device.Name()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Selected %s device: %s\n", typ, name)
	return nil
}
