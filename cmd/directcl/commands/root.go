package commands

import (
	"github.com/spf13/cobra"

	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/config"
	"github.com/xupit3r/directcl/internal/logging"
)

var (
	cfgFile    string
	verbose    bool
	deviceFlag string

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "directcl",
	Short: "Real-time OpenCL path tracer with zero-copy GL display",
	Long: `directcl renders a sphere scene with an OpenCL path tracing kernel.

The kernel writes straight into an OpenGL renderbuffer shared with the
compute context, so frames reach the screen without a host copy.

Running without a subcommand opens the render window.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runTracer,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.directcl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device", "", "compute device type: gpu or cpu (overrides config)")
}

// loadConfig reads the configuration and sets up logging before any
// subcommand runs.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if deviceFlag != "" {
		c.Device.Type = deviceFlag
	}
	if verbose {
		c.Logging.Level = "debug"
	}
	if err := logging.Init(logging.Options{
		Level:   c.Logging.Level,
		File:    c.Logging.File,
		Console: c.Logging.Console,
		JSON:    c.Logging.JSON,
	}); err != nil {
		return err
	}
	cfg = c
	return nil
}

// newRuntime returns the process runtime configured from cfg.
func newRuntime() (*compute.Runtime, error) {
	opts := []compute.Option{compute.WithLogger(logging.Get())}
	if !cfg.Compute.PrintBuildLog {
		opts = append(opts, compute.WithBuildLog(nil))
	}
	return openRuntime(opts...)
}

// openRuntime creates the compute runtime; tests swap in a mock driver.
var openRuntime = compute.Default
