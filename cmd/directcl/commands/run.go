package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/config"
)

// Renderer runs the window loop for the loaded configuration.
type Renderer func(cfg *config.Config, rt *compute.Runtime) error

var renderer Renderer

// SetRenderer installs the window loop used by run and the bare root
// command. It lives outside this package so the commands do not link the
// windowing library.
func SetRenderer(r Renderer) {
	renderer = r
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the render window",
	Long: `Open the render window and trace frames until it is closed.

Controls:
  W/S          move forward/backward
  A/D          move left/right
  Space/Ctrl   move up/down
  Arrow keys   look around
  Escape       quit`,
	RunE: runTracer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runTracer(cmd *cobra.Command, args []string) error {
	if renderer == nil {
		return errors.New("this binary was built without a renderer")
	}
	rt := compute.Must(newRuntime())
	return renderer(cfg, rt)
}
