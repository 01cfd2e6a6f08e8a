package commands

import (
	"bytes"
	"testing"

	"github.com/xupit3r/directcl/internal/compute"
	"github.com/xupit3r/directcl/internal/compute/computetest"
)

// execute runs the root command with args against drv and returns what it
// printed. The user's real config is hidden behind a temporary HOME.
func execute(t *testing.T, drv *computetest.Driver, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	prevOpen := openRuntime
	openRuntime = func(opts ...compute.Option) (*compute.Runtime, error) {
		return compute.NewRuntime(drv, opts...), nil
	}
	t.Cleanup(func() {
		openRuntime = prevOpen
		cfgFile, verbose, deviceFlag = "", false, ""
		buildWidth, buildHeight = 0, 0
		cfg = nil
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
