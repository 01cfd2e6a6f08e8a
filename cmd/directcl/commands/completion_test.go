package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xupit3r/directcl/internal/compute/computetest"
)

func TestCompletionCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "bash completion", args: []string{"completion", "bash"}},
		{name: "zsh completion", args: []string{"completion", "zsh"}},
		{name: "fish completion", args: []string{"completion", "fish"}},
		{name: "powershell completion", args: []string{"completion", "powershell"}},
		{name: "invalid shell", args: []string{"completion", "invalid"}, wantErr: true},
		{name: "no shell specified", args: []string{"completion"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, computetest.NewDriver(), tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, "directcl")
		})
	}
}

func TestCompletionValidArgs(t *testing.T) {
	assert.ElementsMatch(t, []string{"bash", "zsh", "fish", "powershell"}, completionCmd.ValidArgs)
}

func TestDeviceFlagCompletion(t *testing.T) {
	out, err := execute(t, computetest.NewDriver(), "__complete", "--device", "")
	require.NoError(t, err)

	assert.Contains(t, out, "gpu\tfirst GPU of the first platform")
	assert.Contains(t, out, "cpu\tfirst CPU of the first platform")
	// ShellCompDirectiveNoFileComp
	assert.Contains(t, out, ":4")
}
