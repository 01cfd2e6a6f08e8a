package main

import (
	"os"

	"github.com/xupit3r/directcl/cmd/directcl/commands"
	"github.com/xupit3r/directcl/internal/render"
)

func main() {
	commands.SetRenderer(render.Run)
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
