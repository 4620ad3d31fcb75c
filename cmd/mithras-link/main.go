package main

import (
	"os"

	"github.com/teranos/mithras-link/cmd/mithras-link/commands"
	"github.com/teranos/mithras-link/display"
	"github.com/teranos/mithras-link/logger"
)

func main() {
	err := commands.NewRootCmd().Execute()
	logger.Cleanup()
	if err != nil {
		display.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
