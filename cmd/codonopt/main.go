package main

import (
	"os"

	"github.com/Lattice-Automation/codonopt/internal/cmd"
	"github.com/Lattice-Automation/codonopt/internal/config"
)

func main() {
	config.Setup()

	if err := cmd.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
