package main

import (
	"os"

	"github.com/pulsehq/pulse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
