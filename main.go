package main

import (
	"os"

	"github.com/swarmsync/fleetd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
