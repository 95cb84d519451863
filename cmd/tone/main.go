package main

import (
	"os"

	"github.com/suPer8Hu/tone-platform/internal/cli"
)

// set via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
