package main

import (
	"os"

	"github.com/suPer8Hu/tone-platform/internal/cli"
)

func main() {
	if err := cli.NewWorkerCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
