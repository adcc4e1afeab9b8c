package main

import (
	"os"

	"github.com/ocrbot/backend/internal/cli"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cli.SetVersionInfo(Version, BuildTime)

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
