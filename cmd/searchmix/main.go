package main

import (
	"os"

	"github.com/ksysoev/searchmix/pkg/cmd"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	rootCmd := cmd.InitCommand(cmd.BuildInfo{
		Version: version,
		AppName: "searchmix",
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
