package main

import (
	"fmt"
	"os"

	"github.com/histolab/msinet-go/cmd"
	"github.com/histolab/msinet-go/internal/conf"
	"github.com/histolab/msinet-go/internal/logging"
)

func main() {
	// Initialize the structured loggers before anything else logs.
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
