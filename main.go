package main

import (
	"flag"
	"fmt"
	"os"

	"ard/internal/di"
	"ard/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the daemon config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "force debug logging")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "ard: %s\n", err)
		os.Exit(1)
	}
}
