// Command rimrust-tui is the interactive front end of rimrust.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/handiism/rimrust/internal/config"
	"github.com/handiism/rimrust/internal/logging"
	"github.com/handiism/rimrust/internal/tui"
)

func main() {
	settings, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := settings.ApplyEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to a file only so they do not draw over the UI.
	logCfg := settings.ToLogConfig()
	logCfg.Output = "file"
	if logCfg.FilePath == "" {
		logCfg.FilePath = filepath.Join(filepath.Dir(config.DefaultPath()), "rimrust-tui.log")
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := tui.Run(settings, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
