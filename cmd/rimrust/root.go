package main

import (
	"fmt"

	"github.com/handiism/rimrust/internal/config"
	"github.com/handiism/rimrust/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "rimrust",
	Short: "Install RimWorld workshop mods with SteamCMD",
	Long: `rimrust downloads Steam Workshop mods for RimWorld by running SteamCMD
once per mod, with a bounded number of SteamCMD processes at a time.

For interactive mode, use: rimrust-tui`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show verbose output and debug logs")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadSettings reads the config file, then .env and the environment.
func loadSettings() (*config.Settings, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := settings.ApplyEnv(".env"); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if verbose {
		settings.LogLevel = "debug"
	}
	return settings, nil
}

func newLogger(settings *config.Settings) (*zap.Logger, error) {
	logger, err := logging.New(settings.ToLogConfig())
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}
