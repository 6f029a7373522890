package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/handiism/rimrust/internal/config"
	"github.com/handiism/rimrust/internal/install"
	"github.com/handiism/rimrust/internal/modlist"
	"github.com/handiism/rimrust/internal/steamcmd"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	installConcurrency int
	installSteamCMD    string
	installDryRun      bool
)

var installCmd = &cobra.Command{
	Use:   "install <modlist>",
	Short: "Install every mod in a mod list",
	Long: `Install every mod listed in a JSON or YAML mod list.

A mod list is an array of {"id": "...", "name": "..."} entries. Every mod is
attempted even when others fail; the command exits 1 if any mod failed and
130 when interrupted.`,
	Example: `  # Install with the configured concurrency
  rimrust install mods.json

  # Four SteamCMD processes at a time
  rimrust install -c 4 mods.yaml

  # Show the SteamCMD command lines without running them
  rimrust install --dry-run mods.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().IntVarP(&installConcurrency, "concurrency", "c", 0, "max SteamCMD processes at once (overrides config)")
	installCmd.Flags().StringVar(&installSteamCMD, "steamcmd", "", "path to the SteamCMD executable (overrides config)")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "list mods and command lines without installing")
}

func runInstall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if installConcurrency != 0 {
		settings.MaxConcurrentInstalls = installConcurrency
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	mods, err := modlist.Load(args[0])
	if err != nil {
		return err
	}

	toolPath, err := resolveTool(settings)
	if err != nil {
		if errors.Is(err, steamcmd.ErrNotInstalled) {
			return fmt.Errorf("%w: run `rimrust steamcmd install` or pass --steamcmd", err)
		}
		return err
	}

	runner := steamcmd.NewRunner(settings.WorkshopAppID)

	fmt.Fprintln(out, "🛠  RimRust")
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(out, "%d mod(s), %d at a time, using %s\n\n", len(mods), settings.MaxConcurrentInstalls, toolPath)

	if installDryRun {
		for _, mod := range mods {
			fmt.Fprintf(out, "   %s\n     %s\n", mod, runner.CommandLine(toolPath, mod))
		}
		fmt.Fprintln(out, "\n[Dry run - not installing]")
		return nil
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(out, "\nInterrupted, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	manager := install.NewManager(runner,
		install.WithLogger(logger),
		install.WithProgress(printProgress(out, verbose)))

	report, err := manager.InstallAll(ctx, mods, toolPath, settings.MaxConcurrentInstalls)
	if report == nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if err == nil {
		fmt.Fprintf(out, "✨ Complete! Installed %d/%d mods in %s\n", report.Succeeded(), len(report.Outcomes), report.Elapsed.Round(time.Millisecond))
		return nil
	}

	fmt.Fprintf(out, "Installed %d/%d mods. Failed:\n", report.Succeeded(), len(report.Outcomes))
	for _, f := range report.Failures() {
		fmt.Fprintf(out, "   %s [%s]: %s\n", f.Mod, f.Kind, f.Diagnostic)
	}

	if ctx.Err() != nil {
		fmt.Fprintln(out, "\nInstall cancelled.")
		return &exitError{code: 130}
	}
	logger.Debug("install failed", zap.Error(err))
	return &exitError{code: 1}
}

// resolveTool finds SteamCMD: --steamcmd, then the configured path, then the
// configured install dir and PATH.
func resolveTool(settings *config.Settings) (string, error) {
	if installSteamCMD != "" {
		return installSteamCMD, nil
	}
	if settings.SteamCMDPath != "" {
		return settings.SteamCMDPath, nil
	}
	return steamcmd.Locate(settings.SteamCMDDir)
}

// printProgress prints events one line each. Events arrive from task
// goroutines.
func printProgress(out io.Writer, verbose bool) func(install.ProgressEvent) {
	var mu sync.Mutex
	return func(event install.ProgressEvent) {
		if event.Level == install.LevelVerbose && !verbose {
			return
		}

		var prefix string
		switch event.Level {
		case install.LevelError:
			prefix = "❌ "
		case install.LevelWarning:
			prefix = "⚠️  "
		case install.LevelSuccess:
			prefix = "✅ "
		case install.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		mu.Lock()
		fmt.Fprintln(out, prefix+event.Message)
		mu.Unlock()
	}
}
