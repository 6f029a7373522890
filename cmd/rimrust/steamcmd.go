package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	rhttp "github.com/handiism/rimrust/internal/http"
	"github.com/handiism/rimrust/internal/steamcmd"
	"github.com/spf13/cobra"
)

var steamcmdDir string

var steamcmdCmd = &cobra.Command{
	Use:   "steamcmd",
	Short: "Find or install SteamCMD",
}

var steamcmdLocateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Print the SteamCMD executable that install would use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if steamcmdDir != "" {
			settings.SteamCMDDir = steamcmdDir
		}

		path := settings.SteamCMDPath
		if path == "" {
			if path, err = steamcmd.Locate(settings.SteamCMDDir); err != nil {
				return fmt.Errorf("%w (looked in %s and PATH)", err, settings.SteamCMDDir)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var steamcmdInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Download and unpack SteamCMD",
	Long: `Download the SteamCMD archive for this OS and unpack it into the
configured directory. An existing installation is left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		if steamcmdDir != "" {
			settings.SteamCMDDir = steamcmdDir
		}

		logger, err := newLogger(settings)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		installer := steamcmd.NewInstaller(rhttp.NewClient(settings.DownloadTimeout()), logger)
		if verbose {
			installer.OnProgress = func(written, total int64) {
				if total > 0 {
					fmt.Fprintf(out, "\r   %.2f / %.2f MB", float64(written)/1024/1024, float64(total)/1024/1024)
				}
			}
		}

		fmt.Fprintf(out, "📥 Installing SteamCMD into %s\n", settings.SteamCMDDir)
		path, err := installer.Install(ctx, settings.SteamCMDDir)
		if verbose {
			fmt.Fprintln(out)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "✅ SteamCMD ready: %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(steamcmdCmd)
	steamcmdCmd.AddCommand(steamcmdLocateCmd, steamcmdInstallCmd)

	steamcmdCmd.PersistentFlags().StringVar(&steamcmdDir, "dir", "", "SteamCMD directory (overrides config)")
}
