package steamcmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	ioutils "github.com/handiism/rimrust/internal/io"
	"go.uber.org/zap"
)

// DefaultBaseURL is where Valve publishes the SteamCMD installers.
const DefaultBaseURL = "https://steamcdn-a.akamaihd.net/client/installer"

// Downloader fetches a URL into a local file.
type Downloader interface {
	DownloadFile(ctx context.Context, url, destPath string, onProgress func(written, total int64)) error
}

// Installer downloads and unpacks SteamCMD.
type Installer struct {
	// BaseURL is the installer location, DefaultBaseURL when empty.
	BaseURL string

	// GOOS selects the archive and executable, runtime.GOOS when empty.
	GOOS string

	// OnProgress, if set, receives archive download progress.
	OnProgress func(written, total int64)

	client Downloader
	logger *zap.Logger
}

// NewInstaller creates an Installer that downloads with client.
func NewInstaller(client Downloader, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{client: client, logger: logger}
}

// ArchiveName returns the SteamCMD archive for the given OS.
func ArchiveName(goos string) string {
	switch goos {
	case "windows":
		return "steamcmd.zip"
	case "darwin":
		return "steamcmd_osx.tar.gz"
	default:
		return "steamcmd_linux.tar.gz"
	}
}

// Install makes sure SteamCMD exists in dir and returns its executable path.
// An existing installation is returned as is.
func (i *Installer) Install(ctx context.Context, dir string) (string, error) {
	goos := i.goos()
	exePath := filepath.Join(dir, executableName(goos))

	if ioutils.FileExists(exePath) {
		i.logger.Debug("steamcmd already installed", zap.String("path", exePath))
		return exePath, nil
	}

	if err := ioutils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	archive := ArchiveName(goos)
	url := strings.TrimRight(i.baseURL(), "/") + "/" + archive

	tmp, err := os.CreateTemp("", "steamcmd-*-"+archive)
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	i.logger.Info("downloading steamcmd", zap.String("url", url), zap.String("dir", dir))
	if err := i.client.DownloadFile(ctx, url, tmpPath, i.OnProgress); err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}

	if strings.HasSuffix(archive, ".zip") {
		err = ioutils.ExtractZip(ctx, tmpPath, dir)
	} else {
		err = ioutils.ExtractTarGz(ctx, tmpPath, dir)
	}
	if err != nil {
		return "", fmt.Errorf("unpacking %s: %w", archive, err)
	}

	if !ioutils.FileExists(exePath) {
		return "", fmt.Errorf("%s not found in %s after unpacking", filepath.Base(exePath), archive)
	}

	i.logger.Info("steamcmd installed", zap.String("path", exePath))
	return exePath, nil
}

func (i *Installer) goos() string {
	if i.GOOS != "" {
		return i.GOOS
	}
	return runtime.GOOS
}

func (i *Installer) baseURL() string {
	if i.BaseURL != "" {
		return i.BaseURL
	}
	return DefaultBaseURL
}
