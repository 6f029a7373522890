package steamcmd

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	ioutils "github.com/handiism/rimrust/internal/io"
)

// ErrNotInstalled is returned by Locate when no SteamCMD executable exists.
var ErrNotInstalled = errors.New("steamcmd is not installed")

// DefaultDir returns the directory SteamCMD is installed into when no other
// directory is configured.
func DefaultDir() string {
	if runtime.GOOS == "windows" {
		return "C:/RimRust/steamcmd"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "RimRust", "steamcmd")
}

// ExecutableName returns the SteamCMD entry point name for the current OS.
func ExecutableName() string {
	return executableName(runtime.GOOS)
}

func executableName(goos string) string {
	if goos == "windows" {
		return "steamcmd.exe"
	}
	return "steamcmd.sh"
}

// Locate returns the path of an installed SteamCMD. It checks dir first
// (skipped when empty) and then searches PATH for "steamcmd".
func Locate(dir string) (string, error) {
	if dir != "" {
		path := filepath.Join(dir, ExecutableName())
		if ioutils.FileExists(path) {
			return path, nil
		}
	}

	if path, err := exec.LookPath("steamcmd"); err == nil {
		return path, nil
	}

	return "", ErrNotInstalled
}
