package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/handiism/rimrust/internal/logging"
	"github.com/handiism/rimrust/internal/steamcmd"
)

// Settings holds all configuration options.
type Settings struct {
	// SteamCMD settings
	SteamCMDDir            string  `json:"steamcmd_dir"`
	SteamCMDPath           string  `json:"steamcmd_path"` // explicit executable, skips lookup
	WorkshopAppID          int     `json:"workshop_app_id"`
	MaxConcurrentInstalls  int     `json:"max_concurrent_installs"`
	DownloadTimeoutSeconds float64 `json:"download_timeout_seconds"`

	// Log settings
	LogLevel      string `json:"log_level"`  // debug, info, warn, error
	LogFormat     string `json:"log_format"` // console, json
	LogFile       string `json:"log_file"`
	LogMaxSizeMB  int    `json:"log_max_size_mb"`
	LogMaxBackups int    `json:"log_max_backups"`
	LogMaxAgeDays int    `json:"log_max_age_days"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		SteamCMDDir:            steamcmd.DefaultDir(),
		WorkshopAppID:          steamcmd.RimWorldAppID,
		MaxConcurrentInstalls:  2,
		DownloadTimeoutSeconds: 300,

		LogLevel:      "info",
		LogFormat:     "console",
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
		LogMaxAgeDays: 28,
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "rimrust", "config.json")
}

// Load reads settings from a JSON file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that the settings can drive an install run.
func (s *Settings) Validate() error {
	var errs []error
	if s.MaxConcurrentInstalls < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent_installs must be at least 1, got %d", s.MaxConcurrentInstalls))
	}
	if s.WorkshopAppID <= 0 {
		errs = append(errs, fmt.Errorf("workshop_app_id must be positive, got %d", s.WorkshopAppID))
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DownloadTimeout returns the SteamCMD archive download timeout.
func (s *Settings) DownloadTimeout() time.Duration {
	return time.Duration(s.DownloadTimeoutSeconds * float64(time.Second))
}

// ToLogConfig converts settings to logging.Config. Logs go to stderr, and
// additionally to LogFile when one is set.
func (s *Settings) ToLogConfig() *logging.Config {
	output := "stderr"
	if s.LogFile != "" {
		output = "both"
	}
	return &logging.Config{
		Level:      s.LogLevel,
		Format:     s.LogFormat,
		Output:     output,
		FilePath:   s.LogFile,
		MaxSize:    s.LogMaxSizeMB,
		MaxBackups: s.LogMaxBackups,
		MaxAge:     s.LogMaxAgeDays,
	}
}
