package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings.
const (
	EnvSteamCMDDir   = "RIMRUST_STEAMCMD_DIR"
	EnvMaxConcurrent = "RIMRUST_MAX_CONCURRENT"
	EnvAppID         = "RIMRUST_APP_ID"
	EnvLogLevel      = "RIMRUST_LOG_LEVEL"
	EnvLogFile       = "RIMRUST_LOG_FILE"
)

// ApplyEnv overrides settings from the environment. dotenvFiles are loaded
// first when they exist; godotenv.Load never replaces variables that are
// already set, so the real environment takes precedence.
func (s *Settings) ApplyEnv(dotenvFiles ...string) error {
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvSteamCMDDir); v != "" {
		s.SteamCMDDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		s.LogFile = v
	}

	var err error
	if s.MaxConcurrentInstalls, err = envInt(EnvMaxConcurrent, s.MaxConcurrentInstalls); err != nil {
		return err
	}
	if s.WorkshopAppID, err = envInt(EnvAppID, s.WorkshopAppID); err != nil {
		return err
	}

	return nil
}

func envInt(key string, current int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return current, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return current, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
