// Package config provides configuration management for rimrust.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Environment overrides (optionally read from a .env file)
//   - Conversion to logging.Config for the logging package
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// SteamCMD in ~/RimRust/steamcmd (C:/RimRust/steamcmd on Windows)
//	// Two concurrent SteamCMD processes
//	// RimWorld workshop (app 294100)
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Environment
//
//	err := settings.ApplyEnv(".env")
//
// reads RIMRUST_STEAMCMD_DIR, RIMRUST_MAX_CONCURRENT, RIMRUST_APP_ID,
// RIMRUST_LOG_LEVEL and RIMRUST_LOG_FILE. Variables already set in the
// process environment win over the .env file.
package config
