// Package ioutils provides file system utilities for rimrust.
//
// This package contains functions for:
//   - Directory creation
//   - File existence checks
//   - Unpacking the SteamCMD installer archives (.tar.gz and .zip)
//
// # Archive Extraction
//
//	err := ioutils.ExtractTarGz(ctx, "/tmp/steamcmd_linux.tar.gz", "/home/me/RimRust/steamcmd")
//	err = ioutils.ExtractZip(ctx, "C:/Temp/steamcmd.zip", "C:/RimRust/steamcmd")
//
// Entries that would land outside the destination directory are rejected.
// File modes from the archive are kept so that steamcmd.sh stays executable.
// Extraction checks ctx between entries.
package ioutils
