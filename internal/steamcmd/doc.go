// Package steamcmd runs SteamCMD and manages its installation.
//
// # Running SteamCMD
//
// Runner invokes SteamCMD once per workshop item with a fixed command line:
//
//	steamcmd +login anonymous "+workshop_download_item 294100 <id>" +quit
//
//	runner := steamcmd.NewRunner(steamcmd.RimWorldAppID)
//	res, err := runner.Invoke(ctx, toolPath, mod)
//	if err != nil {
//	    // SteamCMD could not be started (see LaunchError) or ctx was cancelled
//	}
//	if !res.Success() {
//	    fmt.Println(string(res.Stderr))
//	}
//
// The tool path is used as given. Callers resolve it first with Locate or
// Installer.Install.
//
// # Locating and installing
//
// Locate looks for the executable in a directory (DefaultDir by default) and
// then on PATH. Installer downloads the official SteamCMD archive for the
// current OS and unpacks it. The resolved path is always returned to the
// caller; the process environment is never modified.
package steamcmd
