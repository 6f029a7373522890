// Package model defines the core data structures used throughout
// the rimrust application.
//
// # Mod
//
// Mod identifies one Steam Workshop item to install:
//
//	mod := model.Mod{ID: "818773962", Name: "HugsLib"}
//	fmt.Println(mod) // HugsLib (818773962)
//
// Mods are plain values. They are copied into each install task and never
// mutated after being read from a mod list.
//
// # Outcome
//
// Outcome records the terminal state of one mod's installation:
//
//	out := model.Succeeded(mod, started, finished)
//	out = model.Failed(mod, model.FailureProcess, "not found", 1, started, finished)
//	if !out.OK() {
//	    fmt.Println(out.Kind, out.Diagnostic)
//	}
//
// Failure kinds distinguish a SteamCMD that could not be launched at all
// (FailureLaunch) from one that ran and exited with an error (FailureProcess).
package model
