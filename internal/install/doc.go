// Package install provides the orchestration logic for installing workshop
// mods with SteamCMD.
//
// # Manager
//
// The Manager runs one SteamCMD invocation per mod:
//
//  1. Start one task per mod
//  2. Each task waits for a slot in the concurrency gate
//  3. The admitted task runs SteamCMD, then gives its slot back
//  4. The task records its outcome
//  5. After every task has finished, outcomes are reduced to one result
//
// # Basic Usage
//
//	manager := install.NewManager(steamcmd.NewRunner(steamcmd.RimWorldAppID),
//	    install.WithLogger(logger),
//	    install.WithProgress(func(event install.ProgressEvent) {
//	        fmt.Println(event.Message)
//	    }),
//	)
//
//	report, err := manager.InstallAll(ctx, mods, toolPath, 2)
//	if err != nil {
//	    var agg *install.AggregateError
//	    if errors.As(err, &agg) {
//	        for _, f := range agg.Failures {
//	            fmt.Println(f.Mod, f.Diagnostic)
//	        }
//	    }
//	}
//
// # Concurrency
//
// At most `concurrency` SteamCMD processes run at once. A failing mod never
// cancels its siblings, and InstallAll only returns once every task has
// reached a terminal outcome and released its slot.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	    Outcome *model.Outcome // set on completion events
//	}
//
// Polling UIs can call GetProgress instead.
//
// # Retries
//
// There are none. A failed mod is reported once; rerun the install to try
// again.
package install
