package model

import "time"

// Status is the terminal state of an install task.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureKind classifies why an install task failed.
type FailureKind int

const (
	// FailureNone is the kind of a successful outcome.
	FailureNone FailureKind = iota

	// FailureLaunch means SteamCMD could not be started (missing binary,
	// permission denied).
	FailureLaunch

	// FailureProcess means SteamCMD ran and exited with a failure status.
	FailureProcess

	// FailureCancelled means the run was cancelled before or while the
	// task ran.
	FailureCancelled

	// FailurePanic means the invoker panicked. The panic is recovered at the
	// task boundary.
	FailurePanic
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureLaunch:
		return "launch"
	case FailureProcess:
		return "process"
	case FailureCancelled:
		return "cancelled"
	case FailurePanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Outcome is the result of installing one mod.
type Outcome struct {
	Mod    Mod
	Status Status

	// Kind is FailureNone for successful outcomes.
	Kind FailureKind

	// Diagnostic holds SteamCMD's captured stderr for process failures,
	// or an error description for every other failure kind.
	Diagnostic string

	// ExitCode is the SteamCMD exit code, or -1 if it never exited.
	ExitCode int

	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded builds a successful outcome.
func Succeeded(mod Mod, started, finished time.Time) Outcome {
	return Outcome{
		Mod:        mod,
		Status:     StatusSucceeded,
		Kind:       FailureNone,
		StartedAt:  started,
		FinishedAt: finished,
	}
}

// Failed builds a failed outcome.
func Failed(mod Mod, kind FailureKind, diagnostic string, exitCode int, started, finished time.Time) Outcome {
	return Outcome{
		Mod:        mod,
		Status:     StatusFailed,
		Kind:       kind,
		Diagnostic: diagnostic,
		ExitCode:   exitCode,
		StartedAt:  started,
		FinishedAt: finished,
	}
}

// OK reports whether the mod installed successfully.
func (o Outcome) OK() bool {
	return o.Status == StatusSucceeded
}

// Duration returns how long the task ran, from admission to finish.
func (o Outcome) Duration() time.Duration {
	if o.StartedAt.IsZero() || o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}
