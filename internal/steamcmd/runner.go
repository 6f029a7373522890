package steamcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/handiism/rimrust/internal/model"
)

// RimWorldAppID is the Steam app id whose workshop items are downloaded.
const RimWorldAppID = 294100

const (
	loginDirective    = "+login anonymous"
	downloadDirective = "+workshop_download_item"
	quitDirective     = "+quit"

	// waitDelay bounds how long Invoke waits for output pipes after the
	// process was killed on cancellation.
	waitDelay = 10 * time.Second
)

// Args returns the SteamCMD arguments that download one workshop item.
func Args(appID int, modID string) []string {
	return []string{
		loginDirective,
		fmt.Sprintf("%s %d %s", downloadDirective, appID, modID),
		quitDirective,
	}
}

// Result is the terminal status of one SteamCMD process.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports whether SteamCMD exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// LaunchError means the SteamCMD process could not be started at all.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Runner starts SteamCMD processes. It holds no per-call state and is safe
// for concurrent use.
type Runner struct {
	appID int
}

// NewRunner creates a Runner downloading items of the given app.
func NewRunner(appID int) *Runner {
	return &Runner{appID: appID}
}

// AppID returns the workshop app id used in the download directive.
func (r *Runner) AppID() int {
	return r.appID
}

// Invoke runs SteamCMD for one mod and waits for it to exit.
//
// A non-zero exit status is not an error: it is reported through the
// returned Result with stderr captured. Errors are returned only when the
// process could not be started (*LaunchError) or ctx was cancelled, in which
// case the process is killed.
func (r *Runner) Invoke(ctx context.Context, toolPath string, mod model.Mod) (*Result, error) {
	cmd := exec.CommandContext(ctx, toolPath, Args(r.appID, mod.ID)...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: toolPath, Err: err}
	}

	err := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("steamcmd for mod %s interrupted: %w", mod.ID, ctxErr)
	}

	res := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("waiting for steamcmd: %w", err)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	return res, nil
}

// CommandLine renders the command Invoke would run, for display only.
func (r *Runner) CommandLine(toolPath string, mod model.Mod) string {
	line := strconv.Quote(toolPath)
	for _, arg := range Args(r.appID, mod.ID) {
		line += " " + strconv.Quote(arg)
	}
	return line
}
