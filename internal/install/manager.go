package install

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/handiism/rimrust/internal/gate"
	"github.com/handiism/rimrust/internal/model"
	"github.com/handiism/rimrust/internal/steamcmd"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidConcurrency is returned when InstallAll gets a concurrency below 1.
var ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents an install progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel

	// Outcome is set when a mod reached its terminal state.
	Outcome *model.Outcome
}

// Invoker runs SteamCMD for one mod. steamcmd.Runner implements it.
type Invoker interface {
	Invoke(ctx context.Context, toolPath string, mod model.Mod) (*steamcmd.Result, error)
}

// GateFactory builds the concurrency gate for one run.
type GateFactory func(capacity int) (gate.Gate, error)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithProgress sets the progress callback. It is called from task
// goroutines and must be safe for concurrent use.
func WithProgress(onProgress func(ProgressEvent)) Option {
	return func(m *Manager) {
		m.onProgress = onProgress
	}
}

// WithGateFactory replaces the semaphore gate.
func WithGateFactory(factory GateFactory) Option {
	return func(m *Manager) {
		if factory != nil {
			m.newGate = factory
		}
	}
}

// Manager coordinates mod installs.
type Manager struct {
	invoker    Invoker
	newGate    GateFactory
	logger     *zap.Logger
	onProgress func(ProgressEvent)

	totalMods     atomic.Int32
	completedMods atomic.Int32
	failedMods    atomic.Int32
}

// NewManager creates a new install Manager.
func NewManager(invoker Invoker, opts ...Option) *Manager {
	m := &Manager{
		invoker: invoker,
		newGate: func(capacity int) (gate.Gate, error) {
			return gate.NewSemaphore(capacity)
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InstallAll installs every mod with at most concurrency SteamCMD processes
// running at once.
//
// It always waits for every mod to finish, whatever the failures, and
// returns a report with one outcome per mod. The error is nil when every mod
// installed and an *AggregateError otherwise. Cancelling ctx kills running
// SteamCMD processes and fails mods still waiting for a slot; the report is
// still complete.
func (m *Manager) InstallAll(ctx context.Context, mods []model.Mod, toolPath string, concurrency int) (*Report, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, concurrency)
	}

	g, err := m.newGate(concurrency)
	if err != nil {
		return nil, fmt.Errorf("creating gate: %w", err)
	}
	counted := gate.NewInstrumented(g)

	runID := uuid.NewString()
	logger := m.logger.With(zap.String("run_id", runID))

	m.totalMods.Store(int32(len(mods)))
	m.completedMods.Store(0)
	m.failedMods.Store(0)

	logger.Info("install run started",
		zap.Int("mods", len(mods)),
		zap.Int("concurrency", concurrency),
		zap.String("steamcmd", toolPath))
	started := time.Now()

	// One slot per task; each goroutine writes only its own index.
	outcomes := make([]model.Outcome, len(mods))

	var eg errgroup.Group
	for i, mod := range mods {
		eg.Go(func() error {
			outcomes[i] = m.installMod(ctx, counted, logger, toolPath, mod)
			return nil
		})
	}
	_ = eg.Wait()

	report := &Report{
		RunID:    runID,
		Outcomes: outcomes,
		Gate:     counted.Stats(),
		Elapsed:  time.Since(started),
	}

	failed := len(report.Failures())
	logger.Info("install run finished",
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", failed),
		zap.Int("peak_concurrency", report.Gate.Peak),
		zap.Duration("elapsed", report.Elapsed))

	if failed == 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Installed %d mod(s)", len(mods)), Level: LevelSuccess})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("%d of %d mod(s) failed", failed, len(mods)), Level: LevelWarning})
	}

	return report, report.Err()
}

// GetProgress returns the progress of the current or last run.
func (m *Manager) GetProgress() (completed, failed, total int32) {
	return m.completedMods.Load(), m.failedMods.Load(), m.totalMods.Load()
}

// installMod takes one mod through Pending -> Admitted -> Invoking ->
// Succeeded|Failed. The permit is released before the outcome is reported.
func (m *Manager) installMod(ctx context.Context, g gate.Gate, logger *zap.Logger, toolPath string, mod model.Mod) model.Outcome {
	logger = logger.With(zap.String("mod_id", mod.ID), zap.String("mod_name", mod.Name))

	permit, err := g.Acquire(ctx)
	if err != nil {
		out := model.Failed(mod, model.FailureCancelled, fmt.Sprintf("not started: %v", err), -1, time.Time{}, time.Now())
		return m.finish(logger, out)
	}

	startedAt := time.Now()
	logger.Info("installing mod", zap.Uint64("permit", permit.Seq))
	m.progress(ProgressEvent{Message: fmt.Sprintf("Installing mod: %s", mod), Level: LevelVerbose})

	res, finishedAt, err := m.invoke(ctx, g, permit, toolPath, mod)
	out := classify(mod, res, err, startedAt, finishedAt)

	var pe *panicError
	if errors.As(err, &pe) {
		logger.Error("steamcmd invoker panicked", zap.ByteString("stack", pe.stack))
	}
	if res != nil && len(res.Stdout) > 0 {
		logger.Debug("steamcmd output", zap.ByteString("stdout", res.Stdout))
	}

	return m.finish(logger, out)
}

// invoke runs the invoker while holding p. The permit is released on every
// path, including a panicking invoker, and only after finished is taken.
func (m *Manager) invoke(ctx context.Context, g gate.Gate, p gate.Permit, toolPath string, mod model.Mod) (res *steamcmd.Result, finished time.Time, err error) {
	defer g.Release(p)
	defer func() {
		finished = time.Now()
		if r := recover(); r != nil {
			res = nil
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	res, err = m.invoker.Invoke(ctx, toolPath, mod)
	return res, finished, err
}

func (m *Manager) finish(logger *zap.Logger, out model.Outcome) model.Outcome {
	m.completedMods.Add(1)

	if out.OK() {
		logger.Info("mod installed", zap.Duration("duration", out.Duration()))
		m.progress(ProgressEvent{
			Message: fmt.Sprintf("Successfully downloaded mod: %s", out.Mod),
			Level:   LevelSuccess,
			Outcome: &out,
		})
		return out
	}

	m.failedMods.Add(1)
	logger.Error("mod install failed",
		zap.Stringer("kind", out.Kind),
		zap.Int("exit_code", out.ExitCode),
		zap.String("diagnostic", out.Diagnostic),
		zap.Duration("duration", out.Duration()))
	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Failed to download mod: %s: %s", out.Mod, out.Diagnostic),
		Level:   LevelError,
		Outcome: &out,
	})
	return out
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

// classify turns an invocation result into an outcome.
func classify(mod model.Mod, res *steamcmd.Result, err error, started, finished time.Time) model.Outcome {
	if err != nil {
		var launchErr *steamcmd.LaunchError
		var pe *panicError
		switch {
		case errors.As(err, &launchErr):
			return model.Failed(mod, model.FailureLaunch, err.Error(), -1, started, finished)
		case errors.As(err, &pe):
			return model.Failed(mod, model.FailurePanic, err.Error(), -1, started, finished)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return model.Failed(mod, model.FailureCancelled, err.Error(), -1, started, finished)
		default:
			return model.Failed(mod, model.FailureProcess, err.Error(), -1, started, finished)
		}
	}

	if res == nil {
		return model.Failed(mod, model.FailureProcess, "steamcmd returned no result", -1, started, finished)
	}

	if res.Success() {
		return model.Succeeded(mod, started, finished)
	}

	diagnostic := strings.TrimSpace(string(res.Stderr))
	if diagnostic == "" {
		diagnostic = fmt.Sprintf("steamcmd exited with status %d", res.ExitCode)
	}
	return model.Failed(mod, model.FailureProcess, diagnostic, res.ExitCode, started, finished)
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("steamcmd invoker panicked: %v", e.value)
}
