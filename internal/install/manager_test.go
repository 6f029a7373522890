package install

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/handiism/rimrust/internal/gate"
	"github.com/handiism/rimrust/internal/model"
	"github.com/handiism/rimrust/internal/steamcmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"
)

type call struct {
	start, end time.Time
}

// fakeInvoker stands in for SteamCMD and records how many invocations run
// at the same time.
type fakeInvoker struct {
	behave func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error)

	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32

	mu    sync.Mutex
	spans map[string]call
}

func newFakeInvoker(behave func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error)) *fakeInvoker {
	return &fakeInvoker{behave: behave, spans: make(map[string]call)}
}

func (f *fakeInvoker) Invoke(ctx context.Context, toolPath string, mod model.Mod) (*steamcmd.Result, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	start := time.Now()
	defer func() {
		f.inFlight.Add(-1)
		f.mu.Lock()
		f.spans[mod.ID] = call{start: start, end: time.Now()}
		f.mu.Unlock()
	}()

	return f.behave(ctx, mod)
}

func (f *fakeInvoker) span(id string) call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spans[id]
}

func succeed(context.Context, model.Mod) (*steamcmd.Result, error) {
	return &steamcmd.Result{}, nil
}

func sleepFor(d time.Duration) func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error) {
	return func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error) {
		select {
		case <-time.After(d):
			return &steamcmd.Result{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// countingGate is a Gate that counts every acquire and release it sees.
type countingGate struct {
	inner    gate.Gate
	acquires atomic.Int32
	releases atomic.Int32
}

func (c *countingGate) Acquire(ctx context.Context) (gate.Permit, error) {
	p, err := c.inner.Acquire(ctx)
	if err == nil {
		c.acquires.Add(1)
	}
	return p, err
}

func (c *countingGate) Release(p gate.Permit) {
	c.releases.Add(1)
	c.inner.Release(p)
}

func (c *countingGate) Capacity() int {
	return c.inner.Capacity()
}

func countingFactory(out **countingGate) GateFactory {
	return func(capacity int) (gate.Gate, error) {
		inner, err := gate.NewSemaphore(capacity)
		if err != nil {
			return nil, err
		}
		*out = &countingGate{inner: inner}
		return *out, nil
	}
}

func TestInstallAll_SingleModSucceeds(t *testing.T) {
	inv := newFakeInvoker(succeed)
	mods := []model.Mod{{ID: "1", Name: "Alpha"}}

	report, err := NewManager(inv).InstallAll(context.Background(), mods, "/opt/steamcmd.sh", 2)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)

	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Succeeded())
	assert.Equal(t, mods[0], report.Outcomes[0].Mod)
	assert.NotEmpty(t, report.RunID)
}

func TestInstallAll_FailureIsSerializedAndReported(t *testing.T) {
	inv := newFakeInvoker(func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error) {
		time.Sleep(10 * time.Millisecond)
		if mod.ID == "2" {
			return &steamcmd.Result{ExitCode: 1, Stderr: []byte("not found\n")}, nil
		}
		return &steamcmd.Result{}, nil
	})
	mods := []model.Mod{{ID: "1", Name: "Alpha"}, {ID: "2", Name: "Beta"}}

	report, err := NewManager(inv).InstallAll(context.Background(), mods, "steamcmd", 1)
	require.Error(t, err)

	var agg *AggregateError
	require.True(t, errors.As(err, &agg))
	require.Len(t, agg.Failures, 1)
	assert.Equal(t, "Beta", agg.Failures[0].Mod.Name)
	assert.Equal(t, "not found", agg.Failures[0].Diagnostic)
	assert.Equal(t, model.FailureProcess, agg.Failures[0].Kind)
	assert.Contains(t, err.Error(), "Beta")
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, map[string]string{"2": "not found"}, agg.Reasons())

	alpha := report.Outcomes[0]
	beta := report.Outcomes[1]
	assert.True(t, alpha.OK())
	assert.False(t, beta.OK())
	assert.Equal(t, 1, beta.ExitCode)

	// With one slot the two runs cannot overlap, whichever went first.
	a, b := inv.span("1"), inv.span("2")
	if a.start.Before(b.start) {
		assert.False(t, b.start.Before(a.end), "Beta started before Alpha finished")
		assert.False(t, beta.StartedAt.Before(alpha.FinishedAt))
	} else {
		assert.False(t, a.start.Before(b.end), "Alpha started before Beta finished")
		assert.False(t, alpha.StartedAt.Before(beta.FinishedAt))
	}
	assert.Equal(t, int32(1), inv.peak.Load())
	assert.Equal(t, 1, report.Gate.Peak)
}

func TestInstallAll_ConcurrencyCapWithVariableDurations(t *testing.T) {
	durations := []time.Duration{30, 5, 20, 10, 15}
	inv := newFakeInvoker(func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error) {
		var i int
		fmt.Sscanf(mod.ID, "%d", &i)
		time.Sleep(durations[i] * time.Millisecond)
		return &steamcmd.Result{}, nil
	})

	var mods []model.Mod
	for i := range durations {
		mods = append(mods, model.Mod{ID: fmt.Sprint(i), Name: fmt.Sprintf("Mod %d", i)})
	}

	report, err := NewManager(inv).InstallAll(context.Background(), mods, "steamcmd", 2)
	require.NoError(t, err)

	assert.LessOrEqual(t, inv.peak.Load(), int32(2))
	assert.LessOrEqual(t, report.Gate.Peak, 2)
	assert.Equal(t, int32(5), inv.calls.Load())
	assert.True(t, report.Gate.Balanced())
}

func TestInstallAll_LaunchErrorDoesNotStopSiblings(t *testing.T) {
	inv := newFakeInvoker(func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error) {
		if mod.ID == "bad" {
			return nil, &steamcmd.LaunchError{Path: "/missing/steamcmd", Err: errors.New("no such file or directory")}
		}
		time.Sleep(5 * time.Millisecond)
		return &steamcmd.Result{}, nil
	})
	mods := []model.Mod{{ID: "bad", Name: "Broken"}, {ID: "a"}, {ID: "b"}, {ID: "c"}}

	report, err := NewManager(inv).InstallAll(context.Background(), mods, "/missing/steamcmd", 2)
	require.Error(t, err)

	assert.Equal(t, 3, report.Succeeded())
	assert.Equal(t, model.FailureLaunch, report.Outcomes[0].Kind)
	assert.Contains(t, report.Outcomes[0].Diagnostic, "/missing/steamcmd")
	assert.Equal(t, int32(4), inv.calls.Load())
}

func TestInstallAll_RealRunnerLaunchError(t *testing.T) {
	mods := []model.Mod{{ID: "1", Name: "Alpha"}, {ID: "2", Name: "Beta"}}
	runner := steamcmd.NewRunner(steamcmd.RimWorldAppID)

	report, err := NewManager(runner).InstallAll(context.Background(), mods, "/definitely/not/steamcmd", 2)
	require.Error(t, err)
	require.Len(t, report.Outcomes, 2)
	for _, o := range report.Outcomes {
		assert.Equal(t, model.FailureLaunch, o.Kind)
	}
	assert.True(t, report.Gate.Balanced())
}

func TestInstallAll_PanicReleasesPermit(t *testing.T) {
	inv := newFakeInvoker(func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error) {
		if mod.ID == "boom" {
			panic("invoker exploded")
		}
		return &steamcmd.Result{}, nil
	})
	mods := []model.Mod{{ID: "boom"}, {ID: "1"}, {ID: "2"}}

	var cg *countingGate
	report, err := NewManager(inv, WithGateFactory(countingFactory(&cg))).
		InstallAll(context.Background(), mods, "steamcmd", 1)
	require.Error(t, err)

	assert.Equal(t, model.FailurePanic, report.Outcomes[0].Kind)
	assert.Contains(t, report.Outcomes[0].Diagnostic, "invoker exploded")
	assert.Equal(t, 2, report.Succeeded())
	assert.Equal(t, int32(3), cg.acquires.Load())
	assert.Equal(t, cg.acquires.Load(), cg.releases.Load())
}

func TestInstallAll_NonZeroExitWithoutStderr(t *testing.T) {
	inv := newFakeInvoker(func(context.Context, model.Mod) (*steamcmd.Result, error) {
		return &steamcmd.Result{ExitCode: 8}, nil
	})

	report, err := NewManager(inv).InstallAll(context.Background(), []model.Mod{{ID: "1"}}, "steamcmd", 1)
	require.Error(t, err)
	assert.Equal(t, "steamcmd exited with status 8", report.Outcomes[0].Diagnostic)
}

func TestInstallAll_InvalidConcurrency(t *testing.T) {
	inv := newFakeInvoker(succeed)

	for _, c := range []int{0, -3} {
		report, err := NewManager(inv).InstallAll(context.Background(), []model.Mod{{ID: "1"}}, "steamcmd", c)
		assert.Nil(t, report)
		assert.ErrorIs(t, err, ErrInvalidConcurrency)
	}
	assert.Equal(t, int32(0), inv.calls.Load())
}

func TestInstallAll_Empty(t *testing.T) {
	report, err := NewManager(newFakeInvoker(succeed)).InstallAll(context.Background(), nil, "steamcmd", 2)
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.True(t, report.OK())
}

func TestInstallAll_CancelledRunStillAccountsForEveryMod(t *testing.T) {
	inv := newFakeInvoker(sleepFor(time.Second))
	mods := []model.Mod{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	report, err := NewManager(inv).InstallAll(ctx, mods, "steamcmd", 2)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)

	require.Len(t, report.Outcomes, 4)
	for _, o := range report.Outcomes {
		assert.Equal(t, model.FailureCancelled, o.Kind, "mod %s", o.Mod.ID)
	}
	assert.True(t, report.Gate.Balanced())
	assert.LessOrEqual(t, inv.calls.Load(), int32(2))
}

func TestInstallAll_ProgressAndCounters(t *testing.T) {
	inv := newFakeInvoker(func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error) {
		if mod.ID == "x" {
			return &steamcmd.Result{ExitCode: 1, Stderr: []byte("nope")}, nil
		}
		return &steamcmd.Result{}, nil
	})

	var mu sync.Mutex
	var completions []model.Outcome
	manager := NewManager(inv, WithProgress(func(e ProgressEvent) {
		if e.Outcome == nil {
			return
		}
		mu.Lock()
		completions = append(completions, *e.Outcome)
		mu.Unlock()
	}))

	mods := []model.Mod{{ID: "1"}, {ID: "x"}, {ID: "2"}}
	_, err := manager.InstallAll(context.Background(), mods, "steamcmd", 3)
	require.Error(t, err)

	assert.Len(t, completions, 3)
	completed, failed, total := manager.GetProgress()
	assert.Equal(t, int32(3), completed)
	assert.Equal(t, int32(1), failed)
	assert.Equal(t, int32(3), total)
}

func TestInstallAll_LogsLifecycle(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	inv := newFakeInvoker(func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error) {
		if mod.ID == "2" {
			return &steamcmd.Result{ExitCode: 1, Stderr: []byte("not found")}, nil
		}
		return &steamcmd.Result{Stdout: []byte("Success. Downloaded item")}, nil
	})

	mods := []model.Mod{{ID: "1", Name: "Alpha"}, {ID: "2", Name: "Beta"}}
	_, err := NewManager(inv, WithLogger(zap.New(core))).InstallAll(context.Background(), mods, "steamcmd", 2)
	require.Error(t, err)

	assert.Equal(t, 1, logs.FilterMessage("install run started").Len())
	assert.Equal(t, 2, logs.FilterMessage("installing mod").Len())
	assert.Equal(t, 1, logs.FilterMessage("mod installed").Len())
	assert.Equal(t, 1, logs.FilterMessage("steamcmd output").Len())
	assert.Equal(t, 1, logs.FilterMessage("install run finished").Len())

	failures := logs.FilterMessage("mod install failed").All()
	require.Len(t, failures, 1)
	fields := failures[0].ContextMap()
	assert.Equal(t, "Beta", fields["mod_name"])
	assert.Equal(t, "not found", fields["diagnostic"])
	assert.NotEmpty(t, fields["run_id"])
}

func TestReport_First(t *testing.T) {
	now := time.Now()
	r := &Report{Outcomes: []model.Outcome{
		model.Succeeded(model.Mod{ID: "1"}, now, now),
		model.Failed(model.Mod{ID: "2"}, model.FailureProcess, "first", 1, now, now),
		model.Failed(model.Mod{ID: "3"}, model.FailureLaunch, "second", -1, now, now),
	}}

	first, ok := r.First()
	require.True(t, ok)
	assert.Equal(t, "first", first.Diagnostic)

	var modErr *ModError
	require.True(t, errors.As(r.Err(), &modErr))
	assert.Equal(t, "2", modErr.Mod.ID)
}

func TestAggregateError_ReasonsJoinsDuplicates(t *testing.T) {
	now := time.Now()
	agg := &AggregateError{Total: 2, Failures: []model.Outcome{
		model.Failed(model.Mod{ID: "1"}, model.FailureProcess, "a", 1, now, now),
		model.Failed(model.Mod{ID: "1"}, model.FailureProcess, "b", 1, now, now),
	}}
	assert.Equal(t, map[string]string{"1": "a\nb"}, agg.Reasons())
}

func TestInstallAll_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "mods")
		capacity := rapid.IntRange(1, 4).Draw(t, "concurrency")

		failing := make(map[string]bool)
		var mods []model.Mod
		for i := 0; i < n; i++ {
			id := fmt.Sprint(i)
			mods = append(mods, model.Mod{ID: id})
			failing[id] = rapid.Bool().Draw(t, "fail-"+id)
		}

		inv := newFakeInvoker(func(ctx context.Context, mod model.Mod) (*steamcmd.Result, error) {
			time.Sleep(time.Duration(len(mod.ID)) * 500 * time.Microsecond)
			if failing[mod.ID] {
				return &steamcmd.Result{ExitCode: 1, Stderr: []byte("failed " + mod.ID)}, nil
			}
			return &steamcmd.Result{}, nil
		})

		var cg *countingGate
		report, err := NewManager(inv, WithGateFactory(countingFactory(&cg))).
			InstallAll(context.Background(), mods, "steamcmd", capacity)

		if int(inv.peak.Load()) > capacity {
			t.Fatalf("peak concurrency %d exceeds cap %d", inv.peak.Load(), capacity)
		}
		if len(report.Outcomes) != n {
			t.Fatalf("got %d outcomes for %d mods", len(report.Outcomes), n)
		}

		wantFailures := 0
		for i, o := range report.Outcomes {
			if o.Mod != mods[i] {
				t.Fatalf("outcome %d is for %v, want %v", i, o.Mod, mods[i])
			}
			if o.OK() == failing[o.Mod.ID] {
				t.Fatalf("mod %s: ok=%v but failing=%v", o.Mod.ID, o.OK(), failing[o.Mod.ID])
			}
			if failing[o.Mod.ID] {
				wantFailures++
			}
		}

		if (wantFailures == 0) != (err == nil) {
			t.Fatalf("failures=%d but err=%v", wantFailures, err)
		}
		if cg.acquires.Load() != cg.releases.Load() || int(cg.acquires.Load()) != n {
			t.Fatalf("acquires=%d releases=%d mods=%d", cg.acquires.Load(), cg.releases.Load(), n)
		}
	})
}
