package install

import (
	"fmt"
	"strings"
	"time"

	"github.com/handiism/rimrust/internal/gate"
	"github.com/handiism/rimrust/internal/model"
)

// Report is the aggregate result of one InstallAll call.
type Report struct {
	// RunID correlates the run's log lines.
	RunID string

	// Outcomes has one entry per input mod, in input order.
	Outcomes []model.Outcome

	// Gate is the permit accounting of the run.
	Gate gate.Stats

	Elapsed time.Duration
}

// OK reports whether every mod installed.
func (r *Report) OK() bool {
	return len(r.Failures()) == 0
}

// Succeeded returns the number of installed mods.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in input order.
func (r *Report) Failures() []model.Outcome {
	var failed []model.Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// First returns the first failure in input order.
func (r *Report) First() (model.Outcome, bool) {
	for _, o := range r.Outcomes {
		if !o.OK() {
			return o, true
		}
	}
	return model.Outcome{}, false
}

// Err returns nil when every mod installed, otherwise an *AggregateError.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	return &AggregateError{Total: len(r.Outcomes), Failures: failures}
}

// ModError is the failure of a single mod.
type ModError struct {
	Mod        model.Mod
	Kind       model.FailureKind
	Diagnostic string
}

func (e *ModError) Error() string {
	return fmt.Sprintf("%s: %s failure: %s", e.Mod, e.Kind, e.Diagnostic)
}

// AggregateError lists every mod that failed in a run.
type AggregateError struct {
	Total    int
	Failures []model.Outcome
}

func (e *AggregateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mod installation failed: %d of %d mods failed", len(e.Failures), e.Total)
	for _, f := range e.Failures {
		sb.WriteString("; ")
		sb.WriteString(toModError(f).Error())
	}
	return sb.String()
}

// Unwrap exposes one *ModError per failure to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = toModError(f)
	}
	return errs
}

// Reasons maps mod id to failure diagnostic. Diagnostics of duplicate ids
// are joined with newlines.
func (e *AggregateError) Reasons() map[string]string {
	reasons := make(map[string]string, len(e.Failures))
	for _, f := range e.Failures {
		if prev, ok := reasons[f.Mod.ID]; ok {
			reasons[f.Mod.ID] = prev + "\n" + f.Diagnostic
			continue
		}
		reasons[f.Mod.ID] = f.Diagnostic
	}
	return reasons
}

func toModError(o model.Outcome) *ModError {
	return &ModError{Mod: o.Mod, Kind: o.Kind, Diagnostic: o.Diagnostic}
}
