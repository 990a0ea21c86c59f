package batch

import (
	"context"
	"errors"
	"fmt"
)

// ResourceSpec carries the scheduler-facing knobs for a submission. Walltime
// is derived from job size by the scheduler implementation, not set here.
type ResourceSpec struct {
	Queue         string
	NodeType      string
	Allocation    string
	MinutesPerSim int

	// UnitsPerJob sizes the walltime estimate for array submissions.
	UnitsPerJob int
}

// Scheduler is the boundary to the external batch system. Submissions are
// fire-and-forget: the call blocks only until the scheduler hands back a
// submission identifier, and execution plus dependency handling happen out
// of process. There is no cancellation path here; aborting a run is done
// with the scheduler's own commands.
type Scheduler interface {
	// SubmitArray submits a job array covering taskSpec, either a
	// contiguous "first-last" range or a comma-joined list of task numbers
	// for sparse restarts. Returns the scheduler's job identifier.
	SubmitArray(ctx context.Context, taskSpec string, res ResourceSpec) (string, error)

	// SubmitDependent submits the post-processing job, released only after
	// every task of afterJobID's array reports success.
	SubmitDependent(ctx context.Context, afterJobID string, res ResourceSpec) (string, error)
}

// SubmitError is a failed scheduler submission with the scheduler's own
// diagnostic output attached. Submissions are not retried.
type SubmitError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("scheduler submission failed: %s: %v\n%s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("scheduler submission failed: %s: %v", e.Command, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// IsSubmitError reports whether err is a SubmitError.
// Uses errors.As to handle wrapped errors.
func IsSubmitError(err error) bool {
	var se *SubmitError
	return errors.As(err, &se)
}
