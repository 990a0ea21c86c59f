package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Status classifies the outcome of one simulation unit.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed-out"

	// StatusUnknown means no artifact was found for the unit: it has not
	// run, or its task died before writing anything.
	StatusUnknown Status = "unknown"
)

// Outcome is the per-unit result handed back by an Executor.
type Outcome struct {
	Unit   SimulationUnit
	Status Status

	// Skipped is set when a prior marker short-circuited execution.
	Skipped bool
}

// Executor runs one simulation unit. Implementations must be idempotent: a
// working directory already holding a finished or failed marker is returned
// as-is without re-execution, and a stale partial directory is cleared and
// the unit redone from scratch.
type Executor interface {
	Execute(ctx context.Context, unit SimulationUnit) (Outcome, error)
}

// Completion and failure markers written into <simdir>/run by the
// simulation workflow.
const (
	finishedMarker = "finished.job"
	failedMarker   = "failed.job"
)

// prepareSimDir enforces the idempotency contract for simDir. If a marker
// exists the recorded status is returned with ok=true and the directory is
// left untouched. Otherwise any stale partial directory is removed and a
// fresh one created.
func prepareSimDir(simDir string) (Status, bool, error) {
	if _, err := os.Stat(simDir); err == nil {
		if _, err := os.Stat(filepath.Join(simDir, "run", finishedMarker)); err == nil {
			return StatusCompleted, true, nil
		}
		if _, err := os.Stat(filepath.Join(simDir, "run", failedMarker)); err == nil {
			return StatusFailed, true, nil
		}
		if err := os.RemoveAll(simDir); err != nil {
			return "", false, fmt.Errorf("clear stale simulation directory: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(simDir, "run"), 0o755); err != nil {
		return "", false, fmt.Errorf("create simulation directory: %w", err)
	}
	return "", false, nil
}

// ContainerExecutor runs units inside a container image via an exec-style
// runtime (singularity). One instance serves all units of a job; per-unit
// state lives entirely in the unit's simulation directory.
type ContainerExecutor struct {
	// Runtime is the container runtime binary, "singularity" by default.
	Runtime string

	// Image is the path of the simulation engine image.
	Image string

	// ResultsDir is where per-unit simulation directories are created.
	ResultsDir string

	// Binds are extra dir mounts handed to the runtime as src:dst pairs.
	Binds []string

	// Command is the in-container simulation command.
	Command []string

	Logger *slog.Logger
}

var _ Executor = (*ContainerExecutor)(nil)

// Execute runs one unit, honoring existing markers. The unit's exit status
// is recorded as a marker in its run directory so a rerun after a scheduler
// kill skips everything that already finished.
func (e *ContainerExecutor) Execute(ctx context.Context, unit SimulationUnit) (Outcome, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	simID := unit.SimID()
	simDir := filepath.Join(e.ResultsDir, simID)

	status, done, err := prepareSimDir(simDir)
	if err != nil {
		return Outcome{Unit: unit}, err
	}
	if done {
		logger.Debug("simulation already recorded, skipping", "sim_id", simID, "status", status)
		return Outcome{Unit: unit, Status: status, Skipped: true}, nil
	}

	runtime := e.Runtime
	if runtime == "" {
		runtime = "singularity"
	}
	args := []string{"exec", "--contain", "--pwd", "/var/simdata", "-B", simDir + ":/var/simdata"}
	for _, bind := range e.Binds {
		args = append(args, "-B", bind)
	}
	args = append(args, e.Image)
	args = append(args, e.Command...)

	logFile, err := os.Create(filepath.Join(simDir, "simulation_output.log"))
	if err != nil {
		return Outcome{Unit: unit}, fmt.Errorf("create simulation log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, runtime, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	logger.Debug("running simulation", "sim_id", simID)
	runErr := cmd.Run()

	marker := finishedMarker
	status = StatusCompleted
	if runErr != nil {
		marker = failedMarker
		status = StatusFailed
		logger.Warn("simulation failed", "sim_id", simID, "error", runErr)
	}
	if err := os.WriteFile(filepath.Join(simDir, "run", marker), nil, 0o644); err != nil {
		return Outcome{Unit: unit}, fmt.Errorf("write %s marker: %w", marker, err)
	}
	return Outcome{Unit: unit, Status: status}, nil
}
