package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// coresPerNodeType maps scheduler node features to usable cores, for the
// walltime estimate.
var coresPerNodeType = map[string]int{
	"16core":  16,
	"64GB":    24,
	"256GB":   16,
	"24core":  24,
	"haswell": 24,
}

// PBSScheduler submits job arrays with qsub. Each task re-invokes this
// binary through a wrapper script, with the project file and role passed in
// the environment.
type PBSScheduler struct {
	// OutputDir receives the scheduler's job.out-N log artifacts.
	OutputDir string

	// ProjectFile is exported to tasks as PROJECTFILE.
	ProjectFile string

	// Script is the wrapper script handed to qsub.
	Script string
}

var _ Scheduler = (*PBSScheduler)(nil)

// walltimeSeconds estimates the array task walltime: units run
// coresPerNode-wide, minutesPerSim each. Unknown node types fall back to a
// single core and so get the most generous estimate.
func walltimeSeconds(res ResourceSpec) int {
	cores := coresPerNodeType[res.NodeType]
	if cores == 0 {
		cores = 1
	}
	rounds := (res.UnitsPerJob + cores - 1) / cores
	return rounds * res.MinutesPerSim * 60
}

// SubmitArray queues the simulation job array over taskSpec.
func (s *PBSScheduler) SubmitArray(ctx context.Context, taskSpec string, res ResourceSpec) (string, error) {
	args := []string{
		"-v", "PROJECTFILE",
		"-q", res.Queue,
		"-A", res.Allocation,
		"-l", fmt.Sprintf("feature=%s", res.NodeType),
		"-l", fmt.Sprintf("walltime=%d", walltimeSeconds(res)),
		"-N", "buildstock",
		"-t", taskSpec,
		"-o", filepath.Join(s.OutputDir, "job.out"),
		s.Script,
	}
	return s.qsub(ctx, args, nil)
}

// SubmitDependent queues the post-processing job, held until the whole
// array identified by afterJobID succeeds.
func (s *PBSScheduler) SubmitDependent(ctx context.Context, afterJobID string, res ResourceSpec) (string, error) {
	args := []string{
		"-v", "PROJECTFILE,POSTPROCESS",
		"-W", fmt.Sprintf("depend=afterokarray:%s", afterJobID),
		"-q", res.Queue,
		"-A", res.Allocation,
		"-l", "feature=256GB",
		"-l", "walltime=1:30:00",
		"-N", "buildstock_post",
		"-o", filepath.Join(s.OutputDir, "postprocessing.out"),
		s.Script,
	}
	return s.qsub(ctx, args, []string{"POSTPROCESS=1"})
}

func (s *PBSScheduler) qsub(ctx context.Context, args, extraEnv []string) (string, error) {
	cmd := exec.CommandContext(ctx, "qsub", args...)
	cmd.Env = append(os.Environ(), "PROJECTFILE="+s.ProjectFile)
	cmd.Env = append(cmd.Env, extraEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &SubmitError{
			Command: "qsub " + strings.Join(args, " "),
			Stderr:  stderr.String(),
			Err:     err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}
