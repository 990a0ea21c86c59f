package batch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// SubmitOptions parametrize a full batch submission.
type SubmitOptions struct {
	OutputDir     string
	NDatapoints   int
	NUpgrades     int
	RequestedJobs int
	Resources     ResourceSpec

	// Rng drives the workload shuffle. Nil means time-seeded.
	Rng *rand.Rand

	Logger *slog.Logger
}

// SubmitBatch partitions the campaign workload, persists every job
// descriptor, submits the job array, and chains the dependent
// post-processing job. Returns the array's scheduler job id.
//
// Descriptors hit disk before the first qsub, so a crash between
// partitioning and submission leaves a reconstructable partition on disk.
func SubmitBatch(ctx context.Context, sched Scheduler, opts SubmitOptions) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := opts.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	units := BuildWorkload(opts.NDatapoints, opts.NUpgrades)
	perJob := UnitsPerJob(len(units), opts.RequestedJobs, MinUnitsPerJob)

	jobs, err := Partition(units, perJob, rng)
	if err != nil {
		return "", err
	}
	for _, d := range jobs {
		logger.Info("queueing job", "job_num", d.JobNum, "units", len(d.Batch))
	}
	if err := WriteDescriptors(opts.OutputDir, jobs); err != nil {
		return "", err
	}

	res := opts.Resources
	res.UnitsPerJob = perJob

	taskSpec := fmt.Sprintf("1-%d", len(jobs))
	jobID, err := sched.SubmitArray(ctx, taskSpec, res)
	if err != nil {
		return "", err
	}
	logger.Info("job array submitted", "job_id", jobID, "tasks", taskSpec)

	if _, err := sched.SubmitDependent(ctx, jobID, res); err != nil {
		return "", err
	}
	return jobID, nil
}

// SubmitRestarts scans a prior run's output directory and resubmits exactly
// the timed-out array tasks, with the same dependent post-processing chain.
// A scan finding nothing to restart submits nothing and returns an empty
// job id.
func SubmitRestarts(ctx context.Context, sched Scheduler, outputDir string, res ResourceSpec, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	plan, err := ScanForRestarts(outputDir)
	if err != nil {
		return "", err
	}
	if len(plan.Tasks) == 0 {
		logger.Info("no timed-out tasks found, nothing to restart")
		return "", nil
	}

	res.UnitsPerJob = plan.UnitsPerJob

	jobID, err := sched.SubmitArray(ctx, plan.TaskSpec(), res)
	if err != nil {
		return "", err
	}
	logger.Info("restart submitted", "job_id", jobID, "tasks", plan.TaskSpec())

	if _, err := sched.SubmitDependent(ctx, jobID, res); err != nil {
		return "", err
	}
	return jobID, nil
}
