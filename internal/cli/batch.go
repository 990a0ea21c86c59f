package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/stockbatch/internal/batch"
	"github.com/roach88/stockbatch/internal/config"
)

// batchIDFile names the artifact tagging every outcome of one batch
// invocation.
const batchIDFile = "batch.id"

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Script     string
	SkipSample bool
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <project.yml>",
		Short: "Sample, partition, and submit the full campaign",
		Long: `Run the whole submission path: generate the sample table, split the
baseline and upgrade workload into shuffled jobs, persist each job's unit
list, submit the job array, and chain the dependent post-processing job.

Job descriptors are written before the first submission, so a crash in
between leaves the partition reconstructable from the output directory.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "stockbatch.sh", "wrapper script handed to the scheduler")
	cmd.Flags().BoolVar(&opts.SkipSample, "skip-sampling", false, "reuse an existing sample table")

	return cmd
}

func runBatch(cmd *cobra.Command, opts *BatchOptions, projectFile string) error {
	cfg, err := config.Load(projectFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}
	if err := os.MkdirAll(cfg.OutputDirectory, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create output directory", err)
	}

	if !opts.SkipSample {
		if _, err := runSampling(cmd, cfg, 0, 0); err != nil {
			return err
		}
	}

	batchID := uuid.NewString()
	idPath := filepath.Join(cfg.OutputDirectory, batchIDFile)
	if err := os.WriteFile(idPath, []byte(batchID+"\n"), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write batch id", err)
	}

	sched := &batch.PBSScheduler{
		OutputDir:   cfg.OutputDirectory,
		ProjectFile: cfg.Path,
		Script:      opts.Script,
	}
	jobID, err := batch.SubmitBatch(cmd.Context(), sched, batch.SubmitOptions{
		OutputDir:     cfg.OutputDirectory,
		NDatapoints:   cfg.Baseline.NDatapoints,
		NUpgrades:     len(cfg.Upgrades),
		RequestedJobs: cfg.HPC.NJobs,
		Resources:     resourcesFromConfig(cfg),
	})
	if err != nil {
		return WrapExitError(ExitFailure, "batch submission failed", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "submitted job array %s (batch %s)\n", jobID, batchID)
	return nil
}

// resourcesFromConfig maps the project's hpc section onto a ResourceSpec.
func resourcesFromConfig(cfg *config.Config) batch.ResourceSpec {
	return batch.ResourceSpec{
		Queue:         cfg.HPC.Queue,
		NodeType:      cfg.HPC.NodeType,
		Allocation:    cfg.HPC.Allocation,
		MinutesPerSim: cfg.HPC.MinutesPerSim,
	}
}

// readBatchID recovers the current batch id from the output directory,
// falling back to "adhoc" for runs started outside the batch command.
func readBatchID(outputDir string) string {
	data, err := os.ReadFile(filepath.Join(outputDir, batchIDFile))
	if err != nil {
		return "adhoc"
	}
	return strings.TrimSpace(string(data))
}
