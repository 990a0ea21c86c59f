package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/stockbatch/internal/batch"
	"github.com/roach88/stockbatch/internal/config"
)

// ResumeOptions holds flags for the resume command.
type ResumeOptions struct {
	*RootOptions
	Script string
}

// NewResumeCommand creates the resume command.
func NewResumeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResumeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resume <project.yml>",
		Short: "Resubmit array tasks killed for exceeding their walltime",
		Long: `Scan the output directory of a prior batch and pick up where it left off.

Scheduler logs showing a walltime kill mark their task for resubmission and
are archived to .bak, so running resume again finds nothing new. Marked
tasks rerun their original persisted unit lists; within each task, units
that already finished are skipped by their markers.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResume(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "stockbatch.sh", "wrapper script handed to the scheduler")

	return cmd
}

func runResume(cmd *cobra.Command, opts *ResumeOptions, projectFile string) error {
	cfg, err := config.Load(projectFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}

	sched := &batch.PBSScheduler{
		OutputDir:   cfg.OutputDirectory,
		ProjectFile: cfg.Path,
		Script:      opts.Script,
	}
	jobID, err := batch.SubmitRestarts(cmd.Context(), sched, cfg.OutputDirectory, resourcesFromConfig(cfg), nil)
	if err != nil {
		return WrapExitError(ExitFailure, "restart submission failed", err)
	}
	if jobID == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to restart")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "resubmitted as job array %s\n", jobID)
	return nil
}
