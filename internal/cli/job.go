package cli

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/stockbatch/internal/batch"
	"github.com/roach88/stockbatch/internal/config"
	"github.com/roach88/stockbatch/internal/store"
)

// JobOptions holds flags for the job command.
type JobOptions struct {
	*RootOptions
	Task    int
	Workers int
	Image   string
}

// NewJobCommand creates the job command, the entrypoint each array task
// re-invokes on its compute node.
func NewJobCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JobOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "job <project.yml>",
		Short: "Execute one array task's persisted unit list",
		Long: `Run the simulations of one job descriptor on the local node.

The task number comes from --task or, when absent, the scheduler's
PBS_ARRAYID environment variable. Units whose simulation directory already
carries a finished or failed marker are skipped, so a task restarted after
a walltime kill only does the remaining work.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Task, "task", 0, "array task number (default: $PBS_ARRAYID)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "unit worker count (0 = CPUs)")
	cmd.Flags().StringVar(&opts.Image, "image", "", "simulation engine image (default: <output>/openstudio.simg)")

	return cmd
}

func runJob(cmd *cobra.Command, opts *JobOptions, projectFile string) error {
	cfg, err := config.Load(projectFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}

	task := opts.Task
	if task == 0 {
		task, _ = strconv.Atoi(os.Getenv("PBS_ARRAYID"))
	}
	if task <= 0 {
		return NewExitError(ExitCommandError, "no array task number: pass --task or set PBS_ARRAYID")
	}

	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open outcome registry", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing outcome registry", "error", closeErr)
		}
	}()

	image := opts.Image
	if image == "" {
		image = cfg.OutputDirectory + "/openstudio.simg"
	}

	runner := &batch.JobRunner{
		OutputDir: cfg.OutputDirectory,
		Executor: &batch.ContainerExecutor{
			Image:      image,
			ResultsDir: cfg.ResultsDir(),
			Binds: []string{
				cfg.CharacteristicsDir() + ":/lib/housing_characteristics",
				cfg.SampleTablePath() + ":/lib/housing_characteristics/buildstock.csv",
			},
			Command: []string{"openstudio", "run", "-w", "in.osw"},
		},
		Store:   st,
		BatchID: readBatchID(cfg.OutputDirectory),
		Workers: opts.Workers,
	}
	if err := runner.RunJob(cmd.Context(), task); err != nil {
		return WrapExitError(ExitFailure, "job execution failed", err)
	}
	return nil
}
