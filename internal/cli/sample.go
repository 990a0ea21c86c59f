package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/stockbatch/internal/config"
	"github.com/roach88/stockbatch/internal/sampler"
	"github.com/roach88/stockbatch/internal/tsv"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	Workers int
	Skip    int
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample <project.yml>",
		Short: "Generate the sample table from the characteristic TSVs",
		Long: `Run conditional sampling over the project's characteristic tables.

Attributes are ordered so each is sampled after its dependencies, a Sobol
point set drives option selection, and the accepted rows land in
buildstock.csv under the output directory. The point set is deterministic
for a fixed table set and sample count, so reruns reproduce the same table.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "sampling worker count (0 = 2x CPUs)")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "Sobol sequence offset")

	return cmd
}

func runSample(cmd *cobra.Command, opts *SampleOptions, projectFile string) error {
	cfg, err := config.Load(projectFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}
	if err := os.MkdirAll(cfg.OutputDirectory, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create output directory", err)
	}

	path, err := runSampling(cmd, cfg, opts.Workers, opts.Skip)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// runSampling is shared by the sample and batch commands.
func runSampling(cmd *cobra.Command, cfg *config.Config, workers, skip int) (string, error) {
	slog.Info("loading characteristic tables", "dir", cfg.CharacteristicsDir())
	tables, err := tsv.LoadDir(cfg.CharacteristicsDir())
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to load characteristic tables", err)
	}

	s := sampler.NewConditionalSampler(tables, cfg.SampleTablePath(), slog.Default())
	s.Workers = workers
	s.Skip = skip

	path, err := s.RunSampling(cmd.Context(), cfg.Baseline.NSamples)
	if err != nil {
		return "", WrapExitError(ExitFailure, "sampling failed", err)
	}
	slog.Info("sample table written", "path", path)
	return path, nil
}
