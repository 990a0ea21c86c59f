package cli

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/stockbatch/internal/config"
	"github.com/roach88/stockbatch/internal/store"
)

// NewPostprocessCommand creates the postprocess command, run by the
// dependent job after the whole array succeeds.
func NewPostprocessCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "postprocess <project.yml>",
		Short:         "Summarize the recorded outcomes of the current batch",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostprocess(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runPostprocess(cmd *cobra.Command, rootOpts *RootOptions, projectFile string) error {
	cfg, err := config.Load(projectFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load project", err)
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

	batchID := readBatchID(cfg.OutputDirectory)
	summary, err := st.Summarize(cmd.Context(), batchID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to summarize outcomes", err)
	}

	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	if rootOpts.Format == "json" {
		return out.Success(summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d units\n", batchID, summary.Total)
	statuses := make([]string, 0, len(summary.ByStatus))
	for status := range summary.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %d\n", status, summary.ByStatus[status])
	}
	return nil
}
