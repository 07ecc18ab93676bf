package cli

import (
	"github.com/aryankumar/batchrun/internal/executor"
	"github.com/aryankumar/batchrun/internal/payload"
	"github.com/spf13/cobra"
)

// newWorkerCmd creates the hidden command the processes strategy spawns.
// It speaks the framed worker protocol on stdin/stdout, so nothing else may
// write to stdout.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "worker",
		Short:             "Serve work items from a parent batchrun process",
		Hidden:            true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipInit,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executor.ServeWorker(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), payload.Builtins())
		},
	}
}
