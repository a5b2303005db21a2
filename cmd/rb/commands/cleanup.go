package commands

import (
	"context"
	"io"

	"recyclebin/pkg/render"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Permanently delete items older than the retention period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCleanup(cmd.Context(), cmd.OutOrStdout())
	},
}

func runCleanup(ctx context.Context, out io.Writer) error {
	if err := requireApp(); err != nil {
		return err
	}

	return RB.Bin.Locked(ctx, func(ctx context.Context) error {
		report, err := RB.Bin.Cleanup(ctx)
		render.PrintCleanup(out, report)
		return err
	})
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
