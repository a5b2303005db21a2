package commands

import (
	"context"
	"io"

	"recyclebin/pkg/render"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop records whose payload is missing",
	Long:  `Check every record against the payload area and drop records whose payload no longer exists.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPurge(cmd.Context(), cmd.OutOrStdout())
	},
}

func runPurge(ctx context.Context, out io.Writer) error {
	if err := requireApp(); err != nil {
		return err
	}

	return RB.Bin.Locked(ctx, func(ctx context.Context) error {
		report, err := RB.Bin.PurgeCorrupted(ctx)
		if err != nil {
			return err
		}
		render.PrintPurge(out, report)
		return nil
	})
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
