package commands

import (
	"context"
	"io"

	"recyclebin/pkg/render"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [paths...]",
	Aliases: []string{"rm", "del"},
	Short:   "Move files or directories into the recycle bin",
	Long: `Move each path into the recycle bin. Directories are moved as a whole.
A failure on one path does not stop the others; the command fails only when every path fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

func runDelete(ctx context.Context, out, errOut io.Writer, paths []string) error {
	if err := requireApp(); err != nil {
		return err
	}

	return RB.Bin.Locked(ctx, func(ctx context.Context) error {
		report, err := RB.Bin.Capture(ctx, paths)
		render.PrintCapture(out, errOut, report)
		return err
	})
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
