package commands

import (
	"context"
	"io"
	"time"

	"recyclebin/pkg/render"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recycle bin statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(cmd.Context(), cmd.OutOrStdout())
	},
}

func runStats(ctx context.Context, out io.Writer) error {
	if err := requireApp(); err != nil {
		return err
	}
	st, err := RB.Bin.Stats(ctx)
	if err != nil {
		return err
	}
	render.PrintStats(out, st, time.Now())
	return nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
