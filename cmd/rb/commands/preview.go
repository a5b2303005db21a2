package commands

import (
	"context"
	"io"

	"recyclebin/pkg/render"
	"recyclebin/pkg/types"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <id>",
	Short: "Show details and a content preview of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd.Context(), cmd.OutOrStdout(), types.ID(args[0]))
	},
}

func runPreview(ctx context.Context, out io.Writer, id types.ID) error {
	if err := requireApp(); err != nil {
		return err
	}
	p, err := RB.Bin.Preview(ctx, id)
	if err != nil {
		return err
	}
	render.PrintPreview(out, p)
	return nil
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
