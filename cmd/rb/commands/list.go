package commands

import (
	"context"
	"io"

	"recyclebin/pkg/render"

	"github.com/spf13/cobra"
)

var listDetailed bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List items in the recycle bin",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd.Context(), cmd.OutOrStdout(), listDetailed)
	},
}

// 只读命令不加锁
func runList(ctx context.Context, out io.Writer, detailed bool) error {
	if err := requireApp(); err != nil {
		return err
	}
	records, sum, err := RB.Bin.List(ctx)
	if err != nil {
		return err
	}
	render.PrintList(out, records, sum, detailed)
	return nil
}

func init() {
	listCmd.Flags().BoolVarP(&listDetailed, "detailed", "l", false, "show every recorded field")
	rootCmd.AddCommand(listCmd)
}
