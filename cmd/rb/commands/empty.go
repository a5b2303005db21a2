package commands

import (
	"context"
	"io"

	"recyclebin/pkg/prompt"
	"recyclebin/pkg/recyclebin"
	"recyclebin/pkg/render"
	"recyclebin/pkg/types"

	"github.com/spf13/cobra"
)

var emptyForce bool

var emptyCmd = &cobra.Command{
	Use:   "empty [id]",
	Short: "Permanently delete one item, or everything",
	Long: `Without an argument, permanently delete every item in the recycle bin.
With an ID, permanently delete only that item. Asks for confirmation unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := recyclebin.EmptyOptions{Force: emptyForce, Confirm: prompt.NewTerminal()}
		if len(args) == 1 {
			opts.ID = types.ID(args[0])
		}
		return runEmpty(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func runEmpty(ctx context.Context, out io.Writer, opts recyclebin.EmptyOptions) error {
	if err := requireApp(); err != nil {
		return err
	}

	return RB.Bin.Locked(ctx, func(ctx context.Context) error {
		res, err := RB.Bin.Empty(ctx, opts)
		render.PrintEmpty(out, res)
		return err
	})
}

func init() {
	emptyCmd.Flags().BoolVarP(&emptyForce, "force", "f", false, "skip confirmation")
	rootCmd.AddCommand(emptyCmd)
}
