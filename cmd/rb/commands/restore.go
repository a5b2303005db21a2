package commands

import (
	"context"
	"io"

	"recyclebin/pkg/prompt"
	"recyclebin/pkg/recyclebin"
	"recyclebin/pkg/render"

	"github.com/spf13/cobra"
)

var onConflict string

var restoreCmd = &cobra.Command{
	Use:   "restore <id|name>",
	Short: "Restore an item to its original location",
	Long: `Restore an item by ID, or by original file name (the first match wins).
When the original location is occupied, --on-conflict decides what happens:
prompt (ask, the default), overwrite, rename, or cancel.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := prompt.NewTerminal().ForPolicy(onConflict)
		if err != nil {
			return err
		}
		return runRestore(cmd.Context(), cmd.OutOrStdout(), args[0], resolver)
	},
}

func runRestore(ctx context.Context, out io.Writer, key string, resolver recyclebin.ConflictResolver) error {
	if err := requireApp(); err != nil {
		return err
	}

	return RB.Bin.Locked(ctx, func(ctx context.Context) error {
		res, err := RB.Bin.Recall(ctx, key, resolver)
		if err != nil {
			return err
		}
		render.PrintRecall(out, res)
		return nil
	})
}

func init() {
	restoreCmd.Flags().StringVar(&onConflict, "on-conflict", "prompt", "prompt|overwrite|rename|cancel")
	rootCmd.AddCommand(restoreCmd)
}
