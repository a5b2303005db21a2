package commands

import (
	"context"
	"fmt"
	"io"

	"recyclebin/pkg/render"

	"github.com/spf13/cobra"
)

var quotaNoCleanup bool

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show usage against the configured size limit",
	Long: `Show how much of the configured limit is in use.
When the limit is exceeded, expired items are cleaned up automatically unless --no-cleanup is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuota(cmd.Context(), cmd.OutOrStdout(), !quotaNoCleanup)
	},
}

func runQuota(ctx context.Context, out io.Writer, autoCleanup bool) error {
	if err := requireApp(); err != nil {
		return err
	}

	// 1. 只读检查，不加锁
	q, err := RB.Bin.Quota(ctx)
	if err != nil {
		return err
	}
	render.PrintQuota(out, q)
	if !q.Exceeded || !autoCleanup {
		return nil
	}

	// 2. 超限时加锁执行过期清理
	fmt.Fprintln(out, "\nRunning auto-cleanup...")
	return RB.Bin.Locked(ctx, func(ctx context.Context) error {
		report, err := RB.Bin.Cleanup(ctx)
		render.PrintCleanup(out, report)
		if err != nil {
			return err
		}

		after, err := RB.Bin.Quota(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		render.PrintQuota(out, after)
		return nil
	})
}

func init() {
	quotaCmd.Flags().BoolVar(&quotaNoCleanup, "no-cleanup", false, "only report, never clean up")
	rootCmd.AddCommand(quotaCmd)
}
