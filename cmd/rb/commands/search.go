package commands

import (
	"context"
	"io"

	"recyclebin/pkg/recyclebin"
	"recyclebin/pkg/render"

	"github.com/spf13/cobra"
)

var searchIgnoreCase bool

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search items by name or original path",
	Long: `Search the recycle bin. A plain pattern matches any name or path containing it.
Patterns with wildcards (* ? [ ] { }) must match the whole name or the whole path; ** crosses directories.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd.Context(), cmd.OutOrStdout(), args[0], searchIgnoreCase)
	},
}

func runSearch(ctx context.Context, out io.Writer, pattern string, ignoreCase bool) error {
	if err := requireApp(); err != nil {
		return err
	}
	hits, sum, err := RB.Bin.Search(ctx, pattern, recyclebin.SearchOptions{IgnoreCase: ignoreCase})
	if err != nil {
		return err
	}
	render.PrintSearch(out, pattern, hits, sum)
	return nil
}

func init() {
	searchCmd.Flags().BoolVarP(&searchIgnoreCase, "ignore-case", "i", false, "case-insensitive match")
	rootCmd.AddCommand(searchCmd)
}
