package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the recycle bin",
	Long:  `Create the recycle bin directory layout, or report where an existing one lives.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.OutOrStdout())
	},
}

func runInit(out io.Writer) error {
	if err := requireApp(); err != nil {
		return err
	}
	cfg := RB.Config

	// 目录结构已经由 app.NewApp 创建
	if RB.Created {
		fmt.Fprintf(out, "Initialized recycle bin in %s\n", cfg.BinDir)
	} else {
		fmt.Fprintf(out, "Recycle bin already exists in %s\n", cfg.BinDir)
	}
	fmt.Fprintf(out, "  max size:  %d MB\n", cfg.MaxSizeMB)
	fmt.Fprintf(out, "  retention: %d days\n", cfg.RetentionDays)
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
