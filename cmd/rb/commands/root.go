package commands

import (
	"context"
	"fmt"
	"os"

	"recyclebin/pkg/app"
	"recyclebin/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// 全局应用实例，供子命令使用
	RB *app.App
)

var rootCmd = &cobra.Command{
	Use:   "rb",
	Short: "rb: a recycle bin for the command line",
	Long: `rb moves files and directories into a recycle bin instead of deleting them,
so they can be listed, searched, restored, or permanently removed later.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		RB, err = app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to open recycle bin: %w", err)
		}
		return nil
	},
}

// Execute 是入口。
// RunE 出错时 cobra 不会调用 PersistentPostRunE，所以在这里关闭 App。
func Execute() (err error) {
	defer func() {
		if cerr := RB.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	// 1. 默认值与环境变量 (RB_BIN_DIR, RB_MAX_SIZE_MB, RB_RETENTION_DAYS)
	config.SetDefaults(viper.GetViper())

	// 2. 定义 --bin-dir 参数，并绑定到 Viper
	// 优先级: flag > 环境变量 > 回收站 config 文件 > 默认值
	rootCmd.PersistentFlags().String("bin-dir", "", "recycle bin directory (default is $HOME/.recycle_bin)")
	if err := viper.BindPFlag(config.KeyBinDir, rootCmd.PersistentFlags().Lookup("bin-dir")); err != nil {
		fmt.Println("Failed to bind flag:", err)
		os.Exit(1)
	}
}

// requireApp 保证 PersistentPreRunE 已经组装好 App
func requireApp() error {
	if RB == nil {
		return fmt.Errorf("app not initialized")
	}
	return nil
}
