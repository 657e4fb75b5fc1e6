package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cashflow/config"
	"cashflow/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// NewRootCmd 创建根命令，未指定子命令时启动服务
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cashflow",
		Short: "个人记账系统",
		Long: `cashflow: 记录一次性与周期性收支的记账服务。

周期条目按查询窗口展开，并按类别汇总收入、支出与结余。`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "外部配置文件路径（可选）")

	serve := serveCmd()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(migrateCmd())
	root.AddCommand(versionCmd())
	return root
}

// Execute 执行根命令，收到中断信号时取消上下文
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig 加载配置（内置配置 + 可选的外部配置覆盖）并初始化日志
func initConfig(cmd *cobra.Command, _ []string) error {
	// version 不依赖配置
	if cmd.Name() == "version" {
		return nil
	}

	loaded, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	cfg = loaded

	logger.Setup(cfg.Log, cfg.Server.Mode)
	config.PrintConfig()
	return nil
}
