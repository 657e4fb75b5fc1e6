package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version 构建时通过 -ldflags "-X cashflow/cmd.Version=..." 注入
var Version = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "记账系统 %s\n", Version)
		},
	}
}
