package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags rootFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "subrename",
		Short:         "按文件名相似度为视频匹配字幕并重命名",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "配置文件路径（默认查找 ./subrename.toml 与用户配置目录）")
	pf.StringVar(&flags.logLevel, "log-level", "", "日志级别：debug/info/warn/error")
	pf.StringVar(&flags.stateDir, "state-dir", "", "批次文件所在目录")
	pf.BoolVar(&flags.json, "json", false, "输出 JSON（stdout 不是终端时默认启用）")

	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newRenameCommand(ctx))
	rootCmd.AddCommand(newBatchCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
